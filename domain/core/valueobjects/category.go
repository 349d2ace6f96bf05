package valueobjects

import "strings"

// Category classifies what a node is about
type Category string

const (
	CategoryConcept       Category = "concept"
	CategoryEntity        Category = "entity"
	CategoryDocument      Category = "document"
	CategoryTopic         Category = "topic"
	CategoryAlgorithm     Category = "algorithm"
	CategoryDataStructure Category = "data_structure"
	CategoryMathematics   Category = "mathematics"
	CategorySystem        Category = "system"
	CategoryProgramming   Category = "programming"
	CategorySecurity      Category = "security"
	CategoryRelationship  Category = "relationship"
	CategoryQuery         Category = "query"
	CategoryPrinciple     Category = "principle"
)

// AllCategories lists the closed category enumeration in declaration order
func AllCategories() []Category {
	return []Category{
		CategoryConcept, CategoryEntity, CategoryDocument, CategoryTopic,
		CategoryAlgorithm, CategoryDataStructure, CategoryMathematics,
		CategorySystem, CategoryProgramming, CategorySecurity,
		CategoryRelationship, CategoryQuery, CategoryPrinciple,
	}
}

// IsValid checks if the category is part of the enumeration
func (c Category) IsValid() bool {
	for _, known := range AllCategories() {
		if c == known {
			return true
		}
	}
	return false
}

// String returns the string representation of the category
func (c Category) String() string {
	return string(c)
}

// ParseCategory normalises a raw tag. The second return value reports
// whether the tag was recognised; unknown tags map to concept.
func ParseCategory(raw string) (Category, bool) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.NewReplacer(" ", "_", "-", "_").Replace(normalized)
	switch normalized {
	case "datastructure", "data_structures":
		normalized = string(CategoryDataStructure)
	case "math", "maths":
		normalized = string(CategoryMathematics)
	case "docs", "doc":
		normalized = string(CategoryDocument)
	}
	c := Category(normalized)
	if !c.IsValid() {
		return CategoryConcept, false
	}
	return c, true
}
