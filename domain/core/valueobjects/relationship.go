package valueobjects

import "strings"

// RelationshipType tags the kind of relationship an edge expresses
type RelationshipType string

const (
	RelationshipIsA       RelationshipType = "is_a"
	RelationshipUses      RelationshipType = "uses"
	RelationshipMentions  RelationshipType = "mentions"
	RelationshipIncludes  RelationshipType = "includes"
	RelationshipSimilarTo RelationshipType = "similar_to"
	RelationshipRelatedTo RelationshipType = "related_to"
)

// NewRelationshipType normalises an explicit tag from the knowledge store to
// lower snake case. Empty tags become related_to.
func NewRelationshipType(raw string) RelationshipType {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if normalized == "" {
		return RelationshipRelatedTo
	}
	normalized = strings.Join(strings.FieldsFunc(normalized, func(r rune) bool {
		return r == ' ' || r == '-' || r == '_'
	}), "_")
	return RelationshipType(normalized)
}

// String returns the string representation of the relationship type
func (r RelationshipType) String() string {
	return string(r)
}

// Label renders the type for display, e.g. "similar to"
func (r RelationshipType) Label() string {
	return strings.ReplaceAll(string(r), "_", " ")
}
