package services

import (
	"strings"

	"kgview/domain/core/entities"
	"kgview/domain/core/valueobjects"
)

// PhraseSet is a lower-cased set of key phrases
type PhraseSet map[string]struct{}

// NewPhraseSet builds a set from phrases, ignoring blanks
func NewPhraseSet(phrases ...string) PhraseSet {
	set := make(PhraseSet, len(phrases))
	for _, p := range phrases {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			set[p] = struct{}{}
		}
	}
	return set
}

// Jaccard returns |A∩B| / |A∪B|, or 0 when both sets are empty
func Jaccard(a, b PhraseSet) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0.0
	}
	if len(a) > len(b) {
		a, b = b, a
	}

	intersection := 0
	for p := range a {
		if _, ok := b[p]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}

// SimilarityCalculator compares nodes by their phrase sets
type SimilarityCalculator interface {
	// PhraseSet returns the phrases used to compare node with others
	PhraseSet(node *entities.Node) PhraseSet

	// Calculate returns the Jaccard similarity of two nodes (0.0 to 1.0)
	Calculate(node1, node2 *entities.Node) float64
}

// DefaultSimilarityCalculator builds phrase sets from key phrases plus phrases
// extracted from the node's text
type DefaultSimilarityCalculator struct {
	analyzer ContentAnalyzer
}

// NewDefaultSimilarityCalculator creates a new similarity calculator
func NewDefaultSimilarityCalculator(analyzer ContentAnalyzer) *DefaultSimilarityCalculator {
	if analyzer == nil {
		analyzer = NewDefaultContentAnalyzer()
	}
	return &DefaultSimilarityCalculator{analyzer: analyzer}
}

// PhraseSet unions the node's key phrases with phrases extracted from its
// text. Documents contribute label, content and summary; other categories
// contribute label and summary, or label and content when there is no summary.
func (sc *DefaultSimilarityCalculator) PhraseSet(node *entities.Node) PhraseSet {
	if node == nil {
		return PhraseSet{}
	}

	set := NewPhraseSet(node.KeyPhrases()...)
	for _, p := range sc.analyzer.ExtractKeyPhrases(textUnion(node)) {
		set[p] = struct{}{}
	}
	return set
}

// Calculate calculates similarity between two nodes
func (sc *DefaultSimilarityCalculator) Calculate(node1, node2 *entities.Node) float64 {
	if node1 == nil || node2 == nil {
		return 0.0
	}
	return Jaccard(sc.PhraseSet(node1), sc.PhraseSet(node2))
}

func textUnion(node *entities.Node) string {
	switch {
	case node.Category() == valueobjects.CategoryDocument:
		return joinText(node.Label(), node.Content(), node.Summary())
	case strings.TrimSpace(node.Summary()) != "":
		return joinText(node.Label(), node.Summary())
	default:
		return joinText(node.Label(), node.Content())
	}
}
