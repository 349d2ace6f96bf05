package services

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"kgview/domain/config"
	"kgview/domain/core/aggregates"
	"kgview/domain/core/entities"
	"kgview/domain/core/valueobjects"
	pkgerrors "kgview/pkg/errors"
)

// ErrGraphTooLarge is returned when a graph exceeds the pairwise inference
// ceiling and sampling is disabled
var ErrGraphTooLarge = errors.New("graph too large for pairwise relationship inference")

// Generated edge strength bounds
const (
	minGeneratedStrength   = 0.3
	maxGeneratedStrength   = 0.8
	minGeneratedConfidence = 0.3
)

// EdgeCandidate is an inferred relationship not yet stored in the graph
type EdgeCandidate struct {
	SourceID   valueobjects.NodeID
	TargetID   valueobjects.NodeID
	Type       valueobjects.RelationshipType
	Similarity float64
	Strength   float64
	Confidence float64
	Reason     string
}

// Key returns the unordered pair key of the candidate
func (c EdgeCandidate) Key() entities.PairKey {
	return entities.NewPairKey(c.SourceID, c.TargetID)
}

// ToEdge converts the candidate into a generated edge
func (c EdgeCandidate) ToEdge() (*entities.Edge, error) {
	strength, confidence := c.Strength, c.Confidence
	return entities.NewEdge(entities.EdgeSpec{
		SourceID:   c.SourceID,
		TargetID:   c.TargetID,
		Type:       c.Type,
		Strength:   &strength,
		Confidence: &confidence,
		Generated:  true,
	})
}

// InferenceConfig configures relationship inference
type InferenceConfig struct {
	SimilarityThreshold      float64 // Jaccard above this always admits a pair
	StrongSimilarity         float64 // same-category pairs above this are is_a
	CategoryGate             string
	CategoryFloor            float64 // deterministic gate: minimum Jaccard for same-category pairs
	CategoryAdmitProbability float64 // random gate: admission probability
	RandomSeed               int64
	MaxNodes                 int
	SampleLargeGraphs        bool
	MaxEdgesPerNode          int // 0 means unlimited
	PairBudget               int
}

// DefaultInferenceConfig returns the default inference configuration
func DefaultInferenceConfig() *InferenceConfig {
	return NewInferenceConfig(config.DefaultDomainConfig())
}

// NewInferenceConfig derives the inference settings from the domain config
func NewInferenceConfig(dc *config.DomainConfig) *InferenceConfig {
	if dc == nil {
		dc = config.DefaultDomainConfig()
	}
	return &InferenceConfig{
		SimilarityThreshold:      dc.SimilarityThreshold,
		StrongSimilarity:         dc.StrongSimilarity,
		CategoryGate:             dc.CategoryGate,
		CategoryFloor:            dc.CategoryFloor,
		CategoryAdmitProbability: dc.CategoryAdmitProbability,
		RandomSeed:               dc.RandomSeed,
		MaxNodes:                 dc.MaxInferenceNodes,
		SampleLargeGraphs:        dc.SampleLargeGraphs,
		MaxEdgesPerNode:          dc.MaxEdgesPerNode,
		PairBudget:               dc.PairBudget,
	}
}

// RelationshipInferencer manufactures edges the knowledge store did not record
type RelationshipInferencer interface {
	// Infer runs a full pass over every unconnected pair
	Infer(graph *aggregates.Graph) ([]EdgeCandidate, error)

	// NewCursor starts a pass that can be advanced in bounded chunks
	NewCursor(graph *aggregates.Graph) (*InferenceCursor, error)

	// Apply stores candidates as generated edges and returns how many were added
	Apply(graph *aggregates.Graph, candidates []EdgeCandidate) (int, error)

	// RankCandidates sorts candidates by relevance
	RankCandidates(candidates []EdgeCandidate) []EdgeCandidate

	// FilterCandidates enforces the per-node edge limit
	FilterCandidates(candidates []EdgeCandidate, maxPerNode int) []EdgeCandidate
}

// DefaultRelationshipInferencer infers relationships from phrase-set overlap
// and category rules. A full pass is O(n²) in node count, so graphs above
// MaxNodes are rejected or sampled.
type DefaultRelationshipInferencer struct {
	config     *InferenceConfig
	similarity SimilarityCalculator
}

// NewDefaultRelationshipInferencer creates a new inferencer
func NewDefaultRelationshipInferencer(
	cfg *InferenceConfig,
	similarity SimilarityCalculator,
) *DefaultRelationshipInferencer {
	if cfg == nil {
		cfg = DefaultInferenceConfig()
	}
	if similarity == nil {
		similarity = NewDefaultSimilarityCalculator(nil)
	}

	return &DefaultRelationshipInferencer{
		config:     cfg,
		similarity: similarity,
	}
}

// Config returns the active configuration
func (ri *DefaultRelationshipInferencer) Config() *InferenceConfig {
	return ri.config
}

// Infer evaluates every unordered pair of distinct, unconnected nodes
func (ri *DefaultRelationshipInferencer) Infer(graph *aggregates.Graph) ([]EdgeCandidate, error) {
	cursor, err := ri.NewCursor(graph)
	if err != nil {
		return nil, err
	}

	budget := ri.config.PairBudget
	if budget <= 0 {
		budget = math.MaxInt32
	}
	for !cursor.Next(budget) {
	}
	return cursor.Candidates(), nil
}

// NewCursor prepares a chunked pass over graph
func (ri *DefaultRelationshipInferencer) NewCursor(graph *aggregates.Graph) (*InferenceCursor, error) {
	if graph == nil {
		return nil, pkgerrors.NewValidationError("graph cannot be nil")
	}

	nodes := graph.Nodes()
	if ri.config.MaxNodes > 0 && len(nodes) > ri.config.MaxNodes {
		if !ri.config.SampleLargeGraphs {
			return nil, fmt.Errorf("%w: %d nodes, limit %d", ErrGraphTooLarge, len(nodes), ri.config.MaxNodes)
		}
		nodes = sampleNodes(nodes, ri.config.MaxNodes)
	}

	return &InferenceCursor{
		inferencer: ri,
		graph:      graph,
		nodes:      nodes,
		phrases:    make([]PhraseSet, len(nodes)),
		rng:        rand.New(rand.NewSource(ri.config.RandomSeed)),
		j:          1,
	}, nil
}

// Evaluate decides whether the pair a, b should be connected
func (ri *DefaultRelationshipInferencer) Evaluate(
	a, b *entities.Node,
	phrasesA, phrasesB PhraseSet,
	rng *rand.Rand,
) (EdgeCandidate, bool) {
	similarity := Jaccard(phrasesA, phrasesB)
	sameCategory := a.Category() == b.Category()
	_, allowed := crossRelationship(a.Category(), b.Category())

	admit := similarity > ri.config.SimilarityThreshold || allowed
	if !admit && sameCategory {
		admit = ri.passesCategoryGate(similarity, rng)
	}
	if !admit {
		return EdgeCandidate{}, false
	}

	relType := ri.ClassifyRelationship(a.Category(), b.Category(), similarity)
	return EdgeCandidate{
		SourceID:   a.ID(),
		TargetID:   b.ID(),
		Type:       relType,
		Similarity: similarity,
		Strength:   valueobjects.Clamp(2*similarity+0.2, minGeneratedStrength, maxGeneratedStrength),
		Confidence: math.Max(minGeneratedConfidence, similarity),
		Reason:     ri.generateReason(similarity, sameCategory, allowed),
	}, true
}

// ClassifyRelationship determines the relationship type for a pair
func (ri *DefaultRelationshipInferencer) ClassifyRelationship(
	a, b valueobjects.Category,
	similarity float64,
) valueobjects.RelationshipType {
	if a == b && similarity > ri.config.StrongSimilarity {
		return valueobjects.RelationshipIsA
	}
	if relType, ok := crossRelationship(a, b); ok {
		return relType
	}
	return valueobjects.RelationshipSimilarTo
}

// Apply stores candidates as generated edges. Pairs that gained an edge in the
// meantime collapse into the existing one.
func (ri *DefaultRelationshipInferencer) Apply(graph *aggregates.Graph, candidates []EdgeCandidate) (int, error) {
	if graph == nil {
		return 0, pkgerrors.NewValidationError("graph cannot be nil")
	}

	added := 0
	for _, candidate := range candidates {
		edge, err := candidate.ToEdge()
		if err != nil {
			return added, err
		}
		ok, err := graph.ConnectNodes(edge)
		if err != nil {
			// An endpoint was removed after the candidate was produced
			if errors.Is(err, aggregates.ErrDanglingEdge) {
				continue
			}
			return added, err
		}
		if ok {
			added++
		}
	}
	return added, nil
}

// RankCandidates sorts by similarity (highest first), then by type priority
func (ri *DefaultRelationshipInferencer) RankCandidates(candidates []EdgeCandidate) []EdgeCandidate {
	if len(candidates) <= 1 {
		return candidates
	}

	// Create a copy to avoid modifying the original
	ranked := make([]EdgeCandidate, len(candidates))
	copy(ranked, candidates)

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Similarity != ranked[j].Similarity {
			return ranked[i].Similarity > ranked[j].Similarity
		}
		return relationshipPriority(ranked[i].Type) > relationshipPriority(ranked[j].Type)
	})

	return ranked
}

// FilterCandidates keeps at most maxPerNode candidates touching any node.
// Candidates should be ranked first.
func (ri *DefaultRelationshipInferencer) FilterCandidates(candidates []EdgeCandidate, maxPerNode int) []EdgeCandidate {
	if maxPerNode <= 0 || len(candidates) == 0 {
		return candidates
	}

	filtered := make([]EdgeCandidate, 0, len(candidates))
	edgesPerNode := make(map[valueobjects.NodeID]int)

	for _, candidate := range candidates {
		if edgesPerNode[candidate.SourceID] >= maxPerNode || edgesPerNode[candidate.TargetID] >= maxPerNode {
			continue
		}
		filtered = append(filtered, candidate)
		edgesPerNode[candidate.SourceID]++
		edgesPerNode[candidate.TargetID]++
	}

	return filtered
}

func (ri *DefaultRelationshipInferencer) passesCategoryGate(similarity float64, rng *rand.Rand) bool {
	if ri.config.CategoryGate == config.GateRandom {
		return rng != nil && rng.Float64() < ri.config.CategoryAdmitProbability
	}
	return similarity >= ri.config.CategoryFloor
}

// generateReason creates a human-readable reason for the candidate
func (ri *DefaultRelationshipInferencer) generateReason(similarity float64, sameCategory, allowed bool) string {
	switch {
	case similarity >= 0.9:
		return "Very high content similarity"
	case similarity > ri.config.StrongSimilarity:
		return "Strong content relationship"
	case similarity > ri.config.SimilarityThreshold:
		return "Related content"
	case allowed:
		return "Complementary categories"
	case sameCategory:
		return "Shared category"
	default:
		return "Related content"
	}
}

// InferenceCursor walks the unordered pairs of a graph in bounded chunks so a
// pass can be spread across frames
type InferenceCursor struct {
	inferencer *DefaultRelationshipInferencer
	graph      *aggregates.Graph
	nodes      []*entities.Node
	phrases    []PhraseSet
	rng        *rand.Rand
	i, j       int
	evaluated  int
	candidates []EdgeCandidate
}

// Next evaluates up to budget pairs and reports whether the pass is complete
func (c *InferenceCursor) Next(budget int) bool {
	for visited := 0; visited < budget && !c.Done(); visited++ {
		a, b := c.nodes[c.i], c.nodes[c.j]
		if !c.graph.HasEdgeBetween(a.ID(), b.ID()) {
			if candidate, ok := c.inferencer.Evaluate(a, b, c.phraseSet(c.i), c.phraseSet(c.j), c.rng); ok {
				c.candidates = append(c.candidates, candidate)
			}
		}
		c.evaluated++
		c.advance()
	}
	return c.Done()
}

// Done reports whether every pair has been visited
func (c *InferenceCursor) Done() bool {
	return c.i >= len(c.nodes)-1
}

// Evaluated returns the number of pairs visited so far
func (c *InferenceCursor) Evaluated() int {
	return c.evaluated
}

// TotalPairs returns the number of pairs in the pass
func (c *InferenceCursor) TotalPairs() int {
	n := len(c.nodes)
	return n * (n - 1) / 2
}

// Candidates returns the ranked candidates found so far, filtered by the
// per-node limit
func (c *InferenceCursor) Candidates() []EdgeCandidate {
	ri := c.inferencer
	return ri.FilterCandidates(ri.RankCandidates(c.candidates), ri.config.MaxEdgesPerNode)
}

func (c *InferenceCursor) phraseSet(i int) PhraseSet {
	if c.phrases[i] == nil {
		c.phrases[i] = c.inferencer.similarity.PhraseSet(c.nodes[i])
	}
	return c.phrases[i]
}

func (c *InferenceCursor) advance() {
	c.j++
	if c.j >= len(c.nodes) {
		c.i++
		c.j = c.i + 1
	}
}

// crossRelationship reports the type for allow-listed category pairs
func crossRelationship(a, b valueobjects.Category) (valueobjects.RelationshipType, bool) {
	if b < a {
		a, b = b, a
	}
	switch {
	case a == valueobjects.CategoryAlgorithm && b == valueobjects.CategoryDataStructure:
		return valueobjects.RelationshipUses, true
	case a == valueobjects.CategoryConcept && b == valueobjects.CategoryDocument:
		return valueobjects.RelationshipMentions, true
	case a == valueobjects.CategoryConcept && b == valueobjects.CategoryEntity:
		return valueobjects.RelationshipIncludes, true
	}
	return "", false
}

// relationshipPriority returns priority value for relationship types (higher = more important)
func relationshipPriority(relType valueobjects.RelationshipType) int {
	switch relType {
	case valueobjects.RelationshipIsA:
		return 4
	case valueobjects.RelationshipUses:
		return 3
	case valueobjects.RelationshipIncludes, valueobjects.RelationshipMentions:
		return 2
	case valueobjects.RelationshipSimilarTo:
		return 1
	default:
		return 0
	}
}

// sampleNodes keeps every stride-th node so at most limit remain
func sampleNodes(nodes []*entities.Node, limit int) []*entities.Node {
	stride := (len(nodes) + limit - 1) / limit
	sampled := make([]*entities.Node, 0, limit)
	for i := 0; i < len(nodes) && len(sampled) < limit; i += stride {
		sampled = append(sampled, nodes[i])
	}
	return sampled
}
