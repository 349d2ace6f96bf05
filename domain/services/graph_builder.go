package services

import (
	"errors"
	"strings"

	"kgview/domain/config"
	"kgview/domain/core/aggregates"
	"kgview/domain/core/entities"
	"kgview/domain/core/valueobjects"
	"kgview/domain/snapshot"
)

// IngestReport counts what ingestion accepted and silently dropped
type IngestReport struct {
	NodesReceived  int  `json:"nodesReceived"`
	NodesAccepted  int  `json:"nodesAccepted"`
	NodesMissingID int  `json:"nodesMissingId"`
	DuplicateNodes int  `json:"duplicateNodes"`
	EdgesReceived  int  `json:"edgesReceived"`
	EdgesAccepted  int  `json:"edgesAccepted"`
	DanglingEdges  int  `json:"danglingEdges"`
	SelfLoops      int  `json:"selfLoops"`
	DuplicateEdges int  `json:"duplicateEdges"`
	Truncated      bool `json:"truncated"`
	UsedFallback   bool `json:"usedFallback"`
}

// GraphBuilder turns a raw snapshot into an analysed Graph
type GraphBuilder struct {
	analyzer ContentAnalyzer
	config   *config.DomainConfig
}

// NewGraphBuilder creates a builder
func NewGraphBuilder(analyzer ContentAnalyzer, cfg *config.DomainConfig) *GraphBuilder {
	if analyzer == nil {
		analyzer = NewDefaultContentAnalyzer()
	}
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &GraphBuilder{analyzer: analyzer, config: cfg}
}

// Build ingests snap. A nil or empty snapshot, or one where no node survives
// validation, is replaced by the fallback sample.
func (b *GraphBuilder) Build(snap *snapshot.Snapshot) (*aggregates.Graph, IngestReport) {
	if !snap.IsEmpty() {
		graph, report := b.build(snap)
		if graph.NodeCount() > 0 {
			return graph, report
		}
	}

	graph, report := b.build(snapshot.FallbackSample())
	report.UsedFallback = true
	return graph, report
}

func (b *GraphBuilder) build(snap *snapshot.Snapshot) (*aggregates.Graph, IngestReport) {
	graph := aggregates.NewGraph()
	report := IngestReport{NodesReceived: len(snap.Nodes)}

	for _, raw := range snap.Nodes {
		if raw.ID.IsZero() {
			report.NodesMissingID++
			continue
		}
		if graph.HasNode(raw.ID) {
			report.DuplicateNodes++
			continue
		}
		if b.config.MaxNodesPerSnapshot > 0 && graph.NodeCount() >= b.config.MaxNodesPerSnapshot {
			report.Truncated = true
			break
		}

		node, err := entities.NewNode(b.analyze(raw))
		if err != nil {
			report.NodesMissingID++
			continue
		}
		if err := graph.AddNode(node); err != nil {
			report.DuplicateNodes++
			continue
		}
		report.NodesAccepted++
	}

	edges := snap.AllEdges()
	report.EdgesReceived = len(edges)
	for _, raw := range edges {
		if b.config.MaxEdgesPerSnapshot > 0 && graph.EdgeCount() >= b.config.MaxEdgesPerSnapshot {
			report.Truncated = true
			break
		}
		b.ingestEdge(graph, raw, &report)
	}

	return graph, report
}

func (b *GraphBuilder) ingestEdge(graph *aggregates.Graph, raw snapshot.RawEdge, report *IngestReport) {
	if raw.Source.IsZero() || raw.Target.IsZero() {
		report.DanglingEdges++
		return
	}
	if raw.Source.Equals(raw.Target) {
		report.SelfLoops++
		return
	}

	edge, err := entities.NewEdge(entities.EdgeSpec{
		SourceID:   raw.Source,
		TargetID:   raw.Target,
		Type:       valueobjects.NewRelationshipType(raw.Type),
		Strength:   raw.Strength,
		Confidence: raw.Confidence,
		Label:      strings.TrimSpace(raw.Label),
	})
	if err != nil {
		report.DanglingEdges++
		return
	}

	added, err := graph.ConnectNodes(edge)
	switch {
	case errors.Is(err, aggregates.ErrDanglingEdge):
		report.DanglingEdges++
	case errors.Is(err, aggregates.ErrSelfLoop):
		report.SelfLoops++
	case err != nil, !added:
		report.DuplicateEdges++
	default:
		report.EdgesAccepted++
	}
}

// analyze fills label, category and key phrases the store left out
func (b *GraphBuilder) analyze(raw snapshot.RawNode) entities.NodeSpec {
	body := joinText(raw.Content, raw.Summary)

	label := strings.TrimSpace(raw.Label)
	switch {
	case label != "":
		label = b.analyzer.SanitizeLabel(label)
	case body != "":
		label = b.analyzer.SanitizeLabel(body)
	default:
		label = b.analyzer.SanitizeLabel(raw.ID.String())
	}

	category, ok := valueobjects.ParseCategory(raw.Category)
	if !ok {
		category = b.analyzer.CategorizeContent(joinText(raw.Label, raw.Content, raw.Summary))
	}

	phrases := normalizePhrases(raw.KeyPhrases)
	if len(phrases) == 0 {
		phrases = b.analyzer.ExtractKeyPhrases(body)
	}

	return entities.NodeSpec{
		ID:         raw.ID,
		Label:      label,
		Category:   category,
		Importance: raw.Importance,
		Confidence: raw.Confidence,
		Recency:    raw.Recency,
		KeyPhrases: phrases,
		Content:    raw.Content,
		Summary:    raw.Summary,
		Position:   raw.Position(),
	}
}

// normalizePhrases lower-cases, trims and de-duplicates store phrases
func normalizePhrases(phrases []string) []string {
	seen := make(map[string]bool, len(phrases))
	out := make([]string, 0, len(phrases))
	for _, p := range phrases {
		p = strings.ToLower(strings.Join(strings.Fields(p), " "))
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

func joinText(parts ...string) string {
	nonEmpty := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, ". ")
}
