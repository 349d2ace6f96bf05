package interaction

import (
	"fmt"
	"strings"

	"kgview/domain/core/aggregates"
	"kgview/domain/core/entities"
	"kgview/domain/core/valueobjects"
	pkgerrors "kgview/pkg/errors"
)

// StatisticKind names a clickable statistic
type StatisticKind string

const (
	StatDegree           StatisticKind = "degree"
	StatNeighbors        StatisticKind = "neighbors"
	StatIncoming         StatisticKind = "incoming"
	StatOutgoing         StatisticKind = "outgoing"
	StatCentrality       StatisticKind = "centrality"
	StatAvgStrength      StatisticKind = "avg_strength"
	StatRelationshipType StatisticKind = "relationship_type"
)

// ParseStatisticKind validates a statistic name
func ParseStatisticKind(raw string) (StatisticKind, error) {
	kind := StatisticKind(strings.ToLower(strings.TrimSpace(raw)))
	switch kind {
	case StatDegree, StatNeighbors, StatIncoming, StatOutgoing,
		StatCentrality, StatAvgStrength, StatRelationshipType:
		return kind, nil
	}
	return "", pkgerrors.NewValidationError(fmt.Sprintf("unknown statistic %q", raw))
}

// Emphasis is the rendering hint for a node or edge
type Emphasis string

const (
	EmphasisNormal      Emphasis = "normal"
	EmphasisHighlighted Emphasis = "highlighted"
	EmphasisDimmed      Emphasis = "dimmed"
)

// ErrNoSelection is returned when a statistic is clicked with nothing selected
var ErrNoSelection = pkgerrors.NewValidationError("no node selected")

// Highlight is the node and edge subset contributing to a clicked statistic
type Highlight struct {
	Kind             StatisticKind                 `json:"statistic"`
	RelationshipType valueobjects.RelationshipType `json:"relationshipType,omitempty"`
	Nodes            []valueobjects.NodeID         `json:"nodes"`
	Edges            []entities.PairKey            `json:"edges"`

	nodeSet map[valueobjects.NodeID]bool
	edgeSet map[entities.PairKey]bool
}

// HasNode reports whether id is part of the highlight
func (h *Highlight) HasNode(id valueobjects.NodeID) bool { return h.nodeSet[id] }

// HasEdge reports whether key is part of the highlight
func (h *Highlight) HasEdge(key entities.PairKey) bool { return h.edgeSet[key] }

func newHighlight(kind StatisticKind, relType valueobjects.RelationshipType, selected valueobjects.NodeID) *Highlight {
	h := &Highlight{
		Kind:             kind,
		RelationshipType: relType,
		Nodes:            []valueobjects.NodeID{},
		Edges:            []entities.PairKey{},
		nodeSet:          make(map[valueobjects.NodeID]bool),
		edgeSet:          make(map[entities.PairKey]bool),
	}
	h.addNode(selected)
	return h
}

func (h *Highlight) addNode(id valueobjects.NodeID) {
	if !h.nodeSet[id] {
		h.nodeSet[id] = true
		h.Nodes = append(h.Nodes, id)
	}
}

func (h *Highlight) addEdge(edge *entities.Edge, selected valueobjects.NodeID) {
	key := edge.Key()
	if !h.edgeSet[key] {
		h.edgeSet[key] = true
		h.Edges = append(h.Edges, key)
	}
	h.addNode(edge.Other(selected))
}

// Tracker holds the selection, hover and highlight state of one session.
// It is not safe for concurrent use.
type Tracker struct {
	selected  valueobjects.NodeID
	hovered   valueobjects.NodeID
	highlight *Highlight
}

// NewTracker creates an empty tracker
func NewTracker() *Tracker {
	return &Tracker{}
}

// Select makes id the selected node and returns its statistics. Selecting a
// different node clears any highlight.
func (t *Tracker) Select(graph *aggregates.Graph, id valueobjects.NodeID) (NodeStatistics, error) {
	stats, err := ComputeStatistics(graph, id)
	if err != nil {
		return NodeStatistics{}, err
	}
	if !t.selected.Equals(id) {
		t.highlight = nil
	}
	t.selected = id
	return stats, nil
}

// Selected returns the selected node, if any
func (t *Tracker) Selected() (valueobjects.NodeID, bool) {
	return t.selected, !t.selected.IsZero()
}

// Hover records the hovered node. An empty id clears it.
func (t *Tracker) Hover(id valueobjects.NodeID) {
	t.hovered = id
}

// Hovered returns the hovered node, if any
func (t *Tracker) Hovered() (valueobjects.NodeID, bool) {
	return t.hovered, !t.hovered.IsZero()
}

// ClickStatistic highlights the elements contributing to kind for the
// selected node. relType is required for StatRelationshipType.
func (t *Tracker) ClickStatistic(
	graph *aggregates.Graph,
	kind StatisticKind,
	relType valueobjects.RelationshipType,
) (*Highlight, error) {
	if t.selected.IsZero() {
		return nil, ErrNoSelection
	}
	if !graph.HasNode(t.selected) {
		t.ClearSelection()
		return nil, ErrNoSelection
	}
	if kind == StatRelationshipType && relType == "" {
		return nil, pkgerrors.NewValidationError("relationship type is required")
	}
	if kind != StatRelationshipType {
		relType = ""
	}

	sel := t.selected
	h := newHighlight(kind, relType, sel)
	edges := graph.IncidentEdges(sel)

	switch kind {
	case StatDegree, StatNeighbors, StatCentrality:
		for _, edge := range edges {
			h.addEdge(edge, sel)
		}
	case StatIncoming:
		for _, edge := range edges {
			if edge.TargetID.Equals(sel) {
				h.addEdge(edge, sel)
			}
		}
	case StatOutgoing:
		for _, edge := range edges {
			if edge.SourceID.Equals(sel) {
				h.addEdge(edge, sel)
			}
		}
	case StatAvgStrength:
		// edges at or above the mean strength
		var total float64
		for _, edge := range edges {
			total += edge.Strength
		}
		if len(edges) > 0 {
			mean := total / float64(len(edges))
			for _, edge := range edges {
				if edge.Strength >= mean {
					h.addEdge(edge, sel)
				}
			}
		}
	case StatRelationshipType:
		for _, edge := range edges {
			if edge.Type == relType {
				h.addEdge(edge, sel)
			}
		}
	default:
		return nil, pkgerrors.NewValidationError(fmt.Sprintf("unknown statistic %q", kind))
	}

	t.highlight = h
	return h, nil
}

// Highlight returns the active highlight, or nil
func (t *Tracker) Highlight() *Highlight {
	return t.highlight
}

// ClearHighlight restores default emphasis for every element
func (t *Tracker) ClearHighlight() {
	t.highlight = nil
}

// ClearSelection drops the selection and its highlight
func (t *Tracker) ClearSelection() {
	t.selected = ""
	t.highlight = nil
}

// Prune forgets selection and hover state for nodes no longer in graph
func (t *Tracker) Prune(graph *aggregates.Graph) {
	if !t.selected.IsZero() && !graph.HasNode(t.selected) {
		t.ClearSelection()
	}
	if !t.hovered.IsZero() && !graph.HasNode(t.hovered) {
		t.hovered = ""
	}
}

// Emphasis returns the rendering hint for a node
func (t *Tracker) Emphasis(id valueobjects.NodeID) Emphasis {
	if t.highlight == nil {
		return EmphasisNormal
	}
	if t.highlight.HasNode(id) {
		return EmphasisHighlighted
	}
	return EmphasisDimmed
}

// EdgeEmphasis returns the rendering hint for an edge
func (t *Tracker) EdgeEmphasis(key entities.PairKey) Emphasis {
	if t.highlight == nil {
		return EmphasisNormal
	}
	if t.highlight.HasEdge(key) {
		return EmphasisHighlighted
	}
	return EmphasisDimmed
}
