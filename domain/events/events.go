package events

import (
	"time"

	"kgview/domain/core/valueobjects"
)

// Event sources
const (
	SourceSession = "kgview.session"
	SourceLoader  = "kgview.loader"
)

// Event types
const (
	TypeNodeSelected     = "node.selected"
	TypeNodeHovered      = "node.hovered"
	TypeNodeDragStarted  = "node.drag_started"
	TypeNodeDragMoved    = "node.drag_moved"
	TypeNodeDragEnded    = "node.drag_ended"
	TypeStatisticClicked = "statistic.clicked"
	TypeHighlightCleared = "highlight.cleared"
	TypeLayoutRebuilt    = "layout.rebuilt"
	TypeEdgesInferred    = "edges.inferred"
	TypeSnapshotLoaded   = "snapshot.loaded"
	TypeSnapshotFailed   = "snapshot.failed"
)

// DomainEvent is something that happened inside one view session
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields. The aggregate is the session.
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

func newBase(sessionID, eventType string, at time.Time) BaseEvent {
	return BaseEvent{
		AggregateID: sessionID,
		EventType:   eventType,
		Timestamp:   at,
		Version:     1,
	}
}

// NodeSelected is raised when the user selects a node
type NodeSelected struct {
	BaseEvent
	NodeID valueobjects.NodeID `json:"node_id"`
	Stats  interface{}         `json:"stats,omitempty"`
}

// NewNodeSelected creates a NodeSelected event
func NewNodeSelected(sessionID string, nodeID valueobjects.NodeID, stats interface{}, at time.Time) NodeSelected {
	return NodeSelected{
		BaseEvent: newBase(sessionID, TypeNodeSelected, at),
		NodeID:    nodeID,
		Stats:     stats,
	}
}

// NodeHovered is raised when the hovered node changes. An empty NodeID
// means the pointer left every node.
type NodeHovered struct {
	BaseEvent
	NodeID valueobjects.NodeID `json:"node_id"`
}

// NewNodeHovered creates a NodeHovered event
func NewNodeHovered(sessionID string, nodeID valueobjects.NodeID, at time.Time) NodeHovered {
	return NodeHovered{BaseEvent: newBase(sessionID, TypeNodeHovered, at), NodeID: nodeID}
}

// NodeDragged covers the three drag phases
type NodeDragged struct {
	BaseEvent
	NodeID   valueobjects.NodeID   `json:"node_id"`
	Position valueobjects.Position `json:"position"`
}

// NewNodeDragStarted creates a drag start event
func NewNodeDragStarted(sessionID string, nodeID valueobjects.NodeID, pos valueobjects.Position, at time.Time) NodeDragged {
	return NodeDragged{BaseEvent: newBase(sessionID, TypeNodeDragStarted, at), NodeID: nodeID, Position: pos}
}

// NewNodeDragMoved creates a drag move event
func NewNodeDragMoved(sessionID string, nodeID valueobjects.NodeID, pos valueobjects.Position, at time.Time) NodeDragged {
	return NodeDragged{BaseEvent: newBase(sessionID, TypeNodeDragMoved, at), NodeID: nodeID, Position: pos}
}

// NewNodeDragEnded creates a drag end event
func NewNodeDragEnded(sessionID string, nodeID valueobjects.NodeID, pos valueobjects.Position, at time.Time) NodeDragged {
	return NodeDragged{BaseEvent: newBase(sessionID, TypeNodeDragEnded, at), NodeID: nodeID, Position: pos}
}

// StatisticClicked is raised when a statistic highlights a subgraph
type StatisticClicked struct {
	BaseEvent
	NodeID           valueobjects.NodeID `json:"node_id"`
	Statistic        string              `json:"statistic"`
	RelationshipType string              `json:"relationship_type,omitempty"`
	NodeIDs          []string            `json:"node_ids"`
	EdgeKeys         []string            `json:"edge_keys"`
}

// NewStatisticClicked creates a StatisticClicked event
func NewStatisticClicked(
	sessionID string,
	nodeID valueobjects.NodeID,
	statistic, relType string,
	nodeIDs, edgeKeys []string,
	at time.Time,
) StatisticClicked {
	return StatisticClicked{
		BaseEvent:        newBase(sessionID, TypeStatisticClicked, at),
		NodeID:           nodeID,
		Statistic:        statistic,
		RelationshipType: relType,
		NodeIDs:          nodeIDs,
		EdgeKeys:         edgeKeys,
	}
}

// HighlightCleared is raised when emphasis returns to normal
type HighlightCleared struct {
	BaseEvent
}

// NewHighlightCleared creates a HighlightCleared event
func NewHighlightCleared(sessionID string, at time.Time) HighlightCleared {
	return HighlightCleared{BaseEvent: newBase(sessionID, TypeHighlightCleared, at)}
}

// LayoutRebuilt is raised when the engine is torn down and rebuilt
type LayoutRebuilt struct {
	BaseEvent
	Mode      string `json:"mode"`
	Reason    string `json:"reason"`
	NodeCount int    `json:"node_count"`
	LinkCount int    `json:"link_count"`
}

// NewLayoutRebuilt creates a LayoutRebuilt event
func NewLayoutRebuilt(sessionID, mode, reason string, nodes, links int, at time.Time) LayoutRebuilt {
	return LayoutRebuilt{
		BaseEvent: newBase(sessionID, TypeLayoutRebuilt, at),
		Mode:      mode,
		Reason:    reason,
		NodeCount: nodes,
		LinkCount: links,
	}
}

// EdgesInferred is raised when an inference pass completes
type EdgesInferred struct {
	BaseEvent
	PairsEvaluated int `json:"pairs_evaluated"`
	EdgesAdded     int `json:"edges_added"`
}

// NewEdgesInferred creates an EdgesInferred event
func NewEdgesInferred(sessionID string, evaluated, added int, at time.Time) EdgesInferred {
	return EdgesInferred{
		BaseEvent:      newBase(sessionID, TypeEdgesInferred, at),
		PairsEvaluated: evaluated,
		EdgesAdded:     added,
	}
}

// SnapshotLoaded is raised when a snapshot has been ingested
type SnapshotLoaded struct {
	BaseEvent
	NodeCount    int         `json:"node_count"`
	EdgeCount    int         `json:"edge_count"`
	UsedFallback bool        `json:"used_fallback"`
	Report       interface{} `json:"report,omitempty"`
}

// NewSnapshotLoaded creates a SnapshotLoaded event
func NewSnapshotLoaded(sessionID string, nodes, edges int, fallback bool, report interface{}, at time.Time) SnapshotLoaded {
	return SnapshotLoaded{
		BaseEvent:    newBase(sessionID, TypeSnapshotLoaded, at),
		NodeCount:    nodes,
		EdgeCount:    edges,
		UsedFallback: fallback,
		Report:       report,
	}
}

// SnapshotFailed is raised when the knowledge store could not be reached
type SnapshotFailed struct {
	BaseEvent
	Error string `json:"error"`
}

// NewSnapshotFailed creates a SnapshotFailed event
func NewSnapshotFailed(sessionID string, err error, at time.Time) SnapshotFailed {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return SnapshotFailed{BaseEvent: newBase(sessionID, TypeSnapshotFailed, at), Error: msg}
}
