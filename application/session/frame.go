package session

import (
	"kgview/domain/core/aggregates"
	"kgview/domain/core/valueobjects"
	"kgview/domain/interaction"
	"kgview/domain/layout"
)

// FrameNode is one positioned node as the rendering surface sees it
type FrameNode struct {
	ID         valueobjects.NodeID   `json:"id"`
	Label      string                `json:"label"`
	Category   valueobjects.Category `json:"category"`
	Importance float64               `json:"importance"`
	KeyPhrases []string              `json:"keyPhrases"`
	Position   valueobjects.Position `json:"position"`
	Pinned     bool                  `json:"pinned"`
	Emphasis   interaction.Emphasis  `json:"emphasis"`
}

// FrameEdge is one edge with its rendering hint
type FrameEdge struct {
	Source    valueobjects.NodeID           `json:"source"`
	Target    valueobjects.NodeID           `json:"target"`
	Type      valueobjects.RelationshipType `json:"type"`
	Label     string                        `json:"label"`
	Strength  float64                       `json:"strength"`
	Generated bool                          `json:"generated"`
	Emphasis  interaction.Emphasis          `json:"emphasis"`
}

// Frame is the state of a session after a tick
type Frame struct {
	SessionID string              `json:"sessionId"`
	Sequence  int64               `json:"sequence"`
	State     State               `json:"state"`
	Mode      layout.Mode         `json:"mode"`
	Settled   bool                `json:"settled"`
	Selected  valueobjects.NodeID `json:"selected,omitempty"`
	Hovered   valueobjects.NodeID `json:"hovered,omitempty"`
	Nodes     []FrameNode         `json:"nodes"`
	Edges     []FrameEdge         `json:"edges"`
}

func buildFrame(s *Session) Frame {
	frame := Frame{
		SessionID: s.id,
		Sequence:  s.sequence,
		State:     s.state,
		Mode:      s.mode,
		Nodes:     []FrameNode{},
		Edges:     []FrameEdge{},
	}
	frame.Selected, _ = s.tracker.Selected()
	frame.Hovered, _ = s.tracker.Hovered()
	if s.graph == nil || s.engine == nil {
		return frame
	}

	frame.Settled = s.engine.Settled()
	pinned := make(map[valueobjects.NodeID]bool)
	for _, b := range s.engine.Positions() {
		if b.Pinned {
			pinned[b.ID] = true
		}
	}

	for _, node := range s.graph.Nodes() {
		frame.Nodes = append(frame.Nodes, FrameNode{
			ID:         node.ID(),
			Label:      node.Label(),
			Category:   node.Category(),
			Importance: node.Importance(),
			KeyPhrases: node.KeyPhrases(),
			Position:   node.Position(),
			Pinned:     pinned[node.ID()],
			Emphasis:   s.tracker.Emphasis(node.ID()),
		})
	}
	for _, edge := range s.graph.Edges() {
		frame.Edges = append(frame.Edges, FrameEdge{
			Source:    edge.SourceID,
			Target:    edge.TargetID,
			Type:      edge.Type,
			Label:     edge.Label,
			Strength:  edge.Strength,
			Generated: edge.Generated,
			Emphasis:  s.tracker.EdgeEmphasis(edge.Key()),
		})
	}
	return frame
}

// syncPositions copies engine positions into the graph
func syncPositions(graph *aggregates.Graph, engine layout.Engine) {
	for _, b := range engine.Positions() {
		_ = graph.SetNodePosition(b.ID, b.Position, b.Velocity)
	}
}
