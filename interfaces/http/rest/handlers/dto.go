package handlers

import (
	"kgview/application/session"
	"kgview/domain/core/valueobjects"
	"kgview/domain/interaction"
	"kgview/domain/layout"
)

// CreateSessionRequest opens a new view session
type CreateSessionRequest struct {
	Mode   string         `json:"mode" validate:"omitempty,oneof=planar volumetric 2d 3d"`
	Query  string         `json:"query" validate:"max=500"`
	Params *layout.Params `json:"params"`
}

// QueryRequest reloads a session with a free text query
type QueryRequest struct {
	Text string `json:"text" validate:"max=500"`
}

// ParamsRequest changes layout parameters, optionally switching mode
type ParamsRequest struct {
	Mode   string        `json:"mode" validate:"omitempty,oneof=planar volumetric 2d 3d"`
	Params layout.Params `json:"params"`
}

// NodeRequest names a node. An empty id on hover clears it.
type NodeRequest struct {
	NodeID string `json:"nodeId" validate:"max=256"`
}

// DragRequest moves a pinned node
type DragRequest struct {
	NodeID string  `json:"nodeId" validate:"required,max=256"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Z      float64 `json:"z"`
}

// HighlightRequest clicks a statistic of the selected node
type HighlightRequest struct {
	Statistic        string `json:"statistic" validate:"required"`
	RelationshipType string `json:"relationshipType" validate:"required_if=Statistic relationship_type"`
}

// SelectResponse carries the statistics of the selected node
type SelectResponse struct {
	Selected   valueobjects.NodeID         `json:"selected"`
	Statistics interaction.NodeStatistics `json:"statistics"`
}

// SessionListResponse lists open sessions
type SessionListResponse struct {
	Sessions []session.Info `json:"sessions"`
	Count    int            `json:"count"`
}

func (r DragRequest) position() valueobjects.Position {
	return valueobjects.Position{X: r.X, Y: r.Y, Z: r.Z}
}

func parseMode(raw string) layout.Mode {
	if raw == "" {
		return ""
	}
	mode, err := layout.ParseMode(raw)
	if err != nil {
		return ""
	}
	return mode
}
