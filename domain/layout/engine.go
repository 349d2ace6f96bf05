// Package layout positions graph nodes with force simulations. Two
// realizations share the Engine contract: a planar relaxation with alpha
// cooling and a volumetric Euler integration inside a bounding cube.
package layout

import (
	"errors"
	"fmt"

	"kgview/domain/core/valueobjects"
)

var (
	ErrUnknownNode   = errors.New("layout: unknown node")
	ErrDuplicateNode = errors.New("layout: node already present")
	ErrSelfLoop      = errors.New("layout: link cannot connect a node to itself")
)

// BodyState is a snapshot of one simulated body
type BodyState struct {
	ID       valueobjects.NodeID   `json:"id"`
	Position valueobjects.Position `json:"position"`
	Velocity valueobjects.Position `json:"velocity"`
	Pinned   bool                  `json:"pinned"`
}

// Engine is the contract shared by the layout realizations. Engines are not
// safe for concurrent use; the owning session drives them from one loop.
type Engine interface {
	Mode() Mode

	// AddNode places a body at initial, or at a deterministic seed position
	// when initial is nil or not finite
	AddNode(id valueobjects.NodeID, initial *valueobjects.Position) error
	RemoveNode(id valueobjects.NodeID) bool
	AddEdge(source, target valueobjects.NodeID, strength float64) error
	RemoveEdge(source, target valueobjects.NodeID) bool

	// Pin holds a body at pos until Unpin
	Pin(id valueobjects.NodeID, pos valueobjects.Position) error
	Unpin(id valueobjects.NodeID) error

	Reconfigure(params Params) error
	Params() Params
	Reheat()

	// Step advances one tick and reports whether the simulation is still moving
	Step() bool
	Settled() bool

	Position(id valueobjects.NodeID) (valueobjects.Position, bool)
	Positions() []BodyState
	NodeCount() int
	LinkCount() int
}

// NewEngine creates the realization for mode
func NewEngine(mode Mode, params Params) (Engine, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	switch mode {
	case ModePlanar:
		return NewPlanarEngine(params), nil
	case ModeVolumetric:
		return NewVolumetricEngine(params), nil
	}
	return nil, fmt.Errorf("unknown layout mode %q", mode)
}
