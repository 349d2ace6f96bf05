package entities

import (
	"encoding/json"
	"fmt"

	"kgview/domain/core/valueobjects"
	pkgerrors "kgview/pkg/errors"
)

// Default values for explicit edges missing numeric fields
const (
	DefaultEdgeStrength   = 0.5
	DefaultEdgeConfidence = 0.7
)

// PairKey identifies an unordered node pair. At most one edge exists per key.
// Ids are held separately, so no id can collide with another pair's key.
type PairKey struct {
	lo, hi valueobjects.NodeID
}

// NewPairKey builds the unordered key for a and b
func NewPairKey(a, b valueobjects.NodeID) PairKey {
	if b < a {
		a, b = b, a
	}
	return PairKey{lo: a, hi: b}
}

// Nodes returns the pair in ascending id order
func (k PairKey) Nodes() (valueobjects.NodeID, valueobjects.NodeID) {
	return k.lo, k.hi
}

func (k PairKey) String() string {
	return fmt.Sprintf("%q|%q", k.lo, k.hi)
}

// MarshalJSON encodes the key as a two-element array
func (k PairKey) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]valueobjects.NodeID{k.lo, k.hi})
}

// UnmarshalJSON decodes a two-element array in either order
func (k *PairKey) UnmarshalJSON(data []byte) error {
	var pair [2]valueobjects.NodeID
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	*k = NewPairKey(pair[0], pair[1])
	return nil
}

// EdgeSpec carries the fields used to construct an Edge
type EdgeSpec struct {
	SourceID   valueobjects.NodeID
	TargetID   valueobjects.NodeID
	Type       valueobjects.RelationshipType
	Strength   *float64
	Confidence *float64
	Generated  bool
	Label      string
}

// Edge is a relationship between two nodes, stored as an id pair
type Edge struct {
	SourceID   valueobjects.NodeID
	TargetID   valueobjects.NodeID
	Type       valueobjects.RelationshipType
	Strength   float64
	Confidence float64
	Generated  bool
	Label      string
}

// NewEdge creates an edge, rejecting self-loops and clamping numeric fields
func NewEdge(spec EdgeSpec) (*Edge, error) {
	if spec.SourceID.IsZero() || spec.TargetID.IsZero() {
		return nil, pkgerrors.NewValidationError("edge endpoints cannot be empty")
	}
	if spec.SourceID.Equals(spec.TargetID) {
		return nil, pkgerrors.NewValidationError("cannot connect node to itself")
	}

	relType := spec.Type
	if relType == "" {
		relType = valueobjects.RelationshipRelatedTo
	}
	label := spec.Label
	if label == "" {
		label = relType.Label()
	}

	return &Edge{
		SourceID:   spec.SourceID,
		TargetID:   spec.TargetID,
		Type:       relType,
		Strength:   valueobjects.ClampUnitPtr(spec.Strength, DefaultEdgeStrength),
		Confidence: valueobjects.ClampUnitPtr(spec.Confidence, DefaultEdgeConfidence),
		Generated:  spec.Generated,
		Label:      label,
	}, nil
}

// Key returns the unordered pair key
func (e *Edge) Key() PairKey {
	return NewPairKey(e.SourceID, e.TargetID)
}

// Touches reports whether the edge is incident to id
func (e *Edge) Touches(id valueobjects.NodeID) bool {
	return e.SourceID.Equals(id) || e.TargetID.Equals(id)
}

// Other returns the endpoint opposite id
func (e *Edge) Other(id valueobjects.NodeID) valueobjects.NodeID {
	if e.SourceID.Equals(id) {
		return e.TargetID
	}
	return e.SourceID
}
