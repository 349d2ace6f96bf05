package valueobjects

import (
	"math"

	pkgerrors "kgview/pkg/errors"
)

// Position is a value object representing node coordinates in 2D/3D space.
// Planar layouts leave Z at 0.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// NewPosition2D creates a 2D position with validation
func NewPosition2D(x, y float64) (Position, error) {
	return NewPosition3D(x, y, 0)
}

// NewPosition3D creates a 3D position with validation
func NewPosition3D(x, y, z float64) (Position, error) {
	if !isValidCoordinate(x) || !isValidCoordinate(y) || !isValidCoordinate(z) {
		return Position{}, pkgerrors.NewValidationError("invalid coordinates: must be finite numbers")
	}
	return Position{X: x, Y: y, Z: z}, nil
}

// IsFinite reports whether every coordinate is a finite number
func (p Position) IsFinite() bool {
	return isValidCoordinate(p.X) && isValidCoordinate(p.Y) && isValidCoordinate(p.Z)
}

// Add returns p + o
func (p Position) Add(o Position) Position {
	return Position{X: p.X + o.X, Y: p.Y + o.Y, Z: p.Z + o.Z}
}

// Sub returns p - o
func (p Position) Sub(o Position) Position {
	return Position{X: p.X - o.X, Y: p.Y - o.Y, Z: p.Z - o.Z}
}

// Scale multiplies every coordinate by k
func (p Position) Scale(k float64) Position {
	return Position{X: p.X * k, Y: p.Y * k, Z: p.Z * k}
}

// Length returns the Euclidean norm
func (p Position) Length() float64 {
	return math.Sqrt(p.X*p.X + p.Y*p.Y + p.Z*p.Z)
}

// DistanceTo calculates the Euclidean distance to another position
func (p Position) DistanceTo(other Position) float64 {
	return p.Sub(other).Length()
}

// Equals checks if two positions are equal
func (p Position) Equals(other Position) bool {
	const epsilon = 1e-9
	return math.Abs(p.X-other.X) < epsilon &&
		math.Abs(p.Y-other.Y) < epsilon &&
		math.Abs(p.Z-other.Z) < epsilon
}

// Midpoint calculates the midpoint between two positions
func (p Position) Midpoint(other Position) Position {
	return p.Add(other).Scale(0.5)
}

// ClampToCube limits every coordinate to [-bound, bound]
func (p Position) ClampToCube(bound float64) Position {
	return Position{
		X: clamp(p.X, -bound, bound),
		Y: clamp(p.Y, -bound, bound),
		Z: clamp(p.Z, -bound, bound),
	}
}

// Flatten drops the Z coordinate
func (p Position) Flatten() Position {
	return Position{X: p.X, Y: p.Y}
}

// isValidCoordinate checks if a coordinate is a valid finite number
func isValidCoordinate(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
