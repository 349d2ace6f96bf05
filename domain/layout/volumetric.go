package layout

import (
	"math"

	"kgview/domain/core/valueobjects"
)

const initialVolumetricRadius = 20

// VolumetricEngine integrates 3D forces with explicit Euler steps. All forces
// are computed from the positions at the start of the tick before any body
// moves. Positions are clamped to the cube [-Bound, Bound]³.
type VolumetricEngine struct {
	world
	params VolumetricParams
	full   Params
	quiet  int
	forces []valueobjects.Position
}

// NewVolumetricEngine creates a volumetric engine. Params are assumed valid.
func NewVolumetricEngine(params Params) *VolumetricEngine {
	return &VolumetricEngine{
		world:  newWorld(),
		params: params.Volumetric,
		full:   params,
	}
}

// Mode returns ModeVolumetric
func (e *VolumetricEngine) Mode() Mode { return ModeVolumetric }

// AddNode places a body inside the bounding cube
func (e *VolumetricEngine) AddNode(id valueobjects.NodeID, initial *valueobjects.Position) error {
	pos := fibonacciShell(e.placed, initialVolumetricRadius)
	if initial != nil && initial.IsFinite() {
		pos = *initial
	}
	return e.add(id, pos.ClampToCube(e.params.Bound))
}

// RemoveNode removes a body and its links
func (e *VolumetricEngine) RemoveNode(id valueobjects.NodeID) bool { return e.remove(id) }

// AddEdge links two bodies
func (e *VolumetricEngine) AddEdge(source, target valueobjects.NodeID, strength float64) error {
	return e.connect(source, target, strength)
}

// RemoveEdge unlinks two bodies
func (e *VolumetricEngine) RemoveEdge(source, target valueobjects.NodeID) bool {
	return e.disconnect(source, target)
}

// Pin holds a body at pos, clamped into the cube
func (e *VolumetricEngine) Pin(id valueobjects.NodeID, pos valueobjects.Position) error {
	return e.pin(id, pos.ClampToCube(e.params.Bound))
}

// Unpin releases a pinned body
func (e *VolumetricEngine) Unpin(id valueobjects.NodeID) error { return e.unpin(id) }

// Reconfigure applies new parameters, re-clamps bodies to the new cube and reheats
func (e *VolumetricEngine) Reconfigure(params Params) error {
	if err := params.Validate(); err != nil {
		return err
	}
	e.params = params.Volumetric
	e.full = params
	for _, b := range e.bodies {
		b.pos = b.pos.ClampToCube(e.params.Bound)
		b.fixed = b.fixed.ClampToCube(e.params.Bound)
		b.last = b.pos
	}
	e.Reheat()
	return nil
}

// Params returns the active parameters
func (e *VolumetricEngine) Params() Params { return e.full }

// Reheat clears the rest counter so stepping resumes
func (e *VolumetricEngine) Reheat() { e.quiet = 0 }

// Settled reports whether every body stayed below RestSpeed for RestTicks ticks
func (e *VolumetricEngine) Settled() bool { return e.quiet >= e.params.RestTicks }

// Position returns the position of id
func (e *VolumetricEngine) Position(id valueobjects.NodeID) (valueobjects.Position, bool) {
	return e.position(id)
}

// Positions returns every body in insertion order
func (e *VolumetricEngine) Positions() []BodyState { return e.states() }

// NodeCount returns the number of bodies
func (e *VolumetricEngine) NodeCount() int { return len(e.bodies) }

// LinkCount returns the number of links
func (e *VolumetricEngine) LinkCount() int { return len(e.links) }

// Step advances one tick
func (e *VolumetricEngine) Step() bool {
	if e.Settled() {
		return false
	}

	bodies := e.ordered()
	index := make(map[valueobjects.NodeID]int, len(bodies))
	for i, b := range bodies {
		index[b.id] = i
	}
	if cap(e.forces) < len(bodies) {
		e.forces = make([]valueobjects.Position, len(bodies))
	}
	forces := e.forces[:len(bodies)]
	for i := range forces {
		forces[i] = valueobjects.Position{}
	}

	e.accumulateRepulsion(bodies, forces)
	e.accumulateSprings(bodies, index, forces)
	e.accumulateCentering(bodies, forces)

	p := e.params
	maxSpeed := 0.0
	for i, b := range bodies {
		if b.pinned {
			b.pos, b.vel = b.fixed, valueobjects.Position{}
			b.last = b.pos
			continue
		}

		f := forces[i]
		if l := f.Length(); l > p.MaxForce {
			f = f.Scale(p.MaxForce / l)
		}
		b.vel = b.vel.Add(f.Scale(p.TimeStep)).Scale(p.Damping)
		b.pos = b.pos.Add(b.vel.Scale(p.TimeStep)).ClampToCube(p.Bound)
		b.sanitize()

		if speed := b.vel.Length(); speed > maxSpeed {
			maxSpeed = speed
		}
	}

	if maxSpeed < p.RestSpeed {
		e.quiet++
	} else {
		e.quiet = 0
	}
	return !e.Settled()
}

// accumulateRepulsion adds Repulsion/d² between every pair, d floored at MinDistance
func (e *VolumetricEngine) accumulateRepulsion(bodies []*body, forces []valueobjects.Position) {
	for i := 0; i < len(bodies); i++ {
		for j := i + 1; j < len(bodies); j++ {
			delta := bodies[i].pos.Sub(bodies[j].pos)
			d := delta.Length()
			if d == 0 {
				delta = valueobjects.Position{X: e.jiggle(), Y: e.jiggle(), Z: e.jiggle()}
				d = delta.Length()
			}
			floored := math.Max(d, e.params.MinDistance)
			push := delta.Scale(e.params.Repulsion / (floored * floored) / d)
			forces[i] = forces[i].Add(push)
			forces[j] = forces[j].Sub(push)
		}
	}
}

// accumulateSprings pulls linked bodies together once they are further apart
// than RestLength
func (e *VolumetricEngine) accumulateSprings(bodies []*body, index map[valueobjects.NodeID]int, forces []valueobjects.Position) {
	for _, key := range e.linkOrder {
		l := e.links[key]
		si, ti := index[l.source], index[l.target]
		delta := bodies[ti].pos.Sub(bodies[si].pos)
		d := delta.Length()
		if d <= e.params.RestLength {
			continue
		}
		pull := delta.Scale(e.params.SpringStrength * l.strength * (d - e.params.RestLength) / d)
		forces[si] = forces[si].Add(pull)
		forces[ti] = forces[ti].Sub(pull)
	}
}

// accumulateCentering pulls bodies beyond CenterRadius back toward the origin
func (e *VolumetricEngine) accumulateCentering(bodies []*body, forces []valueobjects.Position) {
	for i, b := range bodies {
		d := b.pos.Length()
		if d <= e.params.CenterRadius {
			continue
		}
		pull := b.pos.Scale(-e.params.CenteringStrength * (d - e.params.CenterRadius) / d)
		forces[i] = forces[i].Add(pull)
	}
}
