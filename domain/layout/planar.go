package layout

import (
	"math"

	"kgview/domain/core/valueobjects"
)

const initialPlanarRadius = 10

// PlanarEngine is a 2D relaxation combining link, many-body, centering and
// collision forces. Energy (alpha) decays geometrically each tick and the
// simulation settles once alpha drops below AlphaMin.
type PlanarEngine struct {
	world
	params      PlanarParams
	full        Params
	alpha       float64
	alphaTarget float64
}

// NewPlanarEngine creates a planar engine. Params are assumed valid.
func NewPlanarEngine(params Params) *PlanarEngine {
	return &PlanarEngine{
		world:  newWorld(),
		params: params.Planar,
		full:   params,
		alpha:  1,
	}
}

// Mode returns ModePlanar
func (e *PlanarEngine) Mode() Mode { return ModePlanar }

func (e *PlanarEngine) center() valueobjects.Position {
	return valueobjects.Position{X: e.params.Width / 2, Y: e.params.Height / 2}
}

// AddNode places a body, flattening any supplied Z coordinate
func (e *PlanarEngine) AddNode(id valueobjects.NodeID, initial *valueobjects.Position) error {
	pos := phyllotaxis(e.placed, initialPlanarRadius, e.center())
	if initial != nil && initial.IsFinite() {
		pos = initial.Flatten()
	}
	return e.add(id, pos)
}

// RemoveNode removes a body and its links
func (e *PlanarEngine) RemoveNode(id valueobjects.NodeID) bool { return e.remove(id) }

// AddEdge links two bodies
func (e *PlanarEngine) AddEdge(source, target valueobjects.NodeID, strength float64) error {
	return e.connect(source, target, strength)
}

// RemoveEdge unlinks two bodies
func (e *PlanarEngine) RemoveEdge(source, target valueobjects.NodeID) bool {
	return e.disconnect(source, target)
}

// Pin holds a body at pos
func (e *PlanarEngine) Pin(id valueobjects.NodeID, pos valueobjects.Position) error {
	return e.pin(id, pos.Flatten())
}

// Unpin releases a pinned body
func (e *PlanarEngine) Unpin(id valueobjects.NodeID) error { return e.unpin(id) }

// Reconfigure applies new parameters and reheats
func (e *PlanarEngine) Reconfigure(params Params) error {
	if err := params.Validate(); err != nil {
		return err
	}
	e.params = params.Planar
	e.full = params
	e.Reheat()
	return nil
}

// Params returns the active parameters
func (e *PlanarEngine) Params() Params { return e.full }

// Reheat resets alpha so the simulation moves again
func (e *PlanarEngine) Reheat() { e.alpha = 1 }

// Alpha returns the current simulation energy
func (e *PlanarEngine) Alpha() float64 { return e.alpha }

// Settled reports whether alpha fell below AlphaMin
func (e *PlanarEngine) Settled() bool { return e.alpha < e.params.AlphaMin }

// Position returns the position of id
func (e *PlanarEngine) Position(id valueobjects.NodeID) (valueobjects.Position, bool) {
	return e.position(id)
}

// Positions returns every body in insertion order
func (e *PlanarEngine) Positions() []BodyState { return e.states() }

// NodeCount returns the number of bodies
func (e *PlanarEngine) NodeCount() int { return len(e.bodies) }

// LinkCount returns the number of links
func (e *PlanarEngine) LinkCount() int { return len(e.links) }

// Step advances one tick
func (e *PlanarEngine) Step() bool {
	if e.Settled() {
		return false
	}

	e.alpha += (e.alphaTarget - e.alpha) * e.params.AlphaDecay
	bodies := e.ordered()

	e.applyLinks()
	e.applyCharge(bodies)
	e.applyCenter(bodies)
	e.applyCollision(bodies)

	decay := 1 - e.params.VelocityDecay
	for _, b := range bodies {
		if b.pinned {
			b.pos, b.vel = b.fixed, valueobjects.Position{}
			b.last = b.pos
			continue
		}
		b.vel = b.vel.Scale(decay)
		b.pos = b.pos.Add(b.vel)
		b.pos.Z, b.vel.Z = 0, 0
		b.sanitize()
	}

	return !e.Settled()
}

// applyLinks pulls linked bodies toward LinkDistance. The displacement is
// split by degree so hubs move less than leaves.
func (e *PlanarEngine) applyLinks() {
	for _, key := range e.linkOrder {
		l := e.links[key]
		s, t := e.bodies[l.source], e.bodies[l.target]

		dx := t.pos.X + t.vel.X - s.pos.X - s.vel.X
		dy := t.pos.Y + t.vel.Y - s.pos.Y - s.vel.Y
		if dx == 0 {
			dx = e.jiggle()
		}
		if dy == 0 {
			dy = e.jiggle()
		}

		d := math.Sqrt(dx*dx + dy*dy)
		strength := e.params.LinkStrength * l.strength / float64(minInt(s.degree, t.degree))
		k := (d - e.params.LinkDistance) / d * e.alpha * strength
		dx, dy = dx*k, dy*k

		bias := float64(s.degree) / float64(s.degree+t.degree)
		t.vel.X -= dx * bias
		t.vel.Y -= dy * bias
		s.vel.X += dx * (1 - bias)
		s.vel.Y += dy * (1 - bias)
	}
}

// applyCharge repels every pair with a force of Charge/d². Distances below
// ChargeDistanceMin are floored for the magnitude only.
func (e *PlanarEngine) applyCharge(bodies []*body) {
	minD2 := e.params.ChargeDistanceMin * e.params.ChargeDistanceMin
	for i := 0; i < len(bodies); i++ {
		a := bodies[i]
		for j := i + 1; j < len(bodies); j++ {
			b := bodies[j]
			dx, dy := b.pos.X-a.pos.X, b.pos.Y-a.pos.Y
			if dx == 0 {
				dx = e.jiggle()
			}
			if dy == 0 {
				dy = e.jiggle()
			}

			d2 := dx*dx + dy*dy
			floored := math.Max(d2, minD2)
			// k scales (dx, dy) down to unit length and applies Charge/d²
			k := e.params.Charge * e.alpha / (floored * math.Sqrt(d2))
			a.vel.X -= dx * k
			a.vel.Y -= dy * k
			b.vel.X += dx * k
			b.vel.Y += dy * k
		}
	}
}

// applyCenter pulls each body toward the viewport center
func (e *PlanarEngine) applyCenter(bodies []*body) {
	c := e.center()
	k := e.params.CenterStrength * e.alpha
	for _, b := range bodies {
		b.vel.X += (c.X - b.pos.X) * k
		b.vel.Y += (c.Y - b.pos.Y) * k
	}
}

// applyCollision separates bodies closer than twice CollisionRadius
func (e *PlanarEngine) applyCollision(bodies []*body) {
	r := e.params.CollisionRadius * 2
	if r <= 0 || e.params.CollisionStrength == 0 {
		return
	}
	for i := 0; i < len(bodies); i++ {
		a := bodies[i]
		ax, ay := a.pos.X+a.vel.X, a.pos.Y+a.vel.Y
		for j := i + 1; j < len(bodies); j++ {
			b := bodies[j]
			dx := b.pos.X + b.vel.X - ax
			dy := b.pos.Y + b.vel.Y - ay
			d2 := dx*dx + dy*dy
			if d2 >= r*r {
				continue
			}
			if dx == 0 {
				dx = e.jiggle()
				d2 += dx * dx
			}
			if dy == 0 {
				dy = e.jiggle()
				d2 += dy * dy
			}
			d := math.Sqrt(d2)
			k := (r - d) / d * e.params.CollisionStrength * 0.5
			a.vel.X -= dx * k
			a.vel.Y -= dy * k
			b.vel.X += dx * k
			b.vel.Y += dy * k
		}
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
