package layout

import (
	"math"

	"kgview/domain/core/entities"
	"kgview/domain/core/valueobjects"
)

// golden angle in radians, used by both seed placements
var goldenAngle = math.Pi * (3 - math.Sqrt(5))

type body struct {
	id     valueobjects.NodeID
	pos    valueobjects.Position
	vel    valueobjects.Position
	last   valueobjects.Position // last finite position
	fixed  valueobjects.Position
	pinned bool
	degree int
}

// link is an id pair resolved to bodies at step time
type link struct {
	source   valueobjects.NodeID
	target   valueobjects.NodeID
	strength float64
}

// world is the id-keyed body arena shared by both engines
type world struct {
	bodies    map[valueobjects.NodeID]*body
	order     []valueobjects.NodeID
	links     map[entities.PairKey]*link
	linkOrder []entities.PairKey
	placed    int
	seed      uint32
}

func newWorld() world {
	return world{
		bodies: make(map[valueobjects.NodeID]*body),
		links:  make(map[entities.PairKey]*link),
		seed:   1,
	}
}

// add inserts a body at pos, which the caller has already made finite
func (w *world) add(id valueobjects.NodeID, pos valueobjects.Position) error {
	if id.IsZero() {
		return ErrUnknownNode
	}
	if _, exists := w.bodies[id]; exists {
		return ErrDuplicateNode
	}
	w.bodies[id] = &body{id: id, pos: pos, last: pos}
	w.order = append(w.order, id)
	w.placed++
	return nil
}

func (w *world) remove(id valueobjects.NodeID) bool {
	if _, exists := w.bodies[id]; !exists {
		return false
	}
	for _, key := range append([]entities.PairKey(nil), w.linkOrder...) {
		if l := w.links[key]; l.source == id || l.target == id {
			w.unlink(key)
		}
	}
	delete(w.bodies, id)
	for i, other := range w.order {
		if other == id {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
	return true
}

// connect adds a link, or updates the strength of an existing one
func (w *world) connect(source, target valueobjects.NodeID, strength float64) error {
	if source == target {
		return ErrSelfLoop
	}
	s, ok := w.bodies[source]
	if !ok {
		return ErrUnknownNode
	}
	t, ok := w.bodies[target]
	if !ok {
		return ErrUnknownNode
	}

	strength = valueobjects.ClampUnit(strength, entities.DefaultEdgeStrength)
	key := entities.NewPairKey(source, target)
	if existing, exists := w.links[key]; exists {
		existing.strength = strength
		return nil
	}

	w.links[key] = &link{source: source, target: target, strength: strength}
	w.linkOrder = append(w.linkOrder, key)
	s.degree++
	t.degree++
	return nil
}

func (w *world) disconnect(source, target valueobjects.NodeID) bool {
	return w.unlink(entities.NewPairKey(source, target))
}

func (w *world) unlink(key entities.PairKey) bool {
	l, exists := w.links[key]
	if !exists {
		return false
	}
	delete(w.links, key)
	for i, k := range w.linkOrder {
		if k == key {
			w.linkOrder = append(w.linkOrder[:i], w.linkOrder[i+1:]...)
			break
		}
	}
	if b, ok := w.bodies[l.source]; ok {
		b.degree--
	}
	if b, ok := w.bodies[l.target]; ok {
		b.degree--
	}
	return true
}

func (w *world) pin(id valueobjects.NodeID, pos valueobjects.Position) error {
	b, ok := w.bodies[id]
	if !ok {
		return ErrUnknownNode
	}
	if !pos.IsFinite() {
		pos = b.last
	}
	b.pinned = true
	b.fixed = pos
	b.pos = pos
	b.last = pos
	b.vel = valueobjects.Position{}
	return nil
}

func (w *world) unpin(id valueobjects.NodeID) error {
	b, ok := w.bodies[id]
	if !ok {
		return ErrUnknownNode
	}
	b.pinned = false
	return nil
}

func (w *world) position(id valueobjects.NodeID) (valueobjects.Position, bool) {
	b, ok := w.bodies[id]
	if !ok {
		return valueobjects.Position{}, false
	}
	return b.pos, true
}

func (w *world) states() []BodyState {
	states := make([]BodyState, 0, len(w.order))
	for _, id := range w.order {
		b := w.bodies[id]
		states = append(states, BodyState{ID: id, Position: b.pos, Velocity: b.vel, Pinned: b.pinned})
	}
	return states
}

// ordered returns the bodies in insertion order
func (w *world) ordered() []*body {
	bodies := make([]*body, 0, len(w.order))
	for _, id := range w.order {
		bodies = append(bodies, w.bodies[id])
	}
	return bodies
}

// sanitize resets a body that picked up NaN or Inf to its last finite
// position at rest, and otherwise records the new finite position
func (b *body) sanitize() {
	if b.pos.IsFinite() && b.vel.IsFinite() {
		b.last = b.pos
		return
	}
	b.pos = b.last
	b.vel = valueobjects.Position{}
}

// jiggle returns a tiny deterministic offset for coincident bodies
func (w *world) jiggle() float64 {
	w.seed = w.seed*1664525 + 1013904223
	return (float64(w.seed)/4294967296 - 0.5) * 1e-6
}

// phyllotaxis returns the i-th seed position of a sunflower spiral around center
func phyllotaxis(i int, radius float64, center valueobjects.Position) valueobjects.Position {
	r := radius * math.Sqrt(0.5+float64(i))
	a := float64(i) * goldenAngle
	return valueobjects.Position{X: center.X + r*math.Cos(a), Y: center.Y + r*math.Sin(a)}
}

// fibonacciShell returns the i-th seed position on a sequence of Fibonacci
// sphere lattices whose radius grows with i
func fibonacciShell(i int, radius float64) valueobjects.Position {
	const lattice = 64
	k := i % lattice
	y := 1 - 2*(float64(k)+0.5)/lattice
	rho := math.Sqrt(1 - y*y)
	phi := float64(i) * goldenAngle
	r := radius * math.Cbrt(float64(i)+0.5)
	return valueobjects.Position{X: r * rho * math.Cos(phi), Y: r * y, Z: r * rho * math.Sin(phi)}
}
