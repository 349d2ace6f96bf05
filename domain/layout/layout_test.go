package layout

import (
	"fmt"
	"math"
	"testing"

	"kgview/domain/core/valueobjects"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nodeID(i int) valueobjects.NodeID {
	return valueobjects.NodeID(fmt.Sprintf("n%d", i))
}

// ring builds n bodies linked in a cycle plus one chord per fourth body
func ring(t *testing.T, e Engine, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, e.AddNode(nodeID(i), nil))
	}
	for i := 0; i < n; i++ {
		require.NoError(t, e.AddEdge(nodeID(i), nodeID((i+1)%n), 0.5))
		if i%4 == 0 {
			require.NoError(t, e.AddEdge(nodeID(i), nodeID((i+n/2)%n), 0.8))
		}
	}
}

func assertFinite(t *testing.T, e Engine) {
	t.Helper()
	for _, b := range e.Positions() {
		require.True(t, b.Position.IsFinite(), "body %s position %+v", b.ID, b.Position)
		require.True(t, b.Velocity.IsFinite(), "body %s velocity %+v", b.ID, b.Velocity)
	}
}

func TestNewEngine(t *testing.T) {
	tests := []struct {
		name     string
		mode     Mode
		mutate   func(*Params)
		wantErr  bool
		wantMode Mode
	}{
		{name: "planar", mode: ModePlanar, wantMode: ModePlanar},
		{name: "volumetric", mode: ModeVolumetric, wantMode: ModeVolumetric},
		{name: "unknown mode", mode: "spherical", wantErr: true},
		{name: "zero link distance", mode: ModePlanar, mutate: func(p *Params) { p.Planar.LinkDistance = 0 }, wantErr: true},
		{name: "alpha decay out of range", mode: ModePlanar, mutate: func(p *Params) { p.Planar.AlphaDecay = 1 }, wantErr: true},
		{name: "negative bound", mode: ModeVolumetric, mutate: func(p *Params) { p.Volumetric.Bound = -5 }, wantErr: true},
		{name: "NaN repulsion", mode: ModeVolumetric, mutate: func(p *Params) { p.Volumetric.Repulsion = math.NaN() }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := DefaultParams()
			if tt.mutate != nil {
				tt.mutate(&params)
			}
			engine, err := NewEngine(tt.mode, params)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, engine)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMode, engine.Mode())
		})
	}
}

func TestParseMode(t *testing.T) {
	mode, err := ParseMode(" 3D ")
	require.NoError(t, err)
	assert.Equal(t, ModeVolumetric, mode)

	mode, err = ParseMode("planar")
	require.NoError(t, err)
	assert.Equal(t, ModePlanar, mode)

	_, err = ParseMode("radial")
	assert.Error(t, err)
}

func TestEngineGraphOperations(t *testing.T) {
	for _, mode := range []Mode{ModePlanar, ModeVolumetric} {
		t.Run(string(mode), func(t *testing.T) {
			e, err := NewEngine(mode, DefaultParams())
			require.NoError(t, err)
			ring(t, e, 8)

			// 8 ring links plus the 0-4 chord, which both chord passes produce
			assert.Equal(t, 8, e.NodeCount())
			assert.Equal(t, 9, e.LinkCount())

			assert.ErrorIs(t, e.AddNode(nodeID(0), nil), ErrDuplicateNode)
			assert.ErrorIs(t, e.AddEdge(nodeID(0), "ghost", 0.5), ErrUnknownNode)
			assert.ErrorIs(t, e.AddEdge(nodeID(1), nodeID(1), 0.5), ErrSelfLoop)

			// Re-adding a link updates it in place
			require.NoError(t, e.AddEdge(nodeID(1), nodeID(0), 0.9))
			assert.Equal(t, 9, e.LinkCount())

			assert.True(t, e.RemoveNode(nodeID(0)))
			assert.False(t, e.RemoveNode(nodeID(0)))
			assert.Equal(t, 7, e.NodeCount())
			assert.Equal(t, 6, e.LinkCount())

			assert.True(t, e.RemoveEdge(nodeID(2), nodeID(1)))
			assert.False(t, e.RemoveEdge(nodeID(1), nodeID(2)))

			_, ok := e.Position(nodeID(0))
			assert.False(t, ok)
		})
	}
}

func TestEngineDelimiterInNodeIDs(t *testing.T) {
	for _, mode := range []Mode{ModePlanar, ModeVolumetric} {
		t.Run(string(mode), func(t *testing.T) {
			e, err := NewEngine(mode, DefaultParams())
			require.NoError(t, err)
			for _, id := range []valueobjects.NodeID{"a|b", "c", "a", "b|c"} {
				require.NoError(t, e.AddNode(id, nil))
			}

			require.NoError(t, e.AddEdge("a|b", "c", 0.5))
			require.NoError(t, e.AddEdge("a", "b|c", 0.5))
			assert.Equal(t, 2, e.LinkCount())

			assert.True(t, e.RemoveEdge("c", "a|b"))
			assert.Equal(t, 1, e.LinkCount())
			assert.True(t, e.RemoveEdge("b|c", "a"))
		})
	}
}

func TestSeedPlacementIsDeterministic(t *testing.T) {
	for _, mode := range []Mode{ModePlanar, ModeVolumetric} {
		t.Run(string(mode), func(t *testing.T) {
			a, _ := NewEngine(mode, DefaultParams())
			b, _ := NewEngine(mode, DefaultParams())
			ring(t, a, 12)
			ring(t, b, 12)

			for i := 0; i < 50; i++ {
				a.Step()
				b.Step()
			}
			assert.Equal(t, a.Positions(), b.Positions())

			seen := make(map[valueobjects.Position]bool)
			fresh, _ := NewEngine(mode, DefaultParams())
			ring(t, fresh, 12)
			for _, s := range fresh.Positions() {
				assert.False(t, seen[s.Position], "seed positions must be distinct")
				seen[s.Position] = true
			}
		})
	}
}

func TestPlanarPositionsStayFiniteAndSettle(t *testing.T) {
	e := NewPlanarEngine(DefaultParams())
	ring(t, e, 30)

	// Coincident bodies must not produce NaN
	pos := valueobjects.Position{X: 100, Y: 100}
	require.NoError(t, e.AddNode("twin-a", &pos))
	require.NoError(t, e.AddNode("twin-b", &pos))
	require.NoError(t, e.AddEdge("twin-a", "twin-b", 1))

	ticks := 0
	for e.Step() {
		ticks++
		require.Less(t, ticks, 1000, "planar layout never settled")
	}
	assertFinite(t, e)
	assert.True(t, e.Settled())
	assert.False(t, e.Step())

	a, _ := e.Position("twin-a")
	b, _ := e.Position("twin-b")
	assert.Greater(t, a.DistanceTo(b), 1.0)
	assert.Equal(t, 0.0, a.Z)

	e.Reheat()
	assert.False(t, e.Settled())
	assert.True(t, e.Step())
}

func TestPlanarChargeFallsOffWithSquaredDistance(t *testing.T) {
	push := func(t *testing.T, d float64) float64 {
		t.Helper()
		params := DefaultParams()
		params.Planar.CenterStrength = 0
		params.Planar.CollisionStrength = 0
		e := NewPlanarEngine(params)
		a := valueobjects.Position{X: 100, Y: 100}
		b := valueobjects.Position{X: 100 + d, Y: 100}
		require.NoError(t, e.AddNode("a", &a))
		require.NoError(t, e.AddNode("b", &b))
		require.True(t, e.Step())
		moved, _ := e.Position("b")
		return moved.X - b.X
	}

	tests := []struct {
		name      string
		near, far float64
		wantRatio float64
	}{
		{name: "double the distance", near: 40, far: 80, wantRatio: 4},
		{name: "triple the distance", near: 50, far: 150, wantRatio: 9},
		{name: "inside the floor", near: 2, far: 5, wantRatio: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			near, far := push(t, tt.near), push(t, tt.far)
			require.Greater(t, far, 0.0)
			assert.InDelta(t, tt.wantRatio, near/far, 1e-6)
		})
	}
}

func TestPlanarAlphaCools(t *testing.T) {
	e := NewPlanarEngine(DefaultParams())
	ring(t, e, 4)

	prev := e.Alpha()
	for i := 0; i < 10; i++ {
		e.Step()
		assert.Less(t, e.Alpha(), prev)
		prev = e.Alpha()
	}
}

func TestVolumetricStaysInsideCube(t *testing.T) {
	params := DefaultParams()
	params.Volumetric.Bound = 40
	params.Volumetric.Repulsion = 5000

	e := NewVolumetricEngine(params)
	ring(t, e, 40)
	far := valueobjects.Position{X: 1e6, Y: -1e6, Z: 3}
	require.NoError(t, e.AddNode("far", &far))

	for i := 0; i < 500; i++ {
		e.Step()
		for _, s := range e.Positions() {
			require.True(t, s.Position.IsFinite())
			require.LessOrEqual(t, math.Abs(s.Position.X), 40.0)
			require.LessOrEqual(t, math.Abs(s.Position.Y), 40.0)
			require.LessOrEqual(t, math.Abs(s.Position.Z), 40.0)
		}
	}
}

func TestVolumetricSettles(t *testing.T) {
	e := NewVolumetricEngine(DefaultParams())
	ring(t, e, 6)

	for i := 0; i < 5000 && e.Step(); i++ {
	}
	assert.True(t, e.Settled())
	assertFinite(t, e)

	e.Reheat()
	assert.False(t, e.Settled())
}

func TestPinHoldsPosition(t *testing.T) {
	for _, mode := range []Mode{ModePlanar, ModeVolumetric} {
		t.Run(string(mode), func(t *testing.T) {
			e, _ := NewEngine(mode, DefaultParams())
			ring(t, e, 10)

			target := valueobjects.Position{X: 25, Y: -30}
			require.NoError(t, e.Pin(nodeID(3), target))
			for i := 0; i < 100; i++ {
				e.Step()
			}
			pos, ok := e.Position(nodeID(3))
			require.True(t, ok)
			assert.True(t, target.Equals(pos))

			require.NoError(t, e.Unpin(nodeID(3)))
			e.Reheat()
			for i := 0; i < 20; i++ {
				e.Step()
			}
			pos, _ = e.Position(nodeID(3))
			assert.False(t, target.Equals(pos))

			assert.ErrorIs(t, e.Pin("ghost", target), ErrUnknownNode)
			assert.ErrorIs(t, e.Unpin("ghost"), ErrUnknownNode)
		})
	}
}

func TestReconfigure(t *testing.T) {
	e := NewVolumetricEngine(DefaultParams())
	far := valueobjects.Position{X: 500, Y: 500, Z: 500}
	require.NoError(t, e.AddNode("a", &far))

	bad := DefaultParams()
	bad.Volumetric.Damping = 2
	assert.Error(t, e.Reconfigure(bad))
	assert.Equal(t, DefaultParams(), e.Params())

	smaller := DefaultParams()
	smaller.Volumetric.Bound = 100
	require.NoError(t, e.Reconfigure(smaller))
	pos, _ := e.Position("a")
	assert.Equal(t, valueobjects.Position{X: 100, Y: 100, Z: 100}, pos)
	assert.Equal(t, 100.0, e.Params().Volumetric.Bound)
}

func TestBodySanitize(t *testing.T) {
	b := &body{pos: valueobjects.Position{X: 1, Y: 2}, last: valueobjects.Position{X: 1, Y: 2}}
	b.sanitize()
	assert.Equal(t, valueobjects.Position{X: 1, Y: 2}, b.last)

	b.pos = valueobjects.Position{X: math.NaN()}
	b.vel = valueobjects.Position{Y: math.Inf(1)}
	b.sanitize()
	assert.Equal(t, valueobjects.Position{X: 1, Y: 2}, b.pos)
	assert.Equal(t, valueobjects.Position{}, b.vel)
}
