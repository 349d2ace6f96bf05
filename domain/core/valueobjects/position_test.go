package valueobjects

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPosition3D(t *testing.T) {
	tests := []struct {
		name    string
		x, y, z float64
		wantErr bool
		errMsg  string
	}{
		{name: "valid position at origin"},
		{name: "valid positive position", x: 100.5, y: 200.75, z: 50.25},
		{name: "valid negative position", x: -100.5, y: -200.75, z: -50.25},
		{name: "very large coordinates", x: 1e10, y: -1e10, z: 1e10},
		{name: "NaN x coordinate", x: math.NaN(), wantErr: true, errMsg: "invalid coordinates"},
		{name: "NaN z coordinate", z: math.NaN(), wantErr: true, errMsg: "invalid coordinates"},
		{name: "Infinity y coordinate", y: math.Inf(1), wantErr: true, errMsg: "invalid coordinates"},
		{name: "Negative infinity x coordinate", x: math.Inf(-1), wantErr: true, errMsg: "invalid coordinates"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos, err := NewPosition3D(tt.x, tt.y, tt.z)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.x, pos.X)
			assert.Equal(t, tt.y, pos.Y)
			assert.Equal(t, tt.z, pos.Z)
			assert.True(t, pos.IsFinite())
		})
	}
}

func TestNewPosition2DHasZeroZ(t *testing.T) {
	pos, err := NewPosition2D(3, 4)
	require.NoError(t, err)
	assert.Equal(t, 0.0, pos.Z)
	assert.InDelta(t, 5.0, pos.Length(), 1e-12)
}

func TestPositionArithmetic(t *testing.T) {
	a := Position{X: 1, Y: 2, Z: 3}
	b := Position{X: 4, Y: 6, Z: 3}

	assert.Equal(t, Position{X: 5, Y: 8, Z: 6}, a.Add(b))
	assert.Equal(t, Position{X: -3, Y: -4, Z: 0}, a.Sub(b))
	assert.Equal(t, Position{X: 2, Y: 4, Z: 6}, a.Scale(2))
	assert.InDelta(t, 5.0, a.DistanceTo(b), 1e-12)
	assert.InDelta(t, b.DistanceTo(a), a.DistanceTo(b), 1e-12)
	assert.True(t, a.Midpoint(b).Equals(Position{X: 2.5, Y: 4, Z: 3}))
	assert.Equal(t, Position{X: 1, Y: 2}, a.Flatten())
}

func TestPositionClampToCube(t *testing.T) {
	tests := []struct {
		name  string
		in    Position
		bound float64
		want  Position
	}{
		{"inside untouched", Position{X: 1, Y: -1, Z: 0.5}, 10, Position{X: 1, Y: -1, Z: 0.5}},
		{"each axis clamped", Position{X: 50, Y: -70, Z: 11}, 10, Position{X: 10, Y: -10, Z: 10}},
		{"on the face", Position{X: 10, Y: -10, Z: 0}, 10, Position{X: 10, Y: -10, Z: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.ClampToCube(tt.bound))
		})
	}
}

func TestPositionIsFinite(t *testing.T) {
	assert.False(t, Position{X: math.NaN()}.IsFinite())
	assert.False(t, Position{Y: math.Inf(-1)}.IsFinite())
	assert.True(t, Position{}.IsFinite())
}
