package layout

import (
	"fmt"
	"math"
	"strings"
)

// Mode selects a layout realization
type Mode string

const (
	ModePlanar     Mode = "planar"
	ModeVolumetric Mode = "volumetric"
)

// ParseMode parses a mode name, case-insensitively
func ParseMode(raw string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case ModePlanar, "2d":
		return ModePlanar, nil
	case ModeVolumetric, "3d":
		return ModeVolumetric, nil
	}
	return "", fmt.Errorf("unknown layout mode %q", raw)
}

// PlanarParams tunes the 2D relaxation
type PlanarParams struct {
	Width             float64 `json:"width" yaml:"width"`
	Height            float64 `json:"height" yaml:"height"`
	LinkDistance      float64 `json:"linkDistance" yaml:"link_distance"`
	LinkStrength      float64 `json:"linkStrength" yaml:"link_strength"`
	Charge            float64 `json:"charge" yaml:"charge"`
	ChargeDistanceMin float64 `json:"chargeDistanceMin" yaml:"charge_distance_min"`
	CenterStrength    float64 `json:"centerStrength" yaml:"center_strength"`
	CollisionRadius   float64 `json:"collisionRadius" yaml:"collision_radius"`
	CollisionStrength float64 `json:"collisionStrength" yaml:"collision_strength"`
	AlphaDecay        float64 `json:"alphaDecay" yaml:"alpha_decay"`
	AlphaMin          float64 `json:"alphaMin" yaml:"alpha_min"`
	VelocityDecay     float64 `json:"velocityDecay" yaml:"velocity_decay"`
}

// VolumetricParams tunes the 3D Euler integration
type VolumetricParams struct {
	Repulsion         float64 `json:"repulsion" yaml:"repulsion"`
	MinDistance       float64 `json:"minDistance" yaml:"min_distance"`
	SpringStrength    float64 `json:"springStrength" yaml:"spring_strength"`
	RestLength        float64 `json:"restLength" yaml:"rest_length"`
	CenterRadius      float64 `json:"centerRadius" yaml:"center_radius"`
	CenteringStrength float64 `json:"centeringStrength" yaml:"centering_strength"`
	MaxForce          float64 `json:"maxForce" yaml:"max_force"`
	Damping           float64 `json:"damping" yaml:"damping"`
	Bound             float64 `json:"bound" yaml:"bound"`
	TimeStep          float64 `json:"timeStep" yaml:"time_step"`
	RestSpeed         float64 `json:"restSpeed" yaml:"rest_speed"`
	RestTicks         int     `json:"restTicks" yaml:"rest_ticks"`
}

// Params holds the tunables of both realizations so a mode switch keeps
// the other half intact
type Params struct {
	Planar     PlanarParams     `json:"planar" yaml:"planar"`
	Volumetric VolumetricParams `json:"volumetric" yaml:"volumetric"`
}

// DefaultParams returns the default layout parameters
func DefaultParams() Params {
	return Params{
		Planar: PlanarParams{
			Width:             960,
			Height:            600,
			LinkDistance:      80,
			LinkStrength:      1,
			Charge:            24000,
			ChargeDistanceMin: 10,
			CenterStrength:    0.05,
			CollisionRadius:   12,
			CollisionStrength: 0.7,
			// alpha reaches AlphaMin after roughly 300 ticks
			AlphaDecay:    1 - math.Pow(0.001, 1.0/300),
			AlphaMin:      0.001,
			VelocityDecay: 0.4,
		},
		Volumetric: VolumetricParams{
			Repulsion:         800,
			MinDistance:       5,
			SpringStrength:    0.02,
			RestLength:        60,
			CenterRadius:      200,
			CenteringStrength: 0.005,
			MaxForce:          20,
			Damping:           0.85,
			Bound:             600,
			TimeStep:          1,
			RestSpeed:         0.05,
			RestTicks:         30,
		},
	}
}

// Validate checks every tunable for a usable range
func (p Params) Validate() error {
	if err := p.Planar.Validate(); err != nil {
		return err
	}
	return p.Volumetric.Validate()
}

// Validate checks the planar tunables
func (p PlanarParams) Validate() error {
	for name, v := range map[string]float64{
		"width":               p.Width,
		"height":              p.Height,
		"link distance":       p.LinkDistance,
		"charge distance min": p.ChargeDistanceMin,
	} {
		if !(v > 0) || math.IsInf(v, 0) {
			return fmt.Errorf("planar %s must be positive, got %v", name, v)
		}
	}
	for name, v := range map[string]float64{
		"link strength":      p.LinkStrength,
		"charge":             p.Charge,
		"center strength":    p.CenterStrength,
		"collision radius":   p.CollisionRadius,
		"collision strength": p.CollisionStrength,
	} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("planar %s cannot be negative, got %v", name, v)
		}
	}
	if !(p.AlphaDecay > 0 && p.AlphaDecay < 1) {
		return fmt.Errorf("planar alpha decay must be in (0,1), got %v", p.AlphaDecay)
	}
	if !(p.AlphaMin > 0 && p.AlphaMin < 1) {
		return fmt.Errorf("planar alpha min must be in (0,1), got %v", p.AlphaMin)
	}
	if !(p.VelocityDecay > 0 && p.VelocityDecay < 1) {
		return fmt.Errorf("planar velocity decay must be in (0,1), got %v", p.VelocityDecay)
	}
	return nil
}

// Validate checks the volumetric tunables
func (p VolumetricParams) Validate() error {
	for name, v := range map[string]float64{
		"min distance":  p.MinDistance,
		"rest length":   p.RestLength,
		"center radius": p.CenterRadius,
		"max force":     p.MaxForce,
		"bound":         p.Bound,
		"time step":     p.TimeStep,
		"rest speed":    p.RestSpeed,
	} {
		if !(v > 0) || math.IsInf(v, 0) {
			return fmt.Errorf("volumetric %s must be positive, got %v", name, v)
		}
	}
	for name, v := range map[string]float64{
		"repulsion":          p.Repulsion,
		"spring strength":    p.SpringStrength,
		"centering strength": p.CenteringStrength,
	} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("volumetric %s cannot be negative, got %v", name, v)
		}
	}
	if !(p.Damping > 0 && p.Damping < 1) {
		return fmt.Errorf("volumetric damping must be in (0,1), got %v", p.Damping)
	}
	if p.RestTicks <= 0 {
		return fmt.Errorf("volumetric rest ticks must be positive, got %d", p.RestTicks)
	}
	return nil
}
