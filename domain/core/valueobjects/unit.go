package valueobjects

import "math"

// ClampUnit clamps v into [0,1]. NaN and infinities are replaced by fallback,
// which is itself clamped.
func ClampUnit(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = fallback
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0
		}
	}
	return clamp(v, 0, 1)
}

// ClampUnitPtr is ClampUnit for optional fields; nil means "missing".
func ClampUnitPtr(v *float64, fallback float64) float64 {
	if v == nil {
		return ClampUnit(fallback, 0)
	}
	return ClampUnit(*v, fallback)
}

// Clamp limits v to [lo, hi]
func Clamp(v, lo, hi float64) float64 {
	return clamp(v, lo, hi)
}
