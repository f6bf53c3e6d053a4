package easing

import (
	"fmt"
	"math"
	"strings"
)

// Func remaps linear progress in [0, 1] to eased progress in [0, 1].
type Func func(t float64) float64

// Clamp01 clamps v to [0, 1]. NaN is treated as 0.
func Clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Smoothstep is the cubic t*t*(3-2t) with zero derivative at both ends.
func Smoothstep(t float64) float64 {
	t = Clamp01(t)
	return t * t * (3 - 2*t)
}

// Linear returns t clamped to [0, 1].
func Linear(t float64) float64 {
	return Clamp01(t)
}

// Lerp performs linear interpolation between a and b
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// ByName resolves an easing curve from its timeline file name.
// The empty string means linear.
func ByName(name string) (Func, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "linear", "none":
		return Linear, nil
	case "smoothstep", "smooth":
		return Smoothstep, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEasing, name)
	}
}
