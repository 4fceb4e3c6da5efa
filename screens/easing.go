package screens

// Easing maps fade progress in [0, 1] to alpha in [0, 1].
type Easing func(progress float64) float64

// Linear is the identity curve.
func Linear(progress float64) float64 {
	return progress
}

// Smoothstep eases in and out.
func Smoothstep(progress float64) float64 {
	return progress * progress * (3 - 2*progress)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
