package motion

import "math"

const twoPi = 2 * math.Pi

// WrapNonnegative normalizes an angle [rad] into [0, 2π). The wrap is applied
// only at the reporting boundary of a calculation, never mid-calculation, so
// motion across the 0/2π seam stays continuous in unwrapped terms.
func WrapNonnegative(angle float64) float64 {
	wrapped := math.Mod(angle, twoPi)
	if wrapped < 0 {
		wrapped += twoPi
	}
	// Mod can return exactly 2π for small negative inputs due to rounding.
	if wrapped >= twoPi {
		wrapped = 0
	}
	return wrapped
}

// ShortestArc returns the signed angular displacement from start to end [rad]
// taking the short way around the circle. The result lies in (-π, π], so a
// transit planned with it never exceeds half a revolution.
func ShortestArc(start, end float64) float64 {
	delta := WrapNonnegative(end - start)
	if delta > math.Pi {
		delta -= twoPi
	}
	return delta
}

// DegToRad converts degrees to radians.
func DegToRad(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// RadToDeg converts radians to degrees.
func RadToDeg(rad float64) float64 {
	return rad * 180.0 / math.Pi
}
