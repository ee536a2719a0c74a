package value

import (
	"math"
	"slices"

	"github.com/Aanecas/Fantasy-Ciclismo-Guardianes/pkg/rider"
)

// Normalisation parameters.
const (
	LowPercentile  = 10.0
	HighPercentile = 99.0

	// Curve < 1 lifts mid-range riders towards the top of the scale.
	Curve = 0.6
)

// Percentile returns the q-th percentile of values, interpolating linearly
// between order statistics. Empty input yields 0.
func Percentile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return 0
	}
	a := slices.Clone(values)
	slices.Sort(a)
	if len(a) == 1 {
		return a[0]
	}

	pos := q / 100 * float64(len(a)-1)
	lo := int(pos)
	hi := min(lo+1, len(a)-1)
	frac := pos - float64(lo)
	return a[lo]*(1-frac) + a[hi]*frac
}

// Bounds returns the p10/p99 cut-offs used for normalisation. A degenerate
// distribution (p99 <= p10) is replaced by [0, max(1, max value)].
func Bounds(values []float64) (low, high float64) {
	low = Percentile(values, LowPercentile)
	high = 1
	if len(values) > 0 {
		high = Percentile(values, HighPercentile)
	}
	if high <= low {
		low, high = 0, 1
		for _, v := range values {
			high = max(high, v)
		}
	}
	return low, high
}

// Normalize maps points onto [0,1] between the bounds and applies the curve.
func Normalize(points, low, high float64) float64 {
	var z float64
	switch {
	case points <= low:
		z = 0
	case points >= high:
		z = 1
	default:
		z = (points - low) / (high - low)
	}
	return math.Pow(z, Curve)
}

// Score turns ranking points into a rider value in [MinValue, MaxValue].
// Ties round half to even.
func Score(points, low, high, multiplier float64) float64 {
	z := Normalize(points, low, high)
	base := rider.MinValue + z*(rider.MaxValue-rider.MinValue)
	v := base * multiplier
	v = max(rider.MinValue, min(rider.MaxValue, v))
	return math.RoundToEven(v)
}
