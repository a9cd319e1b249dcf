package automation

import (
	"math"
	"sort"
)

// minMagnitude keeps exponential ramps away from log(0)
const minMagnitude = 0.0001

// Sample is one evaluated point of a curve
type Sample struct {
	Beat  float64
	Value float64
}

// InterpolateValue evaluates the segment from -> to at beat using from's
// interpolation mode. Outside the segment the nearest endpoint's value is
// returned.
func InterpolateValue(from, to Point, beat float64) float64 {
	if beat <= from.Beat {
		return from.Value
	}
	if beat >= to.Beat {
		return to.Value
	}

	t := (beat - from.Beat) / (to.Beat - from.Beat)

	switch from.Mode {
	case Exponential:
		a := math.Max(math.Abs(from.Value), minMagnitude)
		b := math.Max(math.Abs(to.Value), minMagnitude)
		sign := 1.0
		if to.Value < 0 {
			sign = -1
		}
		return sign * a * math.Pow(b/a, t)
	case Step:
		return from.Value
	default:
		return from.Value + (to.Value-from.Value)*t
	}
}

// ValueAtBeat evaluates a sorted point list at beat. It reports false for an
// empty list. Beats outside the list hold the boundary value.
func ValueAtBeat(points []Point, beat float64) (float64, bool) {
	n := len(points)
	if n == 0 {
		return 0, false
	}
	if n == 1 || beat <= points[0].Beat {
		return points[0].Value, true
	}
	if beat >= points[n-1].Beat {
		return points[n-1].Value, true
	}

	// first point strictly after beat; its predecessor starts the segment
	i := sort.Search(n, func(i int) bool { return points[i].Beat > beat })
	return InterpolateValue(points[i-1], points[i], beat), true
}

// SampleCurve evaluates count evenly spaced beats across [fromBeat, toBeat]
// for drawing. It goes through ValueAtBeat so what is drawn is what plays.
func SampleCurve(points []Point, fromBeat, toBeat float64, count int) []Sample {
	if len(points) == 0 || count < 2 {
		return nil
	}

	step := (toBeat - fromBeat) / float64(count-1)
	samples := make([]Sample, 0, count)
	for i := 0; i < count; i++ {
		beat := fromBeat + step*float64(i)
		if v, ok := ValueAtBeat(points, beat); ok {
			samples = append(samples, Sample{Beat: beat, Value: v})
		}
	}
	return samples
}
