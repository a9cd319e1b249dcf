package session

import (
	"math"

	"go-session/transport"
)

// NextBoundary returns the beat a transition requested at pos takes effect:
// the next beat, half bar or bar boundary at or after pos.Beat, or pos.Beat
// itself for QuantizeNone.
func NextBoundary(q Quantize, pos transport.Position) float64 {
	bar := pos.Signature.Bar()
	switch q {
	case QuantizeBeat:
		return math.Ceil(pos.Beat)
	case QuantizeHalf:
		half := bar / 2
		return math.Ceil(pos.Beat/half) * half
	case QuantizeBar:
		return math.Ceil(pos.Beat/bar) * bar
	default:
		return pos.Beat
	}
}
