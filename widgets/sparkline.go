package widgets

import "strings"

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// Sparkline draws values as one block character each, scaled between lo and
// hi. Values outside the range are clamped.
func Sparkline(values []float64, lo, hi float64) string {
	var b strings.Builder
	span := hi - lo
	for _, v := range values {
		idx := 0
		if span > 0 {
			norm := (v - lo) / span
			idx = int(norm*float64(len(sparkBlocks)-1) + 0.5)
		}
		idx = max(0, min(len(sparkBlocks)-1, idx))
		b.WriteRune(sparkBlocks[idx])
	}
	return b.String()
}

// Marker returns a line of width spaces with mark at position pos, used under
// a sparkline to show the playhead
func Marker(width, pos int, mark rune) string {
	if width <= 0 {
		return ""
	}
	line := []rune(strings.Repeat(" ", width))
	if pos >= 0 && pos < width {
		line[pos] = mark
	}
	return string(line)
}
