package widgets

import (
	"strings"
	"testing"
)

func TestSparkline(t *testing.T) {
	got := Sparkline([]float64{0, 0.5, 1, 2, -1}, 0, 1)
	want := "▁▅██▁"
	if got != want {
		t.Errorf("Sparkline = %q, want %q", got, want)
	}
	if got := Sparkline([]float64{3, 3}, 3, 3); got != "▁▁" {
		t.Errorf("flat range = %q", got)
	}
}

func TestMarker(t *testing.T) {
	if got := Marker(5, 2, '^'); got != "  ^  " {
		t.Errorf("Marker = %q", got)
	}
	if got := Marker(3, 9, '^'); got != "   " {
		t.Errorf("out of range marker = %q", got)
	}
}

func TestRenderKeyHelp(t *testing.T) {
	out := RenderKeyHelp([]KeySection{{Title: "Clips", Keys: []KeyBinding{{Key: "space", Desc: "launch"}}}})
	if !strings.HasPrefix(out, "Clips\n") || !strings.Contains(out, "space") {
		t.Errorf("help = %q", out)
	}
}
