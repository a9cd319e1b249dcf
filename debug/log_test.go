package debug

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLogWritesCategory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "debug.log")
	if err := Enable(path); err != nil {
		t.Fatal(err)
	}
	defer Disable()

	Log("session", "launch %s", "s1")
	for i := 0; i < 4; i++ {
		LogEvery(2, "clock", "tick")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	if !strings.Contains(out, "cat=session") || !strings.Contains(out, "launch s1") {
		t.Errorf("log missing entry:\n%s", out)
	}
	if n := strings.Count(out, "cat=clock"); n != 2 {
		t.Errorf("LogEvery wrote %d lines, want 2", n)
	}
}

func TestDisabledIsSilent(t *testing.T) {
	Disable()
	Log("x", "nothing") // must not panic
	if Enabled() {
		t.Error("Enabled() after Disable")
	}
}
