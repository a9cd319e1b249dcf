package tui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"go-session/project"
	"go-session/sequencer"
	"go-session/theme"
	"go-session/transport"
)

func newTestModel(t *testing.T) (Model, string) {
	t.Helper()
	dir := t.TempDir()
	mgr := sequencer.NewManager(project.NewStore(), sequencer.Options{
		Library: project.NewLibrary(dir),
		Project: "demo",
	})
	return NewModel(mgr, nil, theme.New(nil)), dir
}

func press(m Model, key string) Model {
	var msg tea.KeyMsg
	switch key {
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "ctrl+s":
		msg = tea.KeyMsg{Type: tea.KeyCtrlS}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestPositionString(t *testing.T) {
	st := sequencer.Status{Position: transport.At(9.5)}
	if got := positionString(st); got != "  3.2" {
		t.Errorf("positionString = %q", got)
	}
	st.Position = transport.TimeSignature{BeatsPerBar: 3, BeatUnit: 4}.At(3)
	if got := positionString(st); got != "  2.1" {
		t.Errorf("3/4 positionString = %q", got)
	}
}

func TestTabSwitchesView(t *testing.T) {
	m, _ := newTestModel(t)
	if !strings.Contains(m.View(), "SESSION") {
		t.Fatal("session view not shown first")
	}
	m = press(m, "tab")
	if !strings.Contains(m.View(), "AUTOMATION") {
		t.Error("tab did not switch to automation")
	}
}

func TestTempoKeys(t *testing.T) {
	m, _ := newTestModel(t)
	m = press(m, "+")
	m = press(m, "+")
	m = press(m, "-")
	if got := m.Manager.Tempo(); got != transport.DefaultTempo+5 {
		t.Errorf("tempo = %v", got)
	}
}

func TestSavePrompt(t *testing.T) {
	m, dir := newTestModel(t)
	m = press(m, "ctrl+s")
	if !m.saving {
		t.Fatal("ctrl+s did not open the prompt")
	}
	// keys go to the prompt, not the views
	m = press(m, "t")
	if n := len(m.Manager.Store().Tracks()); n != 0 {
		t.Errorf("prompt key reached the session view: %d tracks", n)
	}
	m = press(m, "enter")
	if m.saving {
		t.Error("prompt still open")
	}
	if !strings.HasPrefix(m.message, "saved ") || !strings.HasSuffix(m.message, "_t.yaml") {
		t.Errorf("message = %q", m.message)
	}

	entries, err := os.ReadDir(filepath.Join(dir, "demo"))
	if err != nil || len(entries) != 1 {
		t.Errorf("saves = %v, %v", entries, err)
	}
}
