package sequencer

import "go-session/midi"

// View is a screen of the app: it renders text for the TUI and LEDs for the
// grid controller, and takes keys and pad presses while focused
type View interface {
	Name() string

	// UI - view returns render data, Manager handles output
	View() string
	RenderLEDs() []midi.LEDUpdate
	HandleKey(key string)
	HandlePad(row, col int)
}

// Launchpad layout shared by the views
const (
	gridSize = 8
	sideCol  = 8 // right-hand scene buttons
	topRow   = 8 // top button row
)
