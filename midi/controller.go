package midi

// ControllerType identifies the kind of controller
type ControllerType int

const (
	ControllerUnknown ControllerType = iota
	ControllerLaunchpad
	ControllerKnobs
)

// PadEvent is sent when a pad/button is pressed on a grid controller.
// Row 8 is the top button row, Col 8 the right-hand scene column.
type PadEvent struct {
	Row, Col int
	Velocity uint8
}

// KnobEvent is sent when a knob or fader moves
type KnobEvent struct {
	Channel uint8 // 0-15
	CC      uint8
	Value   uint8
}

// LEDUpdate is one pad colour change
type LEDUpdate struct {
	Row, Col int
	Color    [3]uint8 // RGB, mapped to the device palette
	Channel  uint8    // ChannelStatic, ChannelFlash or ChannelPulse
}

// Controller is the interface for MIDI input devices
type Controller interface {
	ID() string
	Type() ControllerType

	// Input events from the controller; nil when the device has none
	PadEvents() <-chan PadEvent
	KnobEvents() <-chan KnobEvent

	// Output to the controller
	SetLEDBatch(updates []LEDUpdate) error

	// Lifecycle
	Close() error
}

// Launchpad LED channel modes (used as the NoteOn channel)
const (
	ChannelStatic uint8 = 0 // solid color
	ChannelFlash  uint8 = 1 // flashing A/B alternating
	ChannelPulse  uint8 = 2 // pulsing (fades)
)
