package midi

import (
	"fmt"
	"sync"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// KnobController handles a generic knob/fader box (input only)
type KnobController struct {
	id       string
	channel  int // 1-16, 0 = any
	stopFunc func()

	closeOnce sync.Once
	knobChan  chan KnobEvent
}

// NewKnobController listens for Control Change on inPort. channel filters to
// one MIDI channel (1-16); 0 accepts all.
func NewKnobController(id string, inPort drivers.In, channel int) (*KnobController, error) {
	kc := &KnobController{
		id:       id,
		channel:  channel,
		knobChan: make(chan KnobEvent, 64),
	}

	if inPort != nil {
		stop, err := gomidi.ListenTo(inPort, func(msg gomidi.Message, timestampms int32) {
			if ev, ok := decodeKnob(msg, kc.channel); ok {
				select {
				case kc.knobChan <- ev:
				default:
				}
			}
		})
		if err != nil {
			return nil, fmt.Errorf("open input %s: %w", id, err)
		}
		kc.stopFunc = stop
	}

	return kc, nil
}

func (kc *KnobController) ID() string {
	return kc.id
}

func (kc *KnobController) Type() ControllerType {
	return ControllerKnobs
}

// PadEvents is nil: knob boxes have no pads
func (kc *KnobController) PadEvents() <-chan PadEvent {
	return nil
}

func (kc *KnobController) KnobEvents() <-chan KnobEvent {
	return kc.knobChan
}

// SetLEDBatch is a no-op for knob boxes
func (kc *KnobController) SetLEDBatch(updates []LEDUpdate) error {
	return nil
}

func (kc *KnobController) Close() error {
	kc.closeOnce.Do(func() {
		if kc.stopFunc != nil {
			kc.stopFunc()
		}
		close(kc.knobChan)
	})
	return nil
}

// decodeKnob extracts a Control Change, honouring the channel filter
func decodeKnob(msg gomidi.Message, channel int) (KnobEvent, bool) {
	var ch, cc, value uint8
	if !msg.GetControlChange(&ch, &cc, &value) {
		return KnobEvent{}, false
	}
	if channel > 0 && int(ch) != channel-1 {
		return KnobEvent{}, false
	}
	return KnobEvent{Channel: ch, CC: cc, Value: value}, true
}
