package midi

// LEDDiff remembers what a controller currently shows so only changed pads
// are sent. Pads missing from a new frame are switched off.
type LEDDiff struct {
	prev map[[2]int]LEDUpdate
}

// NewLEDDiff creates a diff that assumes a blank controller
func NewLEDDiff() *LEDDiff {
	return &LEDDiff{prev: make(map[[2]int]LEDUpdate)}
}

// Reset forgets the current frame (new controller or view)
func (d *LEDDiff) Reset() {
	d.prev = make(map[[2]int]LEDUpdate)
}

// Diff returns the updates needed to go from the last frame to frame
func (d *LEDDiff) Diff(frame []LEDUpdate) []LEDUpdate {
	next := make(map[[2]int]LEDUpdate, len(frame))
	var updates []LEDUpdate

	for _, led := range frame {
		key := [2]int{led.Row, led.Col}
		next[key] = led
		if prev, ok := d.prev[key]; !ok || prev != led {
			updates = append(updates, led)
		}
	}

	for key := range d.prev {
		if _, ok := next[key]; !ok {
			updates = append(updates, LEDUpdate{Row: key[0], Col: key[1]})
		}
	}

	d.prev = next
	return updates
}
