package mixer

import (
	"sort"
	"sync"
)

// Event is one scheduled value change
type Event struct {
	At    float64 // clock seconds
	Value float64
}

// Param is a value with a timeline of scheduled changes. Between events the
// value holds (set-value-at-time semantics, no ramps).
type Param struct {
	mu      sync.Mutex
	initial float64
	events  []Event
}

// NewParam creates a parameter holding initial until the first event
func NewParam(initial float64) *Param {
	return &Param{initial: initial}
}

// SetValueAtTime schedules value at time at. A second write at the same
// time replaces the first.
func (p *Param) SetValueAtTime(value, at float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	i := sort.Search(len(p.events), func(i int) bool { return p.events[i].At >= at })
	if i < len(p.events) && p.events[i].At == at {
		p.events[i].Value = value
		return
	}
	p.events = append(p.events, Event{})
	copy(p.events[i+1:], p.events[i:])
	p.events[i] = Event{At: at, Value: value}
}

// ValueAt returns the value in effect at time at
func (p *Param) ValueAt(at float64) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	i := sort.Search(len(p.events), func(i int) bool { return p.events[i].At > at })
	if i == 0 {
		return p.initial
	}
	return p.events[i-1].Value
}

// Value returns the last scheduled value
func (p *Param) Value() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.events) == 0 {
		return p.initial
	}
	return p.events[len(p.events)-1].Value
}

// Set replaces the whole timeline with a constant value
func (p *Param) Set(value float64) {
	p.mu.Lock()
	p.initial = value
	p.events = nil
	p.mu.Unlock()
}

// CancelAfter drops every event at or after time at
func (p *Param) CancelAfter(at float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := sort.Search(len(p.events), func(i int) bool { return p.events[i].At >= at })
	p.events = p.events[:i]
}

// Prune folds events before time at into the initial value so the timeline
// does not grow without bound during playback
func (p *Param) Prune(at float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := sort.Search(len(p.events), func(i int) bool { return p.events[i].At > at })
	if i == 0 {
		return
	}
	p.initial = p.events[i-1].Value
	p.events = append(p.events[:0], p.events[i:]...)
}

// Events returns a copy of the timeline
func (p *Param) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Event(nil), p.events...)
}
