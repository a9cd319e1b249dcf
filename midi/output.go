package midi

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"

	"go-session/debug"
)

// EffectChain is what CCOutput needs to know about track effects: where an
// instance sits in the chain and the range of its parameters
type EffectChain interface {
	EffectIndex(trackID, effectID string) int
	ParamRange(trackID string, index int, name string) (min, max float64, ok bool)
}

// DefaultDispatchInterval is how often Run sends due messages
const DefaultDispatchInterval = 2 * time.Millisecond

type ccKey struct {
	channel uint8
	cc      uint8
}

type ccEvent struct {
	at    time.Time
	key   ccKey
	value uint8
}

// CCOutput is an automation target that turns scheduled parameter values into
// Control Change messages sent at their scheduled wall time. Values equal to
// the last one queued for the same channel and controller are dropped.
type CCOutput struct {
	mu       sync.Mutex
	send     func(gomidi.Message) error
	toWall   func(sec float64) time.Time
	now      func() time.Time
	chain    EffectChain
	ccMap    map[string]uint8
	channels map[string]uint8 // track id -> 0-based MIDI channel
	queue    []ccEvent        // sorted by at
	last     map[ccKey]uint8
	interval time.Duration
}

// NewCCOutput creates an output sending through send. toWall converts clock
// seconds to wall time; chain may be nil when effects are not mirrored.
func NewCCOutput(send func(gomidi.Message) error, toWall func(sec float64) time.Time, chain EffectChain, ccMap map[string]uint8) *CCOutput {
	m := make(map[string]uint8, len(ccMap))
	for k, v := range ccMap {
		m[k] = v
	}
	return &CCOutput{
		send:     send,
		toWall:   toWall,
		now:      time.Now,
		chain:    chain,
		ccMap:    m,
		channels: make(map[string]uint8),
		last:     make(map[ccKey]uint8),
		interval: DefaultDispatchInterval,
	}
}

// OpenCCOutput opens the named output port
func OpenCCOutput(portName string, toWall func(sec float64) time.Time, chain EffectChain, ccMap map[string]uint8) (*CCOutput, error) {
	out := findOut(portName, gomidi.GetOutPorts())
	if out == nil {
		return nil, fmt.Errorf("output %q not found", portName)
	}
	send, err := gomidi.SendTo(out)
	if err != nil {
		return nil, fmt.Errorf("open output %q: %w", portName, err)
	}
	return NewCCOutput(send, toWall, chain, ccMap), nil
}

// SetTrackChannel routes a track to MIDI channel (1-16)
func (o *CCOutput) SetTrackChannel(trackID string, channel int) {
	if channel < 1 || channel > 16 {
		return
	}
	o.mu.Lock()
	o.channels[trackID] = uint8(channel - 1)
	o.mu.Unlock()
}

// RemoveTrack stops sending for a track
func (o *CCOutput) RemoveTrack(trackID string) {
	o.mu.Lock()
	delete(o.channels, trackID)
	o.mu.Unlock()
}

func (o *CCOutput) HasTrack(trackID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, ok := o.channels[trackID]
	return ok
}

func (o *CCOutput) SetTrackGain(trackID string, gain, at float64) {
	o.enqueue(trackID, CCVolume, GainToCC(gain), at)
}

func (o *CCOutput) SetTrackPan(trackID string, pan, at float64) {
	o.enqueue(trackID, CCPan, PanToCC(pan), at)
}

func (o *CCOutput) EffectIndex(trackID, effectID string) int {
	if o.chain == nil {
		return -1
	}
	return o.chain.EffectIndex(trackID, effectID)
}

// SetEffectParameter sends the parameter on its mapped controller, scaled
// from the parameter's range. Unmapped names are ignored.
func (o *CCOutput) SetEffectParameter(trackID string, index int, name string, value, at float64) {
	o.mu.Lock()
	cc, ok := o.ccMap[name]
	o.mu.Unlock()
	if !ok || o.chain == nil {
		return
	}
	lo, hi, ok := o.chain.ParamRange(trackID, index, name)
	if !ok {
		return
	}
	o.enqueue(trackID, cc, ScaleToCC(value, lo, hi), at)
}

func (o *CCOutput) enqueue(trackID string, cc, value uint8, at float64) {
	o.mu.Lock()
	defer o.mu.Unlock()

	ch, ok := o.channels[trackID]
	if !ok {
		return
	}
	key := ccKey{channel: ch, cc: cc}
	if prev, ok := o.last[key]; ok && prev == value {
		return
	}
	o.last[key] = value

	ev := ccEvent{at: o.toWall(at), key: key, value: value}
	i := sort.Search(len(o.queue), func(i int) bool { return o.queue[i].at.After(ev.at) })
	o.queue = append(o.queue, ccEvent{})
	copy(o.queue[i+1:], o.queue[i:])
	o.queue[i] = ev
}

// Flush sends every message due at or before now and returns how many were sent
func (o *CCOutput) Flush(now time.Time) int {
	o.mu.Lock()
	n := sort.Search(len(o.queue), func(i int) bool { return o.queue[i].at.After(now) })
	due := append([]ccEvent(nil), o.queue[:n]...)
	o.queue = append(o.queue[:0], o.queue[n:]...)
	o.mu.Unlock()

	for _, ev := range due {
		if err := o.send(gomidi.ControlChange(ev.key.channel, ev.key.cc, ev.value)); err != nil {
			debug.Log("cc", "send ch=%d cc=%d: %v", ev.key.channel+1, ev.key.cc, err)
		}
	}
	if len(due) > 0 {
		debug.LogEvery(50, "cc", "flushed %d", len(due))
	}
	return len(due)
}

// Clear drops everything not yet sent and forgets the last values, so the
// next pass resends from scratch. Called when the transport stops.
func (o *CCOutput) Clear() {
	o.mu.Lock()
	o.queue = nil
	o.last = make(map[ccKey]uint8)
	o.mu.Unlock()
}

// Pending returns the number of queued messages
func (o *CCOutput) Pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.queue)
}

// Run sends due messages until ctx is done (blocking - run in goroutine)
func (o *CCOutput) Run(ctx context.Context) {
	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.Flush(o.now())
		}
	}
}
