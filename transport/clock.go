package transport

import (
	"context"
	"math"
	"sync"
	"time"

	"go-session/debug"
)

// BeatToTime maps a beat position to seconds on the clock's timeline.
// Zero seconds is the moment the Clock was created.
type BeatToTime func(beat float64) float64

// Scheduler is registered with a Clock and filled one lookahead window at a
// time. Windows are contiguous: each call's fromBeat equals the previous
// call's toBeat, and windows never overlap. Implementations rely on this and
// do not de-duplicate; a window delivered twice would be applied twice.
type Scheduler interface {
	ScheduleRange(fromBeat, toBeat float64, beatToTime BeatToTime)
}

// TimeSignature is the meter used for bar-relative quantization
type TimeSignature struct {
	BeatsPerBar int `json:"beatsPerBar" yaml:"beatsPerBar"`
	BeatUnit    int `json:"beatUnit" yaml:"beatUnit"`
}

// DefaultSignature is 4/4
var DefaultSignature = TimeSignature{BeatsPerBar: 4, BeatUnit: 4}

// Bar returns the bar length in beats (4 when unset)
func (ts TimeSignature) Bar() float64 {
	if ts.BeatsPerBar <= 0 {
		return 4
	}
	return float64(ts.BeatsPerBar)
}

// At returns a position at beat in this meter
func (ts TimeSignature) At(beat float64) Position {
	return Position{Beat: beat, Signature: ts}
}

// Position is a beat together with the meter it is measured in
type Position struct {
	Beat      float64
	Signature TimeSignature
}

// At returns a 4/4 position at beat
func At(beat float64) Position {
	return Position{Beat: beat, Signature: DefaultSignature}
}

// Bar returns the zero-based bar number containing the position
func (p Position) Bar() int {
	return int(math.Floor(p.Beat / p.Signature.Bar()))
}

const (
	DefaultTempo     = 120.0
	MinTempo         = 20.0
	MaxTempo         = 300.0
	DefaultLookahead = 100 * time.Millisecond
	DefaultInterval  = 25 * time.Millisecond
)

// Clock is the musical clock. While playing, each Tick computes the window
// between what has already been scheduled and the playhead plus lookahead,
// and hands it to every registered Scheduler.
type Clock struct {
	mu sync.Mutex

	tempo   float64
	sig     TimeSignature
	playing bool

	startBeat      float64   // beat at startTime
	startTime      time.Time // anchor for beat computation
	origin         time.Time // zero of the BeatToTime timeline
	scheduledUntil float64   // end of the last window handed out

	lookahead time.Duration
	interval  time.Duration

	schedulers []Scheduler
	onTick     func(beat float64)
	onStop     func()

	now func() time.Time
}

// NewClock creates a stopped clock at beat 0
func NewClock(tempo float64, sig TimeSignature) *Clock {
	c := &Clock{
		sig:       sig,
		lookahead: DefaultLookahead,
		interval:  DefaultInterval,
		now:       time.Now,
	}
	c.tempo = clampTempo(tempo)
	c.origin = c.now()
	c.startTime = c.origin
	return c
}

// SetLookahead sets how far ahead of the playhead windows extend and how
// often Run ticks
func (c *Clock) SetLookahead(lookahead, interval time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if lookahead > 0 {
		c.lookahead = lookahead
	}
	if interval > 0 {
		c.interval = interval
	}
}

// AddScheduler registers s. Adding the same scheduler twice is a no-op.
func (c *Clock) AddScheduler(s Scheduler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, existing := range c.schedulers {
		if existing == s {
			return
		}
	}
	c.schedulers = append(c.schedulers, s)
}

// RemoveScheduler unregisters s by identity
func (c *Clock) RemoveScheduler(s Scheduler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, existing := range c.schedulers {
		if existing == s {
			c.schedulers = append(c.schedulers[:i], c.schedulers[i+1:]...)
			return
		}
	}
}

// SetOnTick sets a callback invoked with the playhead after every Tick
func (c *Clock) SetOnTick(fn func(beat float64)) {
	c.mu.Lock()
	c.onTick = fn
	c.mu.Unlock()
}

// SetOnStop sets a callback invoked after playback stops
func (c *Clock) SetOnStop(fn func()) {
	c.mu.Lock()
	c.onStop = fn
	c.mu.Unlock()
}

// Play starts playback from fromBeat
func (c *Clock) Play(fromBeat float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.playing {
		return
	}
	c.playing = true
	c.startBeat = fromBeat
	c.startTime = c.now()
	c.scheduledUntil = fromBeat
	debug.Log("clock", "play from=%.3f tempo=%.1f", fromBeat, c.tempo)
}

// Stop halts playback and leaves the playhead where it stopped
func (c *Clock) Stop() {
	c.mu.Lock()
	if !c.playing {
		c.mu.Unlock()
		return
	}
	at := c.beatAt(c.now())
	c.startBeat = at
	c.playing = false
	onStop := c.onStop
	c.mu.Unlock()

	debug.Log("clock", "stop at=%.3f", at)
	if onStop != nil {
		onStop()
	}
}

// Playing reports whether the clock is running
func (c *Clock) Playing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playing
}

// SetTempo changes the tempo, re-anchoring so the playhead does not jump
func (c *Clock) SetTempo(bpm float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.playing {
		now := c.now()
		c.startBeat = c.beatAt(now)
		c.startTime = now
	}
	c.tempo = clampTempo(bpm)
}

// Tempo returns the tempo in BPM
func (c *Clock) Tempo() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tempo
}

// SetTimeSignature changes the meter
func (c *Clock) SetTimeSignature(sig TimeSignature) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sig = sig
}

// CurrentBeat returns the playhead
func (c *Clock) CurrentBeat() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.beatAt(c.now())
}

// Position returns the playhead with the current meter
func (c *Clock) Position() Position {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Position{Beat: c.beatAt(c.now()), Signature: c.sig}
}

// BeatToTime converts a beat to seconds on the clock's timeline using the
// current tempo anchor
func (c *Clock) BeatToTime(beat float64) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mapping()(beat)
}

// Time converts seconds on the clock's timeline to wall-clock time
func (c *Clock) Time(sec float64) time.Time {
	return c.origin.Add(time.Duration(sec * float64(time.Second)))
}

// Now returns the current position on the clock's timeline in seconds
func (c *Clock) Now() float64 {
	return c.now().Sub(c.origin).Seconds()
}

// Tick runs one scheduling pass. It does nothing while stopped or when the
// horizon has not moved past what is already scheduled.
func (c *Clock) Tick() {
	c.mu.Lock()
	if !c.playing {
		c.mu.Unlock()
		return
	}
	current := c.beatAt(c.now())
	horizon := current + c.lookahead.Seconds()*c.tempo/60
	from := c.scheduledUntil
	if horizon <= from {
		c.mu.Unlock()
		return
	}
	c.scheduledUntil = horizon
	schedulers := make([]Scheduler, len(c.schedulers))
	copy(schedulers, c.schedulers)
	beatToTime := c.mapping()
	onTick := c.onTick
	c.mu.Unlock()

	debug.LogEvery(200, "clock", "window [%.3f, %.3f)", from, horizon)
	for _, s := range schedulers {
		s.ScheduleRange(from, horizon, beatToTime)
	}
	if onTick != nil {
		onTick(current)
	}
}

// Run ticks every interval until ctx is done (blocking - run in goroutine)
func (c *Clock) Run(ctx context.Context) {
	c.mu.Lock()
	interval := c.interval
	c.mu.Unlock()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Tick()
		}
	}
}

// beatAt requires c.mu
func (c *Clock) beatAt(t time.Time) float64 {
	if !c.playing {
		return c.startBeat
	}
	elapsed := t.Sub(c.startTime).Seconds()
	return c.startBeat + elapsed*c.tempo/60
}

// mapping snapshots the current anchor; requires c.mu
func (c *Clock) mapping() BeatToTime {
	anchor := c.startTime.Sub(c.origin).Seconds()
	startBeat := c.startBeat
	secPerBeat := 60 / c.tempo
	return func(beat float64) float64 {
		return anchor + (beat-startBeat)*secPerBeat
	}
}

func clampTempo(bpm float64) float64 {
	if bpm <= 0 {
		return DefaultTempo
	}
	return math.Max(MinTempo, math.Min(MaxTempo, bpm))
}
