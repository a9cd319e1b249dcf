package automation

import (
	"math"
	"sync"

	"go-session/debug"
	"go-session/transport"
)

// SamplesPerBeat is the fixed resolution lanes are sampled at
const SamplesPerBeat = 8

// Track-level parameter names. Any other parameter on a lane is looked up on
// the effect whose instance id is the lane's TargetID.
const (
	ParamVolume = "volume"
	ParamPan    = "pan"
)

// SilenceDB and below map to a gain of exactly zero
const SilenceDB = -60.0

// Setter schedules value to take effect at time at (clock seconds)
type Setter func(value, at float64)

// Source supplies the lanes to schedule, grouped by owning track
type Source interface {
	AutomationTracks() []TrackLanes
}

// Target is a parameter sink. Values are scheduled for a future time, not
// applied immediately.
type Target interface {
	HasTrack(trackID string) bool
	SetTrackGain(trackID string, gain, at float64)
	SetTrackPan(trackID string, pan, at float64)
	// EffectIndex returns the chain position of the effect instance, -1 if
	// the track has no such effect
	EffectIndex(trackID, effectID string) int
	SetEffectParameter(trackID string, index int, name string, value, at float64)
}

// Scheduler writes automation curves into one or more Targets. It is a
// transport.Scheduler: register it with the clock.
type Scheduler struct {
	source  Source
	targets []Target

	mu      sync.Mutex
	missing map[string]bool // lanes already logged as unresolvable
}

// NewScheduler creates a scheduler reading lanes from source
func NewScheduler(source Source, targets ...Target) *Scheduler {
	return &Scheduler{
		source:  source,
		targets: targets,
		missing: make(map[string]bool),
	}
}

// AddTarget adds another parameter sink
func (s *Scheduler) AddTarget(t Target) {
	s.mu.Lock()
	s.targets = append(s.targets, t)
	s.mu.Unlock()
}

// ScheduleRange samples every enabled lane across [fromBeat, toBeat).
// Windows must be contiguous and non-overlapping (see transport.Scheduler).
func (s *Scheduler) ScheduleRange(fromBeat, toBeat float64, beatToTime transport.BeatToTime) {
	for _, track := range s.source.AutomationTracks() {
		for i := range track.Lanes {
			lane := &track.Lanes[i]
			if !lane.Enabled || len(lane.Points) == 0 {
				continue
			}
			s.scheduleLane(track.TrackID, lane, fromBeat, toBeat, beatToTime)
		}
	}
}

func (s *Scheduler) scheduleLane(trackID string, lane *Lane, fromBeat, toBeat float64, beatToTime transport.BeatToTime) {
	setter := s.resolve(trackID, lane.TargetID, lane.Parameter)
	if setter == nil {
		s.mu.Lock()
		if !s.missing[lane.ID] {
			s.missing[lane.ID] = true
			debug.Log("auto", "lane %s: no target for %s/%s, skipping", lane.ID, lane.TargetID, lane.Parameter)
		}
		s.mu.Unlock()
		return
	}

	// step counter rather than repeated addition so beats stay on the grid
	for k := math.Ceil(fromBeat * SamplesPerBeat); ; k++ {
		beat := k / SamplesPerBeat
		if beat >= toBeat {
			break
		}
		if value, ok := ValueAtBeat(lane.Points, beat); ok {
			setter(value, beatToTime(beat))
		}
	}
}

// resolve finds the setter for a (target, parameter) pair on a track. It
// returns nil when no target knows the track or effect.
func (s *Scheduler) resolve(trackID, targetID, parameter string) Setter {
	s.mu.Lock()
	targets := s.targets
	s.mu.Unlock()

	var setters []Setter
	for _, t := range targets {
		if setter := resolveOn(t, trackID, targetID, parameter); setter != nil {
			setters = append(setters, setter)
		}
	}

	switch len(setters) {
	case 0:
		return nil
	case 1:
		return setters[0]
	}
	return func(value, at float64) {
		for _, set := range setters {
			set(value, at)
		}
	}
}

func resolveOn(t Target, trackID, targetID, parameter string) Setter {
	if !t.HasTrack(trackID) {
		return nil
	}

	if targetID == trackID {
		switch parameter {
		case ParamVolume:
			return func(value, at float64) {
				t.SetTrackGain(trackID, DBToGain(value), at)
			}
		case ParamPan:
			return func(value, at float64) {
				t.SetTrackPan(trackID, math.Max(-1, math.Min(1, value)), at)
			}
		}
	}

	idx := t.EffectIndex(trackID, targetID)
	if idx < 0 {
		return nil
	}
	return func(value, at float64) {
		t.SetEffectParameter(trackID, idx, parameter, value, at)
	}
}

// DBToGain converts decibels to linear gain, treating SilenceDB and below as
// true silence
func DBToGain(db float64) float64 {
	if db <= SilenceDB {
		return 0
	}
	return math.Pow(10, db/20)
}
