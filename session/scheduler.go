package session

import (
	"sync"

	"go-session/debug"
	"go-session/transport"
)

// StateChangeFunc is told about every slot transition, synchronously
type StateChangeFunc func(slotID string, state LaunchState)

// PlayingSlot describes a slot that is currently sounding
type PlayingSlot struct {
	SlotID    string
	TrackID   string
	StartBeat float64
}

type pending struct {
	slotID     string
	trackID    string
	targetBeat float64
}

type slotRecord struct {
	trackID   string
	state     LaunchState
	startBeat float64
}

type change struct {
	slotID string
	state  LaunchState
}

// Scheduler runs the quantized launch/stop state machine for clip slots.
// At most one slot plays per track. Requests that land on a future boundary
// wait in ordered pending lists until a ScheduleRange window reaches them.
//
// Callbacks fire after the internal lock is released but before the
// calling method returns, so a StateChangeFunc may safely read the
// scheduler. It must not call mutating methods.
type Scheduler struct {
	mu       sync.Mutex
	slots    map[string]*slotRecord
	playing  []string // slot ids in launch order
	launches []pending
	stops    []pending

	onStateChange StateChangeFunc
}

// NewScheduler creates an idle scheduler
func NewScheduler() *Scheduler {
	return &Scheduler{slots: make(map[string]*slotRecord)}
}

// SetOnStateChange sets the transition callback
func (s *Scheduler) SetOnStateChange(fn StateChangeFunc) {
	s.mu.Lock()
	s.onStateChange = fn
	s.mu.Unlock()
}

// LaunchClip starts slotID on trackID at the next q boundary after pos, or
// now if that boundary has already been reached. Other slots playing on the
// track are stopped at the same boundary. It does not check that the slot
// holds a clip; use LaunchSlot for that.
func (s *Scheduler) LaunchClip(slotID, trackID string, q Quantize, pos transport.Position) {
	target := NextBoundary(q, pos)

	s.mu.Lock()
	var changes []change

	// a relaunch supersedes anything already pending for this slot
	s.launches = removePending(s.launches, slotID)
	s.stops = removePending(s.stops, slotID)

	for _, id := range s.playingOnTrack(trackID) {
		if id == slotID {
			continue
		}
		if target <= pos.Beat {
			s.stopNow(id, &changes)
		} else {
			s.stops = append(removePending(s.stops, id), pending{slotID: id, trackID: trackID, targetBeat: target})
		}
	}

	if target <= pos.Beat {
		s.startNow(slotID, trackID, pos.Beat, &changes)
	} else {
		s.launches = append(s.launches, pending{slotID: slotID, trackID: trackID, targetBeat: target})
		s.set(slotID, trackID, Queued, &changes)
	}
	debug.Log("session", "launch slot=%s track=%s q=%s at=%.3f target=%.3f", slotID, trackID, q, pos.Beat, target)
	s.mu.Unlock()

	s.emit(changes)
}

// LaunchSlot launches slot unless it is empty
func (s *Scheduler) LaunchSlot(slot ClipSlot, q Quantize, pos transport.Position) {
	if !slot.HasClip() {
		return
	}
	s.LaunchClip(slot.ID, slot.TrackID, q, pos)
}

// LaunchScene launches every non-empty slot of a scene row
func (s *Scheduler) LaunchScene(slots []ClipSlot, q Quantize, pos transport.Position) {
	for _, slot := range slots {
		s.LaunchSlot(slot, q, pos)
	}
}

// StopClip stops slotID at the next q boundary after pos. A launch still
// waiting for its boundary is cancelled outright. Stopping a slot that is
// neither playing nor queued does nothing.
func (s *Scheduler) StopClip(slotID string, q Quantize, pos transport.Position) {
	target := NextBoundary(q, pos)

	s.mu.Lock()
	var changes []change
	s.stopClip(slotID, target, pos.Beat, &changes)
	s.mu.Unlock()

	s.emit(changes)
}

// StopTrack stops whatever is playing or queued on trackID
func (s *Scheduler) StopTrack(trackID string, q Quantize, pos transport.Position) {
	target := NextBoundary(q, pos)

	s.mu.Lock()
	var changes []change
	var ids []string
	for _, p := range s.launches {
		if p.trackID == trackID {
			ids = append(ids, p.slotID)
		}
	}
	ids = append(ids, s.playingOnTrack(trackID)...)
	for _, id := range ids {
		s.stopClip(id, target, pos.Beat, &changes)
	}
	s.mu.Unlock()

	s.emit(changes)
}

// StopAll drops every pending request and stops all slots immediately,
// ignoring quantization. Used when the transport stops.
func (s *Scheduler) StopAll() {
	s.mu.Lock()
	var changes []change
	for _, id := range append([]string(nil), s.playing...) {
		s.stopNow(id, &changes)
	}
	for _, p := range s.launches {
		if rec := s.slots[p.slotID]; rec != nil && rec.state != Stopped {
			s.set(p.slotID, p.trackID, Stopped, &changes)
		}
	}
	s.launches = nil
	s.stops = nil
	s.mu.Unlock()

	debug.Log("session", "stop all: %d transitions", len(changes))
	s.emit(changes)
}

// ScheduleRange resolves pending launches and stops whose target beat lies
// before toBeat. Entries not yet due stay queued in order. Windows must be
// contiguous and non-overlapping (see transport.Scheduler).
//
// Targets that fall before fromBeat are also resolved: a request made
// after the clock already scheduled past its boundary would otherwise wait
// forever.
func (s *Scheduler) ScheduleRange(fromBeat, toBeat float64, _ transport.BeatToTime) {
	s.mu.Lock()
	var changes []change

	var due []pending
	keep := s.launches[:0]
	for _, p := range s.launches {
		if p.targetBeat < toBeat {
			due = append(due, p)
		} else {
			keep = append(keep, p)
		}
	}
	s.launches = keep
	for _, p := range due {
		// another launch may have queued on this track after p was requested
		for _, id := range s.playingOnTrack(p.trackID) {
			if id != p.slotID {
				s.stopNow(id, &changes)
			}
		}
		s.startNow(p.slotID, p.trackID, p.targetBeat, &changes)
	}

	due = due[:0]
	keepStops := s.stops[:0]
	for _, p := range s.stops {
		if p.targetBeat < toBeat {
			due = append(due, p)
		} else {
			keepStops = append(keepStops, p)
		}
	}
	s.stops = keepStops
	for _, p := range due {
		s.stopNow(p.slotID, &changes)
	}
	s.mu.Unlock()

	if len(changes) > 0 {
		debug.Log("session", "window [%.3f, %.3f): %d transitions", fromBeat, toBeat, len(changes))
	}
	s.emit(changes)
}

// Remove forgets a slot entirely without notifying (slot deleted)
func (s *Scheduler) Remove(slotID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.launches = removePending(s.launches, slotID)
	s.stops = removePending(s.stops, slotID)
	s.playing = removeID(s.playing, slotID)
	delete(s.slots, slotID)
}

// State returns a slot's launch state
func (s *Scheduler) State(slotID string) LaunchState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec := s.slots[slotID]; rec != nil {
		return rec.state
	}
	return Stopped
}

// IsSlotPlaying reports whether the slot is sounding (including while a
// quantized stop or relaunch is pending)
func (s *Scheduler) IsSlotPlaying(slotID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.playing {
		if id == slotID {
			return true
		}
	}
	return false
}

// PlayingSlots returns sounding slots in launch order
func (s *Scheduler) PlayingSlots() []PlayingSlot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]PlayingSlot, 0, len(s.playing))
	for _, id := range s.playing {
		rec := s.slots[id]
		out = append(out, PlayingSlot{SlotID: id, TrackID: rec.trackID, StartBeat: rec.startBeat})
	}
	return out
}

// Pending returns the number of queued launches and stops
func (s *Scheduler) Pending() (launches, stops int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.launches), len(s.stops)
}

// stopClip requires s.mu
func (s *Scheduler) stopClip(slotID string, target, beat float64, changes *[]change) {
	rec := s.slots[slotID]
	if rec == nil {
		return
	}

	wasQueued := hasPending(s.launches, slotID)
	s.launches = removePending(s.launches, slotID)
	if !s.isPlaying(slotID) {
		if wasQueued {
			s.set(slotID, rec.trackID, Stopped, changes)
		}
		return
	}

	if target <= beat {
		s.stopNow(slotID, changes)
		return
	}
	s.stops = append(removePending(s.stops, slotID), pending{slotID: slotID, trackID: rec.trackID, targetBeat: target})
	s.set(slotID, rec.trackID, Stopping, changes)
}

// startNow requires s.mu
func (s *Scheduler) startNow(slotID, trackID string, beat float64, changes *[]change) {
	if !s.isPlaying(slotID) {
		s.playing = append(s.playing, slotID)
	}
	s.set(slotID, trackID, Playing, changes)
	s.slots[slotID].startBeat = beat
}

// stopNow requires s.mu
func (s *Scheduler) stopNow(slotID string, changes *[]change) {
	rec := s.slots[slotID]
	if rec == nil {
		return
	}
	s.playing = removeID(s.playing, slotID)
	s.stops = removePending(s.stops, slotID)
	if rec.state != Stopped {
		s.set(slotID, rec.trackID, Stopped, changes)
	}
}

// set records a transition; requires s.mu
func (s *Scheduler) set(slotID, trackID string, state LaunchState, changes *[]change) {
	rec := s.slots[slotID]
	if rec == nil {
		rec = &slotRecord{}
		s.slots[slotID] = rec
	}
	rec.trackID = trackID
	rec.state = state
	*changes = append(*changes, change{slotID: slotID, state: state})
}

func (s *Scheduler) playingOnTrack(trackID string) []string {
	var ids []string
	for _, id := range s.playing {
		if s.slots[id].trackID == trackID {
			ids = append(ids, id)
		}
	}
	return ids
}

func (s *Scheduler) isPlaying(slotID string) bool {
	for _, id := range s.playing {
		if id == slotID {
			return true
		}
	}
	return false
}

func (s *Scheduler) emit(changes []change) {
	if len(changes) == 0 {
		return
	}
	s.mu.Lock()
	fn := s.onStateChange
	s.mu.Unlock()
	if fn == nil {
		return
	}
	for _, c := range changes {
		fn(c.slotID, c.state)
	}
}

func hasPending(list []pending, slotID string) bool {
	for _, p := range list {
		if p.slotID == slotID {
			return true
		}
	}
	return false
}

func removePending(list []pending, slotID string) []pending {
	out := list[:0]
	for _, p := range list {
		if p.slotID != slotID {
			out = append(out, p)
		}
	}
	return out
}

func removeID(list []string, id string) []string {
	out := list[:0]
	for _, v := range list {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
