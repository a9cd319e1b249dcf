package project

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"go-session/automation"
	"go-session/debug"
	"go-session/session"
	"go-session/transport"
)

// DefaultScenes is the number of scenes a new project starts with
const DefaultScenes = 8

// Effect is an effect instance in a track's chain. Lanes point at it by ID.
type Effect struct {
	ID   string `yaml:"id"`
	Kind string `yaml:"kind"`
}

// Track owns its effect chain and automation lanes
type Track struct {
	ID      string            `yaml:"id"`
	Name    string            `yaml:"name"`
	Channel int               `yaml:"channel"` // MIDI channel 1-16
	Effects []Effect          `yaml:"effects,omitempty"`
	Lanes   []automation.Lane `yaml:"lanes"`
}

// State is everything a project persists
type State struct {
	Tempo          float64                 `yaml:"tempo"`
	Signature      transport.TimeSignature `yaml:"signature"`
	GlobalQuantize session.Quantize        `yaml:"globalQuantize"`
	Tracks         []Track                 `yaml:"tracks"`
	Scenes         []session.Scene         `yaml:"scenes"`
	Slots          []session.ClipSlot      `yaml:"slots"`
}

// NewState returns an empty project with the default scenes
func NewState() State {
	st := State{
		Tempo:          transport.DefaultTempo,
		Signature:      transport.DefaultSignature,
		GlobalQuantize: session.QuantizeBar,
	}
	for i := 0; i < DefaultScenes; i++ {
		st.Scenes = append(st.Scenes, newScene(i))
	}
	return st
}

func newScene(index int) session.Scene {
	return session.Scene{ID: uuid.NewString(), Name: fmt.Sprintf("Scene %d", index+1), Index: index}
}

func newSlot(trackID string, sceneIndex int) session.ClipSlot {
	return session.ClipSlot{
		ID:             uuid.NewString(),
		TrackID:        trackID,
		SceneIndex:     sceneIndex,
		LaunchState:    session.Stopped,
		LaunchQuantize: session.QuantizeBar,
		LoopEnabled:    true,
	}
}

// Store is the single owner of tracks, lanes, scenes and slots. Every
// mutation goes through it; readers get copies.
type Store struct {
	mu       sync.RWMutex
	st       State
	onChange func()
}

// NewStore creates a store holding a fresh project
func NewStore() *Store {
	return &Store{st: NewState()}
}

// SetOnChange registers a callback fired after every mutation, outside the lock
func (s *Store) SetOnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

func (s *Store) changed() {
	s.mu.RLock()
	fn := s.onChange
	s.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

// Snapshot returns a deep copy of the project
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneState(s.st)
}

// Replace swaps in a loaded project. Runtime launch states reset to stopped
// and missing slots are created.
func (s *Store) Replace(st State) {
	st = cloneState(st)
	if st.Tempo <= 0 {
		st.Tempo = transport.DefaultTempo
	}
	if st.GlobalQuantize == "" {
		st.GlobalQuantize = session.QuantizeBar
	}
	for i := range st.Slots {
		st.Slots[i].LaunchState = session.Stopped
	}
	for i := range st.Scenes {
		st.Scenes[i].Index = i
	}

	s.mu.Lock()
	s.st = st
	s.ensureSlotsLocked()
	s.mu.Unlock()
	s.changed()
}

// SetTransport records tempo and meter for saving
func (s *Store) SetTransport(tempo float64, sig transport.TimeSignature) {
	s.mu.Lock()
	s.st.Tempo = tempo
	s.st.Signature = sig
	s.mu.Unlock()
}

// Transport returns the saved tempo and meter
func (s *Store) Transport() (float64, transport.TimeSignature) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.Tempo, s.st.Signature
}

// GlobalQuantize is the quantization used by scene launches and track stops
func (s *Store) GlobalQuantize() session.Quantize {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.GlobalQuantize
}

func (s *Store) SetGlobalQuantize(q session.Quantize) {
	s.mu.Lock()
	s.st.GlobalQuantize = q
	s.mu.Unlock()
	s.changed()
}

// --- tracks ---

// AddTrack creates a track on the next free MIDI channel and gives it a slot
// in every scene
func (s *Store) AddTrack(name string) Track {
	s.mu.Lock()
	used := make(map[int]bool)
	for _, t := range s.st.Tracks {
		used[t.Channel] = true
	}
	ch := 1
	for ch <= 16 && used[ch] {
		ch++
	}
	if ch > 16 {
		ch = len(s.st.Tracks)%16 + 1
	}
	if name == "" {
		name = fmt.Sprintf("Track %d", len(s.st.Tracks)+1)
	}
	t := Track{ID: uuid.NewString(), Name: name, Channel: ch}
	s.st.Tracks = append(s.st.Tracks, t)
	s.ensureSlotsLocked()
	s.mu.Unlock()

	debug.Log("store", "added track %s (%s) ch %d", t.Name, t.ID, ch)
	s.changed()
	return t
}

// RemoveTrack deletes a track with its lanes and slots. It returns the ids
// of the removed slots.
func (s *Store) RemoveTrack(trackID string) []string {
	s.mu.Lock()
	idx := s.trackIndex(trackID)
	if idx < 0 {
		s.mu.Unlock()
		return nil
	}
	s.st.Tracks = append(s.st.Tracks[:idx], s.st.Tracks[idx+1:]...)
	var removed []string
	keep := s.st.Slots[:0]
	for _, slot := range s.st.Slots {
		if slot.TrackID == trackID {
			removed = append(removed, slot.ID)
			continue
		}
		keep = append(keep, slot)
	}
	s.st.Slots = keep
	s.mu.Unlock()

	s.changed()
	return removed
}

// Tracks returns copies of all tracks in order
func (s *Store) Tracks() []Track {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Track, len(s.st.Tracks))
	for i, t := range s.st.Tracks {
		out[i] = cloneTrack(t)
	}
	return out
}

// Track returns a copy of one track
func (s *Store) Track(trackID string) (Track, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.trackIndex(trackID)
	if idx < 0 {
		return Track{}, false
	}
	return cloneTrack(s.st.Tracks[idx]), true
}

// requires s.mu
func (s *Store) trackIndex(trackID string) int {
	for i, t := range s.st.Tracks {
		if t.ID == trackID {
			return i
		}
	}
	return -1
}

// AddEffect appends an effect instance to a track's chain
func (s *Store) AddEffect(trackID, kind string) (Effect, bool) {
	e := Effect{ID: uuid.NewString(), Kind: kind}
	ok := s.mutateTrack(trackID, func(t *Track) bool {
		t.Effects = append(t.Effects, e)
		return true
	})
	if !ok {
		return Effect{}, false
	}
	return e, true
}

// RemoveEffect deletes an effect instance along with the lanes targeting it
func (s *Store) RemoveEffect(trackID, effectID string) bool {
	return s.mutateTrack(trackID, func(t *Track) bool {
		idx := -1
		for i, e := range t.Effects {
			if e.ID == effectID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return false
		}
		t.Effects = append(t.Effects[:idx], t.Effects[idx+1:]...)
		lanes := t.Lanes[:0]
		for _, l := range t.Lanes {
			if l.TargetID != effectID {
				lanes = append(lanes, l)
			}
		}
		t.Lanes = lanes
		return true
	})
}

// --- lanes ---

// AddLane creates an enabled, empty lane. targetID is the track id for
// volume/pan or an effect instance id.
func (s *Store) AddLane(trackID, targetID, parameter string) (automation.Lane, bool) {
	s.mu.Lock()
	idx := s.trackIndex(trackID)
	if idx < 0 {
		s.mu.Unlock()
		return automation.Lane{}, false
	}
	lane := automation.Lane{
		ID:        uuid.NewString(),
		Parameter: parameter,
		TargetID:  targetID,
		Enabled:   true,
	}
	s.st.Tracks[idx].Lanes = append(s.st.Tracks[idx].Lanes, lane)
	s.mu.Unlock()

	s.changed()
	return lane.Clone(), true
}

func (s *Store) RemoveLane(trackID, laneID string) bool {
	ok := s.mutateTrack(trackID, func(t *Track) bool {
		for i, l := range t.Lanes {
			if l.ID == laneID {
				t.Lanes = append(t.Lanes[:i], t.Lanes[i+1:]...)
				return true
			}
		}
		return false
	})
	return ok
}

func (s *Store) SetLaneEnabled(trackID, laneID string, enabled bool) bool {
	return s.mutateLane(trackID, laneID, func(l *automation.Lane) bool {
		l.Enabled = enabled
		return true
	})
}

// AddPoint inserts p into a lane keeping beat order. A missing id is filled
// in. Used as the recorder's add-point callback.
func (s *Store) AddPoint(trackID, laneID string, p automation.Point) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Mode == "" {
		p.Mode = automation.Linear
	}
	s.mutateLane(trackID, laneID, func(l *automation.Lane) bool {
		l.Insert(p)
		return true
	})
}

func (s *Store) RemovePoint(trackID, laneID, pointID string) bool {
	return s.mutateLane(trackID, laneID, func(l *automation.Lane) bool {
		return l.Remove(pointID)
	})
}

// MovePoint changes a point's beat and value and re-sorts the lane
func (s *Store) MovePoint(trackID, laneID, pointID string, beat, value float64) bool {
	return s.mutateLane(trackID, laneID, func(l *automation.Lane) bool {
		return l.Move(pointID, beat, value)
	})
}

// ClearLane removes every point from a lane
func (s *Store) ClearLane(trackID, laneID string) bool {
	return s.mutateLane(trackID, laneID, func(l *automation.Lane) bool {
		l.Points = nil
		return true
	})
}

// Lane returns a copy of one lane
func (s *Store) Lane(trackID, laneID string) (automation.Lane, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.trackIndex(trackID)
	if idx < 0 {
		return automation.Lane{}, false
	}
	for _, l := range s.st.Tracks[idx].Lanes {
		if l.ID == laneID {
			return l.Clone(), true
		}
	}
	return automation.Lane{}, false
}

// AutomationTracks returns a snapshot of every track's lanes. The result is
// owned by the caller.
func (s *Store) AutomationTracks() []automation.TrackLanes {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]automation.TrackLanes, 0, len(s.st.Tracks))
	for _, t := range s.st.Tracks {
		if len(t.Lanes) == 0 {
			continue
		}
		lanes := make([]automation.Lane, len(t.Lanes))
		for i, l := range t.Lanes {
			lanes[i] = l.Clone()
		}
		out = append(out, automation.TrackLanes{TrackID: t.ID, Lanes: lanes})
	}
	return out
}

func (s *Store) mutateTrack(trackID string, fn func(t *Track) bool) bool {
	s.mu.Lock()
	idx := s.trackIndex(trackID)
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	ok := fn(&s.st.Tracks[idx])
	s.mu.Unlock()
	if ok {
		s.changed()
	}
	return ok
}

func (s *Store) mutateLane(trackID, laneID string, fn func(l *automation.Lane) bool) bool {
	return s.mutateTrack(trackID, func(t *Track) bool {
		for i := range t.Lanes {
			if t.Lanes[i].ID == laneID {
				return fn(&t.Lanes[i])
			}
		}
		return false
	})
}

// --- session grid ---

// Scenes returns the scenes in index order
func (s *Store) Scenes() []session.Scene {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]session.Scene(nil), s.st.Scenes...)
}

// AddScene appends a scene and gives every track a slot in it
func (s *Store) AddScene() session.Scene {
	s.mu.Lock()
	sc := newScene(len(s.st.Scenes))
	s.st.Scenes = append(s.st.Scenes, sc)
	s.ensureSlotsLocked()
	s.mu.Unlock()

	s.changed()
	return sc
}

// RemoveScene deletes a scene and its slots; later scenes move up a row.
// It returns the ids of the removed slots.
func (s *Store) RemoveScene(sceneID string) []string {
	s.mu.Lock()
	idx := -1
	for i, sc := range s.st.Scenes {
		if sc.ID == sceneID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return nil
	}
	s.st.Scenes = append(s.st.Scenes[:idx], s.st.Scenes[idx+1:]...)
	for i := range s.st.Scenes {
		s.st.Scenes[i].Index = i
	}

	var removed []string
	keep := s.st.Slots[:0]
	for _, slot := range s.st.Slots {
		switch {
		case slot.SceneIndex == idx:
			removed = append(removed, slot.ID)
			continue
		case slot.SceneIndex > idx:
			slot.SceneIndex--
		}
		keep = append(keep, slot)
	}
	s.st.Slots = keep
	s.mu.Unlock()

	s.changed()
	return removed
}

// SetSceneTempo sets the tempo a scene switches to on launch, 0 for none
func (s *Store) SetSceneTempo(sceneID string, bpm float64) bool {
	s.mu.Lock()
	found := false
	for i := range s.st.Scenes {
		if s.st.Scenes[i].ID == sceneID {
			s.st.Scenes[i].Tempo = max(0, bpm)
			found = true
			break
		}
	}
	s.mu.Unlock()
	if found {
		s.changed()
	}
	return found
}

// MoveScene moves the scene at from to position to, carrying its slots.
// Out-of-range indices do nothing.
func (s *Store) MoveScene(from, to int) bool {
	s.mu.Lock()
	n := len(s.st.Scenes)
	if from < 0 || from >= n || to < 0 || to >= n || from == to {
		s.mu.Unlock()
		return false
	}

	sc := s.st.Scenes[from]
	scenes := append(s.st.Scenes[:from:from], s.st.Scenes[from+1:]...)
	scenes = append(scenes[:to], append([]session.Scene{sc}, scenes[to:]...)...)
	s.st.Scenes = scenes

	remap := make(map[int]int, n)
	for i := range s.st.Scenes {
		remap[s.st.Scenes[i].Index] = i
		s.st.Scenes[i].Index = i
	}
	for i := range s.st.Slots {
		s.st.Slots[i].SceneIndex = remap[s.st.Slots[i].SceneIndex]
	}
	s.mu.Unlock()

	s.changed()
	return true
}

// EnsureSlotsForTracks creates any slot missing from the track x scene grid
func (s *Store) EnsureSlotsForTracks() {
	s.mu.Lock()
	s.ensureSlotsLocked()
	s.mu.Unlock()
}

func (s *Store) ensureSlotsLocked() {
	type cell struct {
		track string
		scene int
	}
	have := make(map[cell]bool, len(s.st.Slots))
	for _, slot := range s.st.Slots {
		have[cell{slot.TrackID, slot.SceneIndex}] = true
	}
	for _, t := range s.st.Tracks {
		for i := range s.st.Scenes {
			if !have[cell{t.ID, i}] {
				s.st.Slots = append(s.st.Slots, newSlot(t.ID, i))
			}
		}
	}
}

// SetClipInSlot puts a clip into a slot
func (s *Store) SetClipInSlot(slotID string, clip session.Clip) bool {
	return s.mutateSlot(slotID, func(slot *session.ClipSlot) {
		if clip.ID == "" {
			clip.ID = uuid.NewString()
		}
		slot.Clip = &clip
	})
}

// ClearSlot empties a slot and marks it stopped
func (s *Store) ClearSlot(slotID string) bool {
	return s.mutateSlot(slotID, func(slot *session.ClipSlot) {
		slot.Clip = nil
		slot.LaunchState = session.Stopped
	})
}

// SetSlotState records a launch state. It is the session scheduler's
// state-change sink.
func (s *Store) SetSlotState(slotID string, state session.LaunchState) {
	s.mutateSlot(slotID, func(slot *session.ClipSlot) {
		slot.LaunchState = state
	})
}

// SetSlotQuantize sets a slot's own launch quantization
func (s *Store) SetSlotQuantize(slotID string, q session.Quantize) bool {
	return s.mutateSlot(slotID, func(slot *session.ClipSlot) {
		slot.LaunchQuantize = q
	})
}

// Slot returns a copy of one slot
func (s *Store) Slot(slotID string) (session.ClipSlot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, slot := range s.st.Slots {
		if slot.ID == slotID {
			return cloneSlot(slot), true
		}
	}
	return session.ClipSlot{}, false
}

// SlotAt returns the slot for a track in a scene row
func (s *Store) SlotAt(trackID string, sceneIndex int) (session.ClipSlot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, slot := range s.st.Slots {
		if slot.TrackID == trackID && slot.SceneIndex == sceneIndex {
			return cloneSlot(slot), true
		}
	}
	return session.ClipSlot{}, false
}

// SceneSlots returns a scene row's slots in track order
func (s *Store) SceneSlots(sceneIndex int) []session.ClipSlot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []session.ClipSlot
	for _, t := range s.st.Tracks {
		for _, slot := range s.st.Slots {
			if slot.TrackID == t.ID && slot.SceneIndex == sceneIndex {
				out = append(out, cloneSlot(slot))
			}
		}
	}
	return out
}

// TrackSlots returns a track's slots in scene order
func (s *Store) TrackSlots(trackID string) []session.ClipSlot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]session.ClipSlot, len(s.st.Scenes))
	n := 0
	for _, slot := range s.st.Slots {
		if slot.TrackID == trackID && slot.SceneIndex >= 0 && slot.SceneIndex < len(out) {
			out[slot.SceneIndex] = cloneSlot(slot)
			n++
		}
	}
	if n == 0 {
		return nil
	}
	return out
}

func (s *Store) mutateSlot(slotID string, fn func(slot *session.ClipSlot)) bool {
	s.mu.Lock()
	for i := range s.st.Slots {
		if s.st.Slots[i].ID == slotID {
			fn(&s.st.Slots[i])
			s.mu.Unlock()
			s.changed()
			return true
		}
	}
	s.mu.Unlock()
	return false
}

func cloneTrack(t Track) Track {
	lanes := make([]automation.Lane, len(t.Lanes))
	for i, l := range t.Lanes {
		lanes[i] = l.Clone()
	}
	t.Lanes = lanes
	t.Effects = append([]Effect(nil), t.Effects...)
	return t
}

func cloneSlot(slot session.ClipSlot) session.ClipSlot {
	if slot.Clip != nil {
		c := *slot.Clip
		slot.Clip = &c
	}
	return slot
}

func cloneState(st State) State {
	out := st
	out.Tracks = make([]Track, len(st.Tracks))
	for i, t := range st.Tracks {
		out.Tracks[i] = cloneTrack(t)
	}
	out.Scenes = append([]session.Scene(nil), st.Scenes...)
	out.Slots = make([]session.ClipSlot, len(st.Slots))
	for i, slot := range st.Slots {
		out.Slots[i] = cloneSlot(slot)
	}
	return out
}
