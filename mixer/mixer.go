package mixer

import (
	"math"
	"sync"

	"github.com/google/uuid"

	"go-session/debug"
)

// MasterID is the strip every mixer has
const MasterID = "master"

// ParamSpec declares an effect parameter and its range
type ParamSpec struct {
	Name    string
	Default float64
	Min     float64
	Max     float64
}

// Effect is one insert in a strip's chain
type Effect struct {
	ID      string
	Kind    string
	Enabled bool

	specs  []ParamSpec
	params map[string]*Param
}

// Param returns the named parameter, nil if the effect has none
func (e *Effect) Param(name string) *Param {
	return e.params[name]
}

// Specs returns the declared parameters in declaration order
func (e *Effect) Specs() []ParamSpec {
	return append([]ParamSpec(nil), e.specs...)
}

func (e *Effect) spec(name string) (ParamSpec, bool) {
	for _, s := range e.specs {
		if s.Name == name {
			return s, true
		}
	}
	return ParamSpec{}, false
}

// Strip is a channel: gain, pan and an effect chain
type Strip struct {
	ID   string
	Gain *Param // linear, 1 = unity
	Pan  *Param // -1..1

	effects []*Effect
}

func newStrip(id string) *Strip {
	return &Strip{ID: id, Gain: NewParam(1), Pan: NewParam(0)}
}

// Mixer is the in-process parameter sink. It satisfies automation.Target.
type Mixer struct {
	mu     sync.RWMutex
	strips map[string]*Strip
	order  []string
}

// New creates a mixer holding only the master strip
func New() *Mixer {
	m := &Mixer{strips: make(map[string]*Strip)}
	m.AddStrip(MasterID)
	return m
}

// AddStrip creates a strip for trackID. Adding an existing id is a no-op.
func (m *Mixer) AddStrip(trackID string) *Strip {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.strips[trackID]; ok {
		return s
	}
	s := newStrip(trackID)
	m.strips[trackID] = s
	m.order = append(m.order, trackID)
	return s
}

// RemoveStrip deletes a track's strip. The master strip stays.
func (m *Mixer) RemoveStrip(trackID string) {
	if trackID == MasterID {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.strips[trackID]; !ok {
		return
	}
	delete(m.strips, trackID)
	for i, id := range m.order {
		if id == trackID {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

// Strip returns a strip by track id
func (m *Mixer) Strip(trackID string) (*Strip, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.strips[trackID]
	return s, ok
}

// Strips returns strip ids in creation order
func (m *Mixer) Strips() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.order...)
}

// AddEffect appends an effect to a track's chain and returns its instance
// id, or "" when the track has no strip
func (m *Mixer) AddEffect(trackID, kind string, params ...ParamSpec) string {
	id := uuid.NewString()
	if !m.AddEffectID(trackID, id, kind, params...) {
		return ""
	}
	return id
}

// AddEffectID appends an effect with a known instance id, as when a saved
// project is restored. It fails when the track has no strip or already holds
// the id.
func (m *Mixer) AddEffectID(trackID, id, kind string, params ...ParamSpec) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.strips[trackID]
	if !ok || id == "" {
		return false
	}
	for _, e := range s.effects {
		if e.ID == id {
			return false
		}
	}
	e := &Effect{
		ID:      id,
		Kind:    kind,
		Enabled: true,
		specs:   params,
		params:  make(map[string]*Param, len(params)),
	}
	for _, p := range params {
		e.params[p.Name] = NewParam(p.Default)
	}
	s.effects = append(s.effects, e)
	debug.Log("mixer", "track %s: added %s (%s)", trackID, kind, id)
	return true
}

// RemoveEffect deletes an effect instance from a track's chain
func (m *Mixer) RemoveEffect(trackID, effectID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.strips[trackID]
	if !ok {
		return false
	}
	for i, e := range s.effects {
		if e.ID == effectID {
			s.effects = append(s.effects[:i], s.effects[i+1:]...)
			return true
		}
	}
	return false
}

// Effects returns a track's chain in order
func (m *Mixer) Effects(trackID string) []*Effect {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.strips[trackID]
	if !ok {
		return nil
	}
	return append([]*Effect(nil), s.effects...)
}

func (m *Mixer) HasTrack(trackID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.strips[trackID]
	return ok
}

func (m *Mixer) SetTrackGain(trackID string, gain, at float64) {
	if s, ok := m.Strip(trackID); ok {
		s.Gain.SetValueAtTime(math.Max(0, gain), at)
	}
}

func (m *Mixer) SetTrackPan(trackID string, pan, at float64) {
	if s, ok := m.Strip(trackID); ok {
		s.Pan.SetValueAtTime(math.Max(-1, math.Min(1, pan)), at)
	}
}

func (m *Mixer) EffectIndex(trackID, effectID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.strips[trackID]
	if !ok {
		return -1
	}
	for i, e := range s.effects {
		if e.ID == effectID {
			return i
		}
	}
	return -1
}

// SetEffectParameter schedules a value on the effect at index. Unknown
// indices and parameter names are ignored; values are clamped to the
// declared range.
func (m *Mixer) SetEffectParameter(trackID string, index int, name string, value, at float64) {
	m.mu.RLock()
	s, ok := m.strips[trackID]
	if !ok || index < 0 || index >= len(s.effects) {
		m.mu.RUnlock()
		return
	}
	e := s.effects[index]
	m.mu.RUnlock()

	p := e.params[name]
	if p == nil {
		return
	}
	if spec, ok := e.spec(name); ok && spec.Max > spec.Min {
		value = math.Max(spec.Min, math.Min(spec.Max, value))
	}
	p.SetValueAtTime(value, at)
}

// Prune trims every timeline up to time at
func (m *Mixer) Prune(at float64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.strips {
		s.Gain.Prune(at)
		s.Pan.Prune(at)
		for _, e := range s.effects {
			for _, p := range e.params {
				p.Prune(at)
			}
		}
	}
}

// ParamRange returns the declared range of a parameter on the effect at index
func (m *Mixer) ParamRange(trackID string, index int, name string) (min, max float64, ok bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, found := m.strips[trackID]
	if !found || index < 0 || index >= len(s.effects) {
		return 0, 0, false
	}
	spec, found := s.effects[index].spec(name)
	if !found {
		return 0, 0, false
	}
	return spec.Min, spec.Max, true
}
