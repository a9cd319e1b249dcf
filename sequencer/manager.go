package sequencer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"go-session/automation"
	"go-session/debug"
	"go-session/midi"
	"go-session/mixer"
	"go-session/project"
	"go-session/session"
	"go-session/theme"
	"go-session/transport"
)

// LED refresh rate
const ledFPS = 30

// touchRelease is how long after the last knob move a control counts as
// released for touch recording
const touchRelease = 400 * time.Millisecond

// pruneAge is how far behind the playhead mixer timelines are kept
const pruneAge = 2.0

// Volume lanes are in decibels between SilenceDB and this
const maxVolumeDB = 6.0

// ErrNoLibrary is returned by Save and Load when no project library is set
var ErrNoLibrary = errors.New("no project library")

// Options configures a Manager
type Options struct {
	Lookahead  time.Duration
	Interval   time.Duration
	RecordMode automation.RecordMode
	Library    *project.Library
	Project    string
	Theme      *theme.Theme // nil = default palette
}

// KnobBinding routes a knob to one automation lane
type KnobBinding struct {
	TrackID string
	LaneID  string
}

type knobKey struct {
	channel uint8
	cc      uint8
}

// Status is a snapshot for the header line
type Status struct {
	Playing    bool
	Tempo      float64
	Position   transport.Position
	RecordMode automation.RecordMode
	Touching   bool
	Quantize   session.Quantize
	Project    string
	Controller string
}

// Manager orchestrates the transport, the schedulers driven by it and the
// views. It is the only place the parts are wired to each other.
type Manager struct {
	clock     *transport.Clock
	mixer     *mixer.Mixer
	store     *project.Store
	launcher  *session.Scheduler
	automator *automation.Scheduler
	recorder  *automation.Recorder

	library *project.Library
	theme   *theme.Theme

	mu         sync.Mutex
	project    string
	output     *midi.CCOutput
	views      []View
	focused    int
	controller midi.Controller
	leds       *midi.LEDDiff
	ledDirty   bool
	knobs      map[knobKey]KnobBinding
	learn      *KnobBinding
	touchTimer *time.Timer

	// Notify TUI of updates
	UpdateChan chan struct{}
}

// NewManager wires a manager around store. Tempo and meter come from the
// store's transport settings.
func NewManager(store *project.Store, opts Options) *Manager {
	tempo, sig := store.Transport()
	m := &Manager{
		clock:      transport.NewClock(tempo, sig),
		mixer:      mixer.New(),
		store:      store,
		launcher:   session.NewScheduler(),
		recorder:   automation.NewRecorder(),
		library:    opts.Library,
		theme:      opts.Theme,
		project:    opts.Project,
		leds:       midi.NewLEDDiff(),
		knobs:      make(map[knobKey]KnobBinding),
		UpdateChan: make(chan struct{}, 1),
	}
	if m.theme == nil {
		m.theme = theme.New(nil)
	}
	m.clock.SetLookahead(opts.Lookahead, opts.Interval)
	m.automator = automation.NewScheduler(store, m.mixer)
	if opts.RecordMode != "" {
		m.recorder.SetMode(opts.RecordMode)
	}

	m.recorder.SetAddPointCallback(store.AddPoint)
	m.launcher.SetOnStateChange(func(slotID string, state session.LaunchState) {
		store.SetSlotState(slotID, state)
	})
	store.SetOnChange(m.notifyUpdate)

	m.clock.AddScheduler(m.launcher)
	m.clock.AddScheduler(m.automator)
	m.clock.SetOnTick(m.onTick)
	m.clock.SetOnStop(m.onStop)

	m.syncMixer()
	m.views = []View{NewSessionView(m), NewAutomationView(m)}
	return m
}

// StartRuntime starts the clock, LED and output goroutines. They stop with ctx.
func (m *Manager) StartRuntime(ctx context.Context) {
	go m.clock.Run(ctx)
	go m.ledLoop(ctx)

	m.mu.Lock()
	out := m.output
	m.mu.Unlock()
	if out != nil {
		go out.Run(ctx)
	}
}

// Clock returns the transport clock
func (m *Manager) Clock() *transport.Clock { return m.clock }

// Mixer returns the in-process parameter sink
func (m *Manager) Mixer() *mixer.Mixer { return m.mixer }

// Store returns the project store
func (m *Manager) Store() *project.Store { return m.store }

// Library returns the project library, nil when saving is disabled
func (m *Manager) Library() *project.Library { return m.library }

// SetOutput adds a CC output as a second automation target. Call before
// StartRuntime.
func (m *Manager) SetOutput(out *midi.CCOutput) {
	m.mu.Lock()
	m.output = out
	m.mu.Unlock()
	m.automator.AddTarget(out)
	m.syncMixer()
}

func (m *Manager) targets() []automation.Target {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.output != nil {
		return []automation.Target{m.mixer, m.output}
	}
	return []automation.Target{m.mixer}
}

// --- transport ---

func (m *Manager) onTick(beat float64) {
	m.mixer.Prune(m.clock.Now() - pruneAge)
	m.notifyUpdate()
}

func (m *Manager) onStop() {
	m.launcher.StopAll()
	m.mu.Lock()
	out := m.output
	m.mu.Unlock()
	if out != nil {
		out.Clear()
	}
	m.notifyUpdate()
}

// Play starts playback from the top
func (m *Manager) Play() {
	if m.clock.Playing() {
		return
	}
	m.recorder.Reset()
	m.clock.Play(0)
	m.notifyUpdate()
}

// Stop stops playback; playing and queued clips stop with it
func (m *Manager) Stop() {
	m.clock.Stop()
}

// TogglePlay starts or stops playback
func (m *Manager) TogglePlay() {
	if m.clock.Playing() {
		m.Stop()
	} else {
		m.Play()
	}
}

// SetTempo sets the BPM
func (m *Manager) SetTempo(bpm float64) {
	m.clock.SetTempo(bpm)
	m.store.SetTransport(m.clock.Tempo(), m.clock.Position().Signature)
	m.notifyUpdate()
}

// Tempo returns the BPM
func (m *Manager) Tempo() float64 {
	return m.clock.Tempo()
}

// Status returns the current transport and recording state
func (m *Manager) Status() Status {
	st := Status{
		Playing:    m.clock.Playing(),
		Tempo:      m.clock.Tempo(),
		Position:   m.clock.Position(),
		RecordMode: m.recorder.Mode(),
		Touching:   m.recorder.Touching(),
		Quantize:   m.store.GlobalQuantize(),
	}
	m.mu.Lock()
	st.Project = m.project
	if m.controller != nil {
		st.Controller = m.controller.ID()
	}
	m.mu.Unlock()
	return st
}

// --- clip launching ---

func (m *Manager) quantizeFor(slot session.ClipSlot) session.Quantize {
	if slot.LaunchQuantize != "" {
		return slot.LaunchQuantize
	}
	return m.store.GlobalQuantize()
}

// ensurePlaying starts the transport if needed and reports whether it was
// already running. A launch on a stopped transport happens immediately.
func (m *Manager) ensurePlaying() bool {
	if m.clock.Playing() {
		return true
	}
	m.Play()
	return false
}

// LaunchSlot queues a slot's clip at its launch quantization. Empty slots
// are ignored.
func (m *Manager) LaunchSlot(slotID string) {
	slot, ok := m.store.Slot(slotID)
	if !ok || !slot.HasClip() {
		return
	}
	q := m.quantizeFor(slot)
	if !m.ensurePlaying() {
		q = session.QuantizeNone
	}
	m.launcher.LaunchSlot(slot, q, m.clock.Position())
}

// StopSlot stops one slot at its launch quantization
func (m *Manager) StopSlot(slotID string) {
	slot, ok := m.store.Slot(slotID)
	if !ok {
		return
	}
	m.launcher.StopClip(slotID, m.quantizeFor(slot), m.clock.Position())
}

// LaunchScene launches every filled slot of a scene row, switching to the
// scene's tempo first when it has one
func (m *Manager) LaunchScene(index int) {
	scenes := m.store.Scenes()
	if index < 0 || index >= len(scenes) {
		return
	}
	if bpm := scenes[index].Tempo; bpm > 0 {
		m.SetTempo(bpm)
	}
	q := m.store.GlobalQuantize()
	if !m.ensurePlaying() {
		q = session.QuantizeNone
	}
	debug.Log("session", "launch scene %d (%s)", index, scenes[index].Name)
	m.launcher.LaunchScene(m.store.SceneSlots(index), q, m.clock.Position())
}

// StopTrack stops whatever plays on a track at the global quantization
func (m *Manager) StopTrack(trackID string) {
	m.launcher.StopTrack(trackID, m.store.GlobalQuantize(), m.clock.Position())
}

// StopAllClips stops every clip immediately, leaving the transport running
func (m *Manager) StopAllClips() {
	m.launcher.StopAll()
}

// SlotState returns the scheduler's view of a slot
func (m *Manager) SlotState(slotID string) session.LaunchState {
	return m.launcher.State(slotID)
}

// CycleGlobalQuantize moves the global quantization to the next value
func (m *Manager) CycleGlobalQuantize() {
	m.store.SetGlobalQuantize(nextQuantize(m.store.GlobalQuantize()))
}

// CycleSlotQuantize moves a slot's launch quantization to the next value
func (m *Manager) CycleSlotQuantize(slotID string) {
	slot, ok := m.store.Slot(slotID)
	if !ok {
		return
	}
	m.store.SetSlotQuantize(slotID, nextQuantize(m.quantizeFor(slot)))
}

func nextQuantize(q session.Quantize) session.Quantize {
	for i, v := range session.Quantizes {
		if v == q {
			return session.Quantizes[(i+1)%len(session.Quantizes)]
		}
	}
	return session.Quantizes[0]
}

// --- project editing ---

// AddTrack adds a track with a mixer strip
func (m *Manager) AddTrack(name string) project.Track {
	t := m.store.AddTrack(name)
	m.syncMixer()
	return t
}

// RemoveTrack deletes a track, forgetting its slots in the scheduler
func (m *Manager) RemoveTrack(trackID string) {
	for _, slotID := range m.store.RemoveTrack(trackID) {
		m.launcher.Remove(slotID)
	}
	m.mu.Lock()
	for k, b := range m.knobs {
		if b.TrackID == trackID {
			delete(m.knobs, k)
		}
	}
	m.mu.Unlock()
	m.syncMixer()
}

// AddEffect appends a built-in effect kind to a track's chain
func (m *Manager) AddEffect(trackID, kind string) (project.Effect, bool) {
	if _, ok := mixer.KindParams(kind); !ok {
		return project.Effect{}, false
	}
	fx, ok := m.store.AddEffect(trackID, kind)
	if !ok {
		return project.Effect{}, false
	}
	m.mixer.AddKindID(trackID, fx.ID, kind)
	return fx, true
}

// RemoveEffect deletes an effect and the lanes automating it
func (m *Manager) RemoveEffect(trackID, effectID string) bool {
	if !m.store.RemoveEffect(trackID, effectID) {
		return false
	}
	m.mixer.RemoveEffect(trackID, effectID)
	return true
}

// NewClip puts a one-bar clip into an empty slot
func (m *Manager) NewClip(slotID string) bool {
	slot, ok := m.store.Slot(slotID)
	if !ok || slot.HasClip() {
		return false
	}
	bar := m.clock.Position().Signature.Bar()
	return m.store.SetClipInSlot(slotID, session.Clip{
		Name:        fmt.Sprintf("Clip %d", slot.SceneIndex+1),
		LengthBeats: bar,
	})
}

// ClearSlot removes a slot's clip, stopping it at once if it plays
func (m *Manager) ClearSlot(slotID string) bool {
	m.launcher.Remove(slotID)
	return m.store.ClearSlot(slotID)
}

// AddScene appends a scene row
func (m *Manager) AddScene() session.Scene {
	return m.store.AddScene()
}

// RemoveScene deletes a scene row and forgets its slots
func (m *Manager) RemoveScene(sceneID string) {
	for _, slotID := range m.store.RemoveScene(sceneID) {
		m.launcher.Remove(slotID)
	}
}

// syncMixer makes the mixer strips, effect chains and output channels match
// the store's tracks
func (m *Manager) syncMixer() {
	m.mu.Lock()
	out := m.output
	m.mu.Unlock()

	keep := map[string]bool{mixer.MasterID: true}
	for _, t := range m.store.Tracks() {
		keep[t.ID] = true
		m.mixer.AddStrip(t.ID)

		wanted := make(map[string]bool, len(t.Effects))
		for _, fx := range t.Effects {
			wanted[fx.ID] = true
			if m.mixer.EffectIndex(t.ID, fx.ID) < 0 {
				m.mixer.AddKindID(t.ID, fx.ID, fx.Kind)
			}
		}
		for _, e := range m.mixer.Effects(t.ID) {
			if !wanted[e.ID] {
				m.mixer.RemoveEffect(t.ID, e.ID)
			}
		}
		if out != nil {
			out.SetTrackChannel(t.ID, t.Channel)
		}
	}
	for _, id := range m.mixer.Strips() {
		if keep[id] {
			continue
		}
		m.mixer.RemoveStrip(id)
		if out != nil {
			out.RemoveTrack(id)
		}
	}
}

// --- live parameters and recording ---

// LaneRange returns the value range of a lane's parameter
func (m *Manager) LaneRange(trackID string, lane automation.Lane) (lo, hi float64) {
	if lane.TargetID == trackID {
		switch lane.Parameter {
		case automation.ParamVolume:
			return automation.SilenceDB, maxVolumeDB
		case automation.ParamPan:
			return -1, 1
		}
	}
	idx := m.mixer.EffectIndex(trackID, lane.TargetID)
	if lo, hi, ok := m.mixer.ParamRange(trackID, idx, lane.Parameter); ok {
		return lo, hi
	}
	return 0, 1
}

// SetParameter applies a live value to a lane's parameter and hands it to
// the recorder. It is what a knob turn or a nudge from the UI does.
func (m *Manager) SetParameter(trackID, laneID string, value float64) {
	lane, ok := m.store.Lane(trackID, laneID)
	if !ok {
		return
	}
	lo, hi := m.LaneRange(trackID, lane)
	value = math.Max(lo, math.Min(hi, value))

	at := m.clock.Now()
	for _, t := range m.targets() {
		applyNow(t, trackID, lane, value, at)
	}

	m.touch()
	if m.clock.Playing() {
		m.recorder.RecordParameterChange(trackID, laneID, value, m.clock.CurrentBeat())
	}
	m.notifyUpdate()
}

func applyNow(t automation.Target, trackID string, lane automation.Lane, value, at float64) {
	if !t.HasTrack(trackID) {
		return
	}
	if lane.TargetID == trackID {
		switch lane.Parameter {
		case automation.ParamVolume:
			t.SetTrackGain(trackID, automation.DBToGain(value), at)
			return
		case automation.ParamPan:
			t.SetTrackPan(trackID, value, at)
			return
		}
	}
	if idx := t.EffectIndex(trackID, lane.TargetID); idx >= 0 {
		t.SetEffectParameter(trackID, idx, lane.Parameter, value, at)
	}
}

// CurrentValue returns what a lane's parameter is set to right now in the
// mixer
func (m *Manager) CurrentValue(trackID string, lane automation.Lane) (float64, bool) {
	strip, ok := m.mixer.Strip(trackID)
	if !ok {
		return 0, false
	}
	now := m.clock.Now()
	if lane.TargetID == trackID {
		switch lane.Parameter {
		case automation.ParamVolume:
			gain := strip.Gain.ValueAt(now)
			if gain <= 0 {
				return automation.SilenceDB, true
			}
			return math.Max(automation.SilenceDB, 20*math.Log10(gain)), true
		case automation.ParamPan:
			return strip.Pan.ValueAt(now), true
		}
	}
	for _, e := range m.mixer.Effects(trackID) {
		if e.ID != lane.TargetID {
			continue
		}
		if p := e.Param(lane.Parameter); p != nil {
			return p.ValueAt(now), true
		}
	}
	return 0, false
}

// touch holds the recorder's touch until the control has been still for
// touchRelease
func (m *Manager) touch() {
	m.recorder.StartTouch()
	m.mu.Lock()
	if m.touchTimer != nil {
		m.touchTimer.Stop()
	}
	m.touchTimer = time.AfterFunc(touchRelease, func() {
		m.recorder.EndTouch()
		m.notifyUpdate()
	})
	m.mu.Unlock()
}

// StartTouch marks a control as held
func (m *Manager) StartTouch() {
	m.recorder.StartTouch()
	m.notifyUpdate()
}

// EndTouch releases the held control
func (m *Manager) EndTouch() {
	m.mu.Lock()
	if m.touchTimer != nil {
		m.touchTimer.Stop()
		m.touchTimer = nil
	}
	m.mu.Unlock()
	m.recorder.EndTouch()
	m.notifyUpdate()
}

// SetRecordMode sets how live changes are recorded
func (m *Manager) SetRecordMode(mode automation.RecordMode) {
	m.recorder.SetMode(mode)
	debug.Log("rec", "mode %s", mode)
	m.notifyUpdate()
}

// RecordMode returns the recorder mode
func (m *Manager) RecordMode() automation.RecordMode {
	return m.recorder.Mode()
}

// CycleRecordMode moves to the next record mode
func (m *Manager) CycleRecordMode() {
	cur := m.recorder.Mode()
	next := automation.RecordModes[0]
	for i, v := range automation.RecordModes {
		if v == cur {
			next = automation.RecordModes[(i+1)%len(automation.RecordModes)]
			break
		}
	}
	m.SetRecordMode(next)
}

// --- knobs ---

// BindKnob routes a controller on channel (0-15) to a lane
func (m *Manager) BindKnob(channel, cc uint8, b KnobBinding) {
	m.mu.Lock()
	m.knobs[knobKey{channel, cc}] = b
	m.mu.Unlock()
	debug.Log("knob", "ch %d cc %d -> %s/%s", channel+1, cc, b.TrackID, b.LaneID)
}

// LearnKnob binds the next knob that moves to b
func (m *Manager) LearnKnob(b KnobBinding) {
	m.mu.Lock()
	m.learn = &b
	m.mu.Unlock()
	m.notifyUpdate()
}

// Learning reports whether a knob binding is waiting for a knob
func (m *Manager) Learning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.learn != nil
}

// KnobFor returns the controller bound to a lane
func (m *Manager) KnobFor(trackID, laneID string) (channel, cc uint8, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, b := range m.knobs {
		if b.TrackID == trackID && b.LaneID == laneID {
			return k.channel, k.cc, true
		}
	}
	return 0, 0, false
}

// HandleKnob applies a knob move to its bound lane, scaled to the lane's
// range
func (m *Manager) HandleKnob(ev midi.KnobEvent) {
	key := knobKey{ev.Channel, ev.CC}
	m.mu.Lock()
	if m.learn != nil {
		m.knobs[key] = *m.learn
		m.learn = nil
	}
	b, ok := m.knobs[key]
	m.mu.Unlock()
	if !ok {
		return
	}

	lane, ok := m.store.Lane(b.TrackID, b.LaneID)
	if !ok {
		return
	}
	lo, hi := m.LaneRange(b.TrackID, lane)
	m.SetParameter(b.TrackID, b.LaneID, lo+midi.CCToUnit(ev.Value)*(hi-lo))
}

// --- persistence ---

// SetProject selects the project Save and Load work on
func (m *Manager) SetProject(name string) {
	m.mu.Lock()
	m.project = name
	m.mu.Unlock()
	m.notifyUpdate()
}

// Project returns the current project name
func (m *Manager) Project() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.project
}

// Save writes a new timestamped save of the current project
func (m *Manager) Save(label string) (string, error) {
	if m.library == nil {
		return "", ErrNoLibrary
	}
	m.store.SetTransport(m.clock.Tempo(), m.clock.Position().Signature)
	filename, err := m.library.Save(m.store, m.Project(), label)
	if err != nil {
		return "", fmt.Errorf("save: %w", err)
	}
	return filename, nil
}

// Load stops playback and replaces the project with a save ("" = latest)
func (m *Manager) Load(filename string) error {
	if m.library == nil {
		return ErrNoLibrary
	}
	m.Stop()
	m.launcher.StopAll()
	if err := m.library.Load(m.store, m.Project(), filename); err != nil {
		return fmt.Errorf("load: %w", err)
	}

	tempo, sig := m.store.Transport()
	m.clock.SetTempo(tempo)
	m.clock.SetTimeSignature(sig)
	m.syncMixer()

	m.mu.Lock()
	m.knobs = make(map[knobKey]KnobBinding)
	m.learn = nil
	m.mu.Unlock()
	m.notifyUpdate()
	return nil
}

// --- views and input routing ---

// Views returns the views in focus order
func (m *Manager) Views() []View {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]View(nil), m.views...)
}

// Focused returns the view that gets input
func (m *Manager) Focused() View {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.views[m.focused]
}

// Focus switches to the view at idx
func (m *Manager) Focus(idx int) {
	m.mu.Lock()
	if idx < 0 || idx >= len(m.views) || idx == m.focused {
		m.mu.Unlock()
		return
	}
	debug.Log("focus", "focus %s", m.views[idx].Name())
	m.focused = idx
	m.ledDirty = true
	m.mu.Unlock()
	m.notifyUpdate()
}

// FocusNext cycles to the next view
func (m *Manager) FocusNext() {
	m.mu.Lock()
	next := (m.focused + 1) % len(m.views)
	m.mu.Unlock()
	m.Focus(next)
}

// HandleKey routes a key press to the focused view
func (m *Manager) HandleKey(key string) {
	m.Focused().HandleKey(key)
	m.notifyUpdate()
}

// HandlePad routes a pad press to the focused view
func (m *Manager) HandlePad(row, col int) {
	m.Focused().HandlePad(row, col)
	m.notifyUpdate()
}

// View returns the view of the focused screen
func (m *Manager) View() string {
	return m.Focused().View()
}

// --- controllers ---

// SetController sets the grid controller for LED feedback
func (m *Manager) SetController(c midi.Controller) {
	debug.Log("ctrl", "SetController called, resetting diff state")
	m.mu.Lock()
	m.controller = c
	m.leds.Reset()
	m.ledDirty = c != nil
	m.mu.Unlock()
}

// Attach starts routing a controller's input. Grid controllers also get LED
// feedback. The routing ends when the controller closes its channels.
func (m *Manager) Attach(c midi.Controller) {
	if c.Type() == midi.ControllerLaunchpad {
		m.SetController(c)
	}
	if pads := c.PadEvents(); pads != nil {
		go func() {
			for pad := range pads {
				m.HandlePad(pad.Row, pad.Col)
			}
		}()
	}
	if knobs := c.KnobEvents(); knobs != nil {
		go func() {
			for ev := range knobs {
				m.HandleKnob(ev)
			}
		}()
	}
	m.notifyUpdate()
}

// Detach drops the LED controller if it is the one with id
func (m *Manager) Detach(id string) {
	m.mu.Lock()
	current := m.controller
	m.mu.Unlock()
	if current != nil && current.ID() == id {
		m.SetController(nil)
	}
	m.notifyUpdate()
}

// markLEDsDirty flags that LEDs need refresh
func (m *Manager) markLEDsDirty() {
	m.mu.Lock()
	m.ledDirty = true
	m.mu.Unlock()
}

// ledLoop runs at fixed FPS and flushes LED updates
func (m *Manager) ledLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Second / ledFPS)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.mu.Lock()
			dirty := m.ledDirty
			m.ledDirty = false
			m.mu.Unlock()

			if dirty {
				m.flushLEDs()
			}
		}
	}
}

// flushLEDs sends only changed LEDs to the controller
func (m *Manager) flushLEDs() {
	m.mu.Lock()
	c := m.controller
	view := m.views[m.focused]
	m.mu.Unlock()
	if c == nil {
		return
	}

	frame := view.RenderLEDs()

	m.mu.Lock()
	updates := m.leds.Diff(frame)
	m.mu.Unlock()

	if len(updates) == 0 {
		return
	}
	debug.Log("led", "flushLEDs: batch=%d", len(updates))
	if err := c.SetLEDBatch(updates); err != nil {
		debug.Log("led", "%s: %v", c.ID(), err)
	}
}

// notifyUpdate refreshes LEDs and notifies TUI
func (m *Manager) notifyUpdate() {
	m.markLEDsDirty()
	select {
	case m.UpdateChan <- struct{}{}:
	default:
	}
}
