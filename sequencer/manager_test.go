package sequencer

import (
	"math"
	"sync"
	"testing"

	"go-session/automation"
	"go-session/midi"
	"go-session/project"
	"go-session/session"
)

type fakeController struct {
	mu      sync.Mutex
	batches [][]midi.LEDUpdate
}

func (f *fakeController) ID() string                        { return "fake" }
func (f *fakeController) Type() midi.ControllerType         { return midi.ControllerLaunchpad }
func (f *fakeController) PadEvents() <-chan midi.PadEvent   { return nil }
func (f *fakeController) KnobEvents() <-chan midi.KnobEvent { return nil }
func (f *fakeController) Close() error                      { return nil }

func (f *fakeController) SetLEDBatch(updates []midi.LEDUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, append([]midi.LEDUpdate(nil), updates...))
	return nil
}

// newTestManager returns a manager with one track holding a clip in scene 0
// that launches without quantization
func newTestManager(t *testing.T) (*Manager, project.Track, session.ClipSlot) {
	t.Helper()
	store := project.NewStore()
	m := NewManager(store, Options{Library: project.NewLibrary(t.TempDir()), Project: "test"})
	tr := m.AddTrack("Drums")
	slot, ok := store.SlotAt(tr.ID, 0)
	if !ok {
		t.Fatal("no slot for new track")
	}
	if !m.NewClip(slot.ID) {
		t.Fatal("NewClip failed")
	}
	store.SetSlotQuantize(slot.ID, session.QuantizeNone)
	slot, _ = store.Slot(slot.ID)
	return m, tr, slot
}

func TestLaunchStartsTransport(t *testing.T) {
	m, _, slot := newTestManager(t)

	m.LaunchSlot(slot.ID)
	if !m.Clock().Playing() {
		t.Fatal("launch did not start the transport")
	}
	// a launch on a stopped transport is not quantized
	got, _ := m.Store().Slot(slot.ID)
	if got.LaunchState != session.Playing {
		t.Errorf("store state = %s, want playing", got.LaunchState)
	}

	m.Stop()
	got, _ = m.Store().Slot(slot.ID)
	if got.LaunchState != session.Stopped {
		t.Errorf("after stop = %s, want stopped", got.LaunchState)
	}
}

func TestLaunchEmptySlotIgnored(t *testing.T) {
	m, tr, _ := newTestManager(t)
	empty, _ := m.Store().SlotAt(tr.ID, 1)
	m.LaunchSlot(empty.ID)
	if m.Clock().Playing() {
		t.Error("empty slot started the transport")
	}
	if got := m.SlotState(empty.ID); got != session.Stopped {
		t.Errorf("state = %s", got)
	}
}

func TestLaunchSceneUsesSceneTempo(t *testing.T) {
	m, _, slot := newTestManager(t)
	scenes := m.Store().Scenes()
	m.Store().SetSceneTempo(scenes[0].ID, 96)

	m.LaunchScene(0)
	if m.Tempo() != 96 {
		t.Errorf("tempo = %v, want 96", m.Tempo())
	}
	if !m.launcher.IsSlotPlaying(slot.ID) {
		t.Error("scene launch did not start the slot")
	}
	if tempo, _ := m.Store().Transport(); tempo != 96 {
		t.Errorf("stored tempo = %v", tempo)
	}
}

func TestHandlePadLaunchesGridSlot(t *testing.T) {
	m, _, slot := newTestManager(t)
	// scene 0 is the top row of the grid
	m.HandlePad(7, 0)
	if !m.launcher.IsSlotPlaying(slot.ID) {
		t.Fatal("pad did not launch the slot")
	}

	// stop is quantized to the bar, so the slot is at most stopping
	m.HandlePad(topRow, 0)
	if got := m.SlotState(slot.ID); got == session.Playing {
		t.Errorf("top row pad did not stop the track: %s", got)
	}
}

func TestRemoveTrackForgetsSlots(t *testing.T) {
	m, tr, slot := newTestManager(t)
	m.LaunchSlot(slot.ID)
	m.RemoveTrack(tr.ID)
	if m.launcher.IsSlotPlaying(slot.ID) {
		t.Error("removed slot still playing")
	}
	if m.Mixer().HasTrack(tr.ID) {
		t.Error("mixer strip not removed")
	}
}

func TestKnobAppliesAndRecords(t *testing.T) {
	m, tr, _ := newTestManager(t)
	lane, _ := m.Store().AddLane(tr.ID, tr.ID, automation.ParamVolume)
	m.BindKnob(0, 7, KnobBinding{TrackID: tr.ID, LaneID: lane.ID})
	m.SetRecordMode(automation.RecordLatch)
	m.Play()

	m.HandleKnob(midi.KnobEvent{Channel: 0, CC: 7, Value: 127})

	strip, _ := m.Mixer().Strip(tr.ID)
	want := automation.DBToGain(maxVolumeDB)
	if got := strip.Gain.ValueAt(m.Clock().Now() + 1); math.Abs(got-want) > 1e-9 {
		t.Errorf("gain = %v, want %v", got, want)
	}

	got, _ := m.Store().Lane(tr.ID, lane.ID)
	if len(got.Points) != 1 || got.Points[0].Value != maxVolumeDB {
		t.Errorf("recorded points = %+v", got.Points)
	}
	if !m.recorder.Touching() {
		t.Error("knob move did not touch")
	}
	m.EndTouch()
	if m.recorder.Touching() {
		t.Error("EndTouch did not release")
	}
}

func TestKnobLearn(t *testing.T) {
	m, tr, _ := newTestManager(t)
	lane, _ := m.Store().AddLane(tr.ID, tr.ID, automation.ParamPan)
	m.LearnKnob(KnobBinding{TrackID: tr.ID, LaneID: lane.ID})
	if !m.Learning() {
		t.Fatal("not learning")
	}

	m.HandleKnob(midi.KnobEvent{Channel: 2, CC: 21, Value: 0})
	if m.Learning() {
		t.Error("still learning after a knob moved")
	}
	ch, cc, ok := m.KnobFor(tr.ID, lane.ID)
	if !ok || ch != 2 || cc != 21 {
		t.Errorf("binding = %d %d %v", ch, cc, ok)
	}
	strip, _ := m.Mixer().Strip(tr.ID)
	if got := strip.Pan.ValueAt(m.Clock().Now() + 1); got != -1 {
		t.Errorf("pan = %v, want -1", got)
	}
}

func TestRecordOffDoesNotRecord(t *testing.T) {
	m, tr, _ := newTestManager(t)
	lane, _ := m.Store().AddLane(tr.ID, tr.ID, automation.ParamVolume)
	m.Play()
	m.SetParameter(tr.ID, lane.ID, -6)
	got, _ := m.Store().Lane(tr.ID, lane.ID)
	if len(got.Points) != 0 {
		t.Errorf("points = %+v", got.Points)
	}
}

func TestEffectLaneRange(t *testing.T) {
	m, tr, _ := newTestManager(t)
	fx, ok := m.AddEffect(tr.ID, "delay")
	if !ok {
		t.Fatal("AddEffect failed")
	}
	if _, ok := m.AddEffect(tr.ID, "flanger"); ok {
		t.Error("unknown kind accepted")
	}
	lane, _ := m.Store().AddLane(tr.ID, fx.ID, "feedback")
	lo, hi := m.LaneRange(tr.ID, lane)
	if lo != 0 || hi != 0.95 {
		t.Errorf("range = %v..%v", lo, hi)
	}
	m.SetParameter(tr.ID, lane.ID, 2)
	if v, ok := m.CurrentValue(tr.ID, lane); !ok || v != 0.95 {
		t.Errorf("value = %v %v, want clamped 0.95", v, ok)
	}
}

func TestSaveLoadRestoresEffects(t *testing.T) {
	m, tr, _ := newTestManager(t)
	fx, _ := m.AddEffect(tr.ID, "reverb")
	m.SetTempo(140)
	if _, err := m.Save("first"); err != nil {
		t.Fatalf("Save: %v", err)
	}

	m.RemoveEffect(tr.ID, fx.ID)
	m.SetTempo(90)
	if err := m.Load(""); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.Tempo() != 140 {
		t.Errorf("tempo = %v, want 140", m.Tempo())
	}
	if m.Mixer().EffectIndex(tr.ID, fx.ID) != 0 {
		t.Error("effect not restored into the mixer")
	}
}

func TestSaveWithoutLibrary(t *testing.T) {
	m := NewManager(project.NewStore(), Options{})
	if _, err := m.Save(""); err != ErrNoLibrary {
		t.Errorf("err = %v", err)
	}
}

func TestLEDsOnlySendChanges(t *testing.T) {
	m, _, _ := newTestManager(t)
	c := &fakeController{}
	m.SetController(c)

	m.flushLEDs()
	m.flushLEDs()
	if len(c.batches) != 1 {
		t.Fatalf("%d batches, want 1", len(c.batches))
	}
	// 8 slots + stop button + 8 scene buttons
	if n := len(c.batches[0]); n != 17 {
		t.Errorf("first frame %d LEDs, want 17", n)
	}

	m.FocusNext()
	m.flushLEDs()
	if len(c.batches) != 2 {
		t.Fatal("focus change did not redraw")
	}
	if m.Focused().Name() != "automation" {
		t.Errorf("focused %s", m.Focused().Name())
	}
}

func TestCycleQuantize(t *testing.T) {
	m, _, slot := newTestManager(t)
	m.CycleGlobalQuantize()
	if q := m.Store().GlobalQuantize(); q != session.QuantizeNone {
		t.Errorf("global after bar = %s, want none", q)
	}
	m.CycleSlotQuantize(slot.ID)
	got, _ := m.Store().Slot(slot.ID)
	if got.LaunchQuantize != session.QuantizeBeat {
		t.Errorf("slot quantize = %s, want beat", got.LaunchQuantize)
	}
}
