package project

import (
	"testing"

	"go-session/automation"
	"go-session/session"
)

func TestNewStoreDefaults(t *testing.T) {
	s := NewStore()
	scenes := s.Scenes()
	if len(scenes) != DefaultScenes {
		t.Fatalf("%d scenes, want %d", len(scenes), DefaultScenes)
	}
	if scenes[0].Name != "Scene 1" || scenes[7].Index != 7 {
		t.Errorf("scenes = %+v", scenes)
	}
	if s.GlobalQuantize() != session.QuantizeBar {
		t.Errorf("global quantize = %s", s.GlobalQuantize())
	}
}

func TestAddTrackCreatesSlots(t *testing.T) {
	s := NewStore()
	a := s.AddTrack("")
	b := s.AddTrack("Bass")
	if a.Channel != 1 || b.Channel != 2 {
		t.Errorf("channels %d %d, want 1 2", a.Channel, b.Channel)
	}
	if a.Name != "Track 1" {
		t.Errorf("default name %q", a.Name)
	}

	slots := s.TrackSlots(b.ID)
	if len(slots) != DefaultScenes {
		t.Fatalf("%d slots, want %d", len(slots), DefaultScenes)
	}
	for i, slot := range slots {
		if slot.SceneIndex != i || slot.LaunchQuantize != session.QuantizeBar || !slot.LoopEnabled {
			t.Errorf("slot %d = %+v", i, slot)
		}
	}

	removed := s.RemoveTrack(a.ID)
	if len(removed) != DefaultScenes || len(s.SceneSlots(0)) != 1 {
		t.Errorf("removed %d slots, scene row has %d", len(removed), len(s.SceneSlots(0)))
	}
}

func TestAddPointKeepsLaneSorted(t *testing.T) {
	s := NewStore()
	tr := s.AddTrack("t")
	lane, ok := s.AddLane(tr.ID, tr.ID, automation.ParamVolume)
	if !ok {
		t.Fatal("AddLane failed")
	}
	for _, b := range []float64{4, 0, 2} {
		s.AddPoint(tr.ID, lane.ID, automation.Point{Beat: b})
	}
	got, _ := s.Lane(tr.ID, lane.ID)
	if !got.Sorted() || len(got.Points) != 3 {
		t.Fatalf("lane = %+v", got.Points)
	}
	if got.Points[0].ID == "" || got.Points[0].Mode != automation.Linear {
		t.Errorf("point defaults not filled: %+v", got.Points[0])
	}

	if !s.MovePoint(tr.ID, lane.ID, got.Points[0].ID, 9, 1) {
		t.Fatal("MovePoint failed")
	}
	got, _ = s.Lane(tr.ID, lane.ID)
	if got.Points[2].Beat != 9 || !got.Sorted() {
		t.Errorf("after move: %+v", got.Points)
	}

	// unknown ids are ignored
	s.AddPoint("nope", lane.ID, automation.Point{})
	s.AddPoint(tr.ID, "nope", automation.Point{})
	if s.RemovePoint(tr.ID, lane.ID, "nope") {
		t.Error("removed unknown point")
	}
}

func TestAutomationTracksIsSnapshot(t *testing.T) {
	s := NewStore()
	tr := s.AddTrack("t")
	lane, _ := s.AddLane(tr.ID, tr.ID, automation.ParamPan)
	s.AddPoint(tr.ID, lane.ID, automation.Point{ID: "p", Beat: 1, Value: 0.5})

	snap := s.AutomationTracks()
	if len(snap) != 1 || len(snap[0].Lanes) != 1 {
		t.Fatalf("snapshot = %+v", snap)
	}
	snap[0].Lanes[0].Points[0].Value = 9

	got, _ := s.Lane(tr.ID, lane.ID)
	if got.Points[0].Value != 0.5 {
		t.Error("snapshot aliases store data")
	}
}

func TestMoveSceneCarriesSlots(t *testing.T) {
	s := NewStore()
	tr := s.AddTrack("t")
	first, _ := s.SlotAt(tr.ID, 0)
	s.SetClipInSlot(first.ID, session.Clip{Name: "intro"})
	firstScene := s.Scenes()[0]

	if !s.MoveScene(0, 2) {
		t.Fatal("MoveScene failed")
	}
	scenes := s.Scenes()
	if scenes[2].ID != firstScene.ID || scenes[2].Index != 2 {
		t.Errorf("scene not moved: %+v", scenes[2])
	}
	slot, _ := s.Slot(first.ID)
	if slot.SceneIndex != 2 || slot.Clip == nil {
		t.Errorf("slot = %+v", slot)
	}

	for _, bad := range [][2]int{{-1, 0}, {0, 99}, {3, 3}} {
		if s.MoveScene(bad[0], bad[1]) {
			t.Errorf("MoveScene(%d, %d) reported success", bad[0], bad[1])
		}
	}
}

func TestRemoveSceneShiftsRows(t *testing.T) {
	s := NewStore()
	tr := s.AddTrack("t")
	last, _ := s.SlotAt(tr.ID, 7)

	removed := s.RemoveScene(s.Scenes()[0].ID)
	if len(removed) != 1 {
		t.Errorf("removed %d slots, want 1", len(removed))
	}
	if n := len(s.Scenes()); n != 7 {
		t.Errorf("%d scenes left", n)
	}
	slot, _ := s.Slot(last.ID)
	if slot.SceneIndex != 6 {
		t.Errorf("last slot at row %d, want 6", slot.SceneIndex)
	}
	if s.RemoveScene("missing") != nil {
		t.Error("removed a missing scene")
	}
}

func TestSlotStateAndClear(t *testing.T) {
	s := NewStore()
	tr := s.AddTrack("t")
	slot, _ := s.SlotAt(tr.ID, 1)
	s.SetClipInSlot(slot.ID, session.Clip{Name: "loop", LengthBeats: 4})
	s.SetSlotState(slot.ID, session.Playing)

	got, _ := s.Slot(slot.ID)
	if got.LaunchState != session.Playing || got.Clip.ID == "" {
		t.Errorf("slot = %+v", got)
	}
	s.ClearSlot(slot.ID)
	got, _ = s.Slot(slot.ID)
	if got.Clip != nil || got.LaunchState != session.Stopped {
		t.Errorf("after clear: %+v", got)
	}
}

func TestOnChangeFires(t *testing.T) {
	s := NewStore()
	n := 0
	s.SetOnChange(func() { n++ })
	s.AddTrack("t")
	s.AddScene()
	if n != 2 {
		t.Errorf("onChange fired %d times, want 2", n)
	}
}

func TestRemoveEffectDropsItsLanes(t *testing.T) {
	s := NewStore()
	tr := s.AddTrack("")
	fx, ok := s.AddEffect(tr.ID, "delay")
	if !ok || fx.ID == "" {
		t.Fatalf("AddEffect = %+v, %v", fx, ok)
	}
	s.AddLane(tr.ID, fx.ID, "mix")
	s.AddLane(tr.ID, tr.ID, automation.ParamVolume)

	if !s.RemoveEffect(tr.ID, fx.ID) {
		t.Fatal("RemoveEffect returned false")
	}
	got, _ := s.Track(tr.ID)
	if len(got.Effects) != 0 {
		t.Errorf("effects = %+v", got.Effects)
	}
	if len(got.Lanes) != 1 || got.Lanes[0].Parameter != automation.ParamVolume {
		t.Errorf("lanes = %+v", got.Lanes)
	}
	if s.RemoveEffect(tr.ID, fx.ID) {
		t.Error("second RemoveEffect returned true")
	}
	if _, ok := s.AddEffect("nope", "delay"); ok {
		t.Error("AddEffect on unknown track succeeded")
	}
}
