package project

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"go-session/automation"
	"go-session/session"
)

func newTestLibrary(t *testing.T) *Library {
	t.Helper()
	l := NewLibrary(t.TempDir())
	ts := time.Date(2024, 1, 15, 14, 30, 0, 0, time.Local)
	l.now = func() time.Time {
		ts = ts.Add(time.Second)
		return ts
	}
	return l
}

func TestSaveLoadRoundTrip(t *testing.T) {
	lib := newTestLibrary(t)
	src := NewStore()
	tr := src.AddTrack("Drums")
	lane, _ := src.AddLane(tr.ID, tr.ID, automation.ParamVolume)
	src.AddPoint(tr.ID, lane.ID, automation.Point{ID: "p1", Beat: 0, Value: -6, Mode: automation.Exponential})
	src.AddPoint(tr.ID, lane.ID, automation.Point{ID: "p2", Beat: 4, Value: 0})
	slot, _ := src.SlotAt(tr.ID, 0)
	src.SetClipInSlot(slot.ID, session.Clip{ID: "c1", Name: "beat", LengthBeats: 8})
	src.SetSlotState(slot.ID, session.Playing)
	src.SetTransport(128, src.Snapshot().Signature)

	file, err := lib.Save(src, "demo", "first take")
	if err != nil {
		t.Fatal(err)
	}
	if file != "2024-01-15_14-30-01_first-take.yaml" {
		t.Errorf("filename = %s", file)
	}

	dst := NewStore()
	if err := lib.Load(dst, "demo", ""); err != nil {
		t.Fatal(err)
	}
	got, ok := dst.Lane(tr.ID, lane.ID)
	if !ok || len(got.Points) != 2 || got.Points[0].Mode != automation.Exponential || got.Points[1].ID != "p2" {
		t.Errorf("lane = %+v", got)
	}
	loaded, _ := dst.Slot(slot.ID)
	if loaded.Clip == nil || loaded.Clip.Name != "beat" {
		t.Errorf("slot = %+v", loaded)
	}
	if loaded.LaunchState != session.Stopped {
		t.Errorf("launch state %s survived load", loaded.LaunchState)
	}
	if tempo, _ := dst.Transport(); tempo != 128 {
		t.Errorf("tempo = %v", tempo)
	}
}

func TestListSavesNewestFirst(t *testing.T) {
	lib := newTestLibrary(t)
	s := NewStore()
	for _, label := range []string{"", "b", ""} {
		if _, err := lib.Save(s, "demo", label); err != nil {
			t.Fatal(err)
		}
	}
	// stray files are ignored
	os.WriteFile(filepath.Join(lib.ProjectDir("demo"), "notes.txt"), nil, 0644)

	saves, err := lib.ListSaves("demo")
	if err != nil {
		t.Fatal(err)
	}
	if len(saves) != 3 {
		t.Fatalf("%d saves, want 3", len(saves))
	}
	if !saves[0].Timestamp.After(saves[1].Timestamp) || saves[1].Label != "b" {
		t.Errorf("saves = %+v", saves)
	}

	projects, _ := lib.ListProjects()
	if len(projects) != 1 || projects[0] != "demo" {
		t.Errorf("projects = %v", projects)
	}
}

func TestRenameAndDeleteSave(t *testing.T) {
	lib := newTestLibrary(t)
	file, _ := lib.Save(NewStore(), "demo", "")
	renamed, err := lib.RenameSave("demo", file, "mix: v2")
	if err != nil {
		t.Fatal(err)
	}
	if renamed != "2024-01-15_14-30-01_mix--v2.yaml" {
		t.Errorf("renamed to %s", renamed)
	}
	if err := lib.DeleteSave("demo", renamed); err != nil {
		t.Fatal(err)
	}
	if saves, _ := lib.ListSaves("demo"); len(saves) != 0 {
		t.Errorf("save not deleted: %+v", saves)
	}
	if _, err := lib.RenameSave("demo", "junk.yaml", "x"); err == nil {
		t.Error("rename of a non-save succeeded")
	}
}

func TestLoadMissingProject(t *testing.T) {
	lib := newTestLibrary(t)
	if err := lib.Load(NewStore(), "nothing", ""); err == nil {
		t.Error("expected error for project without saves")
	}
	if projects, err := lib.ListProjects(); err != nil || len(projects) != 0 {
		t.Errorf("ListProjects on empty dir = %v, %v", projects, err)
	}
}

func TestLoadSortsHandEditedLanes(t *testing.T) {
	lib := newTestLibrary(t)
	dir := lib.ProjectDir("edited")
	os.MkdirAll(dir, 0755)
	doc := `version: 1
tracks:
  - id: t1
    name: T
    channel: 1
    lanes:
      - id: l1
        parameter: pan
        targetId: t1
        enabled: true
        points:
          - {id: b, beat: 4, value: 1, mode: linear}
          - {id: a, beat: 0, value: -1, mode: linear}
`
	if err := os.WriteFile(filepath.Join(dir, "2024-02-01_10-00-00.yaml"), []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}
	s := NewStore()
	if err := lib.Load(s, "edited", ""); err != nil {
		t.Fatal(err)
	}
	lane, _ := s.Lane("t1", "l1")
	if !lane.Sorted() || lane.Points[0].ID != "a" {
		t.Errorf("lane = %+v", lane.Points)
	}
	if n := len(s.TrackSlots("t1")); n != DefaultScenes {
		t.Errorf("%d slots created for loaded track", n)
	}
}
