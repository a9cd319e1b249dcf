package sequencer

import (
	"strings"
	"testing"

	"go-session/automation"
	"go-session/midi"
	"go-session/project"
	"go-session/session"
)

func TestSessionViewKeys(t *testing.T) {
	m := NewManager(project.NewStore(), Options{})
	v := NewSessionView(m)

	if !strings.Contains(v.View(), "No tracks") {
		t.Error("empty project should say so")
	}

	v.HandleKey("t")
	v.HandleKey("t")
	tracks := m.Store().Tracks()
	if len(tracks) != 2 {
		t.Fatalf("%d tracks, want 2", len(tracks))
	}
	if v.cursorCol != 1 {
		t.Errorf("cursor on track %d, want the new one", v.cursorCol)
	}

	v.HandleKey("j")
	v.HandleKey("n")
	slot, _ := m.Store().SlotAt(tracks[1].ID, 1)
	if !slot.HasClip() {
		t.Fatal("n did not create a clip under the cursor")
	}
	if !strings.Contains(v.View(), "[·]") {
		t.Error("cursor cell not drawn with the clip glyph")
	}

	v.HandleKey(" ")
	if !m.Clock().Playing() {
		t.Error("space did not launch")
	}
	if !strings.Contains(v.View(), "[▶]") {
		t.Error("playing slot not drawn")
	}

	v.HandleKey("d")
	slot, _ = m.Store().Slot(slot.ID)
	if slot.HasClip() || slot.LaunchState != session.Stopped {
		t.Errorf("d left %+v", slot)
	}
}

func TestSessionViewCursorClamps(t *testing.T) {
	m := NewManager(project.NewStore(), Options{})
	v := NewSessionView(m)
	m.AddTrack("")
	for i := 0; i < 20; i++ {
		v.HandleKey("j")
		v.HandleKey("l")
	}
	if v.cursorCol != 0 || v.cursorRow != project.DefaultScenes-1 {
		t.Errorf("cursor = %d,%d", v.cursorCol, v.cursorRow)
	}
	if v.viewOffset != 0 {
		t.Errorf("viewOffset = %d", v.viewOffset)
	}
}

func TestSessionLEDColours(t *testing.T) {
	m, _, slot := newTestManager(t)
	v := NewSessionView(m)

	find := func(leds []midi.LEDUpdate, row, col int) (midi.LEDUpdate, bool) {
		for _, led := range leds {
			if led.Row == row && led.Col == col {
				return led, true
			}
		}
		return midi.LEDUpdate{}, false
	}

	led, ok := find(v.RenderLEDs(), 7, 0)
	if !ok || led.Color != clipsBright {
		t.Errorf("clip pad = %+v", led)
	}
	if led, _ := find(v.RenderLEDs(), 6, 0); led.Color != clipsDim {
		t.Errorf("empty pad = %+v", led)
	}

	m.LaunchSlot(slot.ID)
	led, _ = find(v.RenderLEDs(), 7, 0)
	if led.Color != clipsPlaying || led.Channel != midi.ChannelPulse {
		t.Errorf("playing pad = %+v", led)
	}
	if led, _ := find(v.RenderLEDs(), topRow, 0); led.Color != stopActive {
		t.Errorf("stop button = %+v", led)
	}
}

func TestAutomationViewLanes(t *testing.T) {
	m := NewManager(project.NewStore(), Options{})
	tr := m.AddTrack("Lead")
	v := NewAutomationView(m)

	v.HandleKey("v")
	v.HandleKey("v")
	got, _ := m.Store().Track(tr.ID)
	if len(got.Lanes) != 1 || got.Lanes[0].Parameter != automation.ParamVolume {
		t.Fatalf("lanes = %+v", got.Lanes)
	}

	v.HandleKey("e")
	v.HandleKey("f")
	got, _ = m.Store().Track(tr.ID)
	if len(got.Effects) != 1 || len(got.Lanes) != 2 {
		t.Fatalf("effects %+v lanes %+v", got.Effects, got.Lanes)
	}
	if label := laneLabel(got, got.Lanes[1]); label != "compressor.threshold" {
		t.Errorf("label = %q", label)
	}
	if v.laneIdx != 1 {
		t.Errorf("new lane not selected: %d", v.laneIdx)
	}

	out := v.View()
	if !strings.Contains(out, "> compressor.threshold") || !strings.Contains(out, "volume") {
		t.Errorf("view:\n%s", out)
	}

	v.HandleKey(" ")
	lane, _ := m.Store().Lane(tr.ID, got.Lanes[1].ID)
	if lane.Enabled {
		t.Error("space did not disable the lane")
	}
}

func TestAutomationViewNudgeAndPads(t *testing.T) {
	m := NewManager(project.NewStore(), Options{})
	tr := m.AddTrack("")
	lane, _ := m.Store().AddLane(tr.ID, tr.ID, automation.ParamPan)
	v := NewAutomationView(m)

	v.HandleKey("]")
	if got, _ := m.CurrentValue(tr.ID, lane); got <= 0 {
		t.Errorf("pan after nudge up = %v", got)
	}

	v.HandlePad(gridSize-1, 0)
	if got, _ := m.CurrentValue(tr.ID, lane); got != 1 {
		t.Errorf("top pad pan = %v, want 1", got)
	}
	v.HandlePad(0, 0)
	if got, _ := m.CurrentValue(tr.ID, lane); got != -1 {
		t.Errorf("bottom pad pan = %v, want -1", got)
	}

	v.HandleKey("r")
	if m.RecordMode() != automation.RecordTouch {
		t.Errorf("record mode = %s", m.RecordMode())
	}

	// playhead at beat 0 while stopped
	v.HandleKey("i")
	got, _ := m.Store().Lane(tr.ID, lane.ID)
	if len(got.Points) != 1 || got.Points[0].Beat != 0 || got.Points[0].Value != -1 {
		t.Errorf("inserted = %+v", got.Points)
	}
}
