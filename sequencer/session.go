package sequencer

import (
	"fmt"
	"strings"

	"go-session/midi"
	"go-session/project"
	"go-session/session"
	"go-session/widgets"
)

// Session grid colours - controller maps them to its palette
var (
	clipsPlaying  = [3]uint8{71, 13, 121}  // purple, pulsing
	clipsQueued   = [3]uint8{255, 200, 0}  // yellow, pulsing
	clipsStopping = [3]uint8{255, 100, 0}  // orange, flashing
	clipsBright   = [3]uint8{140, 26, 242} // has clip
	clipsDim      = [3]uint8{20, 4, 30}    // empty slot
	sceneColor    = [3]uint8{148, 18, 126}
	stopColor     = [3]uint8{111, 10, 126}
	stopActive    = [3]uint8{255, 80, 80} // track has something playing
)

// SessionView is the clip launcher: tracks across, scenes down
type SessionView struct {
	m *Manager

	// UI state
	cursorRow   int // scene
	cursorCol   int // track
	viewRows    int // how many scenes to show
	viewOffset  int // scene scroll offset
	trackOffset int // first track on the Launchpad
}

func NewSessionView(m *Manager) *SessionView {
	return &SessionView{m: m, viewRows: gridSize}
}

func (s *SessionView) Name() string { return "session" }

// grid is the part of the project the view draws
type grid struct {
	tracks []project.Track
	scenes []session.Scene
	slots  map[string]map[int]session.ClipSlot // track id -> scene index
}

func (s *SessionView) snapshot() grid {
	st := s.m.store.Snapshot()
	g := grid{
		tracks: st.Tracks,
		scenes: st.Scenes,
		slots:  make(map[string]map[int]session.ClipSlot, len(st.Tracks)),
	}
	for _, slot := range st.Slots {
		row, ok := g.slots[slot.TrackID]
		if !ok {
			row = make(map[int]session.ClipSlot)
			g.slots[slot.TrackID] = row
		}
		row[slot.SceneIndex] = slot
	}
	return g
}

func (g grid) slot(trackIdx, sceneIdx int) (session.ClipSlot, bool) {
	if trackIdx < 0 || trackIdx >= len(g.tracks) || sceneIdx < 0 || sceneIdx >= len(g.scenes) {
		return session.ClipSlot{}, false
	}
	slot, ok := g.slots[g.tracks[trackIdx].ID][sceneIdx]
	return slot, ok
}

// trackActive reports whether any slot of the track is playing or pending
func (g grid) trackActive(trackIdx int) bool {
	for _, slot := range g.slots[g.tracks[trackIdx].ID] {
		if slot.LaunchState != session.Stopped {
			return true
		}
	}
	return false
}

// clamp keeps the cursor inside the grid after tracks or scenes go away
func (s *SessionView) clamp(g grid) {
	s.cursorCol = max(0, min(s.cursorCol, len(g.tracks)-1))
	s.cursorRow = max(0, min(s.cursorRow, len(g.scenes)-1))
	if s.cursorRow < s.viewOffset {
		s.viewOffset = s.cursorRow
	}
	if s.cursorRow >= s.viewOffset+s.viewRows {
		s.viewOffset = s.cursorRow - s.viewRows + 1
	}
	if s.cursorCol < s.trackOffset {
		s.trackOffset = s.cursorCol
	}
	if s.cursorCol >= s.trackOffset+gridSize {
		s.trackOffset = s.cursorCol - gridSize + 1
	}
}

func (s *SessionView) glyph(slot session.ClipSlot) rune {
	sym := s.m.theme.Symbols
	switch slot.LaunchState {
	case session.Playing:
		return sym.SlotPlaying
	case session.Queued:
		return sym.SlotQueued
	case session.Stopping:
		return sym.SlotStopping
	}
	if slot.HasClip() {
		return sym.SlotClip
	}
	return sym.SlotEmpty
}

func (s *SessionView) View() string {
	g := s.snapshot()
	s.clamp(g)

	var out strings.Builder
	fmt.Fprintf(&out, "SESSION  Clip Launcher  quantize:%s\n\n", s.m.store.GlobalQuantize())

	if len(g.tracks) == 0 {
		out.WriteString("No tracks - press t to add one\n\n")
	} else {
		out.WriteString("          ")
		for _, t := range g.tracks {
			fmt.Fprintf(&out, " %-4s", t.Name[:min(4, len(t.Name))])
		}
		out.WriteString("\n")

		for row := s.viewOffset; row < s.viewOffset+s.viewRows && row < len(g.scenes); row++ {
			sc := g.scenes[row]
			name := sc.Name[:min(8, len(sc.Name))]
			fmt.Fprintf(&out, "%-8s: ", name)
			for col := range g.tracks {
				slot, _ := g.slot(col, row)
				char := string(s.glyph(slot))
				if row == s.cursorRow && col == s.cursorCol {
					fmt.Fprintf(&out, "[%s]  ", char)
				} else {
					fmt.Fprintf(&out, " %s   ", char)
				}
			}
			if sc.Tempo > 0 {
				fmt.Fprintf(&out, " %.0fbpm", sc.Tempo)
			}
			out.WriteString("\n")
		}

		if slot, ok := g.slot(s.cursorCol, s.cursorRow); ok {
			out.WriteString("\n")
			out.WriteString(s.describe(g.tracks[s.cursorCol], slot))
			out.WriteString("\n")
		}
	}

	// Legend
	sym := s.m.theme.Symbols
	fmt.Fprintf(&out, "\n%c playing  %c queued  %c stopping  %c has clip\n",
		sym.SlotPlaying, sym.SlotQueued, sym.SlotStopping, sym.SlotClip)

	// Key help
	out.WriteString("\n")
	out.WriteString(widgets.RenderKeyHelp([]widgets.KeySection{
		{Keys: []widgets.KeyBinding{
			{Key: "h j k l", Desc: "move cursor (tracks / scenes)"},
			{Key: "space", Desc: "launch clip (stop track on empty slot)"},
			{Key: "s / S", Desc: "stop clip / stop track"},
			{Key: "enter", Desc: "launch scene"},
			{Key: "X", Desc: "stop all clips"},
			{Key: "n / d", Desc: "new clip / delete clip"},
			{Key: "t / T", Desc: "add / remove track"},
			{Key: "a / A", Desc: "add / remove scene"},
			{Key: "z / Q", Desc: "cycle slot / global quantize"},
			{Key: "m", Desc: "pin scene tempo to current tempo"},
		}},
	}))

	// Launchpad
	out.WriteString("\n\n")
	out.WriteString(renderLEDPreview(s.RenderLEDs()))
	out.WriteString("\n")
	out.WriteString(widgets.RenderLegendItem(clipsBright, "Clips", "tap to launch, empty pad stops the track"))
	out.WriteString("\n")
	out.WriteString(widgets.RenderLegendItem(sceneColor, "Scene", "launch entire row"))
	out.WriteString("\n")
	out.WriteString(widgets.RenderLegendItem(stopColor, "Top row", "stop track"))
	out.WriteString("\n")

	return out.String()
}

func (s *SessionView) describe(t project.Track, slot session.ClipSlot) string {
	q := slot.LaunchQuantize
	if q == "" {
		q = s.m.store.GlobalQuantize()
	}
	clip := "empty"
	if slot.HasClip() {
		clip = fmt.Sprintf("%s (%g beats)", slot.Clip.Name, slot.Clip.LengthBeats)
	}
	return fmt.Sprintf("%s / scene %d  %s  quantize:%s  %s", t.Name, slot.SceneIndex+1, clip, q, slot.LaunchState)
}

// renderLEDPreview draws LEDs the way the Launchpad shows them
func renderLEDPreview(leds []midi.LEDUpdate) string {
	var pads [gridSize][gridSize][3]uint8
	var top, side [gridSize][3]uint8
	for _, led := range leds {
		switch {
		case led.Row == topRow && led.Col < gridSize:
			top[led.Col] = led.Color
		case led.Col == sideCol && led.Row < gridSize:
			side[led.Row] = led.Color
		case led.Row < gridSize && led.Col < gridSize:
			pads[led.Row][led.Col] = led.Color
		}
	}
	return widgets.RenderPadGrid(pads, &top, &side)
}

func (s *SessionView) RenderLEDs() []midi.LEDUpdate {
	g := s.snapshot()
	var leds []midi.LEDUpdate

	// Main grid - clips
	for col := 0; col < gridSize; col++ {
		trackIdx := s.trackOffset + col
		if trackIdx >= len(g.tracks) {
			break
		}
		for lpRow := 0; lpRow < gridSize; lpRow++ {
			slot, ok := g.slot(trackIdx, s.viewOffset+(7-lpRow))
			if !ok {
				continue
			}
			color, channel := slotColor(slot)
			leds = append(leds, midi.LEDUpdate{Row: lpRow, Col: col, Color: color, Channel: channel})
		}

		// Top row - stop track buttons
		color := stopColor
		if g.trackActive(trackIdx) {
			color = stopActive
		}
		leds = append(leds, midi.LEDUpdate{Row: topRow, Col: col, Color: color, Channel: midi.ChannelStatic})
	}

	// Right column - scene launch buttons
	for lpRow := 0; lpRow < gridSize; lpRow++ {
		if s.viewOffset+(7-lpRow) < len(g.scenes) {
			leds = append(leds, midi.LEDUpdate{Row: lpRow, Col: sideCol, Color: sceneColor, Channel: midi.ChannelStatic})
		}
	}

	return leds
}

func slotColor(slot session.ClipSlot) ([3]uint8, uint8) {
	switch slot.LaunchState {
	case session.Playing:
		return clipsPlaying, midi.ChannelPulse
	case session.Queued:
		return clipsQueued, midi.ChannelPulse
	case session.Stopping:
		return clipsStopping, midi.ChannelFlash
	}
	if slot.HasClip() {
		return clipsBright, midi.ChannelStatic
	}
	return clipsDim, midi.ChannelStatic
}

func (s *SessionView) HandleKey(key string) {
	g := s.snapshot()
	s.clamp(g)
	slot, hasSlot := g.slot(s.cursorCol, s.cursorRow)

	switch key {
	case "h", "left":
		s.cursorCol--
	case "l", "right":
		s.cursorCol++
	case "j", "down":
		s.cursorRow++
	case "k", "up":
		s.cursorRow--
	case " ":
		if hasSlot {
			s.press(slot)
		}
	case "enter":
		s.m.LaunchScene(s.cursorRow)
	case "s":
		if hasSlot {
			s.m.StopSlot(slot.ID)
		}
	case "S":
		if hasSlot {
			s.m.StopTrack(slot.TrackID)
		}
	case "X":
		s.m.StopAllClips()
	case "n":
		if hasSlot {
			s.m.NewClip(slot.ID)
		}
	case "d":
		if hasSlot {
			s.m.ClearSlot(slot.ID)
		}
	case "t":
		s.m.AddTrack("")
		s.cursorCol = len(g.tracks)
	case "T":
		if s.cursorCol < len(g.tracks) {
			s.m.RemoveTrack(g.tracks[s.cursorCol].ID)
		}
	case "a":
		s.m.AddScene()
	case "A":
		if s.cursorRow < len(g.scenes) && len(g.scenes) > 1 {
			s.m.RemoveScene(g.scenes[s.cursorRow].ID)
		}
	case "z":
		if hasSlot {
			s.m.CycleSlotQuantize(slot.ID)
		}
	case "Q":
		s.m.CycleGlobalQuantize()
	case "m":
		if s.cursorRow < len(g.scenes) {
			sc := g.scenes[s.cursorRow]
			bpm := s.m.Tempo()
			if sc.Tempo > 0 {
				bpm = 0
			}
			s.m.store.SetSceneTempo(sc.ID, bpm)
		}
	}
	s.clamp(s.snapshot())
}

// press launches a filled slot; an empty one stops its track
func (s *SessionView) press(slot session.ClipSlot) {
	if slot.HasClip() {
		s.m.LaunchSlot(slot.ID)
	} else {
		s.m.StopTrack(slot.TrackID)
	}
}

func (s *SessionView) HandlePad(row, col int) {
	g := s.snapshot()
	switch {
	case row == topRow:
		if idx := s.trackOffset + col; idx < len(g.tracks) {
			s.m.StopTrack(g.tracks[idx].ID)
		}
	case col == sideCol:
		if idx := s.viewOffset + (7 - row); idx < len(g.scenes) {
			s.m.LaunchScene(idx)
		}
	default:
		trackIdx, sceneIdx := s.trackOffset+col, s.viewOffset+(7-row)
		if slot, ok := g.slot(trackIdx, sceneIdx); ok {
			s.cursorCol, s.cursorRow = trackIdx, sceneIdx
			s.press(slot)
		}
	}
}
