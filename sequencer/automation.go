package sequencer

import (
	"fmt"
	"math"
	"strings"

	"go-session/automation"
	"go-session/midi"
	"go-session/mixer"
	"go-session/project"
	"go-session/widgets"
)

// Automation grid colours
var (
	laneColor     = [3]uint8{0, 200, 200}
	laneSelected  = [3]uint8{80, 150, 255}
	laneDisabled  = [3]uint8{40, 60, 120}
	trackColor    = [3]uint8{40, 60, 120}
	trackSelected = [3]uint8{0, 100, 255}
	recordColor   = [3]uint8{255, 0, 0}
	recordOff     = [3]uint8{180, 60, 60}
)

const (
	sparkWidth  = 32
	defaultSpan = 16.0 // beats shown
	nudgeSteps  = 20   // nudges across a lane's full range
)

// AutomationView edits the lanes of one track: curves drawn as sparklines,
// live values nudged or set from the pads, record mode and knob learning
type AutomationView struct {
	m *Manager

	trackIdx int
	laneIdx  int
	span     float64
}

func NewAutomationView(m *Manager) *AutomationView {
	return &AutomationView{m: m, span: defaultSpan}
}

func (a *AutomationView) Name() string { return "automation" }

// selection returns the selected track and lane, clamping the cursor
func (a *AutomationView) selection() (project.Track, *automation.Lane, bool) {
	tracks := a.m.store.Tracks()
	if len(tracks) == 0 {
		a.trackIdx, a.laneIdx = 0, 0
		return project.Track{}, nil, false
	}
	a.trackIdx = max(0, min(a.trackIdx, len(tracks)-1))
	t := tracks[a.trackIdx]
	if len(t.Lanes) == 0 {
		a.laneIdx = 0
		return t, nil, true
	}
	a.laneIdx = max(0, min(a.laneIdx, len(t.Lanes)-1))
	return t, &t.Lanes[a.laneIdx], true
}

// laneLabel names a lane after its parameter, prefixed by the effect kind
func laneLabel(t project.Track, lane automation.Lane) string {
	if lane.TargetID == t.ID {
		return lane.Parameter
	}
	for _, fx := range t.Effects {
		if fx.ID == lane.TargetID {
			return fx.Kind + "." + lane.Parameter
		}
	}
	return "?." + lane.Parameter
}

func formatValue(lane automation.Lane, v float64) string {
	if lane.Parameter == automation.ParamVolume {
		if v <= automation.SilenceDB {
			return "-inf dB"
		}
		return fmt.Sprintf("%.1f dB", v)
	}
	return fmt.Sprintf("%.2f", v)
}

// window returns the beats the sparklines cover, paging with the playhead
func (a *AutomationView) window() (from, to, beat float64) {
	beat = a.m.clock.CurrentBeat()
	from = math.Floor(beat/a.span) * a.span
	return from, from + a.span, beat
}

func (a *AutomationView) View() string {
	var out strings.Builder
	t, _, ok := a.selection()

	status := string(a.m.RecordMode())
	if a.m.recorder.Touching() {
		status += " touching"
	}
	if a.m.Learning() {
		status += "  turn a knob to bind"
	}

	if !ok {
		fmt.Fprintf(&out, "AUTOMATION  record:%s\n\nNo tracks\n", status)
		return out.String()
	}
	fmt.Fprintf(&out, "AUTOMATION  %s  record:%s\n\n", t.Name, status)

	from, to, beat := a.window()
	if len(t.Lanes) == 0 {
		out.WriteString("No lanes - v volume, P pan, f effect parameter\n")
	}
	for i, lane := range t.Lanes {
		cursor := " "
		if i == a.laneIdx {
			cursor = ">"
		}
		lo, hi := a.m.LaneRange(t.ID, lane)

		curve := strings.Repeat(" ", sparkWidth)
		if samples := automation.SampleCurve(lane.Points, from, to, sparkWidth); len(samples) > 0 {
			values := make([]float64, len(samples))
			for j, s := range samples {
				values[j] = s.Value
			}
			curve = widgets.Sparkline(values, lo, hi)
		}

		value := ""
		if v, ok := a.m.CurrentValue(t.ID, lane); ok {
			value = formatValue(lane, v)
		}
		enabled := "on "
		if !lane.Enabled {
			enabled = "off"
		}
		knob := ""
		if ch, cc, ok := a.m.KnobFor(t.ID, lane.ID); ok {
			knob = fmt.Sprintf("ch%d cc%d", ch+1, cc)
		}
		fmt.Fprintf(&out, "%s %-18s %s  %-9s %s %3dpts %s\n",
			cursor, laneLabel(t, lane), curve, value, enabled, len(lane.Points), knob)
	}

	pos := int((beat - from) / a.span * float64(sparkWidth-1))
	fmt.Fprintf(&out, "  %-18s %s\n", fmt.Sprintf("%.0f-%.0f", from+1, to+1), widgets.Marker(sparkWidth, pos, '^'))

	if len(t.Effects) > 0 {
		names := make([]string, len(t.Effects))
		for i, fx := range t.Effects {
			names[i] = fx.Kind
		}
		fmt.Fprintf(&out, "\nEffects: %s\n", strings.Join(names, " > "))
	}

	out.WriteString("\n")
	out.WriteString(widgets.RenderKeyHelp([]widgets.KeySection{
		{Keys: []widgets.KeyBinding{
			{Key: "h / l", Desc: "previous / next track"},
			{Key: "j / k", Desc: "next / previous lane"},
			{Key: "v / P / f", Desc: "add volume / pan / effect parameter lane"},
			{Key: "e", Desc: "add effect"},
			{Key: "x / c", Desc: "delete lane / clear points"},
			{Key: "space", Desc: "enable / disable lane"},
			{Key: "[ / ]", Desc: "nudge value down / up"},
			{Key: "i", Desc: "insert point at playhead"},
			{Key: "r", Desc: "cycle record mode"},
			{Key: "L", Desc: "learn knob for lane"},
			{Key: "< / >", Desc: "zoom in / out"},
		}},
	}))
	out.WriteString("\n\n")
	out.WriteString(renderLEDPreview(a.RenderLEDs()))
	out.WriteString("\n")
	out.WriteString(widgets.RenderLegendItem(laneColor, "Lanes", "one column per lane, tap a row to set the value"))
	out.WriteString("\n")
	out.WriteString(widgets.RenderLegendItem(trackColor, "Top row", "select track"))
	out.WriteString("\n")
	return out.String()
}

func (a *AutomationView) RenderLEDs() []midi.LEDUpdate {
	var leds []midi.LEDUpdate
	tracks := a.m.store.Tracks()
	for col := 0; col < gridSize && col < len(tracks); col++ {
		color := trackColor
		if col == a.trackIdx {
			color = trackSelected
		}
		leds = append(leds, midi.LEDUpdate{Row: topRow, Col: col, Color: color, Channel: midi.ChannelStatic})
	}

	t, _, ok := a.selection()
	if ok {
		for col := 0; col < gridSize && col < len(t.Lanes); col++ {
			lane := t.Lanes[col]
			v, ok := a.m.CurrentValue(t.ID, lane)
			if !ok {
				continue
			}
			lo, hi := a.m.LaneRange(t.ID, lane)
			level := 0
			if hi > lo {
				level = int(math.Round((v - lo) / (hi - lo) * (gridSize - 1)))
			}
			color := laneColor
			switch {
			case !lane.Enabled:
				color = laneDisabled
			case col == a.laneIdx:
				color = laneSelected
			}
			for row := 0; row <= level && row < gridSize; row++ {
				leds = append(leds, midi.LEDUpdate{Row: row, Col: col, Color: color, Channel: midi.ChannelStatic})
			}
		}
	}

	rec := midi.LEDUpdate{Row: gridSize - 1, Col: sideCol, Color: recordOff, Channel: midi.ChannelStatic}
	if a.m.RecordMode() != automation.RecordOff {
		rec.Color = recordColor
		if a.m.recorder.Touching() {
			rec.Channel = midi.ChannelPulse
		}
	}
	return append(leds, rec)
}

func (a *AutomationView) HandleKey(key string) {
	t, lane, ok := a.selection()

	switch key {
	case "h", "left":
		a.trackIdx--
		a.laneIdx = 0
	case "l", "right":
		a.trackIdx++
		a.laneIdx = 0
	case "j", "down":
		a.laneIdx++
	case "k", "up":
		a.laneIdx--
	case "r":
		a.m.CycleRecordMode()
	case "<":
		a.span = math.Max(4, a.span/2)
	case ">":
		a.span = math.Min(64, a.span*2)
	}
	if !ok {
		return
	}

	switch key {
	case "v":
		a.addLane(t, t.ID, automation.ParamVolume)
	case "P":
		a.addLane(t, t.ID, automation.ParamPan)
	case "f":
		a.addEffectLane(t)
	case "e":
		kinds := mixer.Kinds()
		a.m.AddEffect(t.ID, kinds[len(t.Effects)%len(kinds)])
	}
	if lane == nil {
		return
	}

	switch key {
	case "x":
		a.m.store.RemoveLane(t.ID, lane.ID)
	case "c":
		a.m.store.ClearLane(t.ID, lane.ID)
	case " ":
		a.m.store.SetLaneEnabled(t.ID, lane.ID, !lane.Enabled)
	case "[", "]":
		a.nudge(t, *lane, key == "]")
	case "i":
		if v, ok := a.m.CurrentValue(t.ID, *lane); ok {
			beat := math.Round(a.m.clock.CurrentBeat()*automation.SamplesPerBeat) / automation.SamplesPerBeat
			a.m.store.AddPoint(t.ID, lane.ID, automation.Point{Beat: beat, Value: v})
		}
	case "L":
		a.m.LearnKnob(KnobBinding{TrackID: t.ID, LaneID: lane.ID})
	}
}

// addLane adds a lane unless the track already automates that parameter
func (a *AutomationView) addLane(t project.Track, targetID, parameter string) {
	for i, l := range t.Lanes {
		if l.TargetID == targetID && l.Parameter == parameter {
			a.laneIdx = i
			return
		}
	}
	if _, ok := a.m.store.AddLane(t.ID, targetID, parameter); ok {
		a.laneIdx = len(t.Lanes)
	}
}

// addEffectLane adds a lane for the first effect parameter without one
func (a *AutomationView) addEffectLane(t project.Track) {
	for _, fx := range t.Effects {
		specs, _ := mixer.KindParams(fx.Kind)
		for _, spec := range specs {
			taken := false
			for _, l := range t.Lanes {
				if l.TargetID == fx.ID && l.Parameter == spec.Name {
					taken = true
					break
				}
			}
			if !taken {
				a.addLane(t, fx.ID, spec.Name)
				return
			}
		}
	}
}

func (a *AutomationView) nudge(t project.Track, lane automation.Lane, up bool) {
	v, ok := a.m.CurrentValue(t.ID, lane)
	if !ok {
		return
	}
	lo, hi := a.m.LaneRange(t.ID, lane)
	step := (hi - lo) / nudgeSteps
	if !up {
		step = -step
	}
	a.m.SetParameter(t.ID, lane.ID, v+step)
}

func (a *AutomationView) HandlePad(row, col int) {
	switch {
	case row == topRow:
		a.trackIdx = col
		a.laneIdx = 0
		return
	case col == sideCol:
		if row == gridSize-1 {
			a.m.CycleRecordMode()
		}
		return
	}

	t, _, ok := a.selection()
	if !ok || col >= len(t.Lanes) {
		return
	}
	lane := t.Lanes[col]
	a.laneIdx = col
	lo, hi := a.m.LaneRange(t.ID, lane)
	a.m.SetParameter(t.ID, lane.ID, lo+float64(row)/(gridSize-1)*(hi-lo))
}
