package automation

import (
	"testing"
)

type call struct {
	kind  string
	track string
	index int
	name  string
	value float64
	at    float64
}

type fakeTarget struct {
	tracks map[string][]string // track id -> effect instance ids
	calls  []call
}

func (f *fakeTarget) HasTrack(trackID string) bool {
	_, ok := f.tracks[trackID]
	return ok
}

func (f *fakeTarget) SetTrackGain(trackID string, gain, at float64) {
	f.calls = append(f.calls, call{kind: "gain", track: trackID, value: gain, at: at})
}

func (f *fakeTarget) SetTrackPan(trackID string, pan, at float64) {
	f.calls = append(f.calls, call{kind: "pan", track: trackID, value: pan, at: at})
}

func (f *fakeTarget) EffectIndex(trackID, effectID string) int {
	for i, id := range f.tracks[trackID] {
		if id == effectID {
			return i
		}
	}
	return -1
}

func (f *fakeTarget) SetEffectParameter(trackID string, index int, name string, value, at float64) {
	f.calls = append(f.calls, call{kind: "fx", track: trackID, index: index, name: name, value: value, at: at})
}

type fakeSource []TrackLanes

func (f fakeSource) AutomationTracks() []TrackLanes { return f }

// one beat per second, offset so times are distinguishable from beats
func beatToTime(beat float64) float64 { return 10 + beat }

func TestScheduleSamplesOnGrid(t *testing.T) {
	target := &fakeTarget{tracks: map[string][]string{"t1": nil}}
	src := fakeSource{{TrackID: "t1", Lanes: []Lane{{
		ID: "l1", Parameter: ParamPan, TargetID: "t1", Enabled: true,
		Points: []Point{{Beat: 0, Value: -1, Mode: Linear}, {Beat: 2, Value: 1, Mode: Linear}},
	}}}}
	s := NewScheduler(src, target)

	s.ScheduleRange(0.3, 1, beatToTime)

	wantBeats := []float64{0.375, 0.5, 0.625, 0.75, 0.875}
	if len(target.calls) != len(wantBeats) {
		t.Fatalf("got %d calls, want %d: %+v", len(target.calls), len(wantBeats), target.calls)
	}
	for i, c := range target.calls {
		beat := wantBeats[i]
		if c.kind != "pan" || !near(c.at, 10+beat) || !near(c.value, -1+beat) {
			t.Errorf("call %d = %+v, want pan %v at %v", i, c, -1+beat, 10+beat)
		}
	}
}

func TestScheduleContiguousWindowsDoNotDuplicate(t *testing.T) {
	target := &fakeTarget{tracks: map[string][]string{"t1": nil}}
	src := fakeSource{{TrackID: "t1", Lanes: []Lane{{
		ID: "l1", Parameter: ParamPan, TargetID: "t1", Enabled: true,
		Points: []Point{{Beat: 0, Value: 0}},
	}}}}
	s := NewScheduler(src, target)

	s.ScheduleRange(0, 0.5, beatToTime)
	s.ScheduleRange(0.5, 1, beatToTime)

	if len(target.calls) != 8 {
		t.Fatalf("got %d calls, want 8", len(target.calls))
	}
	seen := map[float64]bool{}
	for _, c := range target.calls {
		if seen[c.at] {
			t.Errorf("time %v scheduled twice", c.at)
		}
		seen[c.at] = true
	}
}

func TestScheduleVolumeConversion(t *testing.T) {
	target := &fakeTarget{tracks: map[string][]string{"t1": nil}}
	src := fakeSource{{TrackID: "t1", Lanes: []Lane{{
		ID: "l1", Parameter: ParamVolume, TargetID: "t1", Enabled: true,
		Points: []Point{{Beat: 0, Value: -60, Mode: Step}, {Beat: 1, Value: -6.0206, Mode: Step}},
	}}}}
	s := NewScheduler(src, target)
	s.ScheduleRange(0, 1.125, beatToTime)

	first, last := target.calls[0], target.calls[len(target.calls)-1]
	if first.kind != "gain" || first.value != 0 {
		t.Errorf("-60 dB gave gain %v, want exactly 0", first.value)
	}
	if last.value < 0.49 || last.value > 0.51 {
		t.Errorf("-6 dB gave gain %v, want ~0.5", last.value)
	}
}

func TestSchedulePanClamped(t *testing.T) {
	target := &fakeTarget{tracks: map[string][]string{"t1": nil}}
	src := fakeSource{{TrackID: "t1", Lanes: []Lane{{
		ID: "l1", Parameter: ParamPan, TargetID: "t1", Enabled: true,
		Points: []Point{{Beat: 0, Value: 3}},
	}}}}
	NewScheduler(src, target).ScheduleRange(0, 0.125, beatToTime)
	if len(target.calls) != 1 || target.calls[0].value != 1 {
		t.Errorf("calls = %+v, want one pan clamped to 1", target.calls)
	}
}

func TestScheduleEffectByInstanceID(t *testing.T) {
	target := &fakeTarget{tracks: map[string][]string{"t1": {"fx-a", "fx-b"}}}
	src := fakeSource{{TrackID: "t1", Lanes: []Lane{{
		ID: "l1", Parameter: "cutoff", TargetID: "fx-b", Enabled: true,
		Points: []Point{{Beat: 0, Value: 0.7}},
	}}}}
	NewScheduler(src, target).ScheduleRange(0, 0.125, beatToTime)
	if len(target.calls) != 1 {
		t.Fatalf("got %d calls, want 1", len(target.calls))
	}
	c := target.calls[0]
	if c.kind != "fx" || c.index != 1 || c.name != "cutoff" || c.value != 0.7 {
		t.Errorf("call = %+v, want cutoff on effect index 1", c)
	}
}

func TestScheduleSkipsUnresolvableAndDisabled(t *testing.T) {
	target := &fakeTarget{tracks: map[string][]string{"t1": {"fx-a"}}}
	pts := []Point{{Beat: 0, Value: 0.5}}
	src := fakeSource{
		{TrackID: "gone", Lanes: []Lane{{ID: "a", Parameter: ParamPan, TargetID: "gone", Enabled: true, Points: pts}}},
		{TrackID: "t1", Lanes: []Lane{
			{ID: "b", Parameter: "mix", TargetID: "fx-removed", Enabled: true, Points: pts},
			{ID: "c", Parameter: ParamPan, TargetID: "t1", Enabled: false, Points: pts},
			{ID: "d", Parameter: ParamPan, TargetID: "t1", Enabled: true},
		}},
	}
	s := NewScheduler(src, target)
	s.ScheduleRange(0, 4, beatToTime)
	s.ScheduleRange(4, 8, beatToTime)
	if len(target.calls) != 0 {
		t.Errorf("expected no calls, got %+v", target.calls)
	}
}

func TestScheduleFansOutToAllTargets(t *testing.T) {
	a := &fakeTarget{tracks: map[string][]string{"t1": nil}}
	b := &fakeTarget{tracks: map[string][]string{"t1": nil}}
	src := fakeSource{{TrackID: "t1", Lanes: []Lane{{
		ID: "l1", Parameter: ParamPan, TargetID: "t1", Enabled: true,
		Points: []Point{{Beat: 0, Value: 0.25}},
	}}}}
	s := NewScheduler(src, a)
	s.AddTarget(b)
	s.ScheduleRange(0, 0.25, beatToTime)
	if len(a.calls) != 2 || len(b.calls) != 2 {
		t.Errorf("calls a=%d b=%d, want 2 each", len(a.calls), len(b.calls))
	}
}

func TestDBToGain(t *testing.T) {
	if DBToGain(0) != 1 {
		t.Errorf("0 dB = %v", DBToGain(0))
	}
	if DBToGain(-80) != 0 {
		t.Errorf("-80 dB = %v, want 0", DBToGain(-80))
	}
	if g := DBToGain(-20); !near(g, 0.1) {
		t.Errorf("-20 dB = %v, want 0.1", g)
	}
}
