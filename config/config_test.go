package config

import (
	"os"
	"path/filepath"
	"testing"

	"go-session/automation"
	"go-session/session"
)

func TestLoadMissingReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Transport.Tempo != 120 || cfg.Session.DefaultQuantize != session.QuantizeBar {
		t.Errorf("defaults = %+v", cfg)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.json")
	cfg := DefaultConfig()
	cfg.Transport.Tempo = 96
	cfg.Automation.RecordMode = automation.RecordLatch
	cfg.AddController(ControllerConfig{PortName: "Knobs", Type: ControllerKnobs})
	if err := cfg.SaveTo(path); err != nil {
		t.Fatal(err)
	}

	got, err := LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Transport.Tempo != 96 || got.Automation.RecordMode != automation.RecordLatch {
		t.Errorf("loaded %+v", got)
	}
	if c := got.FindController("Knobs"); c == nil || c.Type != ControllerKnobs {
		t.Errorf("controller not saved: %+v", got.Controllers)
	}
	if n := len(got.AutoConnectControllers()); n != 1 {
		t.Errorf("%d auto-connect controllers, want 1", n)
	}
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	os.WriteFile(path, []byte(`{"transport": {"tempo": 140}}`), 0644)

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Transport.Tempo != 140 || cfg.Transport.LookaheadMs != 100 || cfg.Transport.BeatsPerBar != 4 {
		t.Errorf("transport = %+v", cfg.Transport)
	}
}

func TestValidateClamps(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Transport = TransportConfig{Tempo: 999, BeatsPerBar: 0, BeatUnit: 5, LookaheadMs: 50, IntervalMs: 80}
	cfg.Session.DefaultQuantize = "sometimes"
	cfg.Automation.RecordMode = "loud"
	cfg.Output.CCMap["bad"] = 200
	cfg.Validate()

	tr := cfg.Transport
	if tr.Tempo != 120 || tr.BeatsPerBar != 4 || tr.BeatUnit != 4 || tr.LookaheadMs != 50 || tr.IntervalMs != 25 {
		t.Errorf("transport = %+v", tr)
	}
	if cfg.Session.DefaultQuantize != session.QuantizeBar || cfg.Automation.RecordMode != automation.RecordOff {
		t.Errorf("enums not reset: %+v %+v", cfg.Session, cfg.Automation)
	}
	if _, ok := cfg.Output.CCMap["bad"]; ok {
		t.Error("out-of-range CC kept")
	}
}

func TestBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	os.WriteFile(path, []byte(`{`), 0644)
	if _, err := LoadFrom(path); err == nil {
		t.Error("expected parse error")
	}
}
