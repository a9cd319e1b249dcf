package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go-session/automation"
	"go-session/session"
	"go-session/transport"
)

// ControllerType identifies the kind of controller
type ControllerType string

const (
	ControllerLaunchpadX    ControllerType = "launchpad-x"
	ControllerLaunchpadMini ControllerType = "launchpad-mini"
	ControllerLaunchpadPro  ControllerType = "launchpad-pro"
	ControllerKnobs         ControllerType = "knobs"
)

// ControllerConfig defines a saved controller configuration
type ControllerConfig struct {
	PortName     string         `json:"portName"`
	Type         ControllerType `json:"type"`
	AutoConnect  bool           `json:"autoConnect"`
	InputChannel int            `json:"inputChannel,omitempty"` // for knob boxes, 0 = any
}

// TransportConfig holds clock settings
type TransportConfig struct {
	Tempo       float64 `json:"tempo"`
	BeatsPerBar int     `json:"beatsPerBar"`
	BeatUnit    int     `json:"beatUnit"`
	LookaheadMs int     `json:"lookaheadMs"`
	IntervalMs  int     `json:"intervalMs"`
}

// SessionConfig holds clip-launch defaults
type SessionConfig struct {
	DefaultQuantize session.Quantize `json:"defaultQuantize"`
}

// AutomationConfig holds recorder defaults
type AutomationConfig struct {
	RecordMode automation.RecordMode `json:"recordMode"`
}

// OutputConfig defines the MIDI port scheduled automation is sent to.
// CCMap assigns controller numbers to effect parameter names.
type OutputConfig struct {
	PortName string           `json:"portName,omitempty"`
	CCMap    map[string]uint8 `json:"ccMap,omitempty"`
}

// UIConfig stores UI preferences
type UIConfig struct {
	LastProject string `json:"lastProject,omitempty"`
}

// Config is the main configuration structure
type Config struct {
	Controllers []ControllerConfig `json:"controllers,omitempty"`
	Transport   TransportConfig    `json:"transport"`
	Session     SessionConfig      `json:"session"`
	Automation  AutomationConfig   `json:"automation"`
	Output      OutputConfig       `json:"output,omitempty"`
	UI          UIConfig           `json:"ui,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Controllers: []ControllerConfig{
			{
				PortName:    "Launchpad X LPX MIDI",
				Type:        ControllerLaunchpadX,
				AutoConnect: true,
			},
		},
		Transport: TransportConfig{
			Tempo:       transport.DefaultTempo,
			BeatsPerBar: 4,
			BeatUnit:    4,
			LookaheadMs: int(transport.DefaultLookahead.Milliseconds()),
			IntervalMs:  int(transport.DefaultInterval.Milliseconds()),
		},
		Session:    SessionConfig{DefaultQuantize: session.QuantizeBar},
		Automation: AutomationConfig{RecordMode: automation.RecordOff},
		Output: OutputConfig{
			CCMap: map[string]uint8{
				"cutoff":    74,
				"resonance": 71,
				"mix":       91,
				"feedback":  12,
			},
		},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-session"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from the default path, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads the config at path. Missing fields keep their defaults.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.Validate()
	return cfg, nil
}

// Save writes the config to the default path
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the config to path, creating its directory
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate clamps out-of-range values and replaces unknown enum values with
// defaults
func (c *Config) Validate() {
	d := DefaultConfig()

	t := &c.Transport
	if t.Tempo < transport.MinTempo || t.Tempo > transport.MaxTempo {
		t.Tempo = d.Transport.Tempo
	}
	if t.BeatsPerBar < 1 || t.BeatsPerBar > 16 {
		t.BeatsPerBar = d.Transport.BeatsPerBar
	}
	switch t.BeatUnit {
	case 2, 4, 8, 16:
	default:
		t.BeatUnit = d.Transport.BeatUnit
	}
	if t.LookaheadMs < 10 || t.LookaheadMs > 1000 {
		t.LookaheadMs = d.Transport.LookaheadMs
	}
	if t.IntervalMs < 1 || t.IntervalMs >= t.LookaheadMs {
		t.IntervalMs = min(d.Transport.IntervalMs, t.LookaheadMs/2)
	}

	if !validQuantize(c.Session.DefaultQuantize) {
		c.Session.DefaultQuantize = d.Session.DefaultQuantize
	}
	if !validRecordMode(c.Automation.RecordMode) {
		c.Automation.RecordMode = d.Automation.RecordMode
	}
	for name, cc := range c.Output.CCMap {
		if cc > 127 {
			delete(c.Output.CCMap, name)
		}
	}
}

// Signature returns the configured meter
func (c *Config) Signature() transport.TimeSignature {
	return transport.TimeSignature{BeatsPerBar: c.Transport.BeatsPerBar, BeatUnit: c.Transport.BeatUnit}
}

func validQuantize(q session.Quantize) bool {
	for _, v := range session.Quantizes {
		if v == q {
			return true
		}
	}
	return false
}

func validRecordMode(m automation.RecordMode) bool {
	for _, v := range automation.RecordModes {
		if v == m {
			return true
		}
	}
	return false
}

// FindController finds a controller config by port name
func (c *Config) FindController(portName string) *ControllerConfig {
	for i := range c.Controllers {
		if c.Controllers[i].PortName == portName {
			return &c.Controllers[i]
		}
	}
	return nil
}

// AddController adds or updates a controller config
func (c *Config) AddController(ctrl ControllerConfig) {
	for i := range c.Controllers {
		if c.Controllers[i].PortName == ctrl.PortName {
			c.Controllers[i] = ctrl
			return
		}
	}
	c.Controllers = append(c.Controllers, ctrl)
}

// AutoConnectControllers returns controllers with autoConnect enabled
func (c *Config) AutoConnectControllers() []ControllerConfig {
	var result []ControllerConfig
	for _, ctrl := range c.Controllers {
		if ctrl.AutoConnect {
			result = append(result, ctrl)
		}
	}
	return result
}
