package session

// LaunchState is a clip slot's position in its launch lifecycle
type LaunchState string

const (
	Stopped  LaunchState = "stopped"
	Queued   LaunchState = "queued"
	Playing  LaunchState = "playing"
	Stopping LaunchState = "stopping"
)

// Quantize selects the boundary a launch or stop waits for
type Quantize string

const (
	QuantizeNone Quantize = "none"
	QuantizeBeat Quantize = "beat"
	QuantizeHalf Quantize = "half"
	QuantizeBar  Quantize = "bar"
)

// Quantizes in UI cycling order
var Quantizes = []Quantize{QuantizeNone, QuantizeBeat, QuantizeHalf, QuantizeBar}

// Clip is the content of a slot. Only its identity and length matter here.
type Clip struct {
	ID          string  `yaml:"id"`
	Name        string  `yaml:"name"`
	LengthBeats float64 `yaml:"lengthBeats"`
}

// Scene is a row across every track's clip grid
type Scene struct {
	ID    string  `yaml:"id"`
	Name  string  `yaml:"name"`
	Index int     `yaml:"index"`
	Tempo float64 `yaml:"tempo,omitempty"` // 0 = keep transport tempo
}

// ClipSlot is one cell of the session grid
type ClipSlot struct {
	ID             string      `yaml:"id"`
	TrackID        string      `yaml:"trackId"`
	SceneIndex     int         `yaml:"sceneIndex"`
	Clip           *Clip       `yaml:"clip,omitempty"`
	LaunchState    LaunchState `yaml:"launchState"`
	LaunchQuantize Quantize    `yaml:"launchQuantize"`
	LoopEnabled    bool        `yaml:"loopEnabled"`
}

// HasClip reports whether the slot has content
func (s ClipSlot) HasClip() bool {
	return s.Clip != nil
}
