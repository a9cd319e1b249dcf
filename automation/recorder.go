package automation

import (
	"math"
	"sync"

	"github.com/google/uuid"

	"go-session/debug"
)

// RecordMode controls how live parameter changes become points
type RecordMode string

const (
	RecordOff   RecordMode = "off"
	RecordTouch RecordMode = "touch" // only while a control is held
	RecordLatch RecordMode = "latch"
	RecordWrite RecordMode = "write"
)

// RecordModes in UI cycling order
var RecordModes = []RecordMode{RecordOff, RecordTouch, RecordLatch, RecordWrite}

// MinRecordSpacing is the minimum distance in beats between recorded points
const MinRecordSpacing = 0.125

// AddPointFunc persists a recorded point into a lane
type AddPointFunc func(trackID, laneID string, p Point)

// Recorder turns live parameter changes during playback into curve points.
// It never touches lanes itself; points go to the AddPointFunc.
type Recorder struct {
	mu             sync.Mutex
	mode           RecordMode
	touching       bool
	lastRecordBeat float64
	addPoint       AddPointFunc
}

// NewRecorder creates a recorder in RecordOff mode
func NewRecorder() *Recorder {
	return &Recorder{mode: RecordOff, lastRecordBeat: -1}
}

func (r *Recorder) SetMode(mode RecordMode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mode = mode
}

func (r *Recorder) Mode() RecordMode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mode
}

// SetAddPointCallback sets where recorded points are sent
func (r *Recorder) SetAddPointCallback(fn AddPointFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.addPoint = fn
}

// RecordParameterChange records value at currentBeat if the mode allows it
// and the last point is at least MinRecordSpacing behind
func (r *Recorder) RecordParameterChange(trackID, laneID string, value, currentBeat float64) {
	r.mu.Lock()
	if r.mode == RecordOff || r.addPoint == nil {
		r.mu.Unlock()
		return
	}
	if currentBeat-r.lastRecordBeat < MinRecordSpacing {
		r.mu.Unlock()
		return
	}
	if r.mode == RecordTouch && !r.touching {
		r.mu.Unlock()
		return
	}

	p := Point{
		ID:    uuid.NewString(),
		Beat:  math.Round(currentBeat*SamplesPerBeat) / SamplesPerBeat,
		Value: value,
		Mode:  Linear,
	}
	r.lastRecordBeat = currentBeat
	addPoint := r.addPoint
	r.mu.Unlock()

	debug.Log("rec", "track=%s lane=%s beat=%.3f value=%.3f", trackID, laneID, p.Beat, value)
	addPoint(trackID, laneID, p)
}

// StartTouch marks a control as held (pointer down / knob grabbed)
func (r *Recorder) StartTouch() {
	r.mu.Lock()
	r.touching = true
	r.mu.Unlock()
}

// EndTouch releases the control
func (r *Recorder) EndTouch() {
	r.mu.Lock()
	r.touching = false
	r.mu.Unlock()
}

func (r *Recorder) Touching() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.touching
}

// Reset forgets the last recorded beat so a new pass can record from the top
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.lastRecordBeat = -1
	r.mu.Unlock()
}
