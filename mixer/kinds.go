package mixer

import "sort"

// Built-in effect kinds with their automatable parameters
var kinds = map[string][]ParamSpec{
	"parametric-eq": {
		{Name: "lowGain", Default: 0, Min: -24, Max: 24},
		{Name: "midGain", Default: 0, Min: -24, Max: 24},
		{Name: "highGain", Default: 0, Min: -24, Max: 24},
	},
	"compressor": {
		{Name: "threshold", Default: -24, Min: -60, Max: 0},
		{Name: "ratio", Default: 4, Min: 1, Max: 20},
		{Name: "makeup", Default: 0, Min: 0, Max: 24},
	},
	"highlow-pass": {
		{Name: "cutoff", Default: 20000, Min: 20, Max: 20000},
		{Name: "resonance", Default: 0.7, Min: 0.1, Max: 20},
	},
	"delay": {
		{Name: "time", Default: 0.25, Min: 0, Max: 2},
		{Name: "feedback", Default: 0.3, Min: 0, Max: 0.95},
		{Name: "mix", Default: 0.3, Min: 0, Max: 1},
	},
	"reverb": {
		{Name: "decay", Default: 2, Min: 0.1, Max: 10},
		{Name: "mix", Default: 0.25, Min: 0, Max: 1},
	},
}

// Kinds returns the built-in effect kind names in sorted order
func Kinds() []string {
	out := make([]string, 0, len(kinds))
	for k := range kinds {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// KindParams returns the parameters of a built-in effect kind
func KindParams(kind string) ([]ParamSpec, bool) {
	p, ok := kinds[kind]
	if !ok {
		return nil, false
	}
	return append([]ParamSpec(nil), p...), true
}

// AddKind adds a built-in effect kind with its default parameters
func (m *Mixer) AddKind(trackID, kind string) string {
	params, ok := KindParams(kind)
	if !ok {
		return ""
	}
	return m.AddEffect(trackID, kind, params...)
}

// AddKindID adds a built-in effect kind under a known instance id
func (m *Mixer) AddKindID(trackID, id, kind string) bool {
	params, ok := KindParams(kind)
	if !ok {
		return false
	}
	return m.AddEffectID(trackID, id, kind, params...)
}
