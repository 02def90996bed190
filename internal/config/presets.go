package config

import (
	"sort"

	"github.com/san-kum/tumorfit/internal/data"
)

const DefaultPreset = "bertalanffy"

// Presets are named synthetic scenarios usable as "synthetic:<name>".
var Presets = map[string]data.SyntheticSpec{
	"bertalanffy": data.DefaultSynthetic(),
	"gompertz": {
		Model: "GompertzLes", Params: []float64{0.6, 2.0},
		V0: 0.01, Duration: 15, Steps: 300, Scheme: "runge-kutta",
	},
	"logistic": {
		Model: "Logistic", Params: []float64{0.8, 1.5},
		V0: 0.01, Duration: 15, Steps: 300, Scheme: "runge-kutta",
	},
	"allee": {
		Model: "Allee", Params: []float64{0.5, 0.05, 2.0},
		V0: 0.1, Duration: 20, Steps: 400, Scheme: "runge-kutta",
	},
	"exponential": {
		Model: "Exponential", Params: []float64{0.3},
		V0: 0.01, Duration: 15, Steps: 150, Scheme: "runge-kutta",
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *data.SyntheticSpec {
	spec, ok := Presets[name]
	if !ok {
		return nil
	}
	spec.Params = append([]float64(nil), spec.Params...)
	return &spec
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
