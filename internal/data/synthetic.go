package data

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"

	"github.com/san-kum/tumorfit/internal/dynamo"
	"github.com/san-kum/tumorfit/internal/growth"
	"github.com/san-kum/tumorfit/internal/integrators"
)

var ErrInvalidSynthetic = errors.New("data: invalid synthetic dataset")

// SyntheticSpec describes observations generated by integrating a catalogue
// model.
type SyntheticSpec struct {
	Model    string    `yaml:"model" json:"model"`
	Params   []float64 `yaml:"params" json:"params"`
	V0       float64   `yaml:"v0" json:"v0"`
	T0       float64   `yaml:"t0" json:"t0"`
	Duration float64   `yaml:"duration" json:"duration"`
	Steps    int       `yaml:"steps" json:"steps"`
	Scheme   string    `yaml:"scheme" json:"scheme"`
	// Noise is the standard deviation of multiplicative log-normal noise.
	// Zero yields the exact trajectory.
	Noise float64 `yaml:"noise,omitempty" json:"noise,omitempty"`
	Seed  int64   `yaml:"seed,omitempty" json:"seed,omitempty"`
}

// DefaultSynthetic is the Von Bertalanffy scenario with c=2.0, d=1.6.
func DefaultSynthetic() SyntheticSpec {
	return SyntheticSpec{
		Model:    "VonBertalanffy",
		Params:   []float64{2.0, 1.6},
		V0:       1e-7,
		Duration: 15,
		Steps:    1000,
		Scheme:   "runge-kutta",
	}
}

func (s SyntheticSpec) Validate() error {
	d, err := growth.Lookup(s.Model)
	if err != nil {
		return err
	}
	if len(s.Params) != len(d.Params) {
		return fmt.Errorf("%w: %s takes %d coefficients (%s), got %d",
			ErrInvalidSynthetic, d.Name, len(d.Params), strings.Join(d.Params, ", "), len(s.Params))
	}
	if s.Steps < 1 {
		return fmt.Errorf("%w: steps must be at least 1", ErrInvalidSynthetic)
	}
	if !(s.Duration > 0) || math.IsInf(s.Duration, 0) {
		return fmt.Errorf("%w: duration must be positive and finite", ErrInvalidSynthetic)
	}
	if s.Noise < 0 {
		return fmt.Errorf("%w: noise must not be negative", ErrInvalidSynthetic)
	}
	if _, err := integrators.ParseScheme(s.Scheme); err != nil {
		return err
	}
	return nil
}

// Synthetic integrates the described model and returns every sample of the
// trajectory as an observation.
func Synthetic(s SyntheticSpec) (dynamo.Observations, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	d, _ := growth.Lookup(s.Model)
	scheme, _ := integrators.ParseScheme(s.Scheme)

	m := growth.New(d.Kind, dynamo.ParamsFrom(s.Params))
	traj, err := integrators.Integrate(m.RateFunc(), s.V0, s.T0, s.Duration, s.Steps, scheme)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSynthetic, err)
	}

	obs := dynamo.Observations(traj)
	if s.Noise > 0 {
		rng := rand.New(rand.NewSource(s.Seed))
		for i := range obs {
			obs[i].Volume *= math.Exp(rng.NormFloat64() * s.Noise)
		}
	}
	if err := obs.Validate(); err != nil {
		return nil, err
	}
	return obs, nil
}
