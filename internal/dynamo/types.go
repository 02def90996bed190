package dynamo

import (
	"fmt"
	"math"
)

// MaxParams is the largest coefficient count of any growth model.
const MaxParams = 3

// RateFunc is the right-hand side of a growth ODE: dV/dt at volume v and time t.
type RateFunc func(v, t float64) float64

// Params is a coefficient vector. Only the first Dim entries of a model are
// meaningful; the rest stay zero.
type Params [MaxParams]float64

// Slice returns a copy of the first n coefficients.
func (p Params) Slice(n int) []float64 {
	if n > MaxParams {
		n = MaxParams
	}
	out := make([]float64, n)
	copy(out, p[:n])
	return out
}

// IsZero reports whether every coefficient is zero.
func (p Params) IsZero() bool {
	return p == Params{}
}

// ParamsFrom builds a Params from a slice, ignoring entries past MaxParams.
func ParamsFrom(values []float64) Params {
	var p Params
	copy(p[:], values)
	return p
}

type Sample struct {
	Time   float64
	Volume float64
}

// Trajectory is a time-ascending sequence of samples from one integration run.
type Trajectory []Sample

func (tr Trajectory) Times() []float64 {
	out := make([]float64, len(tr))
	for i, s := range tr {
		out[i] = s.Time
	}
	return out
}

func (tr Trajectory) Volumes() []float64 {
	out := make([]float64, len(tr))
	for i, s := range tr {
		out[i] = s.Volume
	}
	return out
}

func (tr Trajectory) Last() Sample {
	if len(tr) == 0 {
		return Sample{}
	}
	return tr[len(tr)-1]
}

func (tr Trajectory) IsValid() bool {
	for _, s := range tr {
		if !isFinite(s.Time) || !isFinite(s.Volume) {
			return false
		}
	}
	return true
}

// Observations are measured (time, volume) pairs, ordered by time.
type Observations []Sample

// NewObservations pairs volumes with times. The slices must have equal length.
func NewObservations(volumes, times []float64) (Observations, error) {
	if len(volumes) != len(times) {
		return nil, fmt.Errorf("%w: %d volumes vs %d times", ErrDataShape, len(volumes), len(times))
	}
	obs := make(Observations, len(volumes))
	for i := range volumes {
		obs[i] = Sample{Time: times[i], Volume: volumes[i]}
	}
	return obs, nil
}

func (o Observations) Times() []float64   { return Trajectory(o).Times() }
func (o Observations) Volumes() []float64 { return Trajectory(o).Volumes() }

// Span returns the time between the first and last observation.
func (o Observations) Span() float64 {
	if len(o) == 0 {
		return 0
	}
	return o[len(o)-1].Time - o[0].Time
}

// Validate checks the observations are non-empty, finite and strictly
// increasing in time.
func (o Observations) Validate() error {
	if len(o) == 0 {
		return fmt.Errorf("%w: no observations", ErrDataShape)
	}
	for i, s := range o {
		if !isFinite(s.Time) || !isFinite(s.Volume) {
			return fmt.Errorf("%w: non-finite value at index %d", ErrDataShape, i)
		}
		if i > 0 && s.Time <= o[i-1].Time {
			return fmt.Errorf("%w: times not strictly increasing at index %d (%g after %g)",
				ErrDataShape, i, s.Time, o[i-1].Time)
		}
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
