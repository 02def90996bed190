// Package fit scores growth model coefficients against observed volumes.
//
// The cost is the mean squared difference of natural logarithms between the
// integrated model and the observations, so relative deviations weigh the
// same at every scale. Any numerical failure yields +Inf instead of an error.
package fit

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/tumorfit/internal/dynamo"
	"github.com/san-kum/tumorfit/internal/growth"
	"github.com/san-kum/tumorfit/internal/integrators"
	"github.com/san-kum/tumorfit/internal/metrics"
	"github.com/san-kum/tumorfit/internal/optim"
)

const (
	// DefaultOversample is the number of integration steps per observation
	// interval.
	DefaultOversample = 10

	// VolumeFloor is applied to predicted and observed volumes before taking
	// logarithms.
	VolumeFloor = 1e-9
)

type Options struct {
	Scheme     integrators.Scheme
	Oversample int
	Recorder   *metrics.Recorder
}

// Objective is safe for concurrent use; it holds no mutable state.
type Objective struct {
	kind   growth.Kind
	obs    dynamo.Observations
	times  []float64
	logObs []float64
	steps  int
	opts   Options
}

// New prepares the objective for one model kind and observation set.
func New(kind growth.Kind, obs dynamo.Observations, opts Options) (*Objective, error) {
	if kind.NumParams() == 0 {
		return nil, fmt.Errorf("fit: unknown model kind %d", int(kind))
	}
	if err := obs.Validate(); err != nil {
		return nil, err
	}
	if opts.Oversample < 0 {
		return nil, fmt.Errorf("fit: oversample must not be negative, got %d", opts.Oversample)
	}
	if opts.Oversample == 0 {
		opts.Oversample = DefaultOversample
	}

	o := &Objective{
		kind:   kind,
		obs:    append(dynamo.Observations(nil), obs...),
		times:  obs.Times(),
		logObs: floorLog(obs.Volumes()),
		steps:  opts.Oversample * (len(obs) - 1),
		opts:   opts,
	}
	return o, nil
}

func (o *Objective) Kind() growth.Kind { return o.kind }

// Steps is the integration step count used per evaluation.
func (o *Objective) Steps() int { return o.steps }

// Evaluate returns the log-domain MSE of the model with coefficients p, or
// +Inf when the model cannot be integrated or resampled.
func (o *Objective) Evaluate(p dynamo.Params) float64 {
	cost := math.Inf(1)
	if pred, err := o.Resample(p); err == nil {
		cost = logMSE(pred, o.logObs)
	}
	o.opts.Recorder.ObserveEvaluation(o.kind.String(), cost)
	return cost
}

// Func adapts the objective for the optimizers.
func (o *Objective) Func() optim.Objective {
	return o.Evaluate
}

// Predict integrates the model over the observation span.
func (o *Objective) Predict(p dynamo.Params) (dynamo.Trajectory, error) {
	span := o.obs.Span()
	if len(o.obs) < 2 || !(span > 0) {
		return nil, fmt.Errorf("%w: %d observations spanning %g", dynamo.ErrDegenerateSpan, len(o.obs), span)
	}
	m := growth.New(o.kind, p)
	start := o.obs[0]
	return integrators.Integrate(m.RateFunc(), start.Volume, start.Time, span, o.steps, o.opts.Scheme)
}

// Resample returns the predicted volume at every observation time, using
// piecewise-linear interpolation of the integrated trajectory.
func (o *Objective) Resample(p dynamo.Params) ([]float64, error) {
	traj, err := o.Predict(p)
	if err != nil {
		return nil, err
	}

	xs := traj.Times()
	for i := 1; i < len(xs); i++ {
		if xs[i] <= xs[i-1] {
			return nil, fmt.Errorf("%w: step too small for time offset %g", dynamo.ErrDegenerateSpan, xs[0])
		}
	}

	var pl interp.PiecewiseLinear
	if err := pl.Fit(xs, traj.Volumes()); err != nil {
		return nil, fmt.Errorf("%w: %v", dynamo.ErrDegenerateSpan, err)
	}

	pred := make([]float64, len(o.times))
	for i, t := range o.times {
		v := pl.Predict(t)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, dynamo.ErrNonFinite
		}
		pred[i] = v
	}
	return pred, nil
}

// LogMSE is the mean of (ln pred - ln obs)^2 with both sides floored at
// VolumeFloor. Mismatched or empty inputs score +Inf.
func LogMSE(pred, obs []float64) float64 {
	return logMSE(pred, floorLog(obs))
}

func floorLog(vs []float64) []float64 {
	out := make([]float64, len(vs))
	for i, v := range vs {
		out[i] = math.Log(math.Max(v, VolumeFloor))
	}
	return out
}

func logMSE(pred, logObs []float64) float64 {
	if len(pred) == 0 || len(pred) != len(logObs) {
		return math.Inf(1)
	}
	sq := make([]float64, len(pred))
	for i, v := range pred {
		d := math.Log(math.Max(v, VolumeFloor)) - logObs[i]
		sq[i] = d * d
	}
	return stat.Mean(sq, nil)
}
