// Package optim implements derivative-free local search over growth model
// coefficient vectors.
//
// Both strategies start from the zero vector and only accept strictly
// improving moves. They can stop in a local optimum. A result whose cost is
// infinite, or whose parameters are still all zero, should be treated as a
// failed fit rather than a valid optimum (see [Result.Failed]).
package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/tumorfit/internal/dynamo"
)

var (
	ErrUnknownStrategy = errors.New("optim: unknown strategy")
	ErrInvalidProblem  = errors.New("optim: invalid problem")
	ErrInvalidOptions  = errors.New("optim: invalid options")
)

// Objective maps a coefficient vector to a cost. Lower is better; +Inf marks
// a vector the model cannot be evaluated at.
type Objective func(p dynamo.Params) float64

// Improvement is reported every time a search accepts a better vector.
type Improvement struct {
	Iteration   int
	Evaluations int
	Params      dynamo.Params
	Cost        float64
}

// Problem is one minimization task. Only the first Dim coordinates are
// searched.
type Problem struct {
	Objective Objective
	Dim       int
	OnImprove func(Improvement)
}

func (p Problem) validate() error {
	if p.Objective == nil {
		return fmt.Errorf("%w: nil objective", ErrInvalidProblem)
	}
	if p.Dim < 1 || p.Dim > dynamo.MaxParams {
		return fmt.Errorf("%w: dimension %d outside [1, %d]", ErrInvalidProblem, p.Dim, dynamo.MaxParams)
	}
	return nil
}

// eval normalises NaN to +Inf so it can never be accepted.
func (p Problem) eval(x dynamo.Params) float64 {
	c := p.Objective(x)
	if math.IsNaN(c) {
		return math.Inf(1)
	}
	return c
}

func (p Problem) improved(iter, evals int, x dynamo.Params, cost float64) {
	if p.OnImprove != nil {
		p.OnImprove(Improvement{Iteration: iter, Evaluations: evals, Params: x, Cost: cost})
	}
}

type Result struct {
	Params      dynamo.Params
	Dim         int
	Cost        float64
	Evaluations int
	Iterations  int
	// Converged is false when the search stopped on its safety cap or on
	// context cancellation.
	Converged bool
	// StepSizes holds the final per-coordinate steps of a pattern search.
	StepSizes []float64
}

// Values returns the searched coordinates.
func (r Result) Values() []float64 {
	return r.Params.Slice(r.Dim)
}

// Failed reports whether the result should not be trusted as a fit.
func (r Result) Failed() bool {
	return math.IsInf(r.Cost, 1) || math.IsNaN(r.Cost) || r.Params.IsZero()
}

type Strategy interface {
	Name() string
	Search(ctx context.Context, prob Problem) (Result, error)
}

// Options carries the tunables of every strategy; NewStrategy picks the
// relevant block.
type Options struct {
	Random  RandomSearch
	Pattern PatternSearch
}

func DefaultOptions() Options {
	return Options{
		Random:  DefaultRandomSearch(),
		Pattern: DefaultPatternSearch(),
	}
}

// NewStrategy returns the strategy selected by name: "random" or "pattern".
func NewStrategy(name string, opts Options) (Strategy, error) {
	var s Strategy
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "random":
		r := opts.Random
		s = &r
	case "pattern":
		p := opts.Pattern
		s = &p
	default:
		return nil, fmt.Errorf("%w: %q (want random or pattern)", ErrUnknownStrategy, name)
	}
	if v, ok := s.(interface{ Validate() error }); ok {
		if err := v.Validate(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func cancelled(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
