package optim

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/tumorfit/internal/dynamo"
)

// PatternSearch probes each coordinate forward and backward with its own
// step size, growing the step after a success and shrinking it after a
// double failure. It stops once every step magnitude is at most Tolerance.
type PatternSearch struct {
	InitialStep float64 `yaml:"initial_step"`
	Grow        float64 `yaml:"grow"`
	Shrink      float64 `yaml:"shrink"`
	Tolerance   float64 `yaml:"tolerance"`
	// MaxSweeps caps the number of passes over all coordinates. Zero disables.
	MaxSweeps int `yaml:"max_sweeps"`
}

func DefaultPatternSearch() PatternSearch {
	return PatternSearch{
		InitialStep: 10.0,
		Grow:        1.2,
		Shrink:      0.2,
		Tolerance:   1e-6,
		MaxSweeps:   100_000,
	}
}

func (p *PatternSearch) Name() string { return "pattern" }

func (p *PatternSearch) Validate() error {
	if p.InitialStep == 0 || math.IsNaN(p.InitialStep) || math.IsInf(p.InitialStep, 0) {
		return fmt.Errorf("%w: pattern search initial step must be finite and non-zero", ErrInvalidOptions)
	}
	if p.Grow < 1 {
		return fmt.Errorf("%w: pattern search grow factor must be at least 1, got %g", ErrInvalidOptions, p.Grow)
	}
	if p.Shrink <= 0 || p.Shrink >= 1 {
		return fmt.Errorf("%w: pattern search shrink factor must be in (0, 1), got %g", ErrInvalidOptions, p.Shrink)
	}
	if p.Tolerance <= 0 {
		return fmt.Errorf("%w: pattern search tolerance must be positive, got %g", ErrInvalidOptions, p.Tolerance)
	}
	if p.MaxSweeps < 0 {
		return fmt.Errorf("%w: pattern search max sweeps must not be negative", ErrInvalidOptions)
	}
	return nil
}

func (p *PatternSearch) Search(ctx context.Context, prob Problem) (Result, error) {
	if err := prob.validate(); err != nil {
		return Result{}, err
	}
	if err := p.Validate(); err != nil {
		return Result{}, err
	}

	steps := make([]float64, prob.Dim)
	for i := range steps {
		steps[i] = p.InitialStep
	}

	var best dynamo.Params
	res := Result{Dim: prob.Dim}
	res.Cost = prob.eval(best)
	res.Evaluations = 1

	finish := func(converged bool, err error) (Result, error) {
		res.Params = best
		res.Converged = converged
		res.StepSizes = steps
		return res, err
	}

	for floats.Norm(steps, math.Inf(1)) > p.Tolerance {
		if p.MaxSweeps > 0 && res.Iterations >= p.MaxSweeps {
			return finish(false, nil)
		}
		if err := cancelled(ctx); err != nil {
			return finish(false, err)
		}
		res.Iterations++

		for i := range steps {
			forward := best
			forward[i] += steps[i]
			cost := prob.eval(forward)
			res.Evaluations++
			if cost < res.Cost {
				best, res.Cost = forward, cost
				steps[i] *= p.Grow
				prob.improved(res.Iterations, res.Evaluations, best, cost)
				continue
			}

			backward := best
			backward[i] -= steps[i]
			cost = prob.eval(backward)
			res.Evaluations++
			if cost < res.Cost {
				best, res.Cost = backward, cost
				steps[i] *= -p.Grow
				prob.improved(res.Iterations, res.Evaluations, best, cost)
				continue
			}

			steps[i] *= p.Shrink
		}
	}

	return finish(true, nil)
}
