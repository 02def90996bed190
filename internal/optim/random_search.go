package optim

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/san-kum/tumorfit/internal/dynamo"
)

// RandomSearch is a greedy hill-climb: every coordinate is perturbed with
// Gaussian noise at once and the candidate is kept only if it strictly
// lowers the cost.
type RandomSearch struct {
	Sigma float64 `yaml:"sigma"`
	// MaxFailures consecutive rejections end the search.
	MaxFailures int `yaml:"max_failures"`
	// Threshold ends the search once the cost drops below it. Zero disables.
	Threshold float64 `yaml:"threshold"`
	// MaxEvaluations caps the total objective calls. Zero disables.
	MaxEvaluations int   `yaml:"max_evaluations"`
	Seed           int64 `yaml:"seed"`
}

func DefaultRandomSearch() RandomSearch {
	return RandomSearch{
		Sigma:          0.01,
		MaxFailures:    1000,
		Threshold:      1e-6,
		MaxEvaluations: 1_000_000,
		Seed:           1,
	}
}

func (r *RandomSearch) Name() string { return "random" }

func (r *RandomSearch) Validate() error {
	if r.Sigma <= 0 {
		return fmt.Errorf("%w: random search sigma must be positive, got %g", ErrInvalidOptions, r.Sigma)
	}
	if r.MaxFailures < 1 {
		return fmt.Errorf("%w: random search max failures must be at least 1, got %d", ErrInvalidOptions, r.MaxFailures)
	}
	if r.MaxEvaluations < 0 {
		return fmt.Errorf("%w: random search max evaluations must not be negative", ErrInvalidOptions)
	}
	return nil
}

func (r *RandomSearch) Search(ctx context.Context, prob Problem) (Result, error) {
	if err := prob.validate(); err != nil {
		return Result{}, err
	}
	if err := r.Validate(); err != nil {
		return Result{}, err
	}

	rng := rand.New(rand.NewSource(r.Seed))

	var best dynamo.Params
	res := Result{Dim: prob.Dim}
	res.Cost = prob.eval(best)
	res.Evaluations = 1

	failures := 0
	for failures < r.MaxFailures {
		if r.Threshold > 0 && res.Cost < r.Threshold {
			break
		}
		if r.MaxEvaluations > 0 && res.Evaluations >= r.MaxEvaluations {
			res.Params = best
			return res, nil
		}
		if err := cancelled(ctx); err != nil {
			res.Params = best
			return res, err
		}

		res.Iterations++
		candidate := best
		for i := 0; i < prob.Dim; i++ {
			candidate[i] += rng.NormFloat64() * r.Sigma
		}

		cost := prob.eval(candidate)
		res.Evaluations++

		if cost < res.Cost {
			best = candidate
			res.Cost = cost
			failures = 0
			prob.improved(res.Iterations, res.Evaluations, best, cost)
		} else {
			failures++
		}
	}

	res.Params = best
	res.Converged = true
	return res, nil
}
