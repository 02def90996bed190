package selection

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/tumorfit/internal/dynamo"
	"github.com/san-kum/tumorfit/internal/fit"
	"github.com/san-kum/tumorfit/internal/growth"
	"github.com/san-kum/tumorfit/internal/integrators"
	"github.com/san-kum/tumorfit/internal/metrics"
	"github.com/san-kum/tumorfit/internal/optim"
)

type Options struct {
	Criterion Criterion
	Strategy  string
	Search    optim.Options
	Scheme    integrators.Scheme
	// Oversample is passed to fit.Options; zero selects the default.
	Oversample int
	// Models to compare. Empty compares the whole catalogue.
	Models []growth.Kind
	// Parallelism bounds concurrent fits. Zero or less uses GOMAXPROCS.
	Parallelism int
	Recorder    *metrics.Recorder
	// Progress is called from the fitting goroutines and must be safe for
	// concurrent use.
	Progress func(Progress)
}

func DefaultOptions() Options {
	return Options{
		Criterion: AIC,
		Strategy:  "random",
		Search:    optim.DefaultOptions(),
		Scheme:    integrators.Euler,
	}
}

type Event int

const (
	Started Event = iota
	Improved
	Finished
)

func (e Event) String() string {
	switch e {
	case Started:
		return "started"
	case Improved:
		return "improved"
	case Finished:
		return "finished"
	}
	return "unknown"
}

type Progress struct {
	Model       growth.Kind
	Event       Event
	Cost        float64
	Evaluations int
	// Entry is set on Finished.
	Entry *Entry
}

// Compare fits every selected model to obs and scores each fit. Numerical
// failures of a single model are recorded in its entry; only invalid input,
// configuration errors and cancellation abort the comparison.
func Compare(ctx context.Context, obs dynamo.Observations, opts Options) (*Report, error) {
	if err := obs.Validate(); err != nil {
		return nil, err
	}
	if _, err := ParseCriterion(opts.Criterion.String()); err != nil {
		return nil, err
	}
	strategy, err := optim.NewStrategy(opts.Strategy, opts.Search)
	if err != nil {
		return nil, err
	}

	kinds := opts.Models
	if len(kinds) == 0 {
		kinds = growth.Kinds(growth.Catalogue())
	}
	limit := opts.Parallelism
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	log := logr.FromContextOrDiscard(ctx)
	log.Info("comparing models", "models", len(kinds), "strategy", strategy.Name(),
		"criterion", opts.Criterion.String(), "scheme", opts.Scheme.String(), "observations", len(obs))

	entries := make([]Entry, len(kinds))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, kind := range kinds {
		i, kind := i, kind
		g.Go(func() error {
			e, err := fitModel(gctx, kind, obs, strategy, opts)
			if err != nil {
				return fmt.Errorf("selection: fit %s: %w", kind, err)
			}
			entries[i] = e
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{
		Criterion:    opts.Criterion,
		Strategy:     strategy.Name(),
		Scheme:       opts.Scheme,
		Observations: len(obs),
		Entries:      entries,
	}
	if best, ok := report.Best(); ok {
		log.Info("comparison done", "best", best.Name(), "score", best.Score, "mse", best.MSE)
	} else {
		log.Info("comparison done", "best", "none")
	}
	return report, nil
}

func fitModel(ctx context.Context, kind growth.Kind, obs dynamo.Observations, strategy optim.Strategy, opts Options) (Entry, error) {
	log := logr.FromContextOrDiscard(ctx).WithValues("model", kind.String())

	obj, err := fit.New(kind, obs, fit.Options{
		Scheme:     opts.Scheme,
		Oversample: opts.Oversample,
		Recorder:   opts.Recorder,
	})
	if err != nil {
		return Entry{}, err
	}

	notify(opts.Progress, Progress{Model: kind, Event: Started})
	log.V(1).Info("fit started", "steps", obj.Steps())

	start := time.Now()
	res, err := strategy.Search(ctx, optim.Problem{
		Objective: obj.Func(),
		Dim:       kind.NumParams(),
		OnImprove: func(imp optim.Improvement) {
			notify(opts.Progress, Progress{Model: kind, Event: Improved, Cost: imp.Cost, Evaluations: imp.Evaluations})
		},
	})
	elapsed := time.Since(start)
	if err != nil {
		return Entry{}, err
	}

	d, _ := growth.Describe(kind)
	e := Entry{
		Model:       kind,
		Params:      res.Params,
		Names:       append([]string(nil), d.Params...),
		MSE:         res.Cost,
		Score:       Score(opts.Criterion, res.Cost, kind.NumParams(), len(obs)),
		Evaluations: res.Evaluations,
		Iterations:  res.Iterations,
		Converged:   res.Converged,
		Failed:      res.Failed(),
		Elapsed:     elapsed,
	}
	opts.Recorder.ObserveFit(kind.String(), strategy.Name(), elapsed, res.Cost)

	log.V(1).Info("fit finished", "mse", e.MSE, "score", e.Score, "evaluations", e.Evaluations,
		"converged", e.Converged, "failed", e.Failed, "elapsed", elapsed)
	notify(opts.Progress, Progress{Model: kind, Event: Finished, Cost: e.MSE, Evaluations: e.Evaluations, Entry: &e})
	return e, nil
}

func notify(fn func(Progress), p Progress) {
	if fn != nil {
		fn(p)
	}
}
