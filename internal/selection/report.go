package selection

import (
	"math"
	"time"

	"github.com/san-kum/tumorfit/internal/dynamo"
	"github.com/san-kum/tumorfit/internal/growth"
	"github.com/san-kum/tumorfit/internal/integrators"
)

// Entry is the fit of one growth model.
type Entry struct {
	Model       growth.Kind
	Params      dynamo.Params
	Names       []string
	MSE         float64
	Score       float64
	Evaluations int
	Iterations  int
	Converged   bool
	// Failed marks an infinite-cost or all-zero result.
	Failed  bool
	Elapsed time.Duration
}

func (e Entry) Name() string { return e.Model.String() }

// Values returns the fitted coefficients in declared order.
func (e Entry) Values() []float64 {
	return e.Params.Slice(len(e.Names))
}

// Report holds one entry per compared model, in catalogue order.
type Report struct {
	Criterion    Criterion
	Strategy     string
	Scheme       integrators.Scheme
	Observations int
	Entries      []Entry
}

// Best returns the entry with the lowest finite score among the fits that
// did not fail.
func (r *Report) Best() (Entry, bool) {
	best, found := Entry{}, false
	for _, e := range r.Entries {
		if e.Failed || math.IsInf(e.Score, 0) || math.IsNaN(e.Score) {
			continue
		}
		if !found || e.Score < best.Score {
			best, found = e, true
		}
	}
	return best, found
}

func (r *Report) Lookup(kind growth.Kind) (Entry, bool) {
	for _, e := range r.Entries {
		if e.Model == kind {
			return e, true
		}
	}
	return Entry{}, false
}

// MSE maps model names to their fitted mean squared error.
func (r *Report) MSE() map[string]float64 {
	out := make(map[string]float64, len(r.Entries))
	for _, e := range r.Entries {
		out[e.Name()] = e.MSE
	}
	return out
}

// Scores maps model names to their criterion value.
func (r *Report) Scores() map[string]float64 {
	out := make(map[string]float64, len(r.Entries))
	for _, e := range r.Entries {
		out[e.Name()] = e.Score
	}
	return out
}
