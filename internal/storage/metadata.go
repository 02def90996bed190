package storage

import (
	"encoding/json"
	"math"
	"strconv"
	"time"

	"github.com/san-kum/tumorfit/internal/dynamo"
	"github.com/san-kum/tumorfit/internal/growth"
	"github.com/san-kum/tumorfit/internal/integrators"
	"github.com/san-kum/tumorfit/internal/selection"
)

// Float is a float64 whose JSON form also carries NaN and the infinities,
// encoded as strings.
type Float float64

func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	switch {
	case math.IsNaN(v):
		return []byte(`"NaN"`), nil
	case math.IsInf(v, 1):
		return []byte(`"+Inf"`), nil
	case math.IsInf(v, -1):
		return []byte(`"-Inf"`), nil
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 64), nil
}

func (f *Float) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		s, err := strconv.Unquote(string(b))
		if err != nil {
			return err
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*f = Float(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = Float(v)
	return nil
}

type FitRecord struct {
	Model       growth.Kind   `json:"model"`
	Params      []float64     `json:"params"`
	Names       []string      `json:"names"`
	MSE         Float         `json:"mse"`
	Score       Float         `json:"score"`
	Evaluations int           `json:"evaluations"`
	Iterations  int           `json:"iterations"`
	Converged   bool          `json:"converged"`
	Failed      bool          `json:"failed"`
	Elapsed     time.Duration `json:"elapsed_ns"`
}

type RunMetadata struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	// Source is the dataset path or synthetic directive.
	Source       string              `json:"source"`
	Strategy     string              `json:"strategy"`
	Criterion    selection.Criterion `json:"criterion"`
	Scheme       integrators.Scheme  `json:"scheme"`
	Oversample   int                 `json:"oversample"`
	Seed         int64               `json:"seed"`
	Observations int                 `json:"observations"`
	Best         string              `json:"best,omitempty"`
	Fits         []FitRecord         `json:"fits"`
}

// NewRunMetadata captures a comparison report. ID and timestamp are filled
// in by Store.Save.
func NewRunMetadata(source string, oversample int, seed int64, r *selection.Report) RunMetadata {
	meta := RunMetadata{
		Source:       source,
		Strategy:     r.Strategy,
		Criterion:    r.Criterion,
		Scheme:       r.Scheme,
		Oversample:   oversample,
		Seed:         seed,
		Observations: r.Observations,
		Fits:         make([]FitRecord, len(r.Entries)),
	}
	if best, ok := r.Best(); ok {
		meta.Best = best.Name()
	}
	for i, e := range r.Entries {
		meta.Fits[i] = FitRecord{
			Model:       e.Model,
			Params:      e.Values(),
			Names:       e.Names,
			MSE:         Float(e.MSE),
			Score:       Float(e.Score),
			Evaluations: e.Evaluations,
			Iterations:  e.Iterations,
			Converged:   e.Converged,
			Failed:      e.Failed,
			Elapsed:     e.Elapsed,
		}
	}
	return meta
}

// Report rebuilds the comparison report.
func (m *RunMetadata) Report() *selection.Report {
	r := &selection.Report{
		Criterion:    m.Criterion,
		Strategy:     m.Strategy,
		Scheme:       m.Scheme,
		Observations: m.Observations,
		Entries:      make([]selection.Entry, len(m.Fits)),
	}
	for i, f := range m.Fits {
		r.Entries[i] = selection.Entry{
			Model:       f.Model,
			Params:      dynamo.ParamsFrom(f.Params),
			Names:       f.Names,
			MSE:         float64(f.MSE),
			Score:       float64(f.Score),
			Evaluations: f.Evaluations,
			Iterations:  f.Iterations,
			Converged:   f.Converged,
			Failed:      f.Failed,
			Elapsed:     f.Elapsed,
		}
	}
	return r
}
