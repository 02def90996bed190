package optim

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/tumorfit/internal/dynamo"
)

// bowl has its minimum 0 at (1, -2, 0.5).
func bowl(p dynamo.Params) float64 {
	return (p[0]-1)*(p[0]-1) + (p[1]+2)*(p[1]+2) + (p[2]-0.5)*(p[2]-0.5)
}

func alwaysInf(dynamo.Params) float64 { return math.Inf(1) }

var _ = Describe("NewStrategy", func() {
	It("should build both strategies by name", func() {
		cases := map[string]string{"random": "random", "Pattern": "pattern", " random ": "random"}
		for name, want := range cases {
			s, err := NewStrategy(name, DefaultOptions())
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Name()).To(Equal(want))
		}
	})

	It("should reject unknown strategies", func() {
		_, err := NewStrategy("annealing", DefaultOptions())
		Expect(err).To(MatchError(ErrUnknownStrategy))
	})

	It("should reject invalid tunables", func() {
		opts := DefaultOptions()
		opts.Random.Sigma = 0
		_, err := NewStrategy("random", opts)
		Expect(err).To(MatchError(ErrInvalidOptions))

		opts = DefaultOptions()
		opts.Pattern.Shrink = 1.5
		_, err = NewStrategy("pattern", opts)
		Expect(err).To(MatchError(ErrInvalidOptions))
	})

	It("should copy options so later edits do not leak", func() {
		opts := DefaultOptions()
		s, err := NewStrategy("random", opts)
		Expect(err).NotTo(HaveOccurred())
		opts.Random.Sigma = 42
		Expect(s.(*RandomSearch).Sigma).To(Equal(0.01))
	})
})

var _ = Describe("Problem validation", func() {
	strategies := func() []Strategy {
		r, p := DefaultRandomSearch(), DefaultPatternSearch()
		return []Strategy{&r, &p}
	}

	It("should reject bad dimensions and nil objectives", func() {
		for _, s := range strategies() {
			_, err := s.Search(context.Background(), Problem{Objective: bowl, Dim: 0})
			Expect(err).To(MatchError(ErrInvalidProblem))
			_, err = s.Search(context.Background(), Problem{Objective: bowl, Dim: dynamo.MaxParams + 1})
			Expect(err).To(MatchError(ErrInvalidProblem))
			_, err = s.Search(context.Background(), Problem{Dim: 1})
			Expect(err).To(MatchError(ErrInvalidProblem))
		}
	})

	It("should stop on a cancelled context with the best vector so far", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		for _, s := range strategies() {
			res, err := s.Search(ctx, Problem{Objective: bowl, Dim: 2})
			Expect(err).To(MatchError(context.Canceled))
			Expect(res.Evaluations).To(Equal(1))
			Expect(res.Converged).To(BeFalse())
			Expect(res.Params.IsZero()).To(BeTrue())
		}
	})
})

var _ = Describe("Result", func() {
	It("should flag infinite cost or untouched parameters as failed", func() {
		Expect(Result{Cost: math.Inf(1), Params: dynamo.Params{1}}.Failed()).To(BeTrue())
		Expect(Result{Cost: 0.1}.Failed()).To(BeTrue())
		Expect(Result{Cost: 0.1, Params: dynamo.Params{0, 2}}.Failed()).To(BeFalse())
	})

	It("should return only the searched coordinates", func() {
		r := Result{Params: dynamo.Params{1, 2, 3}, Dim: 2}
		Expect(r.Values()).To(Equal([]float64{1, 2}))
	})
})
