package optim

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/tumorfit/internal/dynamo"
)

var _ = Describe("RandomSearch", func() {
	var rs RandomSearch

	BeforeEach(func() {
		rs = DefaultRandomSearch()
		rs.Threshold = 1e-4
		rs.Seed = 7
	})

	It("should descend into a quadratic bowl", func() {
		res, err := rs.Search(context.Background(), Problem{Objective: bowl, Dim: 3})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Converged).To(BeTrue())
		Expect(res.Cost).To(BeNumerically("<", 1e-4))
		Expect(res.Values()).To(HaveLen(3))
		Expect(res.Params[0]).To(BeNumerically("~", 1, 0.02))
		Expect(res.Params[1]).To(BeNumerically("~", -2, 0.02))
		Expect(res.Failed()).To(BeFalse())
	})

	It("should only ever report strictly improving costs", func() {
		var costs []float64
		prob := Problem{
			Objective: bowl,
			Dim:       2,
			OnImprove: func(imp Improvement) { costs = append(costs, imp.Cost) },
		}
		start := bowl(dynamo.Params{})

		res, err := rs.Search(context.Background(), prob)
		Expect(err).NotTo(HaveOccurred())
		Expect(costs).NotTo(BeEmpty())
		Expect(costs[0]).To(BeNumerically("<", start))
		for i := 1; i < len(costs); i++ {
			Expect(costs[i]).To(BeNumerically("<", costs[i-1]))
		}
		Expect(res.Cost).To(Equal(costs[len(costs)-1]))
	})

	It("should leave unsearched coordinates at zero", func() {
		res, err := rs.Search(context.Background(), Problem{Objective: bowl, Dim: 1})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Params[1]).To(BeZero())
		Expect(res.Params[2]).To(BeZero())
	})

	It("should be deterministic for a fixed seed", func() {
		a, _ := rs.Search(context.Background(), Problem{Objective: bowl, Dim: 2})
		b, _ := rs.Search(context.Background(), Problem{Objective: bowl, Dim: 2})
		Expect(a).To(Equal(b))
	})

	It("should keep the zero vector when every evaluation fails", func() {
		rs.MaxFailures = 50
		res, err := rs.Search(context.Background(), Problem{Objective: alwaysInf, Dim: 2})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Params.IsZero()).To(BeTrue())
		Expect(res.Evaluations).To(Equal(51))
		Expect(res.Failed()).To(BeTrue())
	})

	It("should ignore NaN costs", func() {
		calls := 0
		nanAfterFirst := func(dynamo.Params) float64 {
			calls++
			if calls == 1 {
				return 1
			}
			return math.NaN()
		}
		rs.MaxFailures = 20
		res, err := rs.Search(context.Background(), Problem{Objective: nanAfterFirst, Dim: 1})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Cost).To(Equal(1.0))
		Expect(res.Params.IsZero()).To(BeTrue())
	})

	It("should honour the evaluation cap", func() {
		rs.MaxEvaluations = 200
		rs.Threshold = 0
		unbounded := func(p dynamo.Params) float64 { return -p[0] }
		res, err := rs.Search(context.Background(), Problem{Objective: unbounded, Dim: 1})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Evaluations).To(Equal(200))
		Expect(res.Converged).To(BeFalse())
	})
})
