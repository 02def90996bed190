package optim

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/tumorfit/internal/dynamo"
)

var _ = Describe("PatternSearch", func() {
	var ps PatternSearch

	BeforeEach(func() {
		ps = DefaultPatternSearch()
	})

	It("should find the minimum of a quadratic bowl", func() {
		res, err := ps.Search(context.Background(), Problem{Objective: bowl, Dim: 3})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Converged).To(BeTrue())
		Expect(res.Params[0]).To(BeNumerically("~", 1, 1e-3))
		Expect(res.Params[1]).To(BeNumerically("~", -2, 1e-3))
		Expect(res.Params[2]).To(BeNumerically("~", 0.5, 1e-3))
		Expect(res.Cost).To(BeNumerically("<", 1e-6))
	})

	It("should terminate with every step at or below tolerance", func() {
		res, err := ps.Search(context.Background(), Problem{Objective: bowl, Dim: 3})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.StepSizes).To(HaveLen(3))
		for _, s := range res.StepSizes {
			Expect(math.Abs(s)).To(BeNumerically("<=", ps.Tolerance))
		}
	})

	It("should run past the first sweep even with positive steps", func() {
		res, err := ps.Search(context.Background(), Problem{Objective: bowl, Dim: 2})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Iterations).To(BeNumerically(">", 1))
	})

	It("should shrink steps without moving when every evaluation fails", func() {
		res, err := ps.Search(context.Background(), Problem{Objective: alwaysInf, Dim: 2})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Params.IsZero()).To(BeTrue())
		Expect(res.Converged).To(BeTrue())
		// 10 * 0.2^k <= 1e-6 first holds at k = 11.
		Expect(res.Iterations).To(Equal(11))
		Expect(res.Evaluations).To(Equal(1 + 11*2*2))
		Expect(res.Failed()).To(BeTrue())
	})

	It("should flip the step sign after a backward success", func() {
		ps.MaxSweeps = 1
		downhill := func(p dynamo.Params) float64 { return p[0] }
		res, err := ps.Search(context.Background(), Problem{Objective: downhill, Dim: 1})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Params[0]).To(Equal(-10.0))
		Expect(res.StepSizes[0]).To(Equal(-12.0))
	})

	It("should stop at the sweep cap when steps keep growing", func() {
		ps.MaxSweeps = 25
		unbounded := func(p dynamo.Params) float64 { return -p[0] }
		res, err := ps.Search(context.Background(), Problem{Objective: unbounded, Dim: 1})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Iterations).To(Equal(25))
		Expect(res.Converged).To(BeFalse())
		Expect(res.Params[0]).To(BeNumerically(">", 10))
	})

	It("should never accept a worse vector", func() {
		var last = math.Inf(1)
		prob := Problem{
			Objective: bowl,
			Dim:       3,
			OnImprove: func(imp Improvement) {
				Expect(imp.Cost).To(BeNumerically("<", last))
				last = imp.Cost
			},
		}
		_, err := ps.Search(context.Background(), prob)
		Expect(err).NotTo(HaveOccurred())
	})

	It("should reject a zero initial step", func() {
		ps.InitialStep = 0
		_, err := ps.Search(context.Background(), Problem{Objective: bowl, Dim: 1})
		Expect(err).To(MatchError(ErrInvalidOptions))
	})
})

var _ = DescribeTable("PatternSearch step arithmetic",
	func(initial float64, expected dynamo.Params) {
		ps := DefaultPatternSearch()
		ps.InitialStep = initial
		ps.MaxSweeps = 1
		target := func(p dynamo.Params) float64 { return math.Abs(p[0] - 3) }
		res, err := ps.Search(context.Background(), Problem{Objective: target, Dim: 1})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Params).To(Equal(expected))
	},
	Entry("overshooting step shrinks in place", 10.0, dynamo.Params{}),
	Entry("useful step is accepted", 2.0, dynamo.Params{2}),
	Entry("negative step is tried backward", -2.0, dynamo.Params{2}),
)
