package selection_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/tumorfit/internal/selection"
)

var _ = Describe("Criterion", func() {
	DescribeTable("parsing",
		func(in string, want selection.Criterion) {
			got, err := selection.ParseCriterion(in)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(want))
		},
		Entry("AIC", "AIC", selection.AIC),
		Entry("lower-case bic", "bic", selection.BIC),
		Entry("AICc", "AICc", selection.AICc),
		Entry("upper-case AICC", "AICC", selection.AICc),
	)

	It("should reject unknown names", func() {
		_, err := selection.ParseCriterion("DIC")
		Expect(err).To(MatchError(selection.ErrUnknownCriterion))
	})

	It("should round-trip through text", func() {
		for _, c := range []selection.Criterion{selection.AIC, selection.BIC, selection.AICc} {
			b, err := c.MarshalText()
			Expect(err).NotTo(HaveOccurred())
			var got selection.Criterion
			Expect(got.UnmarshalText(b)).To(Succeed())
			Expect(got).To(Equal(c))
		}
	})
})

var _ = Describe("Score", func() {
	const mse = 0.01

	DescribeTable("formulas",
		func(c selection.Criterion, k, n int, want float64) {
			Expect(selection.Score(c, mse, k, n)).To(BeNumerically("~", want, 1e-9))
		},
		Entry("AIC", selection.AIC, 2, 20, 20*math.Log(mse)+4),
		Entry("BIC", selection.BIC, 2, 20, 20*math.Log(mse)+2*math.Log(20)),
		Entry("AICc", selection.AICc, 2, 20, 20*math.Log(mse)+2*2*20.0/17),
		Entry("AICc with one coefficient", selection.AICc, 1, 5, 5*math.Log(mse)+2*5.0/3),
	)

	DescribeTable("undefined inputs score +Inf",
		func(c selection.Criterion, mse float64, k, n int) {
			Expect(math.IsInf(selection.Score(c, mse, k, n), 1)).To(BeTrue())
		},
		Entry("zero mse", selection.AIC, 0.0, 2, 10),
		Entry("negative mse", selection.BIC, -1.0, 2, 10),
		Entry("infinite mse", selection.AIC, math.Inf(1), 2, 10),
		Entry("NaN mse", selection.BIC, math.NaN(), 2, 10),
		Entry("AICc with n-k-1 = 0", selection.AICc, 0.5, 2, 3),
		Entry("AICc with n-k-1 < 0", selection.AICc, 0.5, 3, 2),
		Entry("no observations", selection.AIC, 0.5, 1, 0),
	)

	It("should penalise extra coefficients at equal error", func() {
		for _, c := range []selection.Criterion{selection.AIC, selection.BIC, selection.AICc} {
			Expect(selection.Score(c, mse, 3, 30)).To(BeNumerically(">", selection.Score(c, mse, 2, 30)))
		}
	})
})
