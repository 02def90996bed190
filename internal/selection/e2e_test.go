package selection_test

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/tumorfit/internal/dynamo"
	"github.com/san-kum/tumorfit/internal/growth"
	"github.com/san-kum/tumorfit/internal/integrators"
	"github.com/san-kum/tumorfit/internal/selection"
)

var _ = Describe("Synthetic Von Bertalanffy recovery", Label("slow"), func() {
	var obs dynamo.Observations

	BeforeEach(func() {
		if testing.Short() {
			Skip("end-to-end fit skipped in short mode")
		}
		m := growth.New(growth.VonBertalanffy, dynamo.Params{2.0, 1.6})
		traj, err := integrators.Integrate(m.RateFunc(), 1e-7, 0, 15, 1000, integrators.RK4)
		Expect(err).NotTo(HaveOccurred())
		obs = dynamo.Observations(traj)
	})

	It("should recover the generating model and prefer it over LinearLimited", func() {
		opts := selection.DefaultOptions()
		opts.Criterion = selection.AIC
		opts.Strategy = "random"
		opts.Scheme = integrators.RK4
		opts.Oversample = 1
		opts.Search.Random.Threshold = 1e-4
		opts.Search.Random.Seed = 7
		opts.Models = []growth.Kind{growth.VonBertalanffy, growth.LinearLimited}

		report, err := selection.Compare(context.Background(), obs, opts)
		Expect(err).NotTo(HaveOccurred())

		vb, ok := report.Lookup(growth.VonBertalanffy)
		Expect(ok).To(BeTrue())
		Expect(vb.Failed).To(BeFalse())
		Expect(vb.MSE).To(BeNumerically("<", 1e-3))

		ll, ok := report.Lookup(growth.LinearLimited)
		Expect(ok).To(BeTrue())
		Expect(vb.Score).To(BeNumerically("<", ll.Score))

		best, ok := report.Best()
		Expect(ok).To(BeTrue())
		Expect(best.Model).To(Equal(growth.VonBertalanffy))
	})
})
