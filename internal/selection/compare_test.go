package selection_test

import (
	"context"
	"math"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/san-kum/tumorfit/internal/dynamo"
	"github.com/san-kum/tumorfit/internal/growth"
	"github.com/san-kum/tumorfit/internal/logging"
	"github.com/san-kum/tumorfit/internal/metrics"
	"github.com/san-kum/tumorfit/internal/optim"
	"github.com/san-kum/tumorfit/internal/selection"
)

// noisyLine is V = 1 + 0.5t with alternating +-1% noise.
func noisyLine() dynamo.Observations {
	obs := make(dynamo.Observations, 11)
	for i := range obs {
		t := float64(i)
		noise := 0.01
		if i%2 == 1 {
			noise = -0.01
		}
		obs[i] = dynamo.Sample{Time: t, Volume: (1 + 0.5*t) * (1 + noise)}
	}
	return obs
}

var _ = Describe("Compare", func() {
	var (
		ctx  context.Context
		opts selection.Options
	)

	BeforeEach(func() {
		ctx = logging.NewTestLoggerIntoContext(context.Background())
		opts = selection.DefaultOptions()
		opts.Strategy = "pattern"
		opts.Models = []growth.Kind{growth.Linear, growth.Exponential}
		opts.Oversample = 2
	})

	It("should rank the generating model first", func() {
		report, err := selection.Compare(ctx, noisyLine(), opts)
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Entries).To(HaveLen(2))
		Expect(report.Entries[0].Model).To(Equal(growth.Linear))
		Expect(report.Entries[1].Model).To(Equal(growth.Exponential))
		Expect(report.Strategy).To(Equal("pattern"))
		Expect(report.Observations).To(Equal(11))

		best, ok := report.Best()
		Expect(ok).To(BeTrue())
		Expect(best.Model).To(Equal(growth.Linear))
		Expect(best.Params[0]).To(BeNumerically("~", 0.5, 0.02))
		Expect(best.Names).To(Equal([]string{"c"}))
		Expect(best.Values()).To(HaveLen(1))
		Expect(best.Failed).To(BeFalse())
		Expect(best.Converged).To(BeTrue())
	})

	It("should score every entry from its own mse", func() {
		opts.Criterion = selection.BIC
		report, err := selection.Compare(ctx, noisyLine(), opts)
		Expect(err).NotTo(HaveOccurred())
		for _, e := range report.Entries {
			Expect(e.Score).To(Equal(selection.Score(selection.BIC, e.MSE, e.Model.NumParams(), 11)))
			Expect(e.Evaluations).To(BeNumerically(">", 1))
		}

		mse := report.MSE()
		scores := report.Scores()
		Expect(mse).To(HaveKey("Linear"))
		Expect(scores).To(HaveKey("Exponential"))
		Expect(mse["Linear"]).To(BeNumerically("<", mse["Exponential"]))
	})

	It("should give identical reports for identical inputs", func() {
		opts.Strategy = "random"
		opts.Search.Random.MaxFailures = 200
		a, err := selection.Compare(ctx, noisyLine(), opts)
		Expect(err).NotTo(HaveOccurred())
		b, err := selection.Compare(ctx, noisyLine(), opts)
		Expect(err).NotTo(HaveOccurred())
		for i := range a.Entries {
			Expect(a.Entries[i].Params).To(Equal(b.Entries[i].Params))
			Expect(a.Entries[i].MSE).To(Equal(b.Entries[i].MSE))
		}
	})

	It("should report progress for every model", func() {
		var (
			mu     sync.Mutex
			events = map[growth.Kind][]selection.Event{}
		)
		opts.Progress = func(p selection.Progress) {
			mu.Lock()
			defer mu.Unlock()
			events[p.Model] = append(events[p.Model], p.Event)
			if p.Event == selection.Finished {
				Expect(p.Entry).NotTo(BeNil())
			}
		}

		_, err := selection.Compare(ctx, noisyLine(), opts)
		Expect(err).NotTo(HaveOccurred())
		for _, k := range opts.Models {
			Expect(events[k]).NotTo(BeEmpty())
			Expect(events[k][0]).To(Equal(selection.Started))
			Expect(events[k][len(events[k])-1]).To(Equal(selection.Finished))
			Expect(events[k]).To(ContainElement(selection.Improved))
		}
	})

	It("should record telemetry", func() {
		rec := metrics.NewRecorder()
		opts.Recorder = rec
		_, err := selection.Compare(ctx, noisyLine(), opts)
		Expect(err).NotTo(HaveOccurred())

		n, err := testutil.GatherAndCount(rec.Gatherer(), "tumorfit_fit_best_cost")
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(2))
	})

	It("should record structurally incompatible models as failed", func() {
		obs := dynamo.Observations{{Time: 0, Volume: 0}, {Time: 1, Volume: 0}, {Time: 2, Volume: 0}}
		opts.Models = []growth.Kind{growth.Exponential}
		report, err := selection.Compare(ctx, obs, opts)
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Entries[0].Failed).To(BeTrue())
		_, ok := report.Best()
		Expect(ok).To(BeFalse())
	})

	It("should compare the whole catalogue by default", func() {
		opts.Models = nil
		opts.Search.Pattern.Tolerance = 1e-2
		opts.Search.Pattern.MaxSweeps = 200
		report, err := selection.Compare(ctx, noisyLine(), opts)
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Entries).To(HaveLen(len(growth.Catalogue())))
		for i, e := range report.Entries {
			Expect(int(e.Model)).To(Equal(i))
		}
	})

	DescribeTable("configuration errors",
		func(mutate func(*selection.Options, *dynamo.Observations), target error) {
			obs := noisyLine()
			mutate(&opts, &obs)
			_, err := selection.Compare(ctx, obs, opts)
			Expect(err).To(MatchError(target))
		},
		Entry("unknown strategy", func(o *selection.Options, _ *dynamo.Observations) { o.Strategy = "anneal" }, optim.ErrUnknownStrategy),
		Entry("invalid search options", func(o *selection.Options, _ *dynamo.Observations) { o.Search.Pattern.Tolerance = 0 }, optim.ErrInvalidOptions),
		Entry("unknown criterion", func(o *selection.Options, _ *dynamo.Observations) { o.Criterion = selection.Criterion(7) }, selection.ErrUnknownCriterion),
		Entry("unordered observations", func(_ *selection.Options, obs *dynamo.Observations) { (*obs)[3].Time = 0 }, dynamo.ErrDataShape),
		Entry("empty observations", func(_ *selection.Options, obs *dynamo.Observations) { *obs = nil }, dynamo.ErrDataShape),
	)

	It("should stop on cancellation", func() {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := selection.Compare(cctx, noisyLine(), opts)
		Expect(err).To(MatchError(context.Canceled))
	})
})

var _ = Describe("Report", func() {
	It("should skip failed and infinite entries when picking the best", func() {
		r := &selection.Report{Entries: []selection.Entry{
			{Model: growth.Linear, Score: -100, Failed: true},
			{Model: growth.Exponential, Score: math.Inf(1)},
			{Model: growth.Logistic, Score: 3},
			{Model: growth.Allee, Score: -2},
		}}
		best, ok := r.Best()
		Expect(ok).To(BeTrue())
		Expect(best.Model).To(Equal(growth.Allee))

		e, ok := r.Lookup(growth.Logistic)
		Expect(ok).To(BeTrue())
		Expect(e.Score).To(Equal(3.0))
		_, ok = r.Lookup(growth.Montroll)
		Expect(ok).To(BeFalse())
	})
})
