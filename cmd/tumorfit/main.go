package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/tumorfit/internal/config"
	"github.com/san-kum/tumorfit/internal/data"
	"github.com/san-kum/tumorfit/internal/dynamo"
	"github.com/san-kum/tumorfit/internal/export"
	"github.com/san-kum/tumorfit/internal/fit"
	"github.com/san-kum/tumorfit/internal/growth"
	"github.com/san-kum/tumorfit/internal/logging"
	"github.com/san-kum/tumorfit/internal/metrics"
	"github.com/san-kum/tumorfit/internal/optim"
	"github.com/san-kum/tumorfit/internal/selection"
	"github.com/san-kum/tumorfit/internal/storage"
	"github.com/san-kum/tumorfit/internal/tui"
	"github.com/san-kum/tumorfit/internal/viz"
)

const (
	plotWidth  = 80
	plotHeight = 14
)

var (
	configFile string
	dataDir    string
	logLevel   string
	devLog     bool
	// fit and watch
	oversample  int
	parallelism int
	models      []string
	seed        int64
	sigma       float64
	maxFailures int
	threshold   float64
	initialStep float64
	tolerance   float64
	save        bool
	plotFits    bool
	metricsOut  string
	// simulate
	simParams   []float64
	simV0       float64
	simT0       float64
	simDuration float64
	simSteps    int
	simNoise    float64
	simScheme   string
	simSeed     int64
	preset      string
	outFile     string
	// config
	writeConfig string
)

// main registers the commands and exits with status 1 when one fails.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tumorfit",
		Short: "fit tumor growth models to volume observations",
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultDataDir, "data directory for stored runs")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (error, warn, info, debug, trace)")
	rootCmd.PersistentFlags().BoolVar(&devLog, "dev-log", false, "human readable development logs")

	fitCmd := &cobra.Command{
		Use:   "fit <dataset|synthetic[:preset]> <random|pattern> <AIC|BIC|AICc> [euler|heun|runge-kutta]",
		Short: "fit every growth model and rank them by an information criterion",
		Args:  cobra.RangeArgs(3, 4),
		RunE:  runFit,
	}
	addFitFlags(fitCmd)

	watchCmd := &cobra.Command{
		Use:   "watch <dataset|synthetic[:preset]> <random|pattern> <AIC|BIC|AICc> [euler|heun|runge-kutta]",
		Short: "fit with a live progress view",
		Args:  cobra.RangeArgs(3, 4),
		RunE:  runWatch,
	}
	addFitFlags(watchCmd)

	simulateCmd := &cobra.Command{
		Use:   "simulate [model]",
		Short: "integrate a growth model and plot or write the trajectory",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulate,
	}
	simulateCmd.Flags().StringVar(&preset, "preset", "", "start from a synthetic preset")
	simulateCmd.Flags().Float64SliceVar(&simParams, "params", nil, "model coefficients")
	simulateCmd.Flags().Float64Var(&simV0, "v0", 1e-7, "initial volume")
	simulateCmd.Flags().Float64Var(&simT0, "t0", 0, "initial time")
	simulateCmd.Flags().Float64Var(&simDuration, "time", 15, "duration")
	simulateCmd.Flags().IntVar(&simSteps, "steps", 1000, "integration steps")
	simulateCmd.Flags().StringVar(&simScheme, "scheme", "runge-kutta", "integration scheme")
	simulateCmd.Flags().Float64Var(&simNoise, "noise", 0, "log-normal noise level")
	simulateCmd.Flags().Int64Var(&simSeed, "seed", 0, "noise seed")
	simulateCmd.Flags().StringVar(&outFile, "out", "", "write the observations to a .csv or .xlsx file")

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "list the growth model catalogue",
		Args:  cobra.NoArgs,
		RunE:  listModels,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list synthetic dataset presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run (latest by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  plotRun,
	}

	chartCmd := &cobra.Command{
		Use:   "chart [run_id]",
		Short: "render a stored run to PNG or SVG",
		Args:  cobra.MaximumNArgs(1),
		RunE:  chartRun,
	}
	chartCmd.Flags().StringVar(&outFile, "out", "fit.png", "output file (.png or .svg)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE:  exportJSON,
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "print the resolved configuration",
		Args:  cobra.NoArgs,
		RunE:  showConfig,
	}
	configCmd.Flags().StringVar(&writeConfig, "write", "", "save the resolved configuration to a file")

	rootCmd.AddCommand(fitCmd, watchCmd, simulateCmd, modelsCmd, presetsCmd, runsCmd, plotCmd, chartCmd, exportJSONCmd, configCmd)
	return rootCmd
}

func addFitFlags(cmd *cobra.Command) {
	defaults := optim.DefaultOptions()
	f := cmd.Flags()
	f.IntVar(&oversample, "oversample", fit.DefaultOversample, "integration steps per observation interval")
	f.IntVar(&parallelism, "parallelism", 0, "concurrent model fits (0 = GOMAXPROCS)")
	f.StringSliceVar(&models, "models", []string{"all"}, "models to compare (names, all, default)")
	f.Int64Var(&seed, "seed", defaults.Random.Seed, "random search seed")
	f.Float64Var(&sigma, "sigma", defaults.Random.Sigma, "random search perturbation scale")
	f.IntVar(&maxFailures, "max-failures", defaults.Random.MaxFailures, "random search consecutive failure limit")
	f.Float64Var(&threshold, "threshold", defaults.Random.Threshold, "random search early-exit cost (0 disables)")
	f.Float64Var(&initialStep, "initial-step", defaults.Pattern.InitialStep, "pattern search initial step")
	f.Float64Var(&tolerance, "tolerance", defaults.Pattern.Tolerance, "pattern search step tolerance")
	f.BoolVar(&save, "save", false, "store the run under the data directory")
	f.BoolVar(&plotFits, "plot", false, "plot observations and fitted curves")
	f.StringVar(&metricsOut, "metrics-out", "", "write Prometheus metrics in textfile format")
}

// setup resolves the configuration and puts a logger into the command
// context.
func setup(cmd *cobra.Command) (*config.Config, context.Context, error) {
	cfg, err := config.Resolve(configFile, cmd.Flags())
	if err != nil {
		return nil, nil, err
	}
	log, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return nil, nil, err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return cfg, logging.IntoContext(ctx, log), nil
}

// comparison holds what fit and watch share.
type comparison struct {
	cfg      *config.Config
	source   data.Source
	obs      dynamo.Observations
	opts     selection.Options
	recorder *metrics.Recorder
}

func prepare(cmd *cobra.Command, args []string) (*comparison, context.Context, error) {
	cfg, ctx, err := setup(cmd)
	if err != nil {
		return nil, nil, err
	}

	source := data.ParseSource(args[0])
	obs, err := loadDataset(cfg, source)
	if err != nil {
		return nil, nil, err
	}

	var schemeArg string
	if len(args) == 4 {
		schemeArg = args[3]
	}
	opts, err := cfg.CompareOptions(args[1], args[2], schemeArg)
	if err != nil {
		return nil, nil, err
	}

	c := &comparison{cfg: cfg, source: source, obs: obs, opts: opts}
	if metricsOut != "" {
		c.recorder = metrics.NewRecorder()
		c.opts.Recorder = c.recorder
	}

	logging.FromContext(ctx).Info("loaded dataset", "source", source.String(), "observations", len(obs),
		"strategy", opts.Strategy, "criterion", opts.Criterion.String(), "scheme", opts.Scheme.String())
	return c, ctx, nil
}

func loadDataset(cfg *config.Config, source data.Source) (dynamo.Observations, error) {
	if !source.Synthetic {
		return data.Load(source.Path)
	}
	spec, err := cfg.SyntheticSpec(source.Preset)
	if err != nil {
		return nil, err
	}
	return data.Synthetic(spec)
}

func runFit(cmd *cobra.Command, args []string) error {
	c, ctx, err := prepare(cmd, args)
	if err != nil {
		return err
	}

	start := time.Now()
	report, err := selection.Compare(ctx, c.obs, c.opts)
	if err != nil {
		return err
	}
	logging.FromContext(ctx).Info("comparison finished", "models", len(report.Entries), "elapsed", time.Since(start).String())

	return c.finish(cmd.OutOrStdout(), report)
}

func runWatch(cmd *cobra.Command, args []string) error {
	c, ctx, err := prepare(cmd, args)
	if err != nil {
		return err
	}

	title := fmt.Sprintf("%s: %s search, %s", c.source, c.opts.Strategy, c.opts.Criterion)
	report, err := tui.Watch(ctx, title, c.obs, c.opts)
	if err != nil {
		return err
	}
	return c.finish(cmd.OutOrStdout(), report)
}

// finish prints the report and handles --plot, --save and --metrics-out.
func (c *comparison) finish(out io.Writer, report *selection.Report) error {
	if err := viz.WriteMappings(out, report); err != nil {
		return err
	}
	fmt.Fprintln(out)
	fmt.Fprint(out, viz.RenderReport(report))

	var curves []storage.Curve
	if plotFits || save {
		curves = c.curves(report)
	}

	if plotFits {
		series := make([]viz.Series, len(curves))
		for i, cv := range curves {
			series[i] = viz.Series{Name: cv.Model.String(), Trajectory: cv.Trajectory}
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, viz.PlotFit(c.obs, series, plotWidth, plotHeight))
	}

	if save {
		st := storage.New(c.cfg.DataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(storage.Run{
			Meta:         storage.NewRunMetadata(c.source.String(), c.opts.Oversample, c.cfg.Random.Seed, report),
			Observations: c.obs,
			Curves:       curves,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\nrun id: %s\n", runID)
	}

	if c.recorder != nil {
		if err := c.recorder.WriteTextfile(metricsOut); err != nil {
			return err
		}
	}
	return nil
}

// curves integrates every usable fit over the observation span.
func (c *comparison) curves(report *selection.Report) []storage.Curve {
	var out []storage.Curve
	for _, e := range report.Entries {
		if e.Failed {
			continue
		}
		obj, err := fit.New(e.Model, c.obs, fit.Options{Scheme: c.opts.Scheme, Oversample: c.opts.Oversample})
		if err != nil {
			continue
		}
		tr, err := obj.Predict(e.Params)
		if err != nil || !tr.IsValid() {
			continue
		}
		out = append(out, storage.Curve{Model: e.Model, Trajectory: tr})
	}
	return out
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, ctx, err := setup(cmd)
	if err != nil {
		return err
	}

	spec, err := cfg.SyntheticSpec(preset)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if len(args) == 1 {
		d, err := growth.Lookup(args[0])
		if err != nil {
			return err
		}
		if d.Name != spec.Model && !flags.Changed("params") {
			return fmt.Errorf("%s needs --params (%s)", d.Name, strings.Join(d.Params, ", "))
		}
		spec.Model = d.Name
	}
	if flags.Changed("params") {
		spec.Params = simParams
	}
	if flags.Changed("v0") {
		spec.V0 = simV0
	}
	if flags.Changed("t0") {
		spec.T0 = simT0
	}
	if flags.Changed("time") {
		spec.Duration = simDuration
	}
	if flags.Changed("steps") {
		spec.Steps = simSteps
	}
	if flags.Changed("scheme") {
		spec.Scheme = simScheme
	}
	if flags.Changed("noise") {
		spec.Noise = simNoise
	}
	if flags.Changed("seed") {
		spec.Seed = simSeed
	}

	obs, err := data.Synthetic(spec)
	if err != nil {
		return err
	}
	logging.FromContext(ctx).V(logging.DEBUG).Info("simulated", "model", spec.Model, "samples", len(obs))

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, viz.PlotTrajectory(viz.Series{Name: spec.Model, Trajectory: dynamo.Trajectory(obs)}, plotWidth, plotHeight))
	last := obs[len(obs)-1]
	fmt.Fprintf(out, "\nV(%s) = %s\n", viz.FormatValue(last.Time), viz.FormatValue(last.Volume))

	if outFile != "" {
		if err := data.Save(outFile, obs); err != nil {
			return err
		}
		fmt.Fprintf(out, "wrote %d observations to %s\n", len(obs), outFile)
	}
	return nil
}

func listModels(cmd *cobra.Command, args []string) error {
	inDefault := make(map[growth.Kind]bool)
	for _, d := range growth.DefaultComparison() {
		inDefault[d.Kind] = true
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tPARAMS\tRATE\tDEFAULT")
	for _, d := range growth.Catalogue() {
		mark := ""
		if inDefault[d.Kind] {
			mark = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.Name, strings.Join(d.Params, ","), d.Formula, mark)
	}
	return w.Flush()
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tMODEL\tPARAMS\tV0\tDURATION\tSTEPS")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		label := name
		if name == config.DefaultPreset {
			label += " (default)"
		}
		fmt.Fprintf(w, "%s\t%s\t%v\t%g\t%g\t%d\n", label, p.Model, p.Params, p.V0, p.Duration, p.Steps)
	}
	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	cfg, _, err := setup(cmd)
	if err != nil {
		return err
	}
	st := storage.New(cfg.DataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "no runs found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tSOURCE\tSTRATEGY\tCRITERION\tSCHEME\tBEST")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			run.ID,
			run.Timestamp.Local().Format("2006-01-02 15:04:05"),
			run.Source,
			run.Strategy,
			run.Criterion,
			run.Scheme,
			run.Best,
		)
	}
	return w.Flush()
}

// openRun resolves an optional run reference to a stored run.
func openRun(cmd *cobra.Command, args []string) (*storage.Store, *storage.RunMetadata, error) {
	cfg, _, err := setup(cmd)
	if err != nil {
		return nil, nil, err
	}
	st := storage.New(cfg.DataDir)

	ref := ""
	if len(args) == 1 {
		ref = args[0]
	}
	runID, err := st.Find(ref)
	if err != nil {
		return nil, nil, err
	}
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	return st, meta, nil
}

func loadSeries(st *storage.Store, runID string) (dynamo.Observations, []viz.Series, error) {
	obs, err := st.LoadObservations(runID)
	if err != nil {
		return nil, nil, err
	}
	curves, err := st.LoadFits(runID)
	if err != nil {
		return nil, nil, err
	}
	series := make([]viz.Series, len(curves))
	for i, c := range curves {
		series[i] = viz.Series{Name: c.Model.String(), Trajectory: c.Trajectory}
	}
	return obs, series, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	st, meta, err := openRun(cmd, args)
	if err != nil {
		return err
	}
	obs, series, err := loadSeries(st, meta.ID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run: %s\n", meta.ID)
	fmt.Fprintf(out, "source: %s\n\n", meta.Source)
	fmt.Fprint(out, viz.RenderReport(meta.Report()))
	fmt.Fprintln(out)
	fmt.Fprintln(out, viz.PlotFit(obs, series, plotWidth, plotHeight))
	return nil
}

func chartRun(cmd *cobra.Command, args []string) error {
	st, meta, err := openRun(cmd, args)
	if err != nil {
		return err
	}
	obs, series, err := loadSeries(st, meta.ID)
	if err != nil {
		return err
	}

	title := fmt.Sprintf("%s (%s, %s)", meta.Source, meta.Strategy, meta.Criterion)
	if err := export.SaveChart(outFile, title, obs, series); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", outFile)
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st, meta, err := openRun(cmd, args)
	if err != nil {
		return err
	}
	return st.ExportJSON(cmd.OutOrStdout(), meta.ID)
}

func showConfig(cmd *cobra.Command, args []string) error {
	cfg, _, err := setup(cmd)
	if err != nil {
		return err
	}
	if writeConfig != "" {
		if err := config.Save(writeConfig, cfg); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", writeConfig)
		return nil
	}
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(raw)
	return err
}
