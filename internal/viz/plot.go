package viz

import (
	"math"

	"github.com/guptarohit/asciigraph"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"

	"github.com/san-kum/tumorfit/internal/dynamo"
)

const volumeFloor = 1e-9

// Series is a named curve to plot.
type Series struct {
	Name       string
	Trajectory dynamo.Trajectory
}

var seriesColors = []asciigraph.AnsiColor{
	asciigraph.White,
	asciigraph.Cyan,
	asciigraph.Magenta,
	asciigraph.Yellow,
	asciigraph.Green,
	asciigraph.Blue,
	asciigraph.Red,
}

// PlotFit draws the observations and fitted curves on one chart. Curves
// that cannot be resampled onto the observation span are left out.
func PlotFit(obs dynamo.Observations, fits []Series, width, height int) string {
	series := append([]Series{{Name: "observed", Trajectory: dynamo.Trajectory(obs)}}, fits...)
	return plotSeries(series, width, height, "log10 volume vs time")
}

// PlotTrajectory draws a single integrated trajectory.
func PlotTrajectory(s Series, width, height int) string {
	return plotSeries([]Series{s}, width, height, "log10 volume vs time: "+s.Name)
}

func plotSeries(series []Series, width, height int, caption string) string {
	if len(series) == 0 || len(series[0].Trajectory) < 2 || width < 2 {
		return Subtle.Render("not enough samples to plot")
	}

	ref := series[0].Trajectory
	grid := make([]float64, width)
	floats.Span(grid, ref[0].Time, ref.Last().Time)

	var (
		lines   [][]float64
		legends []string
	)
	for _, s := range series {
		ys, ok := resampleLog(s.Trajectory, grid)
		if !ok {
			continue
		}
		lines = append(lines, ys)
		legends = append(legends, s.Name)
	}
	if len(lines) == 0 {
		return Subtle.Render("nothing to plot")
	}

	colors := make([]asciigraph.AnsiColor, len(lines))
	for i := range colors {
		colors[i] = seriesColors[i%len(seriesColors)]
	}

	return asciigraph.PlotMany(lines,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Precision(2),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(colors...),
		asciigraph.SeriesLegends(legends...),
	)
}

// resampleLog interpolates tr at xs and returns log10 volumes.
func resampleLog(tr dynamo.Trajectory, xs []float64) ([]float64, bool) {
	if len(tr) < 2 || !tr.IsValid() {
		return nil, false
	}
	times := tr.Times()
	for i := 1; i < len(times); i++ {
		if times[i] <= times[i-1] {
			return nil, false
		}
	}

	var pl interp.PiecewiseLinear
	if err := pl.Fit(times, tr.Volumes()); err != nil {
		return nil, false
	}
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = math.Log10(math.Max(pl.Predict(x), volumeFloor))
	}
	return out, true
}
