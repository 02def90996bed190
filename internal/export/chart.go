// Package export renders fitted curves as PNG or SVG images.
package export

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/san-kum/tumorfit/internal/dynamo"
	"github.com/san-kum/tumorfit/internal/viz"
)

var ErrUnknownFormat = errors.New("export: unknown image format")

const volumeFloor = 1e-9

var palette = []drawing.Color{
	chart.ColorBlue,
	chart.ColorRed,
	chart.ColorGreen,
	chart.ColorOrange,
	{R: 148, G: 0, B: 211, A: 255},
	{R: 0, G: 139, B: 139, A: 255},
}

// Format picks the renderer for "png" or "svg".
func Format(name string) (chart.RendererProvider, error) {
	switch strings.ToLower(strings.TrimPrefix(name, ".")) {
	case "png":
		return chart.PNG, nil
	case "svg":
		return chart.SVG, nil
	}
	return nil, fmt.Errorf("%w: %q (want png or svg)", ErrUnknownFormat, name)
}

// WriteChart draws the observations as dots and every fit as a line, on a
// log10 volume axis.
func WriteChart(w io.Writer, format, title string, obs dynamo.Observations, fits []viz.Series) error {
	provider, err := Format(format)
	if err != nil {
		return err
	}
	if len(obs) < 2 {
		return fmt.Errorf("export: need at least 2 observations, got %d", len(obs))
	}

	series := []chart.Series{
		chart.ContinuousSeries{
			Name:    "observed",
			XValues: obs.Times(),
			YValues: logVolumes(obs.Volumes()),
			Style: chart.Style{
				StrokeWidth: chart.Disabled,
				DotWidth:    2,
				DotColor:    chart.ColorBlack,
			},
		},
	}
	for i, f := range fits {
		if len(f.Trajectory) < 2 || !f.Trajectory.IsValid() {
			continue
		}
		series = append(series, chart.ContinuousSeries{
			Name:    f.Name,
			XValues: f.Trajectory.Times(),
			YValues: logVolumes(f.Trajectory.Volumes()),
			Style: chart.Style{
				StrokeColor: palette[i%len(palette)],
				StrokeWidth: 2,
			},
		})
	}

	graph := chart.Chart{
		Title:  title,
		Width:  960,
		Height: 540,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis:  chart.XAxis{Name: "time"},
		YAxis:  chart.YAxis{Name: "log10 volume"},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	if err := graph.Render(provider, w); err != nil {
		return fmt.Errorf("export: render chart: %w", err)
	}
	return nil
}

// SaveChart writes the chart to path; the extension selects the format.
func SaveChart(path, title string, obs dynamo.Observations, fits []viz.Series) error {
	format := filepath.Ext(path)
	if _, err := Format(format); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteChart(f, format, title, obs, fits); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

func logVolumes(vs []float64) []float64 {
	out := make([]float64, len(vs))
	for i, v := range vs {
		out[i] = math.Log10(math.Max(v, volumeFloor))
	}
	return out
}
