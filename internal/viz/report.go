package viz

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/san-kum/tumorfit/internal/selection"
)

// FormatValue prints v with six significant digits.
func FormatValue(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	case math.IsNaN(v):
		return "nan"
	}
	return fmt.Sprintf("%.6g", v)
}

// FormatParams renders coefficients as name=value pairs.
func FormatParams(e selection.Entry) string {
	values := e.Values()
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = e.Names[i] + "=" + FormatValue(v)
	}
	return strings.Join(parts, " ")
}

// WriteMappings prints the fitted mean squared error and criterion value of
// every model as name-to-value mappings, in report order.
func WriteMappings(w io.Writer, r *selection.Report) error {
	sections := []struct {
		title string
		value func(selection.Entry) float64
	}{
		{"mse", func(e selection.Entry) float64 { return e.MSE }},
		{strings.ToLower(r.Criterion.String()), func(e selection.Entry) float64 { return e.Score }},
	}

	width := 0
	for _, e := range r.Entries {
		width = max(width, len(e.Name()))
	}

	for _, s := range sections {
		if _, err := fmt.Fprintf(w, "%s:\n", s.title); err != nil {
			return err
		}
		for _, e := range r.Entries {
			if _, err := fmt.Fprintf(w, "  %-*s  %s\n", width, e.Name(), FormatValue(s.value(e))); err != nil {
				return err
			}
		}
	}
	return nil
}

// RenderReport returns the comparison as a styled table followed by the
// selected model.
func RenderReport(r *selection.Report) string {
	best, hasBest := r.Best()

	rows := make([][]string, len(r.Entries))
	for i, e := range r.Entries {
		rows[i] = []string{
			e.Name(),
			FormatParams(e),
			FormatValue(e.MSE),
			FormatValue(e.Score),
			fmt.Sprint(e.Evaluations),
			status(e),
		}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(Subtle).
		Headers("MODEL", "PARAMS", "MSE", r.Criterion.String(), "EVALS", "STATUS").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			base := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return base.Inherit(HeaderStyle)
			}
			e := r.Entries[row]
			switch {
			case hasBest && e.Model == best.Model:
				return base.Inherit(Best)
			case e.Failed && col == 5:
				return base.Inherit(StatusFailed)
			case !e.Converged && col == 5:
				return base.Inherit(StatusWarn)
			}
			return base
		})

	var b strings.Builder
	b.WriteString(Title.Render(fmt.Sprintf("%s search, %s, %d observations", r.Strategy, r.Scheme, r.Observations)))
	b.WriteString("\n")
	b.WriteString(t.Render())
	b.WriteString("\n")
	if hasBest {
		b.WriteString(MetricLabel.Render("best by "+r.Criterion.String()+": ") + Best.Render(best.Name()))
		b.WriteString(" " + Subtle.Render("("+FormatParams(best)+")"))
	} else {
		b.WriteString(StatusFailed.Render("no model produced a usable fit"))
	}
	b.WriteString("\n")
	return b.String()
}

func status(e selection.Entry) string {
	switch {
	case e.Failed:
		return "failed"
	case !e.Converged:
		return "capped"
	}
	return "ok"
}
