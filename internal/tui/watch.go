// Package tui shows a running model comparison live in the terminal.
package tui

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/tumorfit/internal/dynamo"
	"github.com/san-kum/tumorfit/internal/growth"
	"github.com/san-kum/tumorfit/internal/selection"
	"github.com/san-kum/tumorfit/internal/viz"
)

const historyCapacity = 40

type rowState int

const (
	pending rowState = iota
	running
	finished
)

type row struct {
	kind    growth.Kind
	state   rowState
	cost    float64
	evals   int
	history []float64
	entry   *selection.Entry
}

type (
	tickMsg     time.Time
	progressMsg selection.Progress
	doneMsg     struct {
		report *selection.Report
		err    error
	}
)

type model struct {
	title  string
	rows   []row
	index  map[growth.Kind]int
	frame  int
	start  time.Time
	done   bool
	report *selection.Report
	err    error
	cancel context.CancelFunc
}

func newModel(title string, kinds []growth.Kind, cancel context.CancelFunc) model {
	m := model{
		title:  title,
		rows:   make([]row, len(kinds)),
		index:  make(map[growth.Kind]int, len(kinds)),
		start:  time.Now(),
		cancel: cancel,
	}
	for i, k := range kinds {
		m.rows[i] = row{kind: k, cost: math.Inf(1)}
		m.index[k] = i
	}
	return m
}

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Init() tea.Cmd { return tick() }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			if m.cancel != nil {
				m.cancel()
			}
			if !m.done {
				m.done = true
				m.err = context.Canceled
			}
			return m, tea.Quit
		}
		return m, nil
	case progressMsg:
		m.observe(selection.Progress(msg))
		return m, nil
	case doneMsg:
		m.done = true
		m.report = msg.report
		m.err = msg.err
		return m, tea.Quit
	case tickMsg:
		if m.done {
			return m, nil
		}
		m.frame++
		return m, tick()
	}
	return m, nil
}

func (m *model) observe(p selection.Progress) {
	i, ok := m.index[p.Model]
	if !ok {
		return
	}
	r := &m.rows[i]
	switch p.Event {
	case selection.Started:
		r.state = running
	case selection.Improved:
		r.state = running
		r.cost = p.Cost
		r.evals = p.Evaluations
		r.history = append(r.history, math.Log10(math.Max(p.Cost, 1e-12)))
		if len(r.history) > historyCapacity {
			r.history = r.history[len(r.history)-historyCapacity:]
		}
	case selection.Finished:
		r.state = finished
		r.cost = p.Cost
		r.evals = p.Evaluations
		r.entry = p.Entry
	}
}

func (m model) finishedCount() int {
	n := 0
	for _, r := range m.rows {
		if r.state == finished {
			n++
		}
	}
	return n
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString("\n  " + viz.Title.Render(m.title) + "\n")
	b.WriteString("  " + viz.Separator(60) + "\n\n")

	for _, r := range m.rows {
		var icon string
		switch {
		case r.state == pending:
			icon = viz.Subtle.Render("·")
		case r.state == running:
			icon = viz.StatusWarn.Render(viz.Spinner(m.frame))
		case r.entry != nil && r.entry.Failed:
			icon = viz.StatusFailed.Render("✗")
		default:
			icon = viz.StatusOK.Render("✓")
		}

		fmt.Fprintf(&b, "  %s %-22s %s %s %s\n",
			icon,
			r.kind.String(),
			viz.MetricLabel.Render("mse")+" "+viz.MetricValue.Render(fmt.Sprintf("%-12s", viz.FormatValue(r.cost))),
			viz.MetricLabel.Render(fmt.Sprintf("%8d evals", r.evals)),
			viz.Sparkline(r.history, 20),
		)
	}

	total := len(m.rows)
	done := m.finishedCount()
	fraction := 0.0
	if total > 0 {
		fraction = float64(done) / float64(total)
	}
	fmt.Fprintf(&b, "\n  %s %d/%d  %s\n",
		viz.ProgressBar(fraction, 30), done, total,
		viz.Subtle.Render(time.Since(m.start).Truncate(100*time.Millisecond).String()))

	if m.done && m.report != nil {
		if best, ok := m.report.Best(); ok {
			b.WriteString("\n  " + viz.MetricLabel.Render("best: ") + viz.Best.Render(best.Name()) + "\n")
		}
	} else if !m.done {
		b.WriteString("\n  " + viz.KeyHint.Render("q quit") + "\n")
	}
	return b.String()
}

// Watch runs the comparison while rendering live progress. Quitting the view
// cancels the comparison and returns context.Canceled.
func Watch(ctx context.Context, title string, obs dynamo.Observations, opts selection.Options, progOpts ...tea.ProgramOption) (*selection.Report, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	kinds := opts.Models
	if len(kinds) == 0 {
		kinds = growth.Kinds(growth.Catalogue())
		opts.Models = kinds
	}

	p := tea.NewProgram(newModel(title, kinds, cancel), progOpts...)

	next := opts.Progress
	opts.Progress = func(pr selection.Progress) {
		if next != nil {
			next(pr)
		}
		p.Send(progressMsg(pr))
	}

	go func() {
		report, err := selection.Compare(ctx, obs, opts)
		p.Send(doneMsg{report: report, err: err})
	}()

	final, err := p.Run()
	if err != nil {
		return nil, err
	}
	fm := final.(model)
	return fm.report, fm.err
}
