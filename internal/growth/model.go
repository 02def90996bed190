// Package growth defines the tumor growth model family: a closed set of
// rate functions dV/dt = f(V, t) parameterized by a few named coefficients.
package growth

import (
	"math"

	"github.com/san-kum/tumorfit/internal/dynamo"
)

// Epsilon is the floor applied to volumes before a logarithm or a
// fractional power.
const Epsilon = 1e-9

const (
	mendelsohnCeiling = 1e6
	gompertzMinCap    = 1e-6
)

type Kind int

const (
	Linear Kind = iota
	Exponential
	Mendelsohn
	ExponentialSaturating
	Logistic
	Montroll
	VonBertalanffy
	GompertzLes
	GompertzPaper
	SurfaceLimited
	Allee
	LinearLimited
)

func (k Kind) String() string {
	if d, ok := descriptorFor(k); ok {
		return d.Name
	}
	return "unknown"
}

// NumParams returns the coefficient count of the model kind.
func (k Kind) NumParams() int {
	if d, ok := descriptorFor(k); ok {
		return len(d.Params)
	}
	return 0
}

// Model is an immutable growth model instance.
type Model struct {
	kind Kind
	p    dynamo.Params
}

// New builds a model of the given kind. Coefficients beyond the kind's
// parameter count are ignored.
func New(kind Kind, p dynamo.Params) Model {
	n := kind.NumParams()
	for i := n; i < dynamo.MaxParams; i++ {
		p[i] = 0
	}
	if kind == GompertzLes && p[1] <= 0 {
		p[1] = gompertzMinCap
	}
	return Model{kind: kind, p: p}
}

func (m Model) Kind() Kind            { return m.kind }
func (m Model) Params() dynamo.Params { return m.p }

// Rate evaluates dV/dt at volume v and time t.
func (m Model) Rate(v, t float64) float64 {
	p := m.p
	switch m.kind {
	case Linear:
		return p[0]
	case Exponential:
		return p[0] * v
	case Mendelsohn:
		v = math.Min(math.Max(v, Epsilon), mendelsohnCeiling)
		return p[0] * math.Pow(v, p[1])
	case ExponentialSaturating:
		return p[0] * (p[1] - v)
	case Logistic:
		return p[0] * v * (p[1] - v)
	case Montroll:
		c, vmax, d := p[0], p[1], p[2]
		return c * v * (math.Pow(math.Max(vmax, Epsilon), d) - math.Pow(math.Max(v, Epsilon), d))
	case VonBertalanffy:
		v = math.Max(v, 0)
		return p[0]*math.Pow(v, 2.0/3.0) - p[1]*v
	case GompertzLes:
		v = math.Max(v, Epsilon)
		return p[0] * v * math.Log(p[1]/v)
	case GompertzPaper:
		v = math.Max(v, 0)
		return p[0] * math.Exp(-p[1]*t) * v
	case SurfaceLimited:
		return p[0] * v / math.Cbrt(math.Max(v+p[1], Epsilon))
	case Allee:
		return p[0] * (v - p[1]) * (p[2] - v)
	case LinearLimited:
		return p[0] * v / (v + p[1])
	}
	return math.NaN()
}

// RateFunc returns the model's rate as a plain function value.
func (m Model) RateFunc() dynamo.RateFunc {
	return m.Rate
}
