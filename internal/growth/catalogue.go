package growth

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownModel is returned by Lookup for names outside the catalogue.
var ErrUnknownModel = errors.New("growth: unknown model")

// Descriptor names a model kind and its coefficients.
type Descriptor struct {
	Kind    Kind
	Name    string
	Params  []string
	Formula string
}

var catalogue = []Descriptor{
	{Linear, "Linear", []string{"c"}, "c"},
	{Exponential, "Exponential", []string{"c"}, "c*V"},
	{Mendelsohn, "Mendelsohn", []string{"c", "d"}, "c*V^d"},
	{ExponentialSaturating, "ExponentialSaturating", []string{"c", "vmax"}, "c*(vmax-V)"},
	{Logistic, "Logistic", []string{"c", "vmax"}, "c*V*(vmax-V)"},
	{Montroll, "Montroll", []string{"c", "vmax", "d"}, "c*V*(vmax^d-V^d)"},
	{VonBertalanffy, "VonBertalanffy", []string{"c", "d"}, "c*V^(2/3)-d*V"},
	{GompertzLes, "GompertzLes", []string{"c", "cap"}, "c*V*ln(cap/V)"},
	{GompertzPaper, "GompertzPaper", []string{"alpha", "beta"}, "alpha*exp(-beta*t)*V"},
	{SurfaceLimited, "SurfaceLimited", []string{"c", "d"}, "c*V/(V+d)^(1/3)"},
	{Allee, "Allee", []string{"c", "vmin", "vmax"}, "c*(V-vmin)*(vmax-V)"},
	{LinearLimited, "LinearLimited", []string{"c", "d"}, "c*V/(V+d)"},
}

var defaultComparison = []Kind{Allee, SurfaceLimited, VonBertalanffy, GompertzPaper, GompertzLes, LinearLimited}

// Catalogue returns every model in declaration order.
func Catalogue() []Descriptor {
	out := make([]Descriptor, len(catalogue))
	copy(out, catalogue)
	return out
}

// DefaultComparison returns the six models compared by default.
func DefaultComparison() []Descriptor {
	out := make([]Descriptor, 0, len(defaultComparison))
	for _, k := range defaultComparison {
		d, _ := descriptorFor(k)
		out = append(out, d)
	}
	return out
}

// Lookup finds a model by name. Matching ignores case, underscores, hyphens
// and a trailing "Model".
func Lookup(name string) (Descriptor, error) {
	key := normalize(name)
	for _, d := range catalogue {
		if normalize(d.Name) == key {
			return d, nil
		}
	}
	return Descriptor{}, fmt.Errorf("%w: %s", ErrUnknownModel, name)
}

// Select resolves a list of names. "all" expands to the full catalogue and
// "default" to DefaultComparison; an empty list means "all".
func Select(names []string) ([]Descriptor, error) {
	if len(names) == 0 {
		return Catalogue(), nil
	}
	var out []Descriptor
	seen := make(map[Kind]bool)
	add := func(ds ...Descriptor) {
		for _, d := range ds {
			if !seen[d.Kind] {
				seen[d.Kind] = true
				out = append(out, d)
			}
		}
	}
	for _, name := range names {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "all":
			add(Catalogue()...)
		case "default":
			add(DefaultComparison()...)
		default:
			d, err := Lookup(name)
			if err != nil {
				return nil, err
			}
			add(d)
		}
	}
	return out, nil
}

// Describe returns the descriptor of a model kind.
func Describe(k Kind) (Descriptor, bool) {
	return descriptorFor(k)
}

// Kinds extracts the model kinds of ds, preserving order.
func Kinds(ds []Descriptor) []Kind {
	out := make([]Kind, len(ds))
	for i, d := range ds {
		out[i] = d.Kind
	}
	return out
}

func (k Kind) MarshalText() ([]byte, error) {
	if _, ok := descriptorFor(k); !ok {
		return nil, fmt.Errorf("%w: kind %d", ErrUnknownModel, int(k))
	}
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	d, err := Lookup(string(b))
	if err != nil {
		return err
	}
	*k = d.Kind
	return nil
}

func descriptorFor(k Kind) (Descriptor, bool) {
	if k < 0 || int(k) >= len(catalogue) {
		return Descriptor{}, false
	}
	return catalogue[k], true
}

func normalize(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.NewReplacer("_", "", "-", "", " ", "").Replace(s)
	return strings.TrimSuffix(s, "model")
}
