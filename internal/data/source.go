package data

import "strings"

const syntheticDirective = "synthetic"

// Source is a parsed dataset argument: a file path, or the synthetic
// directive with an optional preset name.
type Source struct {
	Path      string
	Synthetic bool
	Preset    string
}

// ParseSource interprets "synthetic", "synthetic:<preset>" or a path.
func ParseSource(arg string) Source {
	arg = strings.TrimSpace(arg)
	head, preset, found := strings.Cut(arg, ":")
	if strings.EqualFold(head, syntheticDirective) {
		if !found {
			return Source{Synthetic: true}
		}
		return Source{Synthetic: true, Preset: strings.TrimSpace(preset)}
	}
	return Source{Path: arg}
}

func (s Source) String() string {
	switch {
	case !s.Synthetic:
		return s.Path
	case s.Preset == "":
		return syntheticDirective
	default:
		return syntheticDirective + ":" + s.Preset
	}
}
