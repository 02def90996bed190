// Package viz renders comparison reports and fitted curves for the terminal.
//
// Reports are styled with lipgloss; curves are drawn with asciigraph on a
// log10 volume axis, since tumor volumes span several orders of magnitude.
package viz
