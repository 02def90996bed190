package storage

import (
	"encoding/json"
	"io"
)

type ExportData struct {
	Run     RunMetadata     `json:"run"`
	Times   []float64       `json:"times"`
	Volumes []float64       `json:"volumes"`
	Fits    []ExportedCurve `json:"fits"`
}

type ExportedCurve struct {
	Model   string    `json:"model"`
	Times   []float64 `json:"times"`
	Volumes []float64 `json:"volumes"`
}

// ExportJSON writes a stored run with its observations and fitted curves.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	obs, err := s.LoadObservations(runID)
	if err != nil {
		return err
	}
	curves, err := s.LoadFits(runID)
	if err != nil {
		return err
	}

	out := ExportData{
		Run:     *meta,
		Times:   obs.Times(),
		Volumes: obs.Volumes(),
		Fits:    make([]ExportedCurve, len(curves)),
	}
	for i, c := range curves {
		out.Fits[i] = ExportedCurve{
			Model:   c.Model.String(),
			Times:   c.Trajectory.Times(),
			Volumes: c.Trajectory.Volumes(),
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
