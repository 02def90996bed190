// Package storage persists comparison runs as directories holding
// metadata.json, observations.csv and fits.csv.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/tumorfit/internal/data"
	"github.com/san-kum/tumorfit/internal/dynamo"
	"github.com/san-kum/tumorfit/internal/growth"
)

var ErrRunNotFound = errors.New("storage: run not found")

const (
	metadataFile     = "metadata.json"
	observationsFile = "observations.csv"
	fitsFile         = "fits.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// Curve is a fitted model integrated over the observation span.
type Curve struct {
	Model      growth.Kind
	Trajectory dynamo.Trajectory
}

// Run is everything persisted for one comparison.
type Run struct {
	Meta         RunMetadata
	Observations dynamo.Observations
	Curves       []Curve
}

// Save writes the run under a fresh ID and returns it. Meta.ID and
// Meta.Timestamp are assigned here. A run that fails to write is removed.
func (s *Store) Save(run Run) (string, error) {
	id := uuid.NewString()
	runDir := filepath.Join(s.baseDir, id)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}
	if err := writeRun(runDir, id, run); err != nil {
		os.RemoveAll(runDir)
		return "", err
	}
	return id, nil
}

func writeRun(runDir, id string, run Run) error {
	meta := run.Meta
	meta.ID = id
	meta.Timestamp = time.Now().UTC()
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return err
	}
	if err := data.Save(filepath.Join(runDir, observationsFile), run.Observations); err != nil {
		return err
	}
	return writeCurves(filepath.Join(runDir, fitsFile), run.Curves)
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// writeCurves lays the curves out column-wise against the time grid of the
// first curve. All curves of one run share that grid.
func writeCurves(path string, curves []Curve) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := encodeCurves(f, curves); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func encodeCurves(out io.Writer, curves []Curve) error {
	w := csv.NewWriter(out)
	header := []string{"time"}
	for _, c := range curves {
		header = append(header, c.Model.String())
	}
	if err := w.Write(header); err != nil {
		return err
	}

	if len(curves) > 0 {
		grid := curves[0].Trajectory
		for i, sample := range grid {
			row := []string{strconv.FormatFloat(sample.Time, 'g', -1, 64)}
			for _, c := range curves {
				if i >= len(c.Trajectory) {
					return fmt.Errorf("storage: curve %s has %d samples, want %d", c.Model, len(c.Trajectory), len(grid))
				}
				row = append(row, strconv.FormatFloat(c.Trajectory[i].Volume, 'g', -1, 64))
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}
	w.Flush()
	return w.Error()
}

// List returns all stored runs, oldest first. Directories without readable
// metadata are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	raw, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("storage: decode %s: %w", runID, err)
	}
	return &meta, nil
}

// Find resolves "latest" or a unique ID prefix to a full run ID.
func (s *Store) Find(ref string) (string, error) {
	runs, err := s.List()
	if err != nil {
		return "", err
	}
	if len(runs) == 0 {
		return "", fmt.Errorf("%w: no runs in %s", ErrRunNotFound, s.baseDir)
	}
	if ref == "" || ref == "latest" {
		return runs[len(runs)-1].ID, nil
	}

	var matches []string
	for _, r := range runs {
		if r.ID == ref {
			return ref, nil
		}
		if strings.HasPrefix(r.ID, ref) {
			matches = append(matches, r.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: %s", ErrRunNotFound, ref)
	case 1:
		return matches[0], nil
	}
	return "", fmt.Errorf("storage: run prefix %q is ambiguous (%d matches)", ref, len(matches))
}

func (s *Store) LoadObservations(runID string) (dynamo.Observations, error) {
	return data.Load(filepath.Join(s.baseDir, runID, observationsFile))
}

// LoadFits reads the fitted curves of a run.
func (s *Store) LoadFits(runID string) ([]Curve, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, fitsFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return []Curve{}, nil
	}

	header := records[0]
	curves := make([]Curve, 0, len(header)-1)
	for _, name := range header[1:] {
		d, err := growth.Lookup(name)
		if err != nil {
			return nil, fmt.Errorf("storage: fits header: %w", err)
		}
		curves = append(curves, Curve{Model: d.Kind, Trajectory: make(dynamo.Trajectory, 0, len(records)-1)})
	}

	for i, record := range records[1:] {
		if len(record) != len(header) {
			return nil, fmt.Errorf("storage: fits row %d has %d fields, want %d", i+2, len(record), len(header))
		}
		values := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("storage: fits row %d: %w", i+2, err)
			}
			values[j] = v
		}
		for j := range curves {
			curves[j].Trajectory = append(curves[j].Trajectory, dynamo.Sample{Time: values[0], Volume: values[j+1]})
		}
	}
	return curves, nil
}
