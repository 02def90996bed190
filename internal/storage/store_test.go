package storage

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/tumorfit/internal/dynamo"
	"github.com/san-kum/tumorfit/internal/growth"
	"github.com/san-kum/tumorfit/internal/integrators"
	"github.com/san-kum/tumorfit/internal/selection"
)

func testReport() *selection.Report {
	return &selection.Report{
		Criterion:    selection.AICc,
		Strategy:     "pattern",
		Scheme:       integrators.Heun,
		Observations: 3,
		Entries: []selection.Entry{
			{
				Model: growth.VonBertalanffy, Params: dynamo.Params{2, 1.6}, Names: []string{"c", "d"},
				MSE: 1e-4, Score: -20.5, Evaluations: 300, Iterations: 40, Converged: true, Elapsed: 3 * time.Millisecond,
			},
			{
				Model: growth.LinearLimited, Names: []string{"c", "d"},
				MSE: math.Inf(1), Score: math.Inf(1), Evaluations: 45, Iterations: 11, Converged: true, Failed: true,
			},
		},
	}
}

func testRun() Run {
	obs := dynamo.Observations{{Time: 0, Volume: 0.1}, {Time: 1, Volume: 0.4}, {Time: 2, Volume: 0.9}}
	return Run{
		Meta:         NewRunMetadata("synthetic:bertalanffy", 10, 7, testReport()),
		Observations: obs,
		Curves: []Curve{{
			Model:      growth.VonBertalanffy,
			Trajectory: dynamo.Trajectory{{Time: 0, Volume: 0.1}, {Time: 1, Volume: 0.41}, {Time: 2, Volume: 0.88}},
		}},
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())

	id, err := st.Save(testRun())
	require.NoError(t, err)
	require.NotEmpty(t, id)

	meta, err := st.Load(id)
	require.NoError(t, err)
	assert.Equal(t, id, meta.ID)
	assert.Equal(t, "synthetic:bertalanffy", meta.Source)
	assert.Equal(t, selection.AICc, meta.Criterion)
	assert.Equal(t, integrators.Heun, meta.Scheme)
	assert.Equal(t, int64(7), meta.Seed)
	assert.Equal(t, "VonBertalanffy", meta.Best)
	require.Len(t, meta.Fits, 2)
	assert.True(t, math.IsInf(float64(meta.Fits[1].Score), 1))

	if diff := cmp.Diff(testReport(), meta.Report()); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}

	obs, err := st.LoadObservations(id)
	require.NoError(t, err)
	assert.Equal(t, testRun().Observations, obs)

	curves, err := st.LoadFits(id)
	require.NoError(t, err)
	assert.Equal(t, testRun().Curves, curves)
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())

	runs, err := st.List()
	require.NoError(t, err)
	assert.Empty(t, runs)

	first, err := st.Save(testRun())
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	second, err := st.Save(testRun())
	require.NoError(t, err)

	require.NoError(t, os.Mkdir(filepath.Join(st.baseDir, "junk"), 0755))

	runs, err = st.List()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, first, runs[0].ID)
	assert.Equal(t, second, runs[1].ID)
}

func TestStoreList_MissingDir(t *testing.T) {
	runs, err := New(filepath.Join(t.TempDir(), "absent")).List()
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestStoreFind(t *testing.T) {
	st := New(t.TempDir())
	_, err := st.Find("latest")
	assert.ErrorIs(t, err, ErrRunNotFound)

	require.NoError(t, st.Init())
	id, err := st.Save(testRun())
	require.NoError(t, err)

	for _, ref := range []string{"", "latest", id, id[:8]} {
		got, err := st.Find(ref)
		require.NoError(t, err, ref)
		assert.Equal(t, id, got, ref)
	}

	_, err = st.Find("zzzz")
	assert.ErrorIs(t, err, ErrRunNotFound)

	_, err = st.Load("zzzz")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestExportJSON(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())
	id, err := st.Save(testRun())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, st.ExportJSON(&buf, id))

	var out ExportData
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, id, out.Run.ID)
	assert.Equal(t, []float64{0, 1, 2}, out.Times)
	assert.Equal(t, []float64{0.1, 0.4, 0.9}, out.Volumes)
	require.Len(t, out.Fits, 1)
	assert.Equal(t, "VonBertalanffy", out.Fits[0].Model)
	assert.Equal(t, []float64{0.1, 0.41, 0.88}, out.Fits[0].Volumes)
	assert.Contains(t, buf.String(), `"+Inf"`)
}

func TestFloatJSON(t *testing.T) {
	for _, v := range []float64{0, -1.5, 1e-300, math.Inf(1), math.Inf(-1)} {
		b, err := json.Marshal(Float(v))
		require.NoError(t, err)
		var got Float
		require.NoError(t, json.Unmarshal(b, &got))
		assert.Equal(t, v, float64(got))
	}

	b, err := json.Marshal(Float(math.NaN()))
	require.NoError(t, err)
	var got Float
	require.NoError(t, json.Unmarshal(b, &got))
	assert.True(t, math.IsNaN(float64(got)))
}

func TestStoreSave_RemovesPartialRun(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)
	require.NoError(t, st.Init())

	run := testRun()
	run.Curves = append(run.Curves, Curve{
		Model:      growth.LinearLimited,
		Trajectory: dynamo.Trajectory{{Time: 0, Volume: 0.1}},
	})

	id, err := st.Save(run)
	require.Error(t, err)
	assert.Empty(t, id)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	runs, err := st.List()
	require.NoError(t, err)
	assert.Empty(t, runs)
}
