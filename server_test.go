package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motionlab-data/kinematics.report/internal/burst"
	"github.com/motionlab-data/kinematics.report/internal/config"
	"github.com/motionlab-data/kinematics.report/internal/store"
)

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()

	inDir := t.TempDir()
	outDir := t.TempDir()
	writeRecording(t, inDir, "rec.csv", 3)

	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	summary, err := runBatch(inDir, outDir, config.EmptyTuningConfig(), st)
	require.NoError(t, err)
	require.Equal(t, 1, summary.Processed)

	runs, err := st.ListRuns(0)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	return NewServer(st, outDir), runs[0].RunID
}

func TestListRunsHandler(t *testing.T) {
	t.Parallel()

	srv, runID := newTestServer(t)
	mux := srv.ServeMux()

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var runs []store.RunSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, runID, runs[0].RunID)
	assert.Equal(t, "rec", runs[0].SourceID)
	assert.Equal(t, string(burst.DecisionPass), runs[0].Decision)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/runs", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestEventAndFilterHandlers(t *testing.T) {
	t.Parallel()

	srv, runID := newTestServer(t)
	mux := srv.ServeMux()

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/filter?run_id="+runID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var results []json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	assert.Len(t, results, 1)

	// No bursts in a smooth synthetic recording.
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/events?run_id="+runID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "null\n", rec.Body.String())

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/events", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReportFileServing(t *testing.T) {
	t.Parallel()

	srv, runID := newTestServer(t)
	mux := srv.ServeMux()

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports/"+filepath.ToSlash(filepath.Join(runID, "report.json")), nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "rec", doc["run_id"])
}
