package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daryltucker/mlboard/internal/model"
	"github.com/daryltucker/mlboard/internal/output"
)

func TestMain(m *testing.M) {
	output.Discard()
	os.Exit(m.Run())
}

// fakeSource returns fixed records or a fixed error.
type fakeSource struct {
	records []model.RunRecord
	err     error
}

func (f fakeSource) Runs(context.Context) ([]model.RunRecord, error) {
	return f.records, f.err
}

func sampleRecords() []model.RunRecord {
	return []model.RunRecord{
		{Model: "ridge", TrainRMSE: 0.2, TestRMSE: 0.4, TestMAE: 0.3, TestR2: 0.5, RunID: "aaaaaaaa1111"},
		{Model: "Forest", TrainRMSE: 0.1, TestRMSE: 0.2, TestMAE: 0.1, TestR2: 0.9, RunID: "bbbbbbbb2222"},
		{Model: "ridge", TrainRMSE: 0.1, TestRMSE: 0.3, TestMAE: 0.2, TestR2: 0.7, RunID: "cccccccc3333"},
	}
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestMetrics(t *testing.T) {
	srv := New(fakeSource{records: sampleRecords()}, Options{})

	rec := do(t, srv, http.MethodGet, "/api/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got []model.RunRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, sampleRecords(), got)
}

func TestMetrics_EmptyIsArray(t *testing.T) {
	srv := New(fakeSource{}, Options{})

	rec := do(t, srv, http.MethodGet, "/api/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestMetrics_SourceError(t *testing.T) {
	srv := New(fakeSource{err: errors.New("disk on fire")}, Options{})

	rec := do(t, srv, http.MethodGet, "/api/metrics")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Failed to fetch metrics"}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "disk on fire")
}

func TestModelMetrics(t *testing.T) {
	srv := New(fakeSource{records: sampleRecords()}, Options{})

	rec := do(t, srv, http.MethodGet, "/api/metrics/RIDGE")
	require.Equal(t, http.StatusOK, rec.Code)
	var got []model.RunRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "aaaaaaaa1111", got[0].RunID)

	rec = do(t, srv, http.MethodGet, "/api/metrics/xgboost")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"No metrics found for model: xgboost"}`, rec.Body.String())
}

func TestModels(t *testing.T) {
	srv := New(fakeSource{records: sampleRecords()}, Options{})

	rec := do(t, srv, http.MethodGet, "/api/models")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"models":["ridge","Forest"],"count":2}`, rec.Body.String())

	srv = New(fakeSource{err: errors.New("boom")}, Options{})
	rec = do(t, srv, http.MethodGet, "/api/models")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHealthAndIndex(t *testing.T) {
	srv := New(fakeSource{}, Options{})

	rec := do(t, srv, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())

	rec = do(t, srv, http.MethodGet, "/api")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"version":"1.0.0"`)
}

func TestMethodNotAllowed(t *testing.T) {
	srv := New(fakeSource{}, Options{})
	rec := do(t, srv, http.MethodPost, "/api/metrics")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestUnknownPath(t *testing.T) {
	srv := New(fakeSource{}, Options{})
	rec := do(t, srv, http.MethodGet, "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCORS(t *testing.T) {
	srv := New(fakeSource{}, Options{CORSOrigins: []string{"*"}})
	rec := do(t, srv, http.MethodGet, "/health")
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	srv = New(fakeSource{}, Options{CORSOrigins: []string{"http://ui.test"}})
	req := httptest.NewRequest(http.MethodOptions, "/api/metrics", nil)
	req.Header.Set("Origin", "http://ui.test")
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "http://ui.test", rr.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.test")
	rr = httptest.NewRecorder()
	srv.ServeHTTP(rr, req)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestSnapshotFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"model":"ridge"}]`), 0644))

	srv := New(fakeSource{}, Options{SnapshotPath: path})
	rec := do(t, srv, http.MethodGet, "/metrics.json")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, `[{"model":"ridge"}]`, rec.Body.String())

	srv = New(fakeSource{}, Options{SnapshotPath: filepath.Join(t.TempDir(), "absent.json")})
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/metrics.json").Code)

	srv = New(fakeSource{}, Options{})
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/metrics.json").Code)
}
