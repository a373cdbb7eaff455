package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httpadapter "github.com/couchcryptid/wildfire-climate-etl/internal/adapter/http"
	"github.com/couchcryptid/wildfire-climate-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRun struct {
	err    error
	status domain.RunStatus
}

func (m *mockRun) CheckReadiness(_ context.Context) error { return m.err }
func (m *mockRun) Status() domain.RunStatus               { return m.status }

func newTestServer(run *mockRun) *httpadapter.Server {
	return httpadapter.NewServer(":0", run, slog.Default())
}

func get(t *testing.T, srv *httpadapter.Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	rec := get(t, newTestServer(&mockRun{}), "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	rec := get(t, newTestServer(&mockRun{}), "/readyz")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	rec := get(t, newTestServer(&mockRun{err: fmt.Errorf("climate tables have not been loaded yet")}), "/readyz")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "climate tables have not been loaded yet", body["error"])
}

func TestStatusReportsStage(t *testing.T) {
	started := time.Date(2024, time.April, 26, 15, 10, 0, 0, time.UTC)
	rec := get(t, newTestServer(&mockRun{status: domain.RunStatus{
		Stage:     "containment",
		Fires:     1880465,
		StartedAt: &started,
	}}), "/status")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"stage":"containment","fires":1880465,"started_at":"2024-04-26T15:10:00Z"}`, rec.Body.String())
}

func TestStatusReturns500WhenFailed(t *testing.T) {
	rec := get(t, newTestServer(&mockRun{status: domain.RunStatus{
		Stage: domain.StageFailed,
		Error: "join_climate: climate record not found",
	}}), "/status")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body domain.RunStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "join_climate: climate record not found", body.Error)
}

func TestMetricsEndpoint(t *testing.T) {
	rec := get(t, newTestServer(&mockRun{}), "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestJSONRoutesSetContentType(t *testing.T) {
	srv := newTestServer(&mockRun{status: domain.RunStatus{Stage: domain.StageIdle}})
	for _, path := range []string{"/healthz", "/readyz", "/status"} {
		rec := get(t, srv, path)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"), path)
	}
}
