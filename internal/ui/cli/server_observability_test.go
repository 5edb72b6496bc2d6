package cli

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moduledeps/internal/core/ports"
)

func getHealth(t *testing.T, h http.Handler) (int, healthStatus) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	var status healthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	return rec.Code, status
}

func TestHealthEndpoint(t *testing.T) {
	health := newHealthTracker()
	h := NewObservabilityServer("127.0.0.1:0", health).handler()

	code, status := getHealth(t, h)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "starting", status.Status)

	health.record(ports.AnalyzeResult{Total: 4}, nil)
	code, status = getHealth(t, h)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "up", status.Status)
	assert.Equal(t, 4, status.Findings)

	health.record(ports.AnalyzeResult{}, errors.New("bazel query failed"))
	code, status = getHealth(t, h)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "down", status.Status)
	assert.Equal(t, "bazel query failed", status.Error)
	assert.Equal(t, 4, status.Findings, "last good count is kept")
}

func TestMetricsEndpoint(t *testing.T) {
	h := NewObservabilityServer("127.0.0.1:0", newHealthTracker()).handler()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "moduledeps_")
}
