//go:build !integration

package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adminhttp "proxy-admin-bot/internal/infra/http"
	"proxy-admin-bot/internal/infra/metrics"
)

func serve(t *testing.T, s *adminhttp.Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthz(t *testing.T) {
	log := zerolog.Nop()
	ok := adminhttp.Check{Name: "postgres", Ping: func(context.Context) error { return nil }}

	rec := serve(t, adminhttp.NewServer(0, &log, ok), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, map[string]string{"postgres": "ok"}, body)

	down := adminhttp.Check{Name: "redis", Ping: func(context.Context) error { return errors.New("connection refused") }}
	rec = serve(t, adminhttp.NewServer(0, &log, ok, down), "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "connection refused", body["redis"])
}

func TestMetricsEndpoint(t *testing.T) {
	metrics.MustRegister()
	metrics.IncWizardCommit("create", "ok")

	log := zerolog.Nop()
	rec := serve(t, adminhttp.NewServer(0, &log), "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "wizard")
}

func TestRecoverMiddleware(t *testing.T) {
	log := zerolog.Nop()
	h := adminhttp.Recover(&log)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestUnknownRoute(t *testing.T) {
	log := zerolog.Nop()
	assert.Equal(t, http.StatusNotFound, serve(t, adminhttp.NewServer(0, &log), "/nope").Code)
}
