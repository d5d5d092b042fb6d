package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/dimitrije/adme-site/internal/apperr"
	"github.com/dimitrije/adme-site/pkg/dto"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDiagnosticsApp(h *DiagnosticsHandler) http.Handler {
	app := drift.New()
	app.Get("/health", h.Health)
	app.Get("/api/v1/diagnostics", h.Diagnostics)
	return app
}

func TestDiagnosticsHandler_Health(t *testing.T) {
	rec := serve(t, newDiagnosticsApp(NewDiagnosticsHandler()), http.MethodGet, "/health", nil, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestDiagnosticsHandler_AllPassing(t *testing.T) {
	h := NewDiagnosticsHandler(
		Check{Name: "config", Run: func(context.Context) error { return nil }},
		Check{Name: "auth", Run: func(context.Context) error { return nil }},
	)

	rec := serve(t, newDiagnosticsApp(h), http.MethodGet, "/api/v1/diagnostics", nil, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp dto.DiagnosticsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	require.Len(t, resp.Checks, 2)
	assert.Equal(t, "config", resp.Checks[0].Name)
	assert.Equal(t, "auth", resp.Checks[1].Name)
}

func TestDiagnosticsHandler_FailingCheck(t *testing.T) {
	h := NewDiagnosticsHandler(
		Check{Name: "config", Run: func(context.Context) error {
			return apperr.New(apperr.KindConfigurationMissing, "config", "SUPABASE_URL is not set")
		}},
		Check{Name: "profiles", Run: func(context.Context) error { return nil }},
	)

	rec := serve(t, newDiagnosticsApp(h), http.MethodGet, "/api/v1/diagnostics", nil, nil)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var resp dto.DiagnosticsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.OK)
	assert.False(t, resp.Checks[0].OK)
	assert.Equal(t, "configuration_missing: SUPABASE_URL is not set", resp.Checks[0].Message)
	assert.True(t, resp.Checks[1].OK)
}

func TestDiagnosticsHandler_HangingCheckTimesOut(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	h := NewDiagnosticsHandler(
		Check{Name: "auth", Run: func(ctx context.Context) error {
			<-release
			return errors.New("too late")
		}},
	)
	h.timeout = 20 * time.Millisecond

	start := time.Now()
	rec := serve(t, newDiagnosticsApp(h), http.MethodGet, "/api/v1/diagnostics", nil, nil)

	assert.Less(t, time.Since(start), time.Second)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "network_or_timeout")
}
