package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/dimitrije/adme-site/internal/apperr"
	"github.com/dimitrije/adme-site/pkg/dto"
	"github.com/m1z23r/drift/pkg/drift"
)

// CheckTimeout bounds every diagnostic check on its own.
const CheckTimeout = 5 * time.Second

// Check is one connectivity probe reported by the diagnostics endpoint.
type Check struct {
	Name string
	Run  func(ctx context.Context) error
}

type DiagnosticsHandler struct {
	checks  []Check
	timeout time.Duration
}

func NewDiagnosticsHandler(checks ...Check) *DiagnosticsHandler {
	return &DiagnosticsHandler{checks: checks, timeout: CheckTimeout}
}

func (h *DiagnosticsHandler) Health(c *drift.Context) {
	_ = c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Diagnostics runs every check in order. A check that hangs fails after the
// timeout instead of holding up the others.
func (h *DiagnosticsHandler) Diagnostics(c *drift.Context) {
	resp := dto.DiagnosticsResponse{OK: true, Checks: make([]dto.CheckResult, 0, len(h.checks))}

	for _, check := range h.checks {
		result := h.run(c.Request.Context(), check)
		if !result.OK {
			resp.OK = false
		}
		resp.Checks = append(resp.Checks, result)
	}

	status := http.StatusOK
	if !resp.OK {
		status = http.StatusServiceUnavailable
	}
	_ = c.JSON(status, resp)
}

func (h *DiagnosticsHandler) run(parent context.Context, check Check) dto.CheckResult {
	ctx, cancel := context.WithTimeout(parent, h.timeout)
	defer cancel()

	start := time.Now()
	errCh := make(chan error, 1)
	go func() {
		errCh <- check.Run(ctx)
	}()

	var err error
	select {
	case err = <-errCh:
	case <-ctx.Done():
		err = apperr.Wrap(apperr.KindNetworkOrTimeout, check.Name, ctx.Err())
	}

	result := dto.CheckResult{
		Name:    check.Name,
		OK:      err == nil,
		Elapsed: time.Since(start).Round(time.Millisecond).String(),
	}
	if err != nil {
		result.Message = apperr.KindOf(err).String() + ": " + apperr.Message(err)
	}
	return result
}
