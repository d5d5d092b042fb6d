package handlers

import (
	"log/slog"
	"net/http"

	"github.com/dimitrije/adme-site/internal/apperr"
	"github.com/dimitrije/adme-site/pkg/dto"
	"github.com/m1z23r/drift/pkg/drift"
)

// statusFor maps an error kind to the HTTP status returned to the browser.
func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindAuthFailure:
		return http.StatusUnauthorized
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindConfigurationMissing:
		return http.StatusServiceUnavailable
	case apperr.KindNetworkOrTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as a dto.ErrorResponse. Messages from validation and
// the auth service are shown as they are; everything else gets fallback.
func respondError(c *drift.Context, err error, fallback string) {
	kind := apperr.KindOf(err)
	message := fallback
	switch kind {
	case apperr.KindValidation, apperr.KindAuthFailure, apperr.KindConflict:
		message = apperr.Message(err)
	case apperr.KindNetworkOrTimeout:
		message = "the service did not respond in time, please try again"
	}

	status := statusFor(kind)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed",
			slog.String("path", c.Request.URL.Path),
			slog.String("kind", kind.String()),
			slog.String("error", err.Error()),
		)
	}

	_ = c.JSON(status, dto.ErrorResponse{
		Error:   kind.String(),
		Message: message,
	})
}
