package postgrest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/dimitrije/adme-site/internal/apperr"
)

const (
	codeNoRows         = "PGRST116"
	codeTableNotCached = "PGRST205"
	codeJWTExpired     = "PGRST301"
	codeUniqueViolate  = "23505"
	codeUndefinedTable = "42P01"
	codeInsufficient   = "42501"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func decodeError(op string, fallback apperr.Kind, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var body errorResponse
	_ = json.Unmarshal(raw, &body)
	if body.Message == "" {
		body.Message = fmt.Sprintf("storage service returned status %d", resp.StatusCode)
	}
	cause := fmt.Errorf("status %d: %s %s", resp.StatusCode, body.Code, body.Details)

	switch {
	case body.Code == codeNoRows:
		return &apperr.Error{Kind: apperr.KindNotFound, Op: op, Message: body.Message, Err: cause}
	case body.Code == codeUniqueViolate:
		return &apperr.Error{Kind: apperr.KindConflict, Op: op, Message: body.Message, Err: cause}
	case body.Code == codeUndefinedTable || body.Code == codeTableNotCached:
		return &apperr.Error{Kind: fallback, Op: op, Message: body.Message, Err: fmt.Errorf("%w: %w", apperr.ErrMissingTable, cause)}
	case body.Code == codeJWTExpired || body.Code == codeInsufficient,
		resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return &apperr.Error{Kind: apperr.KindAuthFailure, Op: op, Message: body.Message, Err: cause}
	case resp.StatusCode == http.StatusBadGateway, resp.StatusCode == http.StatusServiceUnavailable,
		resp.StatusCode == http.StatusGatewayTimeout:
		return &apperr.Error{Kind: apperr.KindNetworkOrTimeout, Op: op, Message: body.Message, Err: cause}
	default:
		return &apperr.Error{Kind: fallback, Op: op, Message: body.Message, Err: cause}
	}
}
