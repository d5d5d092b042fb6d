package gotrue

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/dimitrije/adme-site/internal/apperr"
)

// The auth service has used both shapes over time.
type errorResponse struct {
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (e errorResponse) text() string {
	for _, s := range []string{e.Msg, e.ErrorDescription, e.Message, e.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

func decodeError(op string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var body errorResponse
	_ = json.Unmarshal(raw, &body)

	msg := body.text()
	if msg == "" {
		msg = fmt.Sprintf("auth service returned status %d", resp.StatusCode)
	}

	return &apperr.Error{
		Kind:    kindForStatus(resp.StatusCode),
		Op:      op,
		Message: msg,
		Err:     fmt.Errorf("status %d: %s", resp.StatusCode, body.ErrorCode),
	}
}

func kindForStatus(status int) apperr.Kind {
	switch {
	case status == http.StatusNotFound:
		return apperr.KindNotFound
	case status == http.StatusConflict:
		return apperr.KindConflict
	case status == http.StatusBadGateway, status == http.StatusServiceUnavailable, status == http.StatusGatewayTimeout:
		return apperr.KindNetworkOrTimeout
	case status >= 400 && status < 500:
		return apperr.KindAuthFailure
	default:
		return apperr.KindUnknown
	}
}
