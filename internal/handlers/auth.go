package handlers

import (
	"bytes"
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dimitrije/adme-site/internal/forms"
	"github.com/dimitrije/adme-site/internal/middleware"
	"github.com/dimitrije/adme-site/internal/models"
	"github.com/dimitrije/adme-site/internal/sanitize"
	"github.com/dimitrije/adme-site/internal/sse"
	"github.com/dimitrije/adme-site/pkg/dto"
	"github.com/m1z23r/drift/pkg/drift"
)

const callbackPath = "/auth/callback"

type AuthHandler struct {
	siteURL   string
	sessions  *Sessions
	sanitizer *sanitize.Sanitizer
}

func NewAuthHandler(siteURL string, sessions *Sessions, sanitizer *sanitize.Sanitizer) *AuthHandler {
	return &AuthHandler{
		siteURL:   strings.TrimRight(siteURL, "/"),
		sessions:  sessions,
		sanitizer: sanitizer,
	}
}

func (h *AuthHandler) callbackURL() string {
	return h.siteURL + callbackPath
}

func (h *AuthHandler) SignUp(c *drift.Context) {
	var req dto.SignUpRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	form := forms.SignUp{
		Email:           strings.TrimSpace(req.Email),
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		FullName:        h.sanitizer.Text(req.FullName),
		CompanyName:     h.sanitizer.Text(req.CompanyName),
	}
	if err := forms.Validate(form); err != nil {
		respondError(c, err, "invalid sign-up details")
		return
	}

	metadata := map[string]any{}
	if form.FullName != "" {
		metadata["full_name"] = form.FullName
	}
	if form.CompanyName != "" {
		metadata["company_name"] = form.CompanyName
	}

	scope := h.sessions.open(nil, "")
	defer scope.Close()

	ctx := c.Request.Context()
	result, err := scope.client.SignUp(ctx, form.Email, form.Password, metadata, h.callbackURL())
	if err != nil {
		respondError(c, err, "failed to sign up")
		return
	}

	// With confirmation on there is no session and so no SIGNED_IN event;
	// create the profile now so it exists when the user first signs in.
	if result.Session == nil && result.User != nil {
		scope.sync.SyncProfile(ctx, result.User)
	}

	_ = c.JSON(http.StatusCreated, dto.AuthResponse{
		User:                 dto.NewUserResponse(result.User),
		Session:              dto.NewTokenResponse(result.Session),
		Profile:              dto.NewProfileResponse(scope.sync.State().Profile),
		ConfirmationRequired: result.Session == nil,
	})
}

func (h *AuthHandler) SignIn(c *drift.Context) {
	var req dto.SignInRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	form := forms.SignIn{Email: strings.TrimSpace(req.Email), Password: req.Password}
	if err := forms.Validate(form); err != nil {
		respondError(c, err, "invalid sign-in details")
		return
	}

	scope := h.sessions.open(nil, "")
	defer scope.Close()

	session, err := scope.client.SignInWithPassword(c.Request.Context(), form.Email, form.Password)
	if err != nil {
		respondError(c, err, "failed to sign in")
		return
	}

	// The sign-in event has already synchronised the profile. A profile that
	// failed to load does not fail the sign-in; the account page reports it.
	_ = c.JSON(http.StatusOK, dto.AuthResponse{
		User:    dto.NewUserResponse(session.User),
		Session: dto.NewTokenResponse(session),
		Profile: dto.NewProfileResponse(scope.sync.State().Profile),
	})
}

func (h *AuthHandler) SignOut(c *drift.Context) {
	session := middleware.GetSession(c)
	if session == nil {
		c.Unauthorized("not authenticated")
		return
	}

	scope := h.sessions.open(session, middleware.GetAccessToken(c))
	defer scope.Close()

	// The local session is gone either way; a failed remote revoke is logged
	// by the client.
	_ = scope.client.SignOut(c.Request.Context())

	if h.sessions.hub != nil {
		h.sessions.hub.BroadcastAccountUpdate(sse.AccountUpdatedEvent{
			UserID: session.User.ID,
			Phase:  "anonymous",
		})
	}

	_ = c.JSON(http.StatusOK, dto.MessageResponse{Message: "signed out"})
}

func (h *AuthHandler) RequestPasswordReset(c *drift.Context) {
	var req dto.PasswordResetRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	form := forms.PasswordReset{Email: strings.TrimSpace(req.Email)}
	if err := forms.Validate(form); err != nil {
		respondError(c, err, "invalid email")
		return
	}

	scope := h.sessions.open(nil, "")
	defer scope.Close()

	if err := scope.client.ResetPasswordForEmail(c.Request.Context(), form.Email, h.callbackURL()); err != nil {
		respondError(c, err, "failed to send password reset email")
		return
	}

	_ = c.JSON(http.StatusOK, dto.MessageResponse{
		Message: "If an account exists for that address, a password reset link is on its way.",
	})
}

// Callback is where confirmation and recovery links land. The code is
// exchanged here and the page hands the new session to the browser.
func (h *AuthHandler) Callback(c *drift.Context) {
	if desc := c.QueryParam("error_description"); desc != "" || c.QueryParam("error") != "" {
		slog.Warn("auth callback returned an error",
			slog.String("op", "auth.callback"),
			slog.String("error", c.QueryParam("error")),
			slog.String("description", desc),
		)
		h.renderCallbackPage(c, callbackPage{Failed: true})
		return
	}

	code := c.QueryParam("code")
	flowID := c.QueryParam("flow")
	if code == "" || flowID == "" {
		h.renderCallbackPage(c, callbackPage{Failed: true})
		return
	}

	scope := h.sessions.open(nil, "")
	defer scope.Close()

	event := models.AuthEventSignedIn
	unsubscribe := scope.client.OnAuthStateChange(func(e models.AuthEvent, _ *models.Session) {
		event = e
	})
	defer unsubscribe()

	session, err := scope.client.ExchangeCodeForSession(c.Request.Context(), flowID, code)
	if err != nil {
		slog.Warn("auth code exchange failed",
			slog.String("op", "auth.callback"),
			slog.String("error", err.Error()),
		)
		h.renderCallbackPage(c, callbackPage{Failed: true})
		return
	}

	redirect := "/dashboard"
	if event == models.AuthEventPasswordRecovery {
		redirect = "/auth/reset-password"
	}

	sessionJSON, err := json.Marshal(dto.NewTokenResponse(session))
	if err != nil {
		h.renderCallbackPage(c, callbackPage{Failed: true})
		return
	}

	h.renderCallbackPage(c, callbackPage{
		Recovery: event == models.AuthEventPasswordRecovery,
		Session:  template.JS(sessionJSON),
		Redirect: redirect,
	})
}

type callbackPage struct {
	Failed   bool
	Recovery bool
	Session  template.JS
	Redirect string
}

var callbackTemplate = template.Must(template.New("callback").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{if .Failed}}Authentication Error{{else}}Signing you in{{end}}</title>
    <style>
        * { box-sizing: border-box; }
        body { font-family: system-ui, -apple-system, sans-serif; background: #f9fafb; color: #374151; margin: 0; padding: 40px 20px; min-height: 100vh; }
        .container { max-width: 400px; margin: 0 auto; background: #fff; border: 1px solid #e5e7eb; border-radius: 8px; padding: 40px 32px; text-align: center; }
        h1 { font-size: 20px; font-weight: 600; margin: 0 0 8px 0; }
        h1.error { color: #991b1b; }
        .subtitle { color: #6b7280; font-size: 14px; margin: 0 0 16px 0; }
        a { color: #2563eb; font-size: 14px; }
    </style>
</head>
<body>
    <div class="container">
    {{if .Failed}}
        <h1 class="error">Authentication Error</h1>
        <p class="subtitle">Authentication failed or link expired. Please try logging in again.</p>
        <a href="/">Return to Home</a>
    {{else}}
        <h1>{{if .Recovery}}Almost there{{else}}Logging you in...{{end}}</h1>
        <p class="subtitle">{{if .Recovery}}Taking you to choose a new password.{{else}}Please wait while we confirm your email and log you in.{{end}}</p>
    {{end}}
    </div>
    {{if not .Failed}}
    <script>
        window.localStorage.setItem("adme.session", JSON.stringify({{.Session}}));
        window.location.replace({{.Redirect}});
    </script>
    {{end}}
</body>
</html>`))

func (h *AuthHandler) renderCallbackPage(c *drift.Context, page callbackPage) {
	status := http.StatusOK
	if page.Failed {
		status = http.StatusBadRequest
	}

	var buf bytes.Buffer
	if err := callbackTemplate.Execute(&buf, page); err != nil {
		c.InternalServerError("failed to render page")
		return
	}
	_ = c.HTML(status, buf.String())
}
