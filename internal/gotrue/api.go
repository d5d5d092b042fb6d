// Package gotrue is a client for the hosted auth service's REST API.
//
// API is stateless and shared by the whole process. Client wraps an API with
// one browser's session: it owns the session storage, refreshes tokens and
// publishes auth events to its listeners.
package gotrue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dimitrije/adme-site/internal/apperr"
	"github.com/dimitrije/adme-site/internal/models"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

type API struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
	flows      *FlowStore
	now        func() time.Time
}

type Option func(*API)

func WithHTTPClient(c *http.Client) Option {
	return func(a *API) { a.httpClient = c }
}

func WithFlowStore(f *FlowStore) Option {
	return func(a *API) { a.flows = f }
}

func WithClock(now func() time.Time) Option {
	return func(a *API) { a.now = now }
}

// NewAPI talks to the auth endpoints under projectURL/auth/v1.
func NewAPI(projectURL, anonKey string, opts ...Option) *API {
	a := &API{
		baseURL:    strings.TrimRight(projectURL, "/") + "/auth/v1",
		anonKey:    anonKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.flows == nil {
		a.flows = NewFlowStore(DefaultFlowTTL)
	}
	return a
}

// Flows exposes the pending PKCE flows so the caller can run their cleanup loop.
func (a *API) Flows() *FlowStore {
	return a.flows
}

type userResponse struct {
	ID           uuid.UUID      `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata"`
	CreatedAt    time.Time      `json:"created_at"`
}

func (u *userResponse) identity() *models.Identity {
	if u == nil || u.ID == uuid.Nil {
		return nil
	}
	return &models.Identity{
		ID:           u.ID,
		Email:        u.Email,
		UserMetadata: u.UserMetadata,
		CreatedAt:    u.CreatedAt,
	}
}

type tokenResponse struct {
	AccessToken  string        `json:"access_token"`
	TokenType    string        `json:"token_type"`
	ExpiresIn    int64         `json:"expires_in"`
	ExpiresAt    int64         `json:"expires_at"`
	RefreshToken string        `json:"refresh_token"`
	User         *userResponse `json:"user"`
}

func (t *tokenResponse) session(now time.Time) *models.Session {
	if t.AccessToken == "" {
		return nil
	}
	expiresAt := t.ExpiresAt
	if expiresAt == 0 && t.ExpiresIn > 0 {
		expiresAt = now.Add(time.Duration(t.ExpiresIn) * time.Second).Unix()
	}
	return &models.Session{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    t.TokenType,
		ExpiresIn:    t.ExpiresIn,
		ExpiresAt:    expiresAt,
		User:         t.User.identity(),
	}
}

// Sign-up answers with a session when e-mail confirmation is off and with the
// bare user otherwise.
type signUpResponse struct {
	tokenResponse
	userResponse
}

// SignUpResult carries the new identity and, when no confirmation is
// required, its first session.
type SignUpResult struct {
	User    *models.Identity
	Session *models.Session
}

func (a *API) signUp(ctx context.Context, email, password string, metadata map[string]any, redirectTo string) (*SignUpResult, error) {
	body := map[string]any{
		"email":    email,
		"password": password,
		"data":     metadata,
	}

	query := url.Values{}
	if redirectTo != "" {
		challenge, target := a.startFlow(redirectTo, models.AuthEventSignedIn)
		body["code_challenge"] = challenge
		body["code_challenge_method"] = "s256"
		query.Set("redirect_to", target)
	}

	var resp signUpResponse
	if err := a.do(ctx, "auth.sign_up", http.MethodPost, "/signup", query, "", body, &resp); err != nil {
		return nil, err
	}

	result := &SignUpResult{Session: resp.tokenResponse.session(a.now())}
	if result.Session != nil {
		result.User = result.Session.User
	} else {
		result.User = resp.userResponse.identity()
	}
	return result, nil
}

func (a *API) token(ctx context.Context, op, grantType string, body any) (*models.Session, error) {
	query := url.Values{"grant_type": {grantType}}

	var resp tokenResponse
	if err := a.do(ctx, op, http.MethodPost, "/token", query, "", body, &resp); err != nil {
		return nil, err
	}

	session := resp.session(a.now())
	if session == nil {
		return nil, apperr.New(apperr.KindUnknown, op, "auth service returned no session")
	}
	return session, nil
}

func (a *API) signInWithPassword(ctx context.Context, email, password string) (*models.Session, error) {
	return a.token(ctx, "auth.sign_in", "password", map[string]string{
		"email":    email,
		"password": password,
	})
}

func (a *API) refresh(ctx context.Context, refreshToken string) (*models.Session, error) {
	return a.token(ctx, "auth.refresh", "refresh_token", map[string]string{
		"refresh_token": refreshToken,
	})
}

func (a *API) logout(ctx context.Context, accessToken string) error {
	return a.do(ctx, "auth.sign_out", http.MethodPost, "/logout", nil, accessToken, nil, nil)
}

func (a *API) user(ctx context.Context, accessToken string) (*models.Identity, error) {
	var resp userResponse
	if err := a.do(ctx, "auth.get_user", http.MethodGet, "/user", nil, accessToken, nil, &resp); err != nil {
		return nil, err
	}
	return resp.identity(), nil
}

func (a *API) updateUser(ctx context.Context, accessToken string, attrs map[string]any) (*models.Identity, error) {
	var resp userResponse
	if err := a.do(ctx, "auth.update_user", http.MethodPut, "/user", nil, accessToken, attrs, &resp); err != nil {
		return nil, err
	}
	return resp.identity(), nil
}

// ResetPasswordForEmail sends a recovery link. The link comes back to
// redirectTo with a flow id the callback uses to finish the exchange.
func (a *API) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	body := map[string]any{"email": email}
	query := url.Values{}
	if redirectTo != "" {
		challenge, target := a.startFlow(redirectTo, models.AuthEventPasswordRecovery)
		body["code_challenge"] = challenge
		body["code_challenge_method"] = "s256"
		query.Set("redirect_to", target)
	}

	return a.do(ctx, "auth.reset_password", http.MethodPost, "/recover", query, "", body, nil)
}

func (a *API) startFlow(redirectTo string, event models.AuthEvent) (challenge, target string) {
	verifier := oauth2.GenerateVerifier()
	flowID := a.flows.put(verifier, event)
	return oauth2.S256ChallengeFromVerifier(verifier), withQuery(redirectTo, FlowParam, flowID)
}

func (a *API) exchangeCode(ctx context.Context, flowID, code string) (*models.Session, models.AuthEvent, error) {
	pending, ok := a.flows.take(flowID)
	if !ok {
		return nil, "", apperr.New(apperr.KindAuthFailure, "auth.exchange_code", "the link is invalid or has expired")
	}

	session, err := a.token(ctx, "auth.exchange_code", "pkce", map[string]string{
		"auth_code":     code,
		"code_verifier": pending.verifier,
	})
	if err != nil {
		return nil, "", err
	}
	return session, pending.event, nil
}

// Health pings the auth service.
func (a *API) Health(ctx context.Context) error {
	return a.do(ctx, "auth.health", http.MethodGet, "/health", nil, "", nil, nil)
}

func (a *API) do(ctx context.Context, op, method, path string, query url.Values, accessToken string, body, out any) error {
	target := a.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("apikey", a.anonKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	bearer := a.anonKey
	if accessToken != "" {
		bearer = accessToken
	}
	req.Header.Set("Authorization", "Bearer "+bearer)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return apperr.FromTransport(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeError(op, resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return apperr.Wrap(apperr.KindUnknown, op, fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}

func withQuery(raw, key, value string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}
