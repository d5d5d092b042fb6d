package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dimitrije/adme-site/internal/gotrue"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TestJWTSecret signs every token issued by FakeGoTrue.
const TestJWTSecret = "test-secret-key-for-testing-only"

// TestAnonKey is the anon key FakeGoTrue expects.
const TestAnonKey = "test-anon-key"

// FakeUser is an identity registered with FakeGoTrue.
type FakeUser struct {
	ID       uuid.UUID
	Email    string
	Password string
	Metadata map[string]any
}

// FakeGoTrue is an in-memory auth service speaking the REST API the gotrue
// package calls.
type FakeGoTrue struct {
	Server *httptest.Server

	// ConfirmEmail makes sign-up return the bare user instead of a session.
	ConfirmEmail bool

	mu            sync.Mutex
	users         map[string]*FakeUser
	refreshTokens map[string]uuid.UUID
	codes         map[string]uuid.UUID
	requests      map[string]int
	lastRedirect  string
}

// NewFakeGoTrue starts a FakeGoTrue and stops it when t ends.
func NewFakeGoTrue(t *testing.T) *FakeGoTrue {
	t.Helper()
	f := &FakeGoTrue{
		users:         make(map[string]*FakeUser),
		refreshTokens: make(map[string]uuid.UUID),
		codes:         make(map[string]uuid.UUID),
		requests:      make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/v1/signup", f.signUp)
	mux.HandleFunc("POST /auth/v1/token", f.token)
	mux.HandleFunc("POST /auth/v1/logout", f.logout)
	mux.HandleFunc("GET /auth/v1/user", f.getUser)
	mux.HandleFunc("PUT /auth/v1/user", f.updateUser)
	mux.HandleFunc("POST /auth/v1/recover", f.recover)
	mux.HandleFunc("GET /auth/v1/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"name": "GoTrue"})
	})

	f.Server = httptest.NewServer(f.count(mux))
	t.Cleanup(f.Server.Close)
	return f
}

// API returns a gotrue.API pointed at the fake.
func (f *FakeGoTrue) API(opts ...gotrue.Option) *gotrue.API {
	return gotrue.NewAPI(f.Server.URL, TestAnonKey, opts...)
}

func (f *FakeGoTrue) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests[r.URL.Path]++
		f.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

// Requests returns how many calls reached path, or every path when path is "".
func (f *FakeGoTrue) Requests(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if path != "" {
		return f.requests[path]
	}
	total := 0
	for _, n := range f.requests {
		total += n
	}
	return total
}

// LastRedirect is the redirect_to of the latest sign-up or recovery request.
func (f *FakeGoTrue) LastRedirect() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastRedirect
}

// AddUser registers an identity directly.
func (f *FakeGoTrue) AddUser(email, password string, metadata map[string]any) *FakeUser {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := &FakeUser{ID: uuid.New(), Email: email, Password: password, Metadata: metadata}
	f.users[email] = u
	return u
}

func (f *FakeGoTrue) User(email string) *FakeUser {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users[email]
}

// IssueCode returns an auth code the pkce grant accepts for email.
func (f *FakeGoTrue) IssueCode(email string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	code := uuid.NewString()
	f.codes[code] = f.users[email].ID
	return code
}

// SessionFor issues access and refresh tokens for email as sign-in would.
func (f *FakeGoTrue) SessionFor(t *testing.T, email string) (access, refresh string) {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[email]
	if !ok {
		t.Fatalf("unknown fake user %s", email)
	}
	resp := f.issue(u)
	return resp["access_token"].(string), resp["refresh_token"].(string)
}

func (f *FakeGoTrue) userByID(id uuid.UUID) *FakeUser {
	for _, u := range f.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func userJSON(u *FakeUser) map[string]any {
	return map[string]any{
		"id":            u.ID,
		"email":         u.Email,
		"user_metadata": u.Metadata,
		"created_at":    time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC),
	}
}

// issue must be called with f.mu held.
func (f *FakeGoTrue) issue(u *FakeUser) map[string]any {
	exp := time.Now().Add(time.Hour)
	refresh := uuid.NewString()
	f.refreshTokens[refresh] = u.ID
	return map[string]any{
		"access_token":  SignAccessToken(u.ID, u.Email, u.Metadata, exp),
		"token_type":    "bearer",
		"expires_in":    3600,
		"expires_at":    exp.Unix(),
		"refresh_token": refresh,
		"user":          userJSON(u),
	}
}

// SignAccessToken builds an access token the way the auth service does.
func SignAccessToken(userID uuid.UUID, email string, metadata map[string]any, exp time.Time) string {
	claims := gotrue.Claims{
		Email:        email,
		Role:         "authenticated",
		UserMetadata: metadata,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(TestJWTSecret))
	if err != nil {
		panic(fmt.Sprintf("failed to sign test token: %v", err))
	}
	return token
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, map[string]any{"code": status, "error_code": code, "msg": msg})
}

func (f *FakeGoTrue) signUp(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string         `json:"email"`
		Password string         `json:"password"`
		Data     map[string]any `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid body")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastRedirect = r.URL.Query().Get("redirect_to")

	if _, exists := f.users[body.Email]; exists {
		writeError(w, http.StatusUnprocessableEntity, "user_already_exists", "User already registered")
		return
	}
	u := &FakeUser{ID: uuid.New(), Email: body.Email, Password: body.Password, Metadata: body.Data}
	f.users[body.Email] = u

	if f.ConfirmEmail {
		writeJSON(w, http.StatusOK, userJSON(u))
		return
	}
	writeJSON(w, http.StatusOK, f.issue(u))
}

func (f *FakeGoTrue) token(w http.ResponseWriter, r *http.Request) {
	var body map[string]string
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid body")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.URL.Query().Get("grant_type") {
	case "password":
		u, ok := f.users[body["email"]]
		if !ok || u.Password != body["password"] {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error":             "invalid_grant",
				"error_description": "Invalid login credentials",
			})
			return
		}
		writeJSON(w, http.StatusOK, f.issue(u))

	case "refresh_token":
		id, ok := f.refreshTokens[body["refresh_token"]]
		if !ok {
			writeError(w, http.StatusBadRequest, "refresh_token_not_found", "Invalid Refresh Token: Refresh Token Not Found")
			return
		}
		delete(f.refreshTokens, body["refresh_token"])
		writeJSON(w, http.StatusOK, f.issue(f.userByID(id)))

	case "pkce":
		id, ok := f.codes[body["auth_code"]]
		if !ok || body["code_verifier"] == "" {
			writeError(w, http.StatusNotFound, "flow_state_not_found", "invalid flow state, no valid flow state found")
			return
		}
		delete(f.codes, body["auth_code"])
		writeJSON(w, http.StatusOK, f.issue(f.userByID(id)))

	default:
		writeError(w, http.StatusBadRequest, "unsupported_grant_type", "unsupported grant type")
	}
}

// bearerUser must be called with f.mu held.
func (f *FakeGoTrue) bearerUser(r *http.Request) *FakeUser {
	raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	claims := &gotrue.Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return []byte(TestJWTSecret), nil
	})
	if err != nil {
		return nil
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil
	}
	return f.userByID(id)
}

func (f *FakeGoTrue) logout(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (f *FakeGoTrue) getUser(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.bearerUser(r)
	if u == nil {
		writeError(w, http.StatusUnauthorized, "bad_jwt", "invalid JWT")
		return
	}
	writeJSON(w, http.StatusOK, userJSON(u))
}

func (f *FakeGoTrue) updateUser(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid body")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.bearerUser(r)
	if u == nil {
		writeError(w, http.StatusUnauthorized, "bad_jwt", "invalid JWT")
		return
	}
	if pw, ok := body["password"].(string); ok {
		if pw == u.Password {
			writeError(w, http.StatusUnprocessableEntity, "same_password",
				"New password should be different from the old password.")
			return
		}
		u.Password = pw
	}
	writeJSON(w, http.StatusOK, userJSON(u))
}

func (f *FakeGoTrue) recover(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.lastRedirect = r.URL.Query().Get("redirect_to")
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{})
}
