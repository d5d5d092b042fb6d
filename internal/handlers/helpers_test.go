package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/dimitrije/adme-site/internal/apperr"
	"github.com/dimitrije/adme-site/internal/gotrue"
	"github.com/dimitrije/adme-site/internal/middleware"
	"github.com/dimitrije/adme-site/internal/models"
	"github.com/dimitrije/adme-site/internal/sanitize"
	"github.com/dimitrije/adme-site/tests/testutil"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	driftmw "github.com/m1z23r/drift/pkg/middleware"
	"github.com/stretchr/testify/mock"
)

// memProfiles is a profile store kept in memory. getErr and updateErr, when
// set, fail every read or update.
type memProfiles struct {
	mu        sync.Mutex
	rows      map[uuid.UUID]*models.Profile
	getErr    error
	updateErr error
}

func newMemProfiles() *memProfiles {
	return &memProfiles{rows: make(map[uuid.UUID]*models.Profile)}
}

func (m *memProfiles) GetByID(_ context.Context, id uuid.UUID) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	p, ok := m.rows[id]
	if !ok {
		return nil, apperr.New(apperr.KindNotFound, "profiles.get", "profile not found")
	}
	copied := *p
	return &copied, nil
}

func (m *memProfiles) Create(_ context.Context, p *models.Profile) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[p.ID]; ok {
		return nil, apperr.New(apperr.KindConflict, "profiles.create", "duplicate key")
	}
	copied := *p
	m.rows[p.ID] = &copied
	out := copied
	return &out, nil
}

func (m *memProfiles) Update(_ context.Context, id uuid.UUID, u models.ProfileUpdate) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	p, ok := m.rows[id]
	if !ok {
		return nil, apperr.New(apperr.KindNotFound, "profiles.update", "profile not found")
	}
	apply := func(dst **string, v *string) {
		if v == nil {
			return
		}
		if *v == "" {
			*dst = nil
			return
		}
		s := *v
		*dst = &s
	}
	apply(&p.FullName, u.FullName)
	apply(&p.CompanyName, u.CompanyName)
	apply(&p.Phone, u.Phone)
	apply(&p.AvatarURL, u.AvatarURL)
	out := *p
	return &out, nil
}

func (m *memProfiles) get(id uuid.UUID) *models.Profile {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[id]
}

func (m *memProfiles) put(p *models.Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[p.ID] = p
}

type authEnv struct {
	fake     *testutil.FakeGoTrue
	profiles *memProfiles
	hub      *testutil.MockSSEHub
	sessions *Sessions
	app      http.Handler
}

func newAuthEnv(t *testing.T) *authEnv {
	t.Helper()
	return newAuthEnvWith(t, func(*gotrue.API) *gotrue.Verifier {
		return gotrue.NewVerifier(testutil.TestJWTSecret)
	})
}

// newRemoteAuthEnv checks tokens against the fake auth service instead of a
// shared secret.
func newRemoteAuthEnv(t *testing.T) *authEnv {
	t.Helper()
	return newAuthEnvWith(t, func(api *gotrue.API) *gotrue.Verifier {
		return gotrue.NewVerifier("", gotrue.WithRemoteLookup(api))
	})
}

func newAuthEnvWith(t *testing.T, verifier func(*gotrue.API) *gotrue.Verifier) *authEnv {
	t.Helper()

	env := &authEnv{
		fake:     testutil.NewFakeGoTrue(t),
		profiles: newMemProfiles(),
		hub:      new(testutil.MockSSEHub),
	}
	env.hub.On("BroadcastAccountUpdate", mock.Anything).Maybe()

	api := env.fake.API()
	env.sessions = NewSessions(GoTrueClients(api), env.profiles, env.hub, nil)

	sanitizer := sanitize.New()
	authHandler := NewAuthHandler("https://adme.example", env.sessions, sanitizer)
	accountHandler := NewAccountHandler(env.sessions, sanitizer)

	app := drift.New()
	app.Use(driftmw.BodyParser())

	app.Get("/auth/callback", authHandler.Callback)
	app.Post("/api/v1/auth/signup", authHandler.SignUp)
	app.Post("/api/v1/auth/signin", authHandler.SignIn)
	app.Post("/api/v1/auth/password/reset", authHandler.RequestPasswordReset)

	protected := app.Group("/api/v1")
	protected.Use(middleware.Auth(verifier(api)))
	protected.Post("/auth/password/recover", accountHandler.UpdatePassword)
	protected.Post("/auth/signout", authHandler.SignOut)
	protected.Get("/account", accountHandler.Get)
	protected.Patch("/account/profile", accountHandler.UpdateProfile)
	protected.Post("/account/password", accountHandler.UpdatePassword)

	env.app = app
	return env
}

func (e *authEnv) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	return serve(t, e.app, method, path, body, headers)
}

func serve(t *testing.T, app http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	return testutil.NewHTTPTestClient(t, app).Request(method, path, body, headers)
}

// bearer returns headers carrying a valid access token for userID.
func bearer(t *testing.T, userID uuid.UUID) map[string]string {
	t.Helper()
	return map[string]string{
		"Authorization": testutil.AuthHeader(testutil.GenerateTestToken(t, userID, "user@example.com")),
	}
}

// signedIn registers a user with the fake auth service and returns the headers
// a signed-in browser sends.
func (e *authEnv) signedIn(t *testing.T, email string) (*testutil.FakeUser, map[string]string) {
	t.Helper()
	user := e.fake.AddUser(email, "correct-horse", map[string]any{"full_name": "Jane Doe"})
	access, refresh := e.fake.SessionFor(t, email)
	return user, map[string]string{
		"Authorization":               testutil.AuthHeader(access),
		middleware.RefreshTokenHeader: refresh,
	}
}

func strPtr(s string) *string {
	return &s
}
