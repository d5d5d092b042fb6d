package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dimitrije/adme-site/internal/gotrue"
	"github.com/dimitrije/adme-site/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key"

func signTestToken(t *testing.T, secret string, userID uuid.UUID, email string, exp time.Time) string {
	t.Helper()
	claims := gotrue.Claims{
		Email: email,
		Role:  "authenticated",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func newAuthApp(verifier SessionVerifier, handler drift.HandlerFunc) http.Handler {
	app := drift.New()
	app.Use(Auth(verifier))
	app.Get("/protected", handler)
	return app
}

func okHandler(c *drift.Context) {
	_ = c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func TestAuth_MissingAuthorizationHeader(t *testing.T) {
	app := newAuthApp(gotrue.NewVerifier(testSecret), okHandler)

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/protected", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing authorization header")
}

func TestAuth_InvalidAuthorizationFormat(t *testing.T) {
	app := newAuthApp(gotrue.NewVerifier(testSecret), okHandler)

	for _, header := range []string{"Token some-token", "Bearer", "Bearer   "} {
		t.Run(header, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			req.Header.Set("Authorization", header)
			rec := httptest.NewRecorder()

			app.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), "invalid authorization header format")
		})
	}
}

func TestAuth_InvalidToken(t *testing.T) {
	app := newAuthApp(gotrue.NewVerifier(testSecret), okHandler)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer invalid-token")
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid or expired session")
}

func TestAuth_WrongSecret(t *testing.T) {
	token := signTestToken(t, "other-secret", uuid.New(), "jane@example.com", time.Now().Add(time.Hour))
	app := newAuthApp(gotrue.NewVerifier(testSecret), okHandler)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_ExpiredTokenWithoutRefresh(t *testing.T) {
	token := signTestToken(t, testSecret, uuid.New(), "jane@example.com", time.Now().Add(-time.Minute))
	app := newAuthApp(gotrue.NewVerifier(testSecret), okHandler)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_ExpiredTokenWithRefresh(t *testing.T) {
	userID := uuid.New()
	token := signTestToken(t, testSecret, userID, "jane@example.com", time.Now().Add(-time.Minute))

	var session *models.Session
	app := newAuthApp(gotrue.NewVerifier(testSecret), func(c *drift.Context) {
		session = GetSession(c)
		okHandler(c)
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set(RefreshTokenHeader, "refresh-123")
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, session)
	assert.Equal(t, "refresh-123", session.RefreshToken)
	assert.Equal(t, userID, session.User.ID)
}

func TestAuth_ValidToken(t *testing.T) {
	userID := uuid.New()
	token := signTestToken(t, testSecret, userID, "jane@example.com", time.Now().Add(time.Hour))

	var extractedUserID uuid.UUID
	var session *models.Session
	var presented string
	app := newAuthApp(gotrue.NewVerifier(testSecret), func(c *drift.Context) {
		extractedUserID = GetUserID(c)
		session = GetSession(c)
		presented = GetAccessToken(c)
		okHandler(c)
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID, extractedUserID)
	require.NotNil(t, session)
	assert.Equal(t, token, session.AccessToken)
	assert.Equal(t, token, presented)
	assert.Equal(t, "jane@example.com", session.User.Email)
}

func TestAuth_SelfSignedTokenWithoutSecret(t *testing.T) {
	token := signTestToken(t, "attacker-chosen-key", uuid.New(), "admin@example.com", time.Now().Add(time.Hour))
	app := newAuthApp(gotrue.NewVerifier(""), okHandler)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_BearerCaseInsensitive(t *testing.T) {
	token := signTestToken(t, testSecret, uuid.New(), "jane@example.com", time.Now().Add(time.Hour))
	app := newAuthApp(gotrue.NewVerifier(testSecret), okHandler)

	for _, bearer := range []string{"bearer", "BEARER", "BeArEr"} {
		t.Run(bearer, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			req.Header.Set("Authorization", bearer+" "+token)
			rec := httptest.NewRecorder()

			app.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}
}

func TestGetSession_NotSet(t *testing.T) {
	app := drift.New()
	var session *models.Session
	var userID uuid.UUID
	app.Get("/open", func(c *drift.Context) {
		session = GetSession(c)
		userID = GetUserID(c)
		okHandler(c)
	})

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/open", nil))

	assert.Nil(t, session)
	assert.Equal(t, uuid.Nil, userID)
}
