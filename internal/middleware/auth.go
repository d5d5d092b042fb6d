package middleware

import (
	"context"
	"strings"

	"github.com/dimitrije/adme-site/internal/models"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

const (
	SessionKey     = "session"
	UserIDKey      = "user_id"
	AccessTokenKey = "access_token"

	// RefreshTokenHeader carries the refresh token next to the bearer access
	// token so an expiring session can be renewed during the request.
	RefreshTokenHeader = "X-Refresh-Token"
)

type SessionVerifier interface {
	Session(ctx context.Context, accessToken, refreshToken string) (*models.Session, error)
}

func Auth(verifier SessionVerifier) drift.HandlerFunc {
	return func(c *drift.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Unauthorized("missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || strings.TrimSpace(parts[1]) == "" {
			c.Unauthorized("invalid authorization header format")
			return
		}

		presented := strings.TrimSpace(parts[1])
		session, err := verifier.Session(c.Request.Context(), presented, strings.TrimSpace(c.GetHeader(RefreshTokenHeader)))
		if err != nil {
			c.Unauthorized("invalid or expired session")
			return
		}

		c.Set(SessionKey, session)
		c.Set(AccessTokenKey, presented)
		c.Set(UserIDKey, session.User.ID)

		c.Next()
	}
}

func GetSession(c *drift.Context) *models.Session {
	if s, ok := c.Get(SessionKey); ok {
		if session, ok := s.(*models.Session); ok {
			return session
		}
	}
	return nil
}

// GetAccessToken returns the access token the browser sent. It differs from
// the session's token when the session was renewed during verification.
func GetAccessToken(c *drift.Context) string {
	if t, ok := c.Get(AccessTokenKey); ok {
		if token, ok := t.(string); ok {
			return token
		}
	}
	return ""
}

func GetUserID(c *drift.Context) uuid.UUID {
	if id, ok := c.Get(UserIDKey); ok {
		if uid, ok := id.(uuid.UUID); ok {
			return uid
		}
	}
	return uuid.Nil
}
