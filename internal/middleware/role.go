package middleware

import (
	"context"
	"log/slog"

	"github.com/dimitrije/adme-site/internal/apperr"
	"github.com/dimitrije/adme-site/internal/models"
	"github.com/dimitrije/adme-site/internal/postgrest"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

const ProfileKey = "profile"

type ProfileReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
}

// RequireRole lets the request through only when the caller's profile has one
// of roles. It must run after Auth.
func RequireRole(profiles ProfileReader, roles ...models.Role) drift.HandlerFunc {
	return func(c *drift.Context) {
		session := GetSession(c)
		if session == nil {
			c.Unauthorized("not authenticated")
			return
		}

		ctx := postgrest.WithAccessToken(c.Request.Context(), session.AccessToken)
		profile, err := profiles.GetByID(ctx, session.User.ID)
		if err != nil {
			if apperr.Is(err, apperr.KindNotFound) {
				c.Forbidden("insufficient role")
				return
			}
			slog.Error("role lookup failed",
				slog.String("op", "middleware.require_role"),
				slog.String("user_id", session.User.ID.String()),
				slog.String("kind", apperr.KindOf(err).String()),
				slog.String("error", err.Error()))
			c.InternalServerError("failed to load profile")
			return
		}

		if !profile.HasAnyRole(roles...) {
			c.Forbidden("insufficient role")
			return
		}

		c.Set(ProfileKey, profile)
		c.Next()
	}
}

func GetProfile(c *drift.Context) *models.Profile {
	if p, ok := c.Get(ProfileKey); ok {
		if profile, ok := p.(*models.Profile); ok {
			return profile
		}
	}
	return nil
}
