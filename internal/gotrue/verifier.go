package gotrue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dimitrije/adme-site/internal/apperr"
	"github.com/dimitrije/adme-site/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the payload of an access token issued by the auth service.
type Claims struct {
	Email        string         `json:"email"`
	Role         string         `json:"role"`
	SessionID    string         `json:"session_id"`
	UserMetadata map[string]any `json:"user_metadata"`
	jwt.RegisteredClaims
}

// Verifier turns the tokens a browser presents into a session. With a secret
// it checks the HS256 signature locally. Without one every token is resolved
// through the auth service, and a verifier with neither rejects everything.
type Verifier struct {
	secret []byte
	remote *API
	now    func() time.Time
}

type VerifierOption func(*Verifier)

// WithRemoteLookup makes the auth service the authority for tokens when no
// secret is configured.
func WithRemoteLookup(api *API) VerifierOption {
	return func(v *Verifier) { v.remote = api }
}

var errNoVerification = errors.New("no signing secret and no auth service to verify tokens")

func NewVerifier(secret string, opts ...VerifierOption) *Verifier {
	v := &Verifier{now: time.Now}
	if secret != "" {
		v.secret = []byte(secret)
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *Verifier) parse(accessToken string) (*Claims, error) {
	claims := &Claims{}

	// Expiry is checked by the caller so an expired token can still be
	// refreshed. Unverified claims never leave this package as an identity.
	if v.secret == nil {
		if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
			return nil, fmt.Errorf("failed to parse token: %w", err)
		}
		return claims, nil
	}

	token, err := jwt.ParseWithClaims(accessToken, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithoutClaimsValidation())
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// Session builds the session a browser holds. An expired access token is only
// accepted together with a refresh token.
func (v *Verifier) Session(ctx context.Context, accessToken, refreshToken string) (*models.Session, error) {
	const op = "auth.verify"

	if v.secret == nil && v.remote == nil {
		return nil, apperr.Wrap(apperr.KindAuthFailure, op, errNoVerification)
	}

	claims, err := v.parse(accessToken)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindAuthFailure, op, err)
	}

	if v.secret == nil {
		return v.resolve(ctx, claims, accessToken, refreshToken)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindAuthFailure, op, fmt.Errorf("invalid user id in token: %w", err))
	}

	session := &models.Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		User: &models.Identity{
			ID:           userID,
			Email:        claims.Email,
			UserMetadata: claims.UserMetadata,
		},
	}
	v.stamp(session, claims)

	if session.Expired(v.now(), 0) && refreshToken == "" {
		return nil, apperr.New(apperr.KindAuthFailure, op, "session expired")
	}
	return session, nil
}

// resolve asks the auth service who owns the token. An expired token cannot
// be looked up, so it is renewed with the refresh token instead and the
// renewed session is returned.
func (v *Verifier) resolve(ctx context.Context, claims *Claims, accessToken, refreshToken string) (*models.Session, error) {
	const op = "auth.verify"

	session := &models.Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
	}
	v.stamp(session, claims)

	if session.Expired(v.now(), 0) {
		if refreshToken == "" {
			return nil, apperr.New(apperr.KindAuthFailure, op, "session expired")
		}
		renewed, err := v.remote.refresh(ctx, refreshToken)
		if err != nil {
			return nil, err
		}
		if renewed.User == nil {
			return nil, apperr.New(apperr.KindAuthFailure, op, "refresh returned no user")
		}
		return renewed, nil
	}

	identity, err := v.remote.user(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	if identity == nil {
		return nil, apperr.New(apperr.KindAuthFailure, op, "token has no user")
	}
	session.User = identity
	return session, nil
}

func (v *Verifier) stamp(session *models.Session, claims *Claims) {
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Unix()
		session.ExpiresIn = int64(claims.ExpiresAt.Time.Sub(v.now()).Seconds())
	}
}
