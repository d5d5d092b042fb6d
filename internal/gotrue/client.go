package gotrue

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dimitrije/adme-site/internal/apperr"
	"github.com/dimitrije/adme-site/internal/models"
)

// RefreshMargin is how close to expiry a stored session is refreshed.
const RefreshMargin = 60 * time.Second

type subscription struct {
	id int
	fn models.AuthListener
}

// Client is one browser's view of the auth service. Listeners are called
// synchronously, in registration order, from the goroutine that caused the
// event.
type Client struct {
	api     *API
	storage Storage

	mu        sync.Mutex
	listeners []subscription
	nextID    int
}

func (a *API) NewClient(storage Storage) *Client {
	return &Client{api: a, storage: storage}
}

// OnAuthStateChange registers l and returns a function that removes it.
func (c *Client) OnAuthStateChange(l models.AuthListener) func() {
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.listeners = append(c.listeners, subscription{id: id, fn: l})
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			for i, s := range c.listeners {
				if s.id == id {
					c.listeners = append(c.listeners[:i:i], c.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

func (c *Client) emit(event models.AuthEvent, session *models.Session) {
	c.mu.Lock()
	listeners := make([]subscription, len(c.listeners))
	copy(listeners, c.listeners)
	c.mu.Unlock()

	for _, s := range listeners {
		s.fn(event, session)
	}
}

func (c *Client) signedIn(event models.AuthEvent, session *models.Session) {
	c.storage.Save(session)
	c.emit(event, session)
}

func (c *Client) signedOut() {
	c.storage.Clear()
	c.emit(models.AuthEventSignedOut, nil)
}

// GetSession returns the stored session, refreshing it first when it is about
// to expire. A rejected refresh signs the browser out.
func (c *Client) GetSession(ctx context.Context) (*models.Session, error) {
	session := c.storage.Load()
	if session == nil {
		return nil, nil
	}
	if !session.Expired(c.api.now(), RefreshMargin) {
		return session, nil
	}

	if session.RefreshToken == "" {
		c.signedOut()
		return nil, apperr.New(apperr.KindAuthFailure, "auth.get_session", "session expired")
	}

	refreshed, err := c.api.refresh(ctx, session.RefreshToken)
	if err != nil {
		if apperr.Is(err, apperr.KindAuthFailure) {
			c.signedOut()
		}
		return nil, err
	}
	if refreshed.User == nil {
		refreshed.User = session.User
	}

	c.storage.Save(refreshed)
	c.emit(models.AuthEventTokenRefreshed, refreshed)
	return refreshed, nil
}

// SignUp registers a new identity. redirectTo is where the confirmation link
// lands; leave it empty when confirmation is disabled.
func (c *Client) SignUp(ctx context.Context, email, password string, metadata map[string]any, redirectTo string) (*SignUpResult, error) {
	result, err := c.api.signUp(ctx, email, password, metadata, redirectTo)
	if err != nil {
		return nil, err
	}
	if result.Session != nil {
		c.signedIn(models.AuthEventSignedIn, result.Session)
	}
	return result, nil
}

func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error) {
	session, err := c.api.signInWithPassword(ctx, email, password)
	if err != nil {
		return nil, err
	}
	c.signedIn(models.AuthEventSignedIn, session)
	return session, nil
}

// SignOut revokes the session remotely and always forgets it locally. The
// remote error, if any, is returned after the local state is cleared.
func (c *Client) SignOut(ctx context.Context) error {
	var err error
	if session := c.storage.Load(); session != nil {
		if err = c.api.logout(ctx, session.AccessToken); err != nil {
			slog.Warn("remote sign-out failed",
				slog.String("op", "auth.sign_out"),
				slog.String("kind", apperr.KindOf(err).String()),
				slog.String("error", err.Error()),
			)
		}
	}
	c.signedOut()
	return err
}

func (c *Client) currentSession(ctx context.Context, op string) (*models.Session, error) {
	session, err := c.GetSession(ctx)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, apperr.New(apperr.KindAuthFailure, op, "not signed in")
	}
	return session, nil
}

func (c *Client) GetUser(ctx context.Context) (*models.Identity, error) {
	session, err := c.currentSession(ctx, "auth.get_user")
	if err != nil {
		return nil, err
	}
	return c.api.user(ctx, session.AccessToken)
}

func (c *Client) UpdatePassword(ctx context.Context, password string) (*models.Identity, error) {
	session, err := c.currentSession(ctx, "auth.update_password")
	if err != nil {
		return nil, err
	}

	user, err := c.api.updateUser(ctx, session.AccessToken, map[string]any{"password": password})
	if err != nil {
		return nil, err
	}

	updated := *session
	if user != nil {
		updated.User = user
	}
	c.signedIn(models.AuthEventUserUpdated, &updated)
	return user, nil
}

func (c *Client) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	return c.api.ResetPasswordForEmail(ctx, email, redirectTo)
}

// ExchangeCodeForSession finishes an e-mail link flow. Recovery links emit
// PASSWORD_RECOVERY, confirmation links SIGNED_IN.
func (c *Client) ExchangeCodeForSession(ctx context.Context, flowID, code string) (*models.Session, error) {
	session, event, err := c.api.exchangeCode(ctx, flowID, code)
	if err != nil {
		return nil, err
	}
	c.signedIn(event, session)
	return session, nil
}
