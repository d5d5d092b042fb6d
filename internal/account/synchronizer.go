// Package account keeps the signed-in identity, its session and its profile
// row consistent with the auth service, creating the profile on first sight.
package account

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/dimitrije/adme-site/internal/apperr"
	"github.com/dimitrije/adme-site/internal/metrics"
	"github.com/dimitrije/adme-site/internal/models"
	"github.com/google/uuid"
)

// Auth is the part of the auth service the synchronizer listens to.
type Auth interface {
	GetSession(ctx context.Context) (*models.Session, error)
	OnAuthStateChange(l models.AuthListener) func()
}

type ProfileStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	Create(ctx context.Context, p *models.Profile) (*models.Profile, error)
	Update(ctx context.Context, id uuid.UUID, u models.ProfileUpdate) (*models.Profile, error)
}

type observerEntry struct {
	id int
	fn Observer
}

type Synchronizer struct {
	auth     Auth
	profiles ProfileStore
	metrics  metrics.Recorder
	logger   *slog.Logger

	// ctx scopes work started by auth events; Close cancels it.
	ctx         context.Context
	cancel      context.CancelFunc
	unsubscribe func()

	mu        sync.Mutex
	state     State
	closed    bool
	observers []observerEntry
	nextID    int
}

type Option func(*Synchronizer)

func WithMetrics(r metrics.Recorder) Option {
	return func(s *Synchronizer) { s.metrics = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Synchronizer) { s.logger = l }
}

// New subscribes to auth's events straight away. Call Close when done.
func New(auth Auth, profiles ProfileStore, opts ...Option) *Synchronizer {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Synchronizer{
		auth:     auth,
		profiles: profiles,
		metrics:  metrics.Nop{},
		logger:   slog.Default(),
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.unsubscribe = auth.OnAuthStateChange(func(event models.AuthEvent, session *models.Session) {
		s.OnAuthEvent(s.ctx, event, session)
	})
	return s
}

// Close stops listening. State changes from calls still in flight are dropped.
func (s *Synchronizer) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.observers = nil
	s.mu.Unlock()

	s.unsubscribe()
	s.cancel()
}

func (s *Synchronizer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers o and returns a function that removes it.
func (s *Synchronizer) Subscribe(o Observer) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return func() {}
	}
	s.nextID++
	id := s.nextID
	s.observers = append(s.observers, observerEntry{id: id, fn: o})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, e := range s.observers {
			if e.id == id {
				s.observers = append(s.observers[:i:i], s.observers[i+1:]...)
				return
			}
		}
	}
}

// apply runs fn under the lock and notifies observers. fn returns false to
// leave the state untouched.
func (s *Synchronizer) apply(fn func(st *State) bool) bool {
	s.mu.Lock()
	if s.closed || !fn(&s.state) {
		s.mu.Unlock()
		return false
	}
	snapshot := s.state
	observers := make([]observerEntry, len(s.observers))
	copy(observers, s.observers)
	s.mu.Unlock()

	for _, o := range observers {
		o.fn(snapshot)
	}
	return true
}

// forIdentity guards writes that belong to one identity's sync.
func forIdentity(id uuid.UUID, fn func(st *State)) func(st *State) bool {
	return func(st *State) bool {
		if st.User == nil || st.User.ID != id {
			return false
		}
		fn(st)
		return true
	}
}

func signedOut(st *State) bool {
	*st = State{Phase: PhaseAnonymous}
	return true
}

// Bootstrap loads the current session and, if there is one, its profile. It
// never retries; a failure is left in State().Err.
func (s *Synchronizer) Bootstrap(ctx context.Context) {
	s.apply(func(st *State) bool {
		st.Loading = true
		st.Phase = PhaseLoading
		return true
	})

	session, err := s.auth.GetSession(ctx)
	if err != nil {
		s.logFailure("auth.get_session", uuid.Nil, err)
		s.apply(func(st *State) bool {
			*st = State{Phase: PhaseAnonymous, Err: err}
			return true
		})
		return
	}

	if session == nil || session.User == nil {
		s.apply(signedOut)
		return
	}

	alreadySynced := false
	s.apply(func(st *State) bool {
		alreadySynced = st.Profile != nil && st.Profile.ID == session.User.ID && st.Phase == PhaseAuthenticated
		st.Session = session
		st.User = session.User
		if alreadySynced {
			st.Loading = false
		}
		return true
	})
	if !alreadySynced {
		s.SyncProfile(ctx, session.User)
	}
}

// OnAuthEvent applies an auth event. Any event that carries a user re-reads
// that user's profile; sign-out clears everything.
func (s *Synchronizer) OnAuthEvent(ctx context.Context, event models.AuthEvent, session *models.Session) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return
	}
	s.metrics.RecordAuthEvent(string(event))

	if event == models.AuthEventSignedOut || session == nil || session.User == nil {
		s.apply(signedOut)
		return
	}

	s.apply(func(st *State) bool {
		if st.User != nil && st.User.ID != session.User.ID {
			st.Profile = nil
		}
		st.Session = session
		st.User = session.User
		return true
	})
	s.SyncProfile(ctx, session.User)
}

// SyncProfile makes sure identity has a profile row and loads it. A missing
// row, reported either as not found or as an empty result, is created with
// role client.
func (s *Synchronizer) SyncProfile(ctx context.Context, identity *models.Identity) *models.Profile {
	if identity == nil {
		return nil
	}
	id := identity.ID

	s.apply(forIdentity(id, func(st *State) {
		st.Loading = true
		st.Phase = PhaseLoading
	}))

	profile, err := s.fetchOrCreate(ctx, identity)
	if err != nil {
		s.metrics.RecordProfileSync(metrics.SyncError)
		s.metrics.RecordRemoteFailure(apperr.KindOf(err).String())
		s.apply(forIdentity(id, func(st *State) {
			st.Profile = nil
			st.Err = err
			st.Loading = false
			st.Phase = PhaseProfileError
		}))
		return nil
	}

	s.apply(forIdentity(id, func(st *State) {
		st.Profile = profile
		st.Err = nil
		st.Loading = false
		st.Phase = PhaseAuthenticated
	}))
	return profile
}

func (s *Synchronizer) fetchOrCreate(ctx context.Context, identity *models.Identity) (*models.Profile, error) {
	profile, err := s.profiles.GetByID(ctx, identity.ID)
	switch {
	case err == nil && profile != nil:
		s.metrics.RecordProfileSync(metrics.SyncFound)
		return profile, nil
	case err != nil && !apperr.Is(err, apperr.KindNotFound):
		s.logFailure("profiles.get", identity.ID, err)
		return nil, err
	}

	s.logger.Info("profile missing, creating it", slog.String("user_id", identity.ID.String()))

	created, err := s.profiles.Create(ctx, newProfile(identity))
	if err == nil && created != nil {
		s.metrics.RecordProfileSync(metrics.SyncCreated)
		return created, nil
	}

	if apperr.Is(err, apperr.KindConflict) {
		// Someone else created it between our read and write.
		existing, readErr := s.profiles.GetByID(ctx, identity.ID)
		if readErr == nil && existing != nil {
			s.metrics.RecordProfileSync(metrics.SyncFound)
			return existing, nil
		}
		if readErr != nil {
			err = readErr
		}
	}
	if err == nil {
		err = apperr.New(apperr.KindWriteFailure, "profiles.create", "profile was not returned")
	}

	s.logFailure("profiles.create", identity.ID, err)
	return nil, err
}

func newProfile(identity *models.Identity) *models.Profile {
	return &models.Profile{
		ID:          identity.ID,
		Email:       identity.Email,
		FullName:    optional(identity.FullName()),
		CompanyName: optional(identity.CompanyName()),
		Role:        models.RoleClient,
	}
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

// UpdateProfile writes u for the signed-in identity. The local profile is
// replaced by the row the store returns; on any failure nil is returned and
// local state is left as it was.
func (s *Synchronizer) UpdateProfile(ctx context.Context, u models.ProfileUpdate) *models.Profile {
	profile, _ := s.Update(ctx, u)
	return profile
}

// Update is UpdateProfile with the failure kept: AuthFailure without a
// signed-in identity, NotFound when the store returned no row, otherwise the
// store's error.
func (s *Synchronizer) Update(ctx context.Context, u models.ProfileUpdate) (*models.Profile, error) {
	const op = "profiles.update"

	user := s.State().User
	if user == nil {
		s.logger.Warn("profile update without a signed-in user", slog.String("op", op))
		return nil, apperr.New(apperr.KindAuthFailure, op, "not signed in")
	}

	profile, err := s.profiles.Update(ctx, user.ID, u)
	if err != nil {
		s.metrics.RecordRemoteFailure(apperr.KindOf(err).String())
		s.logFailure(op, user.ID, err)
		return nil, err
	}
	if profile == nil {
		return nil, apperr.New(apperr.KindNotFound, op, "profile not found")
	}

	s.apply(forIdentity(user.ID, func(st *State) {
		st.Profile = profile
		st.Err = nil
		st.Phase = PhaseAuthenticated
	}))
	return profile, nil
}

func (s *Synchronizer) logFailure(op string, userID uuid.UUID, err error) {
	attrs := []any{
		slog.String("op", op),
		slog.String("kind", apperr.KindOf(err).String()),
		slog.String("error", err.Error()),
	}
	if userID != uuid.Nil {
		attrs = append(attrs, slog.String("user_id", userID.String()))
	}
	s.logger.Error("remote call failed", attrs...)
}
