package handlers

import (
	"context"

	"github.com/dimitrije/adme-site/internal/account"
	"github.com/dimitrije/adme-site/internal/apperr"
	"github.com/dimitrije/adme-site/internal/gotrue"
	"github.com/dimitrije/adme-site/internal/metrics"
	"github.com/dimitrije/adme-site/internal/models"
	"github.com/dimitrije/adme-site/internal/postgrest"
	"github.com/dimitrije/adme-site/internal/sse"
	"github.com/dimitrije/adme-site/pkg/dto"
	"github.com/google/uuid"
)

// Sessions opens a per-request view of one browser's account: an auth client
// seeded with the browser's tokens and a synchronizer listening to it.
type Sessions struct {
	clients  AuthClientFactory
	profiles ProfileServiceInterface
	hub      SSEHubInterface
	metrics  metrics.Recorder
}

func NewSessions(clients AuthClientFactory, profiles ProfileServiceInterface, hub SSEHubInterface, recorder metrics.Recorder) *Sessions {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &Sessions{
		clients:  clients,
		profiles: profiles,
		hub:      hub,
		metrics:  recorder,
	}
}

type accountScope struct {
	client  AuthClient
	storage gotrue.Storage
	sync    *account.Synchronizer
	issued  string
}

// open builds the scope for session. issued is the access token the browser
// currently holds; when it differs from the scope's token at the end of the
// request the browser is handed the new pair.
func (s *Sessions) open(session *models.Session, issued string) *accountScope {
	storage := gotrue.NewMemoryStorage(session)
	client := s.clients(storage)

	scope := &accountScope{
		client:  client,
		storage: storage,
		sync: account.New(client, sessionProfiles{store: s.profiles, storage: storage},
			account.WithMetrics(s.metrics)),
		issued: issued,
	}
	if session != nil && issued == "" {
		scope.issued = session.AccessToken
	}
	if s.hub != nil {
		scope.sync.Subscribe(broadcastSettled(s.hub))
	}
	return scope
}

func (a *accountScope) Close() {
	a.sync.Close()
}

// refreshed returns the tokens the browser should store when the session was
// renewed while serving the request.
func (a *accountScope) refreshed() *dto.TokenResponse {
	current := a.storage.Load()
	if current == nil || current.AccessToken == a.issued {
		return nil
	}
	return dto.NewTokenResponse(current)
}

// context runs table API calls as the scope's current session.
func (a *accountScope) context(ctx context.Context) context.Context {
	return withSession(ctx, a.storage)
}

func withSession(ctx context.Context, storage gotrue.Storage) context.Context {
	if s := storage.Load(); s != nil {
		return postgrest.WithAccessToken(ctx, s.AccessToken)
	}
	return ctx
}

// sessionProfiles reads the access token at call time, so a refresh in the
// middle of a request is picked up by the calls that follow it.
type sessionProfiles struct {
	store   ProfileServiceInterface
	storage gotrue.Storage
}

func (p sessionProfiles) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	return p.store.GetByID(withSession(ctx, p.storage), id)
}

func (p sessionProfiles) Create(ctx context.Context, profile *models.Profile) (*models.Profile, error) {
	return p.store.Create(withSession(ctx, p.storage), profile)
}

func (p sessionProfiles) Update(ctx context.Context, id uuid.UUID, u models.ProfileUpdate) (*models.Profile, error) {
	return p.store.Update(withSession(ctx, p.storage), id, u)
}

// broadcastSettled pushes every settled account state to the user's other
// open tabs.
func broadcastSettled(hub SSEHubInterface) account.Observer {
	return func(st account.State) {
		if st.Loading || st.User == nil {
			return
		}
		ev := sse.AccountUpdatedEvent{
			UserID:  st.User.ID,
			Phase:   st.Phase.String(),
			Profile: st.Profile,
		}
		if st.Err != nil {
			ev.Error = apperr.KindOf(st.Err).String()
		}
		hub.BroadcastAccountUpdate(ev)
	}
}
