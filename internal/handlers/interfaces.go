package handlers

import (
	"context"

	"github.com/dimitrije/adme-site/internal/gotrue"
	"github.com/dimitrije/adme-site/internal/models"
	"github.com/dimitrije/adme-site/internal/sse"
	"github.com/google/uuid"
)

// AuthClient is one browser's connection to the auth service.
type AuthClient interface {
	GetSession(ctx context.Context) (*models.Session, error)
	OnAuthStateChange(l models.AuthListener) func()
	SignUp(ctx context.Context, email, password string, metadata map[string]any, redirectTo string) (*gotrue.SignUpResult, error)
	SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error)
	SignOut(ctx context.Context) error
	UpdatePassword(ctx context.Context, password string) (*models.Identity, error)
	ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error
	ExchangeCodeForSession(ctx context.Context, flowID, code string) (*models.Session, error)
}

// AuthClientFactory opens an AuthClient over storage. Handlers create one per
// request, seeded with the tokens the browser sent.
type AuthClientFactory func(storage gotrue.Storage) AuthClient

// GoTrueClients adapts api to an AuthClientFactory.
func GoTrueClients(api *gotrue.API) AuthClientFactory {
	return func(storage gotrue.Storage) AuthClient {
		return api.NewClient(storage)
	}
}

// ProfileServiceInterface defines the profile operations used by handlers
type ProfileServiceInterface interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	Create(ctx context.Context, p *models.Profile) (*models.Profile, error)
	Update(ctx context.Context, id uuid.UUID, u models.ProfileUpdate) (*models.Profile, error)
}

// InquiryServiceInterface defines the contact inquiry operations used by handlers
type InquiryServiceInterface interface {
	Create(ctx context.Context, in *models.ContactInquiry) (*models.ContactInquiry, error)
	List(ctx context.Context, filter models.InquiryFilter) ([]models.ContactInquiry, error)
	Update(ctx context.Context, id uuid.UUID, u models.InquiryUpdate) (*models.ContactInquiry, error)
}

// CatalogServiceInterface defines the services catalogue operations used by handlers
type CatalogServiceInterface interface {
	ListActive(ctx context.Context) ([]models.Service, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Service, error)
}

// ProjectServiceInterface defines the project operations used by handlers
type ProjectServiceInterface interface {
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]models.Project, error)
	ListAll(ctx context.Context) ([]models.Project, error)
	Create(ctx context.Context, p *models.Project) (*models.Project, error)
	Update(ctx context.Context, id uuid.UUID, u models.ProjectUpdate) (*models.Project, error)
}

// EmailServiceInterface defines the notification methods used by handlers
type EmailServiceInterface interface {
	IsConfigured() bool
	SendInquiryNotification(to string, inquiry *models.ContactInquiry) error
}

// SSEHubInterface defines the hub methods used by handlers
type SSEHubInterface interface {
	Register(client *sse.Client)
	Unregister(client *sse.Client)
	BroadcastAccountUpdate(ev sse.AccountUpdatedEvent)
	BroadcastInquiryCreated(inquiry *models.ContactInquiry)
}
