package testutil

import (
	"context"

	"github.com/dimitrije/adme-site/internal/models"
	"github.com/dimitrije/adme-site/internal/sse"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockProfileService mocks the profile store
type MockProfileService struct {
	mock.Mock
}

func (m *MockProfileService) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockProfileService) Create(ctx context.Context, p *models.Profile) (*models.Profile, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockProfileService) Update(ctx context.Context, id uuid.UUID, u models.ProfileUpdate) (*models.Profile, error) {
	args := m.Called(ctx, id, u)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

// MockInquiryService mocks the contact inquiry store
type MockInquiryService struct {
	mock.Mock
}

func (m *MockInquiryService) Create(ctx context.Context, in *models.ContactInquiry) (*models.ContactInquiry, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ContactInquiry), args.Error(1)
}

func (m *MockInquiryService) List(ctx context.Context, filter models.InquiryFilter) ([]models.ContactInquiry, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ContactInquiry), args.Error(1)
}

func (m *MockInquiryService) Update(ctx context.Context, id uuid.UUID, u models.InquiryUpdate) (*models.ContactInquiry, error) {
	args := m.Called(ctx, id, u)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ContactInquiry), args.Error(1)
}

// MockCatalogService mocks the services catalogue
type MockCatalogService struct {
	mock.Mock
}

func (m *MockCatalogService) ListActive(ctx context.Context) ([]models.Service, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Service), args.Error(1)
}

func (m *MockCatalogService) GetByID(ctx context.Context, id uuid.UUID) (*models.Service, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Service), args.Error(1)
}

// MockProjectService mocks the project store
type MockProjectService struct {
	mock.Mock
}

func (m *MockProjectService) ListByClient(ctx context.Context, clientID uuid.UUID) ([]models.Project, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Project), args.Error(1)
}

func (m *MockProjectService) ListAll(ctx context.Context) ([]models.Project, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Project), args.Error(1)
}

func (m *MockProjectService) Create(ctx context.Context, p *models.Project) (*models.Project, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Project), args.Error(1)
}

func (m *MockProjectService) Update(ctx context.Context, id uuid.UUID, u models.ProjectUpdate) (*models.Project, error) {
	args := m.Called(ctx, id, u)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Project), args.Error(1)
}

// MockEmailService mocks the EmailService
type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) IsConfigured() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockEmailService) SendInquiryNotification(to string, inquiry *models.ContactInquiry) error {
	args := m.Called(to, inquiry)
	return args.Error(0)
}

// MockSSEHub mocks the SSE hub
type MockSSEHub struct {
	mock.Mock
}

func (m *MockSSEHub) Register(client *sse.Client) {
	m.Called(client)
}

func (m *MockSSEHub) Unregister(client *sse.Client) {
	m.Called(client)
}

func (m *MockSSEHub) BroadcastAccountUpdate(ev sse.AccountUpdatedEvent) {
	m.Called(ev)
}

func (m *MockSSEHub) BroadcastInquiryCreated(inquiry *models.ContactInquiry) {
	m.Called(inquiry)
}
