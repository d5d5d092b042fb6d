package postgrest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/dimitrije/adme-site/internal/apperr"
	"github.com/dimitrije/adme-site/internal/models"
	"github.com/google/uuid"
)

const tableInquiries = "contact_inquiries"

type InquiryStore struct {
	client *Client
}

func NewInquiryStore(client *Client) *InquiryStore {
	return &InquiryStore{client: client}
}

// Create stores a new lead with status new and priority medium.
func (s *InquiryStore) Create(ctx context.Context, in *models.ContactInquiry) (*models.ContactInquiry, error) {
	var inquiry models.ContactInquiry
	err := s.client.do(ctx, request{
		op:     "contact_inquiries.create",
		method: http.MethodPost,
		table:  tableInquiries,
		query:  url.Values{"select": {"*"}},
		body: map[string]any{
			"name":     in.Name,
			"email":    in.Email,
			"company":  in.Company,
			"phone":    in.Phone,
			"subject":  in.Subject,
			"message":  in.Message,
			"status":   models.InquiryStatusNew,
			"priority": models.InquiryPriorityMedium,
		},
		single:   true,
		returnIt: true,
		fallback: apperr.KindWriteFailure,
	}, &inquiry)
	if err != nil {
		return nil, fmt.Errorf("failed to create inquiry: %w", err)
	}
	return &inquiry, nil
}

func (s *InquiryStore) List(ctx context.Context, filter models.InquiryFilter) ([]models.ContactInquiry, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query := url.Values{
		"select": {"*"},
		"order":  {"created_at.desc"},
		"limit":  {strconv.Itoa(limit)},
	}
	if filter.Status != "" {
		query.Set("status", eq(filter.Status))
	}

	inquiries := []models.ContactInquiry{}
	err := s.client.do(ctx, request{
		op:     "contact_inquiries.list",
		method: http.MethodGet,
		table:  tableInquiries,
		query:  query,
	}, &inquiries)
	if err != nil {
		return nil, fmt.Errorf("failed to list inquiries: %w", err)
	}
	return inquiries, nil
}

func (s *InquiryStore) Update(ctx context.Context, id uuid.UUID, u models.InquiryUpdate) (*models.ContactInquiry, error) {
	patch := map[string]any{"updated_at": "now"}
	if u.Status != nil {
		patch["status"] = *u.Status
	}
	if u.Priority != nil {
		patch["priority"] = *u.Priority
	}
	if u.AssignedTo != nil {
		patch["assigned_to"] = *u.AssignedTo
	}

	var inquiry models.ContactInquiry
	err := s.client.do(ctx, request{
		op:       "contact_inquiries.update",
		method:   http.MethodPatch,
		table:    tableInquiries,
		query:    url.Values{"select": {"*"}, "id": {eq(id)}},
		body:     patch,
		single:   true,
		returnIt: true,
		fallback: apperr.KindWriteFailure,
	}, &inquiry)
	if err != nil {
		return nil, fmt.Errorf("failed to update inquiry: %w", err)
	}
	return &inquiry, nil
}
