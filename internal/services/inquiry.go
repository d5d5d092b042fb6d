package services

import (
	"context"
	"fmt"

	"github.com/dimitrije/adme-site/internal/apperr"
	"github.com/dimitrije/adme-site/internal/database"
	"github.com/dimitrije/adme-site/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const inquiryColumns = `id, name, email, company, phone, subject, message, status, priority, assigned_to, created_at, updated_at`

type InquiryService struct {
	db *database.DB
}

func NewInquiryService(db *database.DB) *InquiryService {
	return &InquiryService{db: db}
}

func scanInquiry(row pgx.Row) (*models.ContactInquiry, error) {
	var i models.ContactInquiry
	err := row.Scan(
		&i.ID, &i.Name, &i.Email, &i.Company, &i.Phone, &i.Subject, &i.Message,
		&i.Status, &i.Priority, &i.AssignedTo, &i.CreatedAt, &i.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

// Create stores a new lead. Status and priority always start as new/medium.
func (s *InquiryService) Create(ctx context.Context, in *models.ContactInquiry) (*models.ContactInquiry, error) {
	inquiry, err := scanInquiry(s.db.Pool.QueryRow(ctx, `
		INSERT INTO contact_inquiries (name, email, company, phone, subject, message, status, priority)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+inquiryColumns,
		in.Name, in.Email, in.Company, in.Phone, in.Subject, in.Message,
		models.InquiryStatusNew, models.InquiryPriorityMedium,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create inquiry: %w", classify("contact_inquiries.create", apperr.KindWriteFailure, err))
	}
	return inquiry, nil
}

func (s *InquiryService) List(ctx context.Context, filter models.InquiryFilter) ([]models.ContactInquiry, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+inquiryColumns+`
		FROM contact_inquiries
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2
	`, string(filter.Status), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list inquiries: %w", classify("contact_inquiries.list", apperr.KindUnknown, err))
	}
	defer rows.Close()

	inquiries := []models.ContactInquiry{}
	for rows.Next() {
		inquiry, err := scanInquiry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan inquiry: %w", err)
		}
		inquiries = append(inquiries, *inquiry)
	}
	return inquiries, rows.Err()
}

func (s *InquiryService) Update(ctx context.Context, id uuid.UUID, u models.InquiryUpdate) (*models.ContactInquiry, error) {
	inquiry, err := scanInquiry(s.db.Pool.QueryRow(ctx, `
		UPDATE contact_inquiries SET
			status = COALESCE($2, status),
			priority = COALESCE($3, priority),
			assigned_to = COALESCE($4, assigned_to),
			updated_at = NOW()
		WHERE id = $1
		RETURNING `+inquiryColumns,
		id, u.Status, u.Priority, u.AssignedTo,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to update inquiry: %w", classify("contact_inquiries.update", apperr.KindWriteFailure, err))
	}
	return inquiry, nil
}
