// Package fallback keeps contact-form leads in a local SQLite file when the
// hosted storage cannot take them.
package fallback

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dimitrije/adme-site/internal/apperr"
	"github.com/dimitrije/adme-site/internal/models"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS contact_inquiries (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL,
	company TEXT,
	phone TEXT,
	subject TEXT,
	message TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'new',
	priority TEXT NOT NULL DEFAULT 'medium',
	assigned_to TEXT,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
)`

const inquiryColumns = `id, name, email, company, phone, subject, message, status, priority, assigned_to, created_at, updated_at`

// Store persists inquiries in SQLite.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens (creating if needed) the SQLite file at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := path
	if path != ":memory:" {
		dsn = filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One connection keeps :memory: databases alive and serialises writers.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.sqlDB.PingContext(ctx)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInquiry(row scanner) (*models.ContactInquiry, error) {
	var (
		inquiry              models.ContactInquiry
		id                   string
		assignedTo           sql.NullString
		createdAt, updatedAt int64
		company, phone, subj sql.NullString
		status, priority     string
	)
	err := row.Scan(&id, &inquiry.Name, &inquiry.Email, &company, &phone, &subj, &inquiry.Message,
		&status, &priority, &assignedTo, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if inquiry.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid inquiry id %q: %w", id, err)
	}
	if assignedTo.Valid {
		assignee, err := uuid.Parse(assignedTo.String)
		if err != nil {
			return nil, fmt.Errorf("invalid assignee %q: %w", assignedTo.String, err)
		}
		inquiry.AssignedTo = &assignee
	}
	inquiry.Company = nullToPtr(company)
	inquiry.Phone = nullToPtr(phone)
	inquiry.Subject = nullToPtr(subj)
	inquiry.Status = models.InquiryStatus(status)
	inquiry.Priority = models.InquiryPriority(priority)
	inquiry.CreatedAt = fromMillis(createdAt)
	inquiry.UpdatedAt = fromMillis(updatedAt)
	return &inquiry, nil
}

func nullToPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

func (s *Store) Create(ctx context.Context, in *models.ContactInquiry) (*models.ContactInquiry, error) {
	now := s.now()
	inquiry := *in
	inquiry.ID = uuid.New()
	inquiry.Status = models.InquiryStatusNew
	inquiry.Priority = models.InquiryPriorityMedium
	inquiry.AssignedTo = nil
	inquiry.CreatedAt = fromMillis(toMillis(now))
	inquiry.UpdatedAt = inquiry.CreatedAt

	_, err := s.sqlDB.ExecContext(ctx, `
		INSERT INTO contact_inquiries (`+inquiryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, NULL, ?, ?)`,
		inquiry.ID.String(), inquiry.Name, inquiry.Email, inquiry.Company, inquiry.Phone, inquiry.Subject,
		inquiry.Message, string(inquiry.Status), string(inquiry.Priority), toMillis(now), toMillis(now),
	)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindWriteFailure, "fallback.create", err)
	}
	return &inquiry, nil
}

func (s *Store) List(ctx context.Context, filter models.InquiryFilter) ([]models.ContactInquiry, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
		SELECT `+inquiryColumns+`
		FROM contact_inquiries
		WHERE (? = '' OR status = ?)
		ORDER BY created_at DESC
		LIMIT ?`,
		string(filter.Status), string(filter.Status), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list inquiries: %w", err)
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

func (s *Store) Update(ctx context.Context, id uuid.UUID, u models.InquiryUpdate) (*models.ContactInquiry, error) {
	var status, priority, assignee *string
	if u.Status != nil {
		v := string(*u.Status)
		status = &v
	}
	if u.Priority != nil {
		v := string(*u.Priority)
		priority = &v
	}
	if u.AssignedTo != nil {
		v := u.AssignedTo.String()
		assignee = &v
	}

	row := s.sqlDB.QueryRowContext(ctx, `
		UPDATE contact_inquiries SET
			status = COALESCE(?, status),
			priority = COALESCE(?, priority),
			assigned_to = COALESCE(?, assigned_to),
			updated_at = ?
		WHERE id = ?
		RETURNING `+inquiryColumns,
		status, priority, assignee, toMillis(s.now()), id.String(),
	)
	inquiry, err := scanInquiry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.Wrap(apperr.KindNotFound, "fallback.update", err)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindWriteFailure, "fallback.update", err)
	}
	return inquiry, nil
}
