package fallback

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dimitrije/adme-site/internal/apperr"
	"github.com/dimitrije/adme-site/internal/metrics"
	"github.com/dimitrije/adme-site/internal/models"
	"github.com/google/uuid"
)

type InquiryStore interface {
	Create(ctx context.Context, in *models.ContactInquiry) (*models.ContactInquiry, error)
	List(ctx context.Context, filter models.InquiryFilter) ([]models.ContactInquiry, error)
	Update(ctx context.Context, id uuid.UUID, u models.InquiryUpdate) (*models.ContactInquiry, error)
}

// Inquiries writes to the primary store and parks the lead locally when the
// primary is unreachable or has no inquiries table yet.
type Inquiries struct {
	primary InquiryStore
	local   *Store
	metrics metrics.Recorder
}

// NewInquiries wraps primary. A nil local store disables the fallback.
func NewInquiries(primary InquiryStore, local *Store, recorder metrics.Recorder) *Inquiries {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &Inquiries{primary: primary, local: local, metrics: recorder}
}

// Recoverable reports whether err is a failure the local store should absorb.
func Recoverable(err error) bool {
	return apperr.Is(err, apperr.KindNetworkOrTimeout) || errors.Is(err, apperr.ErrMissingTable)
}

func (f *Inquiries) Create(ctx context.Context, in *models.ContactInquiry) (*models.ContactInquiry, error) {
	inquiry, err := f.primary.Create(ctx, in)
	if err == nil {
		f.metrics.RecordInquiry(metrics.StorePrimary)
		return inquiry, nil
	}
	if f.local == nil || !Recoverable(err) {
		return nil, err
	}

	slog.Warn("primary inquiry store failed, keeping lead locally",
		slog.String("op", "contact_inquiries.create"),
		slog.String("kind", apperr.KindOf(err).String()),
		slog.String("error", err.Error()),
	)

	// The request context may be the one that just timed out.
	inquiry, localErr := f.local.Create(context.WithoutCancel(ctx), in)
	if localErr != nil {
		slog.Error("local inquiry store failed",
			slog.String("op", "fallback.create"),
			slog.String("error", localErr.Error()),
		)
		return nil, err
	}
	f.metrics.RecordInquiry(metrics.StoreFallback)
	return inquiry, nil
}

// List returns the primary's inquiries followed by any parked locally.
func (f *Inquiries) List(ctx context.Context, filter models.InquiryFilter) ([]models.ContactInquiry, error) {
	inquiries, err := f.primary.List(ctx, filter)
	if err != nil && (f.local == nil || !Recoverable(err)) {
		return nil, err
	}
	if f.local == nil {
		return inquiries, nil
	}

	parked, localErr := f.local.List(ctx, filter)
	if localErr != nil {
		if err != nil {
			return nil, err
		}
		slog.Warn("failed to list parked inquiries", slog.String("error", localErr.Error()))
		return inquiries, nil
	}
	if inquiries == nil {
		inquiries = []models.ContactInquiry{}
	}
	return append(inquiries, parked...), nil
}

// Update changes the inquiry wherever it lives.
func (f *Inquiries) Update(ctx context.Context, id uuid.UUID, u models.InquiryUpdate) (*models.ContactInquiry, error) {
	inquiry, err := f.primary.Update(ctx, id, u)
	if err == nil || f.local == nil {
		return inquiry, err
	}
	if !apperr.Is(err, apperr.KindNotFound) && !Recoverable(err) {
		return nil, err
	}

	inquiry, localErr := f.local.Update(ctx, id, u)
	if localErr != nil {
		return nil, err
	}
	return inquiry, nil
}
