package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/dimitrije/adme-site/internal/forms"
	"github.com/dimitrije/adme-site/internal/models"
	"github.com/dimitrije/adme-site/internal/sanitize"
	"github.com/dimitrije/adme-site/pkg/dto"
	"github.com/m1z23r/drift/pkg/drift"
)

type ContactHandler struct {
	inquiries InquiryServiceInterface
	email     EmailServiceInterface
	hub       SSEHubInterface
	sanitizer *sanitize.Sanitizer
	notifyTo  string
}

func NewContactHandler(
	inquiries InquiryServiceInterface,
	email EmailServiceInterface,
	hub SSEHubInterface,
	sanitizer *sanitize.Sanitizer,
	notifyTo string,
) *ContactHandler {
	return &ContactHandler{
		inquiries: inquiries,
		email:     email,
		hub:       hub,
		sanitizer: sanitizer,
		notifyTo:  notifyTo,
	}
}

func (h *ContactHandler) Submit(c *drift.Context) {
	var req dto.ContactRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	form := forms.Contact{
		Name:    h.sanitizer.Text(req.Name),
		Email:   strings.TrimSpace(req.Email),
		Company: h.sanitizer.Text(req.Company),
		Phone:   h.sanitizer.Text(req.Phone),
		Subject: h.sanitizer.Text(req.Subject),
		Message: h.sanitizer.Text(req.Message),
	}
	if err := forms.Validate(form); err != nil {
		respondError(c, err, "invalid inquiry")
		return
	}

	inquiry, err := h.inquiries.Create(c.Request.Context(), &models.ContactInquiry{
		Name:    form.Name,
		Email:   form.Email,
		Company: optional(form.Company),
		Phone:   optional(form.Phone),
		Subject: optional(form.Subject),
		Message: form.Message,
	})
	if err != nil {
		respondError(c, err, "Failed to submit inquiry. Please try again.")
		return
	}

	if h.hub != nil {
		h.hub.BroadcastInquiryCreated(inquiry)
	}
	h.notify(inquiry)

	_ = c.JSON(http.StatusCreated, dto.ContactResponse{
		ID:      inquiry.ID,
		Message: "Thank you for your inquiry! We'll get back to you soon.",
	})
}

func (h *ContactHandler) notify(inquiry *models.ContactInquiry) {
	if h.email == nil || h.notifyTo == "" || !h.email.IsConfigured() {
		return
	}
	go func() {
		if err := h.email.SendInquiryNotification(h.notifyTo, inquiry); err != nil {
			slog.Error("failed to send inquiry notification",
				slog.String("op", "email.inquiry_notification"),
				slog.String("inquiry_id", inquiry.ID.String()),
				slog.String("error", err.Error()),
			)
		}
	}()
}

// optional maps blank form input to NULL.
func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
