package dto

import (
	"github.com/dimitrije/adme-site/internal/models"
	"github.com/google/uuid"
)

type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Company string `json:"company"`
	Phone   string `json:"phone"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

type ContactResponse struct {
	ID      uuid.UUID `json:"id"`
	Message string    `json:"message"`
}

type UpdateInquiryRequest struct {
	Status     *models.InquiryStatus   `json:"status"`
	Priority   *models.InquiryPriority `json:"priority"`
	AssignedTo *uuid.UUID              `json:"assigned_to"`
}

type InquiryListResponse struct {
	Inquiries []models.ContactInquiry `json:"inquiries"`
}
