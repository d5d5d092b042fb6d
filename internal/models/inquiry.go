package models

import (
	"time"

	"github.com/google/uuid"
)

type InquiryStatus string

const (
	InquiryStatusNew       InquiryStatus = "new"
	InquiryStatusContacted InquiryStatus = "contacted"
	InquiryStatusConverted InquiryStatus = "converted"
	InquiryStatusClosed    InquiryStatus = "closed"
)

func (s InquiryStatus) Valid() bool {
	switch s {
	case InquiryStatusNew, InquiryStatusContacted, InquiryStatusConverted, InquiryStatusClosed:
		return true
	}
	return false
}

type InquiryPriority string

const (
	InquiryPriorityLow    InquiryPriority = "low"
	InquiryPriorityMedium InquiryPriority = "medium"
	InquiryPriorityHigh   InquiryPriority = "high"
)

func (p InquiryPriority) Valid() bool {
	switch p {
	case InquiryPriorityLow, InquiryPriorityMedium, InquiryPriorityHigh:
		return true
	}
	return false
}

// ContactInquiry is a lead captured by the public contact form.
type ContactInquiry struct {
	ID         uuid.UUID       `json:"id"`
	Name       string          `json:"name"`
	Email      string          `json:"email"`
	Company    *string         `json:"company"`
	Phone      *string         `json:"phone"`
	Subject    *string         `json:"subject"`
	Message    string          `json:"message"`
	Status     InquiryStatus   `json:"status"`
	Priority   InquiryPriority `json:"priority"`
	AssignedTo *uuid.UUID      `json:"assigned_to"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// InquiryUpdate is a back-office triage change. Nil fields are left untouched.
type InquiryUpdate struct {
	Status     *InquiryStatus   `json:"status,omitempty"`
	Priority   *InquiryPriority `json:"priority,omitempty"`
	AssignedTo *uuid.UUID       `json:"assigned_to,omitempty"`
}

// InquiryFilter narrows the back-office inquiry list. Zero values mean "any".
type InquiryFilter struct {
	Status InquiryStatus
	Limit  int
}
