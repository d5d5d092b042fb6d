package services

import (
	"fmt"
	"html"
	"net/smtp"

	"github.com/dimitrije/adme-site/internal/config"
	"github.com/dimitrije/adme-site/internal/models"
)

type EmailService struct {
	cfg config.SMTPConfig
}

func NewEmailService(cfg config.SMTPConfig) *EmailService {
	return &EmailService{cfg: cfg}
}

func (s *EmailService) IsConfigured() bool {
	return s.cfg.Host != "" && s.cfg.Username != "" && s.cfg.Password != "" && s.cfg.From != ""
}

func (s *EmailService) Send(to, subject, body string) error {
	if !s.IsConfigured() {
		return nil
	}

	addr := fmt.Sprintf("%s:%s", s.cfg.Host, s.cfg.Port)
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)

	return smtp.SendMail(addr, auth, s.cfg.From, []string{to}, []byte(s.message(to, subject, body)))
}

func (s *EmailService) message(to, subject, body string) string {
	return fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s",
		s.cfg.From, to, subject, body)
}

// SendInquiryNotification tells the sales inbox about a new lead.
func (s *EmailService) SendInquiryNotification(to string, inquiry *models.ContactInquiry) error {
	if to == "" {
		return nil
	}
	subject, body := inquiryNotification(inquiry)
	return s.Send(to, subject, body)
}

func inquiryNotification(inquiry *models.ContactInquiry) (string, string) {
	subject := "New contact inquiry from " + inquiry.Name
	if inquiry.Subject != nil {
		subject = fmt.Sprintf("New contact inquiry: %s", *inquiry.Subject)
	}

	optional := func(v *string) string {
		if v == nil {
			return "-"
		}
		return html.EscapeString(*v)
	}

	body := fmt.Sprintf(`
		<html>
		<body>
			<h2>New contact inquiry</h2>
			<p><strong>Name:</strong> %s</p>
			<p><strong>Email:</strong> <a href="mailto:%s">%s</a></p>
			<p><strong>Company:</strong> %s</p>
			<p><strong>Phone:</strong> %s</p>
			<p><strong>Message:</strong></p>
			<p>%s</p>
		</body>
		</html>
	`, html.EscapeString(inquiry.Name), html.EscapeString(inquiry.Email), html.EscapeString(inquiry.Email),
		optional(inquiry.Company), optional(inquiry.Phone), html.EscapeString(inquiry.Message))

	return subject, body
}
