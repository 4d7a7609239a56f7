package service

import (
	"context"
	"fmt"
)

// Mailer is the outbound email capability used by the contact form
type Mailer interface {
	Send(ctx context.Context, to string, bcc string, subject string, body string) error
}

// ContactRequest carries a contact-form submission
type ContactRequest struct {
	Name    string `json:"name" validate:"required,min=2,max=80"`
	Email   string `json:"email" validate:"required,email,max=120"`
	Subject string `json:"subject" validate:"required,min=3,max=120"`
	Message string `json:"message" validate:"required,min=10,max=5000"`
}

// ContactService forwards contact-form submissions by email
type ContactService struct {
	mailer Mailer
	from   string
}

// NewContactService creates a new contact service
func NewContactService(mailer Mailer, from string) *ContactService {
	return &ContactService{mailer: mailer, from: from}
}

// Send emails the submission to the sender with a copy to the support
// address, mirroring what the contact form promises the user.
func (s *ContactService) Send(ctx context.Context, req ContactRequest) error {
	body := fmt.Sprintf(
		"New message from the contact form\n\nName: %s\nEmail: %s\nSubject: %s\n\nMessage:\n%s\n",
		req.Name, req.Email, req.Subject, req.Message,
	)

	if err := s.mailer.Send(ctx, req.Email, s.from, "Contact form: "+req.Subject, body); err != nil {
		return fmt.Errorf("failed to send contact mail: %w", err)
	}
	return nil
}
