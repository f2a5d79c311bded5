// Package contact implements the public contact form.
package contact

import (
	"context"
	"errors"
	"folio/internal/models"
	"log/slog"
	"strings"
	"sync"
)

// Sender delivers a contact message to the backend
type Sender interface {
	SubmitContact(ctx context.Context, msg *models.ContactMessage) error
}

// Form holds the field values between attempts. Values survive a failed
// submission and are cleared only after the backend accepts the message.
type Form struct {
	sender Sender
	logger *slog.Logger

	mu     sync.Mutex
	values models.ContactMessage
	errs   map[string]string
	sent   bool
}

// NewForm creates an empty form
func NewForm(sender Sender, logger *slog.Logger) *Form {
	if logger == nil {
		logger = slog.Default()
	}
	return &Form{sender: sender, logger: logger}
}

// Set updates one field by name: name, email, subject or message
func (f *Form) Set(field, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch field {
	case "name":
		f.values.Name = value
	case "email":
		f.values.Email = value
	case "subject":
		f.values.Subject = value
	case "message":
		f.values.Message = value
	default:
		return
	}
	delete(f.errs, field)
	f.sent = false
}

// Values returns the current field values
func (f *Form) Values() models.ContactMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values
}

// FieldErrors returns the messages from the last local validation
func (f *Form) FieldErrors() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]string, len(f.errs))
	for k, v := range f.errs {
		out[k] = v
	}
	return out
}

// Sent reports whether the last submission succeeded
func (f *Form) Sent() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent
}

// Submit validates and sends the message
func (f *Form) Submit(ctx context.Context) error {
	f.mu.Lock()
	msg := models.ContactMessage{
		Name:    strings.TrimSpace(f.values.Name),
		Email:   strings.TrimSpace(f.values.Email),
		Subject: strings.TrimSpace(f.values.Subject),
		Message: strings.TrimSpace(f.values.Message),
	}
	f.mu.Unlock()

	if err := msg.Validate(); err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			f.mu.Lock()
			f.errs = verr.Fields
			f.mu.Unlock()
		}
		return err
	}

	if err := f.sender.SubmitContact(ctx, &msg); err != nil {
		f.logger.Debug("contact submission failed", "error", err)
		return err
	}

	f.mu.Lock()
	f.values = models.ContactMessage{}
	f.errs = nil
	f.sent = true
	f.mu.Unlock()
	return nil
}
