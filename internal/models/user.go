package models

import (
	"net/mail"
	"strings"
)

// User is the authenticated admin as reported by the backend
type User struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// ContactMessage is a message submitted through the public contact form
type ContactMessage struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// Validate checks required fields and the email address format
func (m *ContactMessage) Validate() error {
	v := &ValidationError{}

	if strings.TrimSpace(m.Name) == "" {
		v.Add("name", "this field is required")
	}
	if strings.TrimSpace(m.Email) == "" {
		v.Add("email", "this field is required")
	} else if _, err := mail.ParseAddress(m.Email); err != nil {
		v.Add("email", "enter a valid email address")
	}
	if strings.TrimSpace(m.Subject) == "" {
		v.Add("subject", "this field is required")
	}
	if strings.TrimSpace(m.Message) == "" {
		v.Add("message", "this field is required")
	}

	return v.Err()
}
