package email

import (
	"context"
	"errors"
	"time"
)

// Domain errors
var (
	ErrNoRecipients = errors.New("email needs at least one recipient")
	ErrNoSubject    = errors.New("email needs a subject")
)

// SendRequest contains the data needed to send an email via an external provider.
type SendRequest struct {
	To       []string // Recipient email addresses
	From     string   // Sender address; empty uses the sender's default
	Subject  string
	HTML     string // HTML body
	Text     string // Plain-text alternative, optional
	ReplyTo  string
	Category string // Provider tag for filtering, e.g. "adherence_digest"
}

// Validate checks the request before it reaches a provider.
// POST: Returns nil if the request can be sent
func (r SendRequest) Validate() error {
	if len(r.To) == 0 {
		return ErrNoRecipients
	}
	if r.Subject == "" {
		return ErrNoSubject
	}
	return nil
}

// SendResult contains the response from the email provider.
type SendResult struct {
	MessageID string    // Provider's message ID for tracking
	SentAt    time.Time // When the send was accepted
}

// Sender delivers one email. Implementations must be safe for concurrent use.
type Sender interface {
	Send(ctx context.Context, req SendRequest) (SendResult, error)
}
