package email

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/resend/resend-go/v2"
)

// ResendSender delivers through the Resend HTTP API.
type ResendSender struct {
	client *resend.Client
	from   string
}

// NewResendSender builds a sender for apiKey that uses from when a request names no sender.
func NewResendSender(apiKey, from string) *ResendSender {
	return &ResendSender{client: resend.NewClient(apiKey), from: from}
}

func (s *ResendSender) params(req SendRequest) *resend.SendEmailRequest {
	p := &resend.SendEmailRequest{
		From:    s.from,
		To:      req.To,
		Subject: req.Subject,
		Html:    req.HTML,
		Text:    req.Text,
		ReplyTo: req.ReplyTo,
	}
	if req.From != "" {
		p.From = req.From
	}
	if req.Category != "" {
		p.Tags = append(p.Tags, resend.Tag{Name: "category", Value: req.Category})
	}
	return p
}

// Send hands req to Resend. Validation failures never reach the provider.
// POST: On success the result carries Resend's message ID
func (s *ResendSender) Send(ctx context.Context, req SendRequest) (SendResult, error) {
	if err := req.Validate(); err != nil {
		return SendResult{}, err
	}
	sent, err := s.client.Emails.SendWithContext(ctx, s.params(req))
	if err != nil {
		slog.Error("digest_event", "event", "resend_rejected", "category", req.Category, "recipients", len(req.To), "error", err)
		return SendResult{}, fmt.Errorf("resend: %w", err)
	}
	slog.Info("digest_event", "event", "resend_accepted", "message_id", sent.Id, "category", req.Category)
	return SendResult{MessageID: sent.Id, SentAt: time.Now()}, nil
}
