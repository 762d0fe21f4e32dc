package email

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// DefaultMaxRetries is how many times a failed send is retried before giving up.
const DefaultMaxRetries = 4

// RetryingSender retries transient provider failures with exponential backoff.
// Invalid requests are not retried.
type RetryingSender struct {
	next       Sender
	maxRetries uint64
	newBackOff func() backoff.BackOff
}

// NewRetryingSender wraps next. maxRetries <= 0 uses DefaultMaxRetries.
func NewRetryingSender(next Sender, maxRetries int) *RetryingSender {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	return &RetryingSender{
		next:       next,
		maxRetries: uint64(maxRetries),
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxElapsedTime = time.Minute
			return b
		},
	}
}

func (s *RetryingSender) policy(ctx context.Context) backoff.BackOff {
	return backoff.WithContext(backoff.WithMaxRetries(s.newBackOff(), s.maxRetries), ctx)
}

// Send delivers req, retrying on provider errors.
// POST: Returns the first successful result or the last error
func (s *RetryingSender) Send(ctx context.Context, req SendRequest) (SendResult, error) {
	if err := req.Validate(); err != nil {
		return SendResult{}, err
	}
	var result SendResult
	attempt := 0
	op := func() error {
		attempt++
		res, err := s.next.Send(ctx, req)
		if err != nil {
			if isPermanent(err) {
				return backoff.Permanent(err)
			}
			slog.Warn("email_send_retry", "attempt", attempt, "to", req.To, "error", err)
			return err
		}
		result = res
		return nil
	}
	if err := backoff.Retry(op, s.policy(ctx)); err != nil {
		return SendResult{}, err
	}
	return result, nil
}

func isPermanent(err error) bool {
	return errors.Is(err, ErrNoRecipients) || errors.Is(err, ErrNoSubject)
}
