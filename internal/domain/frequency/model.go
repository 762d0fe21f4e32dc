package frequency

import (
	"errors"
	"time"
)

// Max weekly sessions a coach can set. Anything above is almost certainly a typo.
const MaxFrequency = 14

// Domain errors
var (
	ErrEmptyClientID      = errors.New("client ID is required")
	ErrNegativeFrequency  = errors.New("frequency cannot be negative")
	ErrFrequencyTooHigh   = errors.New("frequency cannot exceed 14 sessions per week")
	ErrEmptyEffectiveFrom = errors.New("effective-from date must be set")
)

// Change records that a client's weekly training-frequency target changed.
// The frequency applies from EffectiveFrom onward until a later change supersedes it.
// INVARIANT: at most one Change per (ClientID, EffectiveFrom)
type Change struct {
	ID            string
	ClientID      string
	Frequency     int
	EffectiveFrom time.Time // civil date
	CreatedAt     time.Time
}

// Validate checks if the Change has valid data.
// PRE: Change struct is populated
// POST: Returns nil if valid, error otherwise
func (c *Change) Validate() error {
	if c.ClientID == "" {
		return ErrEmptyClientID
	}
	if c.Frequency < 0 {
		return ErrNegativeFrequency
	}
	if c.Frequency > MaxFrequency {
		return ErrFrequencyTooHigh
	}
	if c.EffectiveFrom.IsZero() {
		return ErrEmptyEffectiveFrom
	}
	return nil
}
