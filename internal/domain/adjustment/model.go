package adjustment

import (
	"errors"
	"time"
)

// Domain errors
var (
	ErrEmptyClientID  = errors.New("client ID is required")
	ErrInvalidPeriod  = errors.New("period number must be 1 or greater")
	ErrEmptyStartDate = errors.New("custom start date must be set")
)

// PeriodAdjustment is a manual override of the date a period starts on.
// Later periods continue from the adjusted period's end date.
// INVARIANT: at most one adjustment per (ClientID, PeriodNumber)
type PeriodAdjustment struct {
	ID              string
	ClientID        string
	PeriodNumber    int
	CustomStartDate time.Time // civil date
	CreatedBy       string    // account ID
	CreatedAt       time.Time
}

// Validate checks if the PeriodAdjustment has valid data.
// PRE: PeriodAdjustment struct is populated
// POST: Returns nil if valid, error otherwise
func (a *PeriodAdjustment) Validate() error {
	if a.ClientID == "" {
		return ErrEmptyClientID
	}
	if a.PeriodNumber < 1 {
		return ErrInvalidPeriod
	}
	if a.CustomStartDate.IsZero() {
		return ErrEmptyStartDate
	}
	return nil
}
