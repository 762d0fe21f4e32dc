package client

import (
	"errors"
	"strings"
	"time"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength = 100
)

// Domain errors
var (
	ErrEmptyName         = errors.New("client name cannot be empty")
	ErrNameTooLong       = errors.New("client name cannot exceed 100 characters")
	ErrInvalidEmail      = errors.New("client email must be valid")
	ErrEmptyJoinDate     = errors.New("join date must be set")
	ErrNegativeFrequency = errors.New("training frequency cannot be negative")
)

// Client is the anchor the adherence engine reads: when coaching started and the
// weekly training frequency configured today.
type Client struct {
	ID                string
	Name              string
	Email             string
	JoinDate          time.Time // civil date, time of day ignored
	TrainingFrequency int       // target sessions per week
	CoachEmail        string    // recipient of the adherence digest, optional
	CreatedAt         time.Time
}

// Validate checks if the Client has valid data.
// PRE: Client struct is initialized
// POST: Returns error if validation fails, nil otherwise
// INVARIANT: Name non-empty, JoinDate set, TrainingFrequency >= 0
func (c *Client) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if len(c.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if c.Email != "" && !strings.Contains(c.Email, "@") {
		return ErrInvalidEmail
	}
	if c.CoachEmail != "" && !strings.Contains(c.CoachEmail, "@") {
		return ErrInvalidEmail
	}
	if c.JoinDate.IsZero() {
		return ErrEmptyJoinDate
	}
	if c.TrainingFrequency < 0 {
		return ErrNegativeFrequency
	}
	return nil
}
