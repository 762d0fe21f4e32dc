package session

import (
	"errors"
	"time"
)

// Status constants
const (
	StatusScheduled = "scheduled"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusNoShow    = "no-show"
)

// Type constants
const (
	TypePersonal = "personal"
	TypeOnline   = "online"
	TypeGroup    = "group"
)

// Max length constants for user-editable fields.
const (
	MaxNotesLength = 2000
)

// clockLayout is the wall-clock format used for StartTime and EndTime.
const clockLayout = "15:04"

// ValidStatuses contains all valid status values.
var ValidStatuses = []string{StatusScheduled, StatusCompleted, StatusCancelled, StatusNoShow}

// Domain errors
var (
	ErrEmptyClientID  = errors.New("session must be associated with a client")
	ErrEmptyDate      = errors.New("session date must be set")
	ErrInvalidStatus  = errors.New("status must be one of: scheduled, completed, cancelled, no-show")
	ErrInvalidTime    = errors.New("start and end times must use HH:MM")
	ErrEndBeforeStart = errors.New("end time cannot be before start time")
	ErrNotesTooLong   = errors.New("notes cannot exceed 2000 characters")
)

// Session is a single training session. The scheduling side owns and mutates it;
// adherence only reads it.
type Session struct {
	ID        string
	ClientID  string
	Date      time.Time // civil date
	StartTime string    // HH:MM, optional
	EndTime   string    // HH:MM, optional
	Status    string
	Type      string
	Notes     string // markdown
	CreatedAt time.Time
}

// Validate checks if the Session has valid data.
// PRE: Session struct is initialized
// POST: Returns error if validation fails, nil otherwise
func (s *Session) Validate() error {
	if s.ClientID == "" {
		return ErrEmptyClientID
	}
	if s.Date.IsZero() {
		return ErrEmptyDate
	}
	if !IsValidStatus(s.Status) {
		return ErrInvalidStatus
	}
	var start, end time.Time
	var err error
	if s.StartTime != "" {
		if start, err = time.Parse(clockLayout, s.StartTime); err != nil {
			return ErrInvalidTime
		}
	}
	if s.EndTime != "" {
		if end, err = time.Parse(clockLayout, s.EndTime); err != nil {
			return ErrInvalidTime
		}
	}
	if s.StartTime != "" && s.EndTime != "" && end.Before(start) {
		return ErrEndBeforeStart
	}
	if len(s.Notes) > MaxNotesLength {
		return ErrNotesTooLong
	}
	return nil
}

// StartsAt returns the instant the session starts, reading Date's calendar day and
// StartTime as wall-clock time in loc. A missing or malformed StartTime means midnight.
// INVARIANT: Session fields are not mutated
func (s *Session) StartsAt(loc *time.Location) time.Time {
	hour, minute := 0, 0
	if clock, err := time.Parse(clockLayout, s.StartTime); err == nil {
		hour, minute = clock.Hour(), clock.Minute()
	}
	y, m, d := s.Date.Date()
	return time.Date(y, m, d, hour, minute, 0, 0, loc)
}

// SetStatus moves the session to a new status.
// PRE: status is one of ValidStatuses
// POST: Status updated, or ErrInvalidStatus returned and Status unchanged
func (s *Session) SetStatus(status string) error {
	if !IsValidStatus(status) {
		return ErrInvalidStatus
	}
	s.Status = status
	return nil
}

// IsValidStatus reports whether status is a known session status.
func IsValidStatus(status string) bool {
	for _, v := range ValidStatuses {
		if v == status {
			return true
		}
	}
	return false
}
