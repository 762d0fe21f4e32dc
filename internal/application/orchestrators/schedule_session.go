package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"coachdesk/internal/domain/adherence"
	"coachdesk/internal/domain/session"
)

// ErrSessionNotFound is returned when a status update names an unknown session.
var ErrSessionNotFound = errors.New("session not found")

// SessionStoreForOrchestrator defines the store interface needed by session orchestrators.
type SessionStoreForOrchestrator interface {
	GetByID(ctx context.Context, id string) (session.Session, error)
	Save(ctx context.Context, s session.Session) error
}

// --- Schedule Session ---

// ScheduleSessionInput carries input for the schedule session orchestrator.
type ScheduleSessionInput struct {
	ClientID  string
	Date      time.Time
	StartTime string // HH:MM
	EndTime   string // HH:MM
	Type      string
	Status    string // empty means scheduled; past sessions may be logged as completed
	Notes     string
}

// ScheduleSessionDeps holds dependencies for ScheduleSession.
type ScheduleSessionDeps struct {
	ClientStore  ClientStoreForLookup
	SessionStore SessionStoreForOrchestrator
	GenerateID   func() string
	Now          func() time.Time
}

// ExecuteScheduleSession books a session for a client.
// PRE: ClientID names an existing client; Date set
// POST: Session persisted with the requested status
func ExecuteScheduleSession(ctx context.Context, input ScheduleSessionInput, deps ScheduleSessionDeps) (session.Session, error) {
	s := session.Session{
		ID:        deps.GenerateID(),
		ClientID:  input.ClientID,
		StartTime: input.StartTime,
		EndTime:   input.EndTime,
		Status:    input.Status,
		Type:      input.Type,
		Notes:     input.Notes,
		CreatedAt: deps.Now(),
	}
	if s.Status == "" {
		s.Status = session.StatusScheduled
	}
	if s.Type == "" {
		s.Type = session.TypePersonal
	}
	if !input.Date.IsZero() {
		s.Date = adherence.Normalize(input.Date)
	}
	if err := s.Validate(); err != nil {
		return session.Session{}, err
	}

	if _, err := deps.ClientStore.GetByID(ctx, input.ClientID); err != nil {
		return session.Session{}, lookupErr(err, ErrClientNotFound, "client", input.ClientID)
	}
	if err := deps.SessionStore.Save(ctx, s); err != nil {
		return session.Session{}, fmt.Errorf("save session: %w", err)
	}

	slog.Info("session_event", "event", "session_scheduled", "session_id", s.ID, "client_id", s.ClientID, "date", s.Date.Format(adherence.DateLayout), "status", s.Status)
	return s, nil
}

// --- Set Session Status ---

// SetSessionStatusInput carries input for the set session status orchestrator.
type SetSessionStatusInput struct {
	SessionID string
	Status    string
}

// SetSessionStatusDeps holds dependencies for SetSessionStatus.
type SetSessionStatusDeps struct {
	SessionStore SessionStoreForOrchestrator
}

// ExecuteSetSessionStatus moves a session to completed, cancelled, no-show or back to scheduled.
// PRE: SessionID names an existing session
// POST: Session persisted with the new status; invalid status leaves it unchanged
func ExecuteSetSessionStatus(ctx context.Context, input SetSessionStatusInput, deps SetSessionStatusDeps) (session.Session, error) {
	s, err := deps.SessionStore.GetByID(ctx, input.SessionID)
	if err != nil {
		return session.Session{}, lookupErr(err, ErrSessionNotFound, "session", input.SessionID)
	}
	previous := s.Status
	if err := s.SetStatus(input.Status); err != nil {
		return session.Session{}, err
	}
	if err := deps.SessionStore.Save(ctx, s); err != nil {
		return session.Session{}, fmt.Errorf("save session: %w", err)
	}

	slog.Info("session_event", "event", "session_status_changed", "session_id", s.ID, "from", previous, "to", s.Status)
	return s, nil
}
