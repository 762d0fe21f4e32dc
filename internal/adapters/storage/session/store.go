package session

import (
	"context"

	domain "coachdesk/internal/domain/session"
)

// Store persists training sessions.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Session, error)
	Save(ctx context.Context, value domain.Session) error
	ListByClientID(ctx context.Context, clientID string) ([]domain.Session, error)
}
