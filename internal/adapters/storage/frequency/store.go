package frequency

import (
	"context"

	domain "coachdesk/internal/domain/frequency"
)

// Store persists frequency history.
type Store interface {
	ListByClientID(ctx context.Context, clientID string) ([]domain.Change, error)
	Save(ctx context.Context, value domain.Change) error
}
