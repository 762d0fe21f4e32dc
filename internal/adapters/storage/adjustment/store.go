package adjustment

import (
	"context"

	domain "coachdesk/internal/domain/adjustment"
)

// Store persists period start overrides.
type Store interface {
	ListByClientID(ctx context.Context, clientID string) ([]domain.PeriodAdjustment, error)
	GetByClientAndPeriod(ctx context.Context, clientID string, periodNumber int) (domain.PeriodAdjustment, error)
	Upsert(ctx context.Context, value domain.PeriodAdjustment) error
	DeleteByClientAndPeriod(ctx context.Context, clientID string, periodNumber int) error
}
