package orchestrators

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"coachdesk/internal/domain/adherence"
	"coachdesk/internal/domain/adjustment"
	"coachdesk/internal/domain/client"
	"coachdesk/internal/metrics"
)

// ErrClientNotFound is returned when a write names a client that does not exist.
var ErrClientNotFound = errors.New("client not found")

// lookupErr maps a store miss to notFound and wraps any other store failure.
func lookupErr(err, notFound error, what, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", notFound, id)
	}
	return fmt.Errorf("load %s: %w", what, err)
}

// ClientStoreForLookup defines the store interface orchestrators use to confirm a client exists.
type ClientStoreForLookup interface {
	GetByID(ctx context.Context, id string) (client.Client, error)
}

// AdjustmentStoreForOrchestrator defines the store interface needed by the override write path.
type AdjustmentStoreForOrchestrator interface {
	Upsert(ctx context.Context, a adjustment.PeriodAdjustment) error
	DeleteByClientAndPeriod(ctx context.Context, clientID string, periodNumber int) error
}

// --- Adjust Period Start ---

// AdjustPeriodStartInput carries input for the adjust period start orchestrator.
type AdjustPeriodStartInput struct {
	ClientID     string
	PeriodNumber int
	StartDate    time.Time // civil date; time of day is dropped
	ActorID      string    // account making the change
}

// AdjustPeriodStartDeps holds dependencies for AdjustPeriodStart.
type AdjustPeriodStartDeps struct {
	ClientStore     ClientStoreForLookup
	AdjustmentStore AdjustmentStoreForOrchestrator
	GenerateID      func() string
	Now             func() time.Time
	Metrics         *metrics.Manager // optional
}

// ExecuteAdjustPeriodStart records that a period starts on a custom date.
// Later periods continue from the adjusted period the next time periods are built.
// PRE: ClientID names an existing client; PeriodNumber >= 1
// POST: Exactly one override exists for (ClientID, PeriodNumber); on error nothing is written
func ExecuteAdjustPeriodStart(ctx context.Context, input AdjustPeriodStartInput, deps AdjustPeriodStartDeps) (adjustment.PeriodAdjustment, error) {
	adj := adjustment.PeriodAdjustment{
		ID:           deps.GenerateID(),
		ClientID:     input.ClientID,
		PeriodNumber: input.PeriodNumber,
		CreatedBy:    input.ActorID,
		CreatedAt:    deps.Now(),
	}
	if !input.StartDate.IsZero() {
		adj.CustomStartDate = adherence.Normalize(input.StartDate)
	}
	if err := adj.Validate(); err != nil {
		countAdjustment(deps.Metrics, "invalid")
		return adjustment.PeriodAdjustment{}, err
	}

	if _, err := deps.ClientStore.GetByID(ctx, input.ClientID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			countAdjustment(deps.Metrics, "invalid")
		} else {
			countAdjustment(deps.Metrics, "failed")
		}
		return adjustment.PeriodAdjustment{}, lookupErr(err, ErrClientNotFound, "client", input.ClientID)
	}

	if err := deps.AdjustmentStore.Upsert(ctx, adj); err != nil {
		countAdjustment(deps.Metrics, "failed")
		slog.Error("adherence_event", "event", "period_adjust_failed", "client_id", adj.ClientID, "period", adj.PeriodNumber, "error", err)
		return adjustment.PeriodAdjustment{}, fmt.Errorf("save period adjustment: %w", err)
	}

	countAdjustment(deps.Metrics, "saved")
	slog.Info("adherence_event", "event", "period_adjusted",
		"client_id", adj.ClientID,
		"period", adj.PeriodNumber,
		"start_date", adj.CustomStartDate.Format(adherence.DateLayout),
		"actor_id", adj.CreatedBy,
	)
	return adj, nil
}

// --- Clear Period Adjustment ---

// ClearPeriodAdjustmentInput carries input for the clear period adjustment orchestrator.
type ClearPeriodAdjustmentInput struct {
	ClientID     string
	PeriodNumber int
	ActorID      string
}

// ClearPeriodAdjustmentDeps holds dependencies for ClearPeriodAdjustment.
type ClearPeriodAdjustmentDeps struct {
	AdjustmentStore AdjustmentStoreForOrchestrator
	Metrics         *metrics.Manager // optional
}

// ExecuteClearPeriodAdjustment removes an override so the period start is computed again.
// PRE: PeriodNumber >= 1
// POST: No override exists for (ClientID, PeriodNumber); store errors are returned wrapped
func ExecuteClearPeriodAdjustment(ctx context.Context, input ClearPeriodAdjustmentInput, deps ClearPeriodAdjustmentDeps) error {
	if input.ClientID == "" {
		return adjustment.ErrEmptyClientID
	}
	if input.PeriodNumber < 1 {
		return adjustment.ErrInvalidPeriod
	}
	if err := deps.AdjustmentStore.DeleteByClientAndPeriod(ctx, input.ClientID, input.PeriodNumber); err != nil {
		countAdjustment(deps.Metrics, "failed")
		return fmt.Errorf("clear period adjustment: %w", err)
	}
	countAdjustment(deps.Metrics, "cleared")
	slog.Info("adherence_event", "event", "period_adjustment_cleared", "client_id", input.ClientID, "period", input.PeriodNumber, "actor_id", input.ActorID)
	return nil
}

func countAdjustment(m *metrics.Manager, result string) {
	if m != nil {
		m.CounterAdjustmentWrites.WithLabelValues(result).Inc()
	}
}
