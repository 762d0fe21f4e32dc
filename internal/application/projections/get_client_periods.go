package projections

import (
	"context"
	"fmt"
	"time"

	"coachdesk/internal/domain/adherence"
	"coachdesk/internal/domain/adjustment"
	"coachdesk/internal/domain/client"
	"coachdesk/internal/domain/frequency"
	"coachdesk/internal/domain/session"
	"coachdesk/internal/metrics"
)

// ClientPeriodsClientStore defines the client store interface needed by the periods projection.
type ClientPeriodsClientStore interface {
	GetByID(ctx context.Context, id string) (client.Client, error)
}

// ClientPeriodsFrequencyStore defines the frequency history interface needed by the periods projection.
type ClientPeriodsFrequencyStore interface {
	ListByClientID(ctx context.Context, clientID string) ([]frequency.Change, error)
}

// ClientPeriodsAdjustmentStore defines the adjustment interface needed by the periods projection.
type ClientPeriodsAdjustmentStore interface {
	ListByClientID(ctx context.Context, clientID string) ([]adjustment.PeriodAdjustment, error)
}

// ClientPeriodsSessionStore defines the session interface needed by the periods projection.
type ClientPeriodsSessionStore interface {
	ListByClientID(ctx context.Context, clientID string) ([]session.Session, error)
}

// GetClientPeriodsQuery carries input for the client periods projection.
type GetClientPeriodsQuery struct {
	ClientID string
	Now      time.Time // zero means time.Now()
}

// GetClientPeriodsDeps holds dependencies for the client periods projection.
type GetClientPeriodsDeps struct {
	ClientStore     ClientPeriodsClientStore
	FrequencyStore  ClientPeriodsFrequencyStore
	AdjustmentStore ClientPeriodsAdjustmentStore
	SessionStore    ClientPeriodsSessionStore
	Policy          adherence.Policy
	Location        *time.Location   // session start times are read in this zone; nil means UTC
	Metrics         *metrics.Manager // optional
}

// ClientPeriodsResult carries the output of the client periods projection.
type ClientPeriodsResult struct {
	Client     client.Client
	Now        time.Time
	Periods    []adherence.Period
	Current    adherence.Period
	HasCurrent bool
}

// QueryGetClientPeriods loads a client's anchor, frequency history, overrides and
// sessions, then runs the adherence engine over them.
// PRE: ClientID is non-empty
// POST: Periods is non-empty on success; Current is set when HasCurrent is true
// INVARIANT: Read-only; nothing is persisted
func QueryGetClientPeriods(ctx context.Context, query GetClientPeriodsQuery, deps GetClientPeriodsDeps) (ClientPeriodsResult, error) {
	now := query.Now
	if now.IsZero() {
		now = time.Now()
	}
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	now = now.In(loc)

	c, err := deps.ClientStore.GetByID(ctx, query.ClientID)
	if err != nil {
		return ClientPeriodsResult{}, err
	}
	history, err := deps.FrequencyStore.ListByClientID(ctx, query.ClientID)
	if err != nil {
		return ClientPeriodsResult{}, fmt.Errorf("load frequency history: %w", err)
	}
	adjustments, err := deps.AdjustmentStore.ListByClientID(ctx, query.ClientID)
	if err != nil {
		return ClientPeriodsResult{}, fmt.Errorf("load period adjustments: %w", err)
	}
	sessions, err := deps.SessionStore.ListByClientID(ctx, query.ClientID)
	if err != nil {
		return ClientPeriodsResult{}, fmt.Errorf("load sessions: %w", err)
	}

	periods := adherence.BuildPeriods(adherence.Input{
		JoinDate:         c.JoinDate,
		CurrentFrequency: c.TrainingFrequency,
		History:          history,
		Adjustments:      adherence.AdjustmentMap(adjustments),
		Sessions:         sessions,
		Now:              now,
	}, deps.Policy)

	if deps.Metrics != nil {
		deps.Metrics.CounterPeriodsBuilt.Add(float64(len(periods)))
	}

	current, ok := adherence.FindCurrent(periods, now)
	return ClientPeriodsResult{
		Client:     c,
		Now:        now,
		Periods:    periods,
		Current:    current,
		HasCurrent: ok,
	}, nil
}

// Period returns the period with the given number.
func (r ClientPeriodsResult) Period(number int) (adherence.Period, bool) {
	for _, p := range r.Periods {
		if p.Number == number {
			return p, true
		}
	}
	return adherence.Period{}, false
}
