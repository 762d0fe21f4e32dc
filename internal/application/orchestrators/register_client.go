package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"coachdesk/internal/domain/adherence"
	"coachdesk/internal/domain/client"
	"coachdesk/internal/domain/frequency"
)

// ClientStoreForWrite defines the store interface needed by client write orchestrators.
type ClientStoreForWrite interface {
	GetByID(ctx context.Context, id string) (client.Client, error)
	Save(ctx context.Context, c client.Client) error
}

// FrequencyStoreForOrchestrator defines the frequency history interface needed by orchestrators.
type FrequencyStoreForOrchestrator interface {
	ListByClientID(ctx context.Context, clientID string) ([]frequency.Change, error)
	Save(ctx context.Context, c frequency.Change) error
}

// --- Register Client ---

// RegisterClientInput carries input for the register client orchestrator.
type RegisterClientInput struct {
	Name              string
	Email             string
	JoinDate          time.Time
	TrainingFrequency int
	CoachEmail        string
}

// RegisterClientDeps holds dependencies for RegisterClient.
type RegisterClientDeps struct {
	ClientStore    ClientStoreForWrite
	FrequencyStore FrequencyStoreForOrchestrator
	GenerateID     func() string
	Now            func() time.Time
}

// ExecuteRegisterClient creates a client and seeds its frequency history with the
// starting frequency, effective from the join date.
// PRE: Name non-empty, JoinDate set, TrainingFrequency >= 0
// POST: Client persisted; history holds one entry at JoinDate
func ExecuteRegisterClient(ctx context.Context, input RegisterClientInput, deps RegisterClientDeps) (client.Client, error) {
	c := client.Client{
		ID:                deps.GenerateID(),
		Name:              strings.TrimSpace(input.Name),
		Email:             strings.TrimSpace(input.Email),
		TrainingFrequency: input.TrainingFrequency,
		CoachEmail:        strings.TrimSpace(input.CoachEmail),
		CreatedAt:         deps.Now(),
	}
	if !input.JoinDate.IsZero() {
		c.JoinDate = adherence.Normalize(input.JoinDate)
	}
	if err := c.Validate(); err != nil {
		return client.Client{}, err
	}
	initial := frequency.Change{
		ID:            deps.GenerateID(),
		ClientID:      c.ID,
		Frequency:     c.TrainingFrequency,
		EffectiveFrom: c.JoinDate,
		CreatedAt:     c.CreatedAt,
	}
	if err := initial.Validate(); err != nil {
		return client.Client{}, err
	}

	if err := deps.ClientStore.Save(ctx, c); err != nil {
		return client.Client{}, fmt.Errorf("save client: %w", err)
	}
	if err := deps.FrequencyStore.Save(ctx, initial); err != nil {
		return client.Client{}, fmt.Errorf("save initial frequency: %w", err)
	}

	slog.Info("client_event", "event", "client_registered", "client_id", c.ID, "join_date", c.JoinDate.Format(adherence.DateLayout), "frequency", c.TrainingFrequency)
	return c, nil
}

// --- Change Frequency ---

// ChangeFrequencyInput carries input for the change frequency orchestrator.
type ChangeFrequencyInput struct {
	ClientID      string
	Frequency     int
	EffectiveFrom time.Time
}

// ChangeFrequencyDeps holds dependencies for ChangeFrequency.
type ChangeFrequencyDeps struct {
	ClientStore    ClientStoreForWrite
	FrequencyStore FrequencyStoreForOrchestrator
	GenerateID     func() string
	Now            func() time.Time
}

// ExecuteChangeFrequency appends a frequency change and refreshes the client's current
// frequency from the resulting history. Future-dated changes leave the current value alone
// until their date arrives.
// PRE: ClientID names an existing client
// POST: History contains the change; client.TrainingFrequency equals the frequency in effect today
func ExecuteChangeFrequency(ctx context.Context, input ChangeFrequencyInput, deps ChangeFrequencyDeps) (frequency.Change, error) {
	now := deps.Now()
	change := frequency.Change{
		ID:        deps.GenerateID(),
		ClientID:  input.ClientID,
		Frequency: input.Frequency,
		CreatedAt: now,
	}
	if !input.EffectiveFrom.IsZero() {
		change.EffectiveFrom = adherence.Normalize(input.EffectiveFrom)
	}
	if err := change.Validate(); err != nil {
		return frequency.Change{}, err
	}

	c, err := deps.ClientStore.GetByID(ctx, input.ClientID)
	if err != nil {
		return frequency.Change{}, lookupErr(err, ErrClientNotFound, "client", input.ClientID)
	}

	if err := deps.FrequencyStore.Save(ctx, change); err != nil {
		return frequency.Change{}, fmt.Errorf("save frequency change: %w", err)
	}

	history, err := deps.FrequencyStore.ListByClientID(ctx, c.ID)
	if err != nil {
		return frequency.Change{}, fmt.Errorf("reload frequency history: %w", err)
	}
	current := adherence.ResolveFrequency(history, c.TrainingFrequency, now)
	if current != c.TrainingFrequency {
		c.TrainingFrequency = current
		if err := deps.ClientStore.Save(ctx, c); err != nil {
			return frequency.Change{}, fmt.Errorf("update current frequency: %w", err)
		}
	}

	slog.Info("client_event", "event", "frequency_changed",
		"client_id", c.ID,
		"frequency", change.Frequency,
		"effective_from", change.EffectiveFrom.Format(adherence.DateLayout),
		"current", c.TrainingFrequency,
	)
	return change, nil
}
