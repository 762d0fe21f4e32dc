package orchestrators

import (
	"context"
	"errors"
	"testing"
	"time"

	"coachdesk/internal/domain/client"
	"coachdesk/internal/domain/frequency"
)

// TestExecuteRegisterClient_SeedsHistory tests that registration records the starting frequency.
func TestExecuteRegisterClient_SeedsHistory(t *testing.T) {
	clients := newMockClientStore()
	history := &mockFrequencyStore{}

	c, err := ExecuteRegisterClient(context.Background(), RegisterClientInput{
		Name:              "  Aroha  ",
		Email:             "aroha@example.com",
		JoinDate:          time.Date(2025, 1, 1, 15, 0, 0, 0, time.UTC),
		TrainingFrequency: 2,
		CoachEmail:        "coach@example.com",
	}, RegisterClientDeps{ClientStore: clients, FrequencyStore: history, GenerateID: sequentialIDs(), Now: fixedNow})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Name != "Aroha" || !c.JoinDate.Equal(civil(2025, 1, 1)) {
		t.Errorf("client = %+v", c)
	}
	if _, ok := clients.clients[c.ID]; !ok {
		t.Error("client not persisted")
	}
	if len(history.changes) != 1 || history.changes[0].Frequency != 2 || !history.changes[0].EffectiveFrom.Equal(c.JoinDate) {
		t.Errorf("history = %+v, want one entry of 2 at join date", history.changes)
	}
}

// TestExecuteRegisterClient_Invalid tests validation.
func TestExecuteRegisterClient_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		input   RegisterClientInput
		wantErr error
	}{
		{"empty name", RegisterClientInput{JoinDate: civil(2025, 1, 1)}, client.ErrEmptyName},
		{"no join date", RegisterClientInput{Name: "Hemi"}, client.ErrEmptyJoinDate},
		{"negative frequency", RegisterClientInput{Name: "Hemi", JoinDate: civil(2025, 1, 1), TrainingFrequency: -1}, client.ErrNegativeFrequency},
		{"absurd frequency", RegisterClientInput{Name: "Hemi", JoinDate: civil(2025, 1, 1), TrainingFrequency: 40}, frequency.ErrFrequencyTooHigh},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clients := newMockClientStore()
			_, err := ExecuteRegisterClient(context.Background(), tt.input, RegisterClientDeps{
				ClientStore: clients, FrequencyStore: &mockFrequencyStore{}, GenerateID: sequentialIDs(), Now: fixedNow,
			})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if len(clients.clients) != 0 {
				t.Error("nothing should be persisted")
			}
		})
	}
}

// TestExecuteChangeFrequency tests current frequency tracking against effective dates.
func TestExecuteChangeFrequency(t *testing.T) {
	// fixedTime is 2026-03-01
	tests := []struct {
		name        string
		effective   time.Time
		frequency   int
		wantCurrent int
	}{
		{"effective today updates current", civil(2026, 3, 1), 4, 4},
		{"effective in the past updates current", civil(2026, 2, 1), 3, 3},
		{"future change leaves current alone", civil(2026, 4, 1), 5, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clients := newMockClientStore(client.Client{ID: "c1", Name: "Aroha", JoinDate: civil(2026, 1, 1), TrainingFrequency: 2})
			history := &mockFrequencyStore{changes: []frequency.Change{{ID: "f0", ClientID: "c1", Frequency: 2, EffectiveFrom: civil(2026, 1, 1)}}}

			change, err := ExecuteChangeFrequency(context.Background(), ChangeFrequencyInput{
				ClientID: "c1", Frequency: tt.frequency, EffectiveFrom: tt.effective,
			}, ChangeFrequencyDeps{ClientStore: clients, FrequencyStore: history, GenerateID: fixedID, Now: fixedNow})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if change.Frequency != tt.frequency {
				t.Errorf("change frequency = %d", change.Frequency)
			}
			if got := clients.clients["c1"].TrainingFrequency; got != tt.wantCurrent {
				t.Errorf("current frequency = %d, want %d", got, tt.wantCurrent)
			}
			if len(history.changes) != 2 {
				t.Errorf("history length = %d, want 2", len(history.changes))
			}
		})
	}
}

// TestExecuteChangeFrequency_BackdatedChangeDoesNotOverrideNewer tests history resolution.
func TestExecuteChangeFrequency_BackdatedChangeDoesNotOverrideNewer(t *testing.T) {
	clients := newMockClientStore(client.Client{ID: "c1", Name: "Aroha", JoinDate: civil(2026, 1, 1), TrainingFrequency: 4})
	history := &mockFrequencyStore{changes: []frequency.Change{
		{ID: "f0", ClientID: "c1", Frequency: 2, EffectiveFrom: civil(2026, 1, 1)},
		{ID: "f1", ClientID: "c1", Frequency: 4, EffectiveFrom: civil(2026, 2, 15)},
	}}

	_, err := ExecuteChangeFrequency(context.Background(), ChangeFrequencyInput{
		ClientID: "c1", Frequency: 3, EffectiveFrom: civil(2026, 2, 1),
	}, ChangeFrequencyDeps{ClientStore: clients, FrequencyStore: history, GenerateID: fixedID, Now: fixedNow})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := clients.clients["c1"].TrainingFrequency; got != 4 {
		t.Errorf("current frequency = %d, want 4 (newer change still applies)", got)
	}
}

// TestExecuteChangeFrequency_UnknownClient tests that unknown clients are rejected.
func TestExecuteChangeFrequency_UnknownClient(t *testing.T) {
	_, err := ExecuteChangeFrequency(context.Background(), ChangeFrequencyInput{
		ClientID: "ghost", Frequency: 2, EffectiveFrom: civil(2026, 2, 1),
	}, ChangeFrequencyDeps{ClientStore: newMockClientStore(), FrequencyStore: &mockFrequencyStore{}, GenerateID: fixedID, Now: fixedNow})
	if !errors.Is(err, ErrClientNotFound) {
		t.Errorf("error = %v, want ErrClientNotFound", err)
	}
}

// TestExecuteChangeFrequency_ClientLookupFailure tests that store failures pass through instead of reading as unknown clients.
func TestExecuteChangeFrequency_ClientLookupFailure(t *testing.T) {
	clients := newMockClientStore(client.Client{ID: "c1", Name: "Aroha", JoinDate: civil(2025, 1, 1), TrainingFrequency: 2})
	boom := errors.New("disk I/O error")
	clients.getErr = boom
	history := &mockFrequencyStore{}

	_, err := ExecuteChangeFrequency(context.Background(), ChangeFrequencyInput{
		ClientID: "c1", Frequency: 3, EffectiveFrom: civil(2026, 2, 1),
	}, ChangeFrequencyDeps{ClientStore: clients, FrequencyStore: history, GenerateID: fixedID, Now: fixedNow})
	if !errors.Is(err, boom) || errors.Is(err, ErrClientNotFound) {
		t.Fatalf("error = %v, want wrapped store error", err)
	}
	if len(history.changes) != 0 {
		t.Error("no frequency change should be saved")
	}
}
