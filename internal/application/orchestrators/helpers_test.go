package orchestrators

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"coachdesk/internal/domain/account"
	"coachdesk/internal/domain/adjustment"
	"coachdesk/internal/domain/client"
	"coachdesk/internal/domain/frequency"
	"coachdesk/internal/domain/session"
)

var fixedTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return fixedTime }

func fixedID() string { return "test-id-001" }

// sequentialIDs returns a generator yielding id-1, id-2, ...
func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func civil(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var errNotFound = fmt.Errorf("not found: %w", sql.ErrNoRows)

// mockClientStore implements the client store interfaces for testing.
type mockClientStore struct {
	clients map[string]client.Client
	getErr  error
	saveErr error
}

func newMockClientStore(cs ...client.Client) *mockClientStore {
	m := &mockClientStore{clients: make(map[string]client.Client)}
	for _, c := range cs {
		m.clients[c.ID] = c
	}
	return m
}

func (m *mockClientStore) GetByID(_ context.Context, id string) (client.Client, error) {
	if m.getErr != nil {
		return client.Client{}, m.getErr
	}
	c, ok := m.clients[id]
	if !ok {
		return client.Client{}, errNotFound
	}
	return c, nil
}

func (m *mockClientStore) Save(_ context.Context, c client.Client) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.clients[c.ID] = c
	return nil
}

func (m *mockClientStore) ListByCoachEmail(_ context.Context, coachEmail string) ([]client.Client, error) {
	var out []client.Client
	for _, c := range m.clients {
		if c.CoachEmail == coachEmail {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// mockFrequencyStore implements FrequencyStoreForOrchestrator, replacing same-day entries.
type mockFrequencyStore struct {
	changes []frequency.Change
}

func (m *mockFrequencyStore) ListByClientID(_ context.Context, clientID string) ([]frequency.Change, error) {
	var out []frequency.Change
	for _, c := range m.changes {
		if c.ClientID == clientID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockFrequencyStore) Save(_ context.Context, c frequency.Change) error {
	for i, existing := range m.changes {
		if existing.ClientID == c.ClientID && existing.EffectiveFrom.Equal(c.EffectiveFrom) {
			m.changes[i] = c
			return nil
		}
	}
	m.changes = append(m.changes, c)
	return nil
}

// mockAdjustmentStore implements the adjustment store interfaces keyed by client and period.
type mockAdjustmentStore struct {
	items     map[string]adjustment.PeriodAdjustment
	upsertErr error
}

func newMockAdjustmentStore() *mockAdjustmentStore {
	return &mockAdjustmentStore{items: make(map[string]adjustment.PeriodAdjustment)}
}

func adjustmentKey(clientID string, n int) string { return fmt.Sprintf("%s/%d", clientID, n) }

func (m *mockAdjustmentStore) Upsert(_ context.Context, a adjustment.PeriodAdjustment) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.items[adjustmentKey(a.ClientID, a.PeriodNumber)] = a
	return nil
}

func (m *mockAdjustmentStore) DeleteByClientAndPeriod(_ context.Context, clientID string, n int) error {
	key := adjustmentKey(clientID, n)
	if _, ok := m.items[key]; !ok {
		return errNotFound
	}
	delete(m.items, key)
	return nil
}

func (m *mockAdjustmentStore) ListByClientID(_ context.Context, clientID string) ([]adjustment.PeriodAdjustment, error) {
	var out []adjustment.PeriodAdjustment
	for _, a := range m.items {
		if a.ClientID == clientID {
			out = append(out, a)
		}
	}
	return out, nil
}

// mockSessionStore implements the session store interfaces for testing.
type mockSessionStore struct {
	sessions map[string]session.Session
}

func newMockSessionStore(ss ...session.Session) *mockSessionStore {
	m := &mockSessionStore{sessions: make(map[string]session.Session)}
	for _, s := range ss {
		m.sessions[s.ID] = s
	}
	return m
}

func (m *mockSessionStore) GetByID(_ context.Context, id string) (session.Session, error) {
	s, ok := m.sessions[id]
	if !ok {
		return session.Session{}, errNotFound
	}
	return s, nil
}

func (m *mockSessionStore) Save(_ context.Context, s session.Session) error {
	m.sessions[s.ID] = s
	return nil
}

func (m *mockSessionStore) ListByClientID(_ context.Context, clientID string) ([]session.Session, error) {
	var out []session.Session
	for _, s := range m.sessions {
		if s.ClientID == clientID {
			out = append(out, s)
		}
	}
	return out, nil
}

// mockAccountStore implements the account store interfaces for testing.
type mockAccountStore struct {
	accounts map[string]account.Account // keyed by email
	saves    int
}

func newMockAccountStore(as ...account.Account) *mockAccountStore {
	m := &mockAccountStore{accounts: make(map[string]account.Account)}
	for _, a := range as {
		m.accounts[a.Email] = a
	}
	return m
}

func (m *mockAccountStore) GetByEmail(_ context.Context, email string) (account.Account, error) {
	a, ok := m.accounts[email]
	if !ok {
		return account.Account{}, errNotFound
	}
	return a, nil
}

func (m *mockAccountStore) Save(_ context.Context, a account.Account) error {
	m.saves++
	m.accounts[a.Email] = a
	return nil
}

func (m *mockAccountStore) Count(_ context.Context) (int, error) {
	return len(m.accounts), nil
}

func (m *mockAccountStore) GetByID(_ context.Context, id string) (account.Account, error) {
	for _, a := range m.accounts {
		if a.ID == id {
			return a, nil
		}
	}
	return account.Account{}, errNotFound
}

func (m *mockAccountStore) ListDigestRecipients(_ context.Context) ([]account.Account, error) {
	var out []account.Account
	for _, a := range m.accounts {
		if a.ReceivesDigest() {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}
