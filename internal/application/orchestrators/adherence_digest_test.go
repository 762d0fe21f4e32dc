package orchestrators

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"coachdesk/internal/adapters/email"
	"coachdesk/internal/application/projections"
	"coachdesk/internal/domain/account"
	"coachdesk/internal/domain/adherence"
	"coachdesk/internal/domain/client"
	"coachdesk/internal/domain/session"
	"coachdesk/internal/metrics"
)

// failingSender rejects every send.
type failingSender struct{}

func (failingSender) Send(context.Context, email.SendRequest) (email.SendResult, error) {
	return email.SendResult{}, errors.New("provider unavailable")
}

func digestFixture(sender email.Sender, m *metrics.Manager) AdherenceDigestDeps {
	clients := newMockClientStore(
		client.Client{ID: "c1", Name: "Aroha", JoinDate: civil(2026, 2, 1), TrainingFrequency: 2, CoachEmail: "a@example.com"},
		client.Client{ID: "c2", Name: "Hemi | Jr", JoinDate: civil(2026, 2, 1), TrainingFrequency: 0, CoachEmail: "a@example.com"},
		client.Client{ID: "c3", Name: "Kiri", JoinDate: civil(2026, 2, 10), TrainingFrequency: 3, CoachEmail: "admin@example.com"},
		client.Client{ID: "c4", Name: "Rangi", JoinDate: civil(2026, 1, 10), TrainingFrequency: 1, CoachEmail: "quiet@example.com"},
	)
	sessions := newMockSessionStore(
		session.Session{ID: "s1", ClientID: "c1", Date: civil(2026, 2, 3), Status: session.StatusCompleted},
		session.Session{ID: "s2", ClientID: "c1", Date: civil(2026, 2, 5), Status: session.StatusNoShow},
	)
	accounts := newMockAccountStore(
		account.Account{ID: "u1", Email: "a@example.com", Name: "Tama", Role: account.RoleCoach, DigestEnabled: true},
		account.Account{ID: "u2", Email: "b@example.com", Role: account.RoleCoach, DigestEnabled: true},
		account.Account{ID: "u3", Email: "admin@example.com", Role: account.RoleAdmin, DigestEnabled: true},
		account.Account{ID: "u4", Email: "quiet@example.com", Role: account.RoleCoach},
	)
	return AdherenceDigestDeps{
		AccountStore: accounts,
		ClientStore:  clients,
		Periods: projections.GetClientPeriodsDeps{
			ClientStore:     clients,
			FrequencyStore:  &mockFrequencyStore{},
			AdjustmentStore: newMockAdjustmentStore(),
			SessionStore:    sessions,
			Policy:          adherence.DefaultPolicy(),
		},
		Sender:  sender,
		From:    "Coachdesk <noreply@example.com>",
		Metrics: m,
	}
}

// TestExecuteAdherenceDigest_SendsPerCoach tests one email per coach with clients.
func TestExecuteAdherenceDigest_SendsPerCoach(t *testing.T) {
	sender := email.NewNoopSender()
	m := metrics.NewTestManager()

	res, err := ExecuteAdherenceDigest(context.Background(), AdherenceDigestInput{Now: fixedTime}, digestFixture(sender, m))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Recipients != 2 || res.Sent != 2 || res.Failed != 0 {
		t.Errorf("result = %+v, want 2 recipients, 2 sent", res)
	}

	sent := sender.Sent()
	if len(sent) != 2 {
		t.Fatalf("sent %d emails, want 2", len(sent))
	}
	var coachMail email.SendRequest
	for _, s := range sent {
		if s.To[0] == "a@example.com" {
			coachMail = s
		}
		if s.To[0] == "b@example.com" {
			t.Error("coach without clients should not get a digest")
		}
		if s.To[0] == "quiet@example.com" {
			t.Error("coach with the digest switched off should not get one")
		}
	}
	if !strings.Contains(coachMail.Text, "Hi Tama,") {
		t.Errorf("greeting should use the account name, got:\n%s", coachMail.Text)
	}
	if coachMail.Category != DigestCategory {
		t.Errorf("category = %q", coachMail.Category)
	}
	if !strings.Contains(coachMail.HTML, "<table>") || !strings.Contains(coachMail.HTML, "Aroha") {
		t.Errorf("html should render a table with client names, got %s", coachMail.HTML)
	}
	// period 2 of Aroha: 2026-03-01..2026-03-28, nothing completed yet
	if !strings.Contains(coachMail.Text, "| Aroha | 2 | 2026-03-01 to 2026-03-28 | 8 | 0 | 0 | 0 | 0% |") {
		t.Errorf("markdown row missing, got:\n%s", coachMail.Text)
	}
	if !strings.Contains(coachMail.Text, `Hemi \| Jr`) {
		t.Error("pipes in names must be escaped")
	}
	if got := testutil.ToFloat64(m.CounterDigestEmails.WithLabelValues("sent")); got != 2 {
		t.Errorf("sent counter = %v, want 2", got)
	}
}

// TestExecuteAdherenceDigest_SendFailuresCounted tests that one failure does not stop the run.
func TestExecuteAdherenceDigest_SendFailuresCounted(t *testing.T) {
	m := metrics.NewTestManager()
	res, err := ExecuteAdherenceDigest(context.Background(), AdherenceDigestInput{Now: fixedTime}, digestFixture(failingSender{}, m))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Failed != 2 || res.Sent != 0 {
		t.Errorf("result = %+v, want 2 failed", res)
	}
	if got := testutil.ToFloat64(m.CounterDigestEmails.WithLabelValues("failed")); got != 2 {
		t.Errorf("failed counter = %v, want 2", got)
	}
}

// TestRenderDigestMarkdown_NoCurrentPeriod tests the placeholder row.
func TestRenderDigestMarkdown_NoCurrentPeriod(t *testing.T) {
	md := RenderDigestMarkdown("admin", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), []DigestRow{{ClientName: "Future Joiner"}})
	if !strings.Contains(md, "| Future Joiner | - | no current period |") {
		t.Errorf("missing placeholder row:\n%s", md)
	}
	if !strings.HasPrefix(md, "# Client adherence, 2026-03-01") {
		t.Errorf("missing heading:\n%s", md)
	}
}
