package orchestrators

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"coachdesk/internal/adapters/email"
	"coachdesk/internal/application/projections"
	"coachdesk/internal/domain/account"
	"coachdesk/internal/domain/adherence"
	"coachdesk/internal/domain/client"
	"coachdesk/internal/metrics"
)

// DigestCategory tags digest emails at the provider.
const DigestCategory = "adherence_digest"

// digestMarkdown renders digest tables; raw HTML in client names stays escaped.
var digestMarkdown = goldmark.New(goldmark.WithExtensions(extension.Table))

// DigestAccountStore defines the account interface needed by the digest.
type DigestAccountStore interface {
	ListDigestRecipients(ctx context.Context) ([]account.Account, error)
}

// DigestClientStore defines the client interface needed by the digest.
type DigestClientStore interface {
	ListByCoachEmail(ctx context.Context, coachEmail string) ([]client.Client, error)
}

// AdherenceDigestInput carries input for the digest orchestrator.
type AdherenceDigestInput struct {
	Now time.Time // zero means time.Now()
}

// AdherenceDigestDeps holds dependencies for AdherenceDigest.
type AdherenceDigestDeps struct {
	AccountStore DigestAccountStore
	ClientStore  DigestClientStore
	Periods      projections.GetClientPeriodsDeps
	Sender       email.Sender
	From         string
	Metrics      *metrics.Manager // optional
}

// AdherenceDigestResult summarises one digest run.
type AdherenceDigestResult struct {
	Recipients int
	Sent       int
	Failed     int
}

// DigestRow is one client's line in a coach's digest.
type DigestRow struct {
	ClientName string
	Period     adherence.Period
	HasCurrent bool
}

// ExecuteAdherenceDigest emails each coach a summary of their clients' current periods.
// Coaches without clients, and coaches who switched the digest off, get nothing.
// A failure for one coach does not stop the others.
// PRE: Sender configured
// POST: One email attempted per coach with at least one client
func ExecuteAdherenceDigest(ctx context.Context, input AdherenceDigestInput, deps AdherenceDigestDeps) (AdherenceDigestResult, error) {
	now := input.Now
	if now.IsZero() {
		now = time.Now()
	}
	accounts, err := deps.AccountStore.ListDigestRecipients(ctx)
	if err != nil {
		return AdherenceDigestResult{}, fmt.Errorf("list digest recipients: %w", err)
	}

	var result AdherenceDigestResult
	for _, acct := range accounts {
		if !acct.ReceivesDigest() {
			continue
		}
		clients, err := deps.ClientStore.ListByCoachEmail(ctx, acct.Email)
		if err != nil {
			return result, fmt.Errorf("list clients for %s: %w", acct.Email, err)
		}
		if len(clients) == 0 {
			continue
		}
		result.Recipients++

		rows := make([]DigestRow, 0, len(clients))
		for _, c := range clients {
			view, err := projections.QueryGetClientPeriods(ctx, projections.GetClientPeriodsQuery{ClientID: c.ID, Now: now}, deps.Periods)
			if err != nil {
				slog.Error("digest_event", "event", "client_skipped", "client_id", c.ID, "error", err)
				continue
			}
			rows = append(rows, DigestRow{ClientName: c.Name, Period: view.Current, HasCurrent: view.HasCurrent})
		}

		md := RenderDigestMarkdown(acct.DisplayName(), now, rows)
		var html bytes.Buffer
		if err := digestMarkdown.Convert([]byte(md), &html); err != nil {
			return result, fmt.Errorf("render digest: %w", err)
		}

		_, err = deps.Sender.Send(ctx, email.SendRequest{
			To:       []string{acct.Email},
			From:     deps.From,
			Subject:  fmt.Sprintf("Client adherence for %s", now.Format(adherence.DateLayout)),
			HTML:     html.String(),
			Text:     md,
			Category: DigestCategory,
		})
		if err != nil {
			result.Failed++
			countDigest(deps.Metrics, "failed")
			slog.Error("digest_event", "event", "adherence_digest_failed", "to", acct.Email, "error", err)
			continue
		}
		result.Sent++
		countDigest(deps.Metrics, "sent")
		slog.Info("digest_event", "event", "adherence_digest_sent", "to", acct.Email, "clients", len(rows))
	}
	return result, nil
}

// RenderDigestMarkdown lays out digest rows as a markdown table addressed to recipient.
func RenderDigestMarkdown(recipient string, now time.Time, rows []DigestRow) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Client adherence, %s\n\n", now.Format(adherence.DateLayout))
	fmt.Fprintf(&b, "Hi %s, here is where each of your clients stands in their current period.\n\n", recipient)
	b.WriteString("| Client | Period | Window | Target | Completed | Missed | Upcoming | Adherence |\n")
	b.WriteString("|---|---|---|---|---|---|---|---|\n")
	for _, r := range rows {
		name := strings.ReplaceAll(r.ClientName, "|", `\|`)
		if !r.HasCurrent {
			fmt.Fprintf(&b, "| %s | - | no current period | - | - | - | - | - |\n", name)
			continue
		}
		p := r.Period
		fmt.Fprintf(&b, "| %s | %d | %s to %s | %d | %d | %d | %d | %.0f%% |\n",
			name,
			p.Number,
			p.StartDate.Format(adherence.DateLayout),
			p.EndDate.Format(adherence.DateLayout),
			p.ExpectedSessions,
			p.CompletedCount,
			p.MissedCount,
			p.ScheduledCount,
			p.AdherenceRate()*100,
		)
	}
	return b.String()
}

func countDigest(m *metrics.Manager, result string) {
	if m != nil {
		m.CounterDigestEmails.WithLabelValues(result).Inc()
	}
}
