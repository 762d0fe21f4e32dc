package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron"
)

// DigestScheduler runs the adherence digest on a cron schedule.
type DigestScheduler struct {
	cron *cron.Cron
}

// StartDigestScheduler registers the digest under spec and starts the scheduler.
// spec uses the six-field format with seconds, or a descriptor such as "@daily".
// PRE: deps are fully wired
// POST: Scheduler running; call Stop on shutdown
func StartDigestScheduler(spec string, loc *time.Location, timeout time.Duration, deps AdherenceDigestDeps) (*DigestScheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	c := cron.NewWithLocation(loc)
	err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		res, err := ExecuteAdherenceDigest(ctx, AdherenceDigestInput{Now: time.Now().In(loc)}, deps)
		if err != nil {
			slog.Error("digest_event", "event", "digest_run_failed", "error", err)
			return
		}
		slog.Info("digest_event", "event", "digest_run_complete", "recipients", res.Recipients, "sent", res.Sent, "failed", res.Failed)
	})
	if err != nil {
		return nil, fmt.Errorf("invalid digest schedule %q: %w", spec, err)
	}
	c.Start()
	slog.Info("digest_event", "event", "digest_scheduled", "spec", spec, "location", loc.String())
	return &DigestScheduler{cron: c}, nil
}

// Next returns when the digest will next run.
func (s *DigestScheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// Stop halts the scheduler. A run already in progress finishes on its own.
func (s *DigestScheduler) Stop() {
	s.cron.Stop()
}
