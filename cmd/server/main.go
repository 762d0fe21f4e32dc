package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	_ "modernc.org/sqlite"

	emailPkg "coachdesk/internal/adapters/email"
	web "coachdesk/internal/adapters/http"
	"coachdesk/internal/adapters/storage"
	accountStore "coachdesk/internal/adapters/storage/account"
	adjustmentStore "coachdesk/internal/adapters/storage/adjustment"
	clientStore "coachdesk/internal/adapters/storage/client"
	frequencyStore "coachdesk/internal/adapters/storage/frequency"
	sessionStore "coachdesk/internal/adapters/storage/session"
	"coachdesk/internal/application/orchestrators"
	"coachdesk/internal/application/projections"
	"coachdesk/internal/config"
	"coachdesk/internal/metrics"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	level := slog.LevelDebug
	if cfg.IsProduction() {
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	// Initialize database with WAL mode, foreign keys, and busy timeout
	dsn := cfg.DBPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	// Connection pool settings for WAL mode
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)

	if err := db.Ping(); err != nil {
		log.Fatalf("database unreachable: %v", err)
	}
	if err := storage.MigrateDB(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}
	log.Println("Database initialized successfully!")

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewManager(reg)
	timedDB := storage.NewTimedDB(db, m, cfg.SlowQueryMs)

	acctStore := accountStore.NewSQLiteStore(timedDB)
	stores := &web.Stores{
		AccountStore:    acctStore,
		ClientStore:     clientStore.NewSQLiteStore(timedDB),
		FrequencyStore:  frequencyStore.NewSQLiteStore(timedDB),
		AdjustmentStore: adjustmentStore.NewSQLiteStore(timedDB),
		SessionStore:    sessionStore.NewSQLiteStore(timedDB),
	}

	// Seed the admin account if no accounts exist
	seedDeps := orchestrators.CreateAccountDeps{AccountStore: acctStore}
	if err := orchestrators.ExecuteSeedAdmin(context.Background(), seedDeps, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatalf("failed to seed admin: %v", err)
	}

	// Configure email sender
	var sender emailPkg.Sender
	if cfg.ResendKey != "" {
		sender = emailPkg.NewRetryingSender(emailPkg.NewResendSender(cfg.ResendKey, cfg.ResendFrom), emailPkg.DefaultMaxRetries)
		log.Println("Email sender configured (Resend)")
	} else {
		sender = emailPkg.NewNoopSender()
		if cfg.IsProduction() {
			log.Println("WARNING: COACHDESK_RESEND_KEY is not set, digest delivery is DISABLED in production")
		} else {
			log.Println("Email sender configured (noop, set COACHDESK_RESEND_KEY for real delivery)")
		}
	}
	web.SetEmailSender(sender, cfg.ResendFrom)
	web.RateLimitPerSecond = cfg.RateLimitPerSecond

	if cfg.DigestEnabled {
		digest, err := orchestrators.StartDigestScheduler(cfg.DigestSchedule, cfg.Location(), 5*time.Minute, orchestrators.AdherenceDigestDeps{
			AccountStore: acctStore,
			ClientStore:  stores.ClientStore,
			Periods: projections.GetClientPeriodsDeps{
				ClientStore:     stores.ClientStore,
				FrequencyStore:  stores.FrequencyStore,
				AdjustmentStore: stores.AdjustmentStore,
				SessionStore:    stores.SessionStore,
				Policy:          cfg.Policy(),
				Location:        cfg.Location(),
				Metrics:         m,
			},
			Sender:  sender,
			From:    cfg.ResendFrom,
			Metrics: m,
		})
		if err != nil {
			log.Fatalf("failed to schedule digest: %v", err)
		}
		defer digest.Stop()
		log.Printf("Adherence digest scheduled (%s), next run %s", cfg.DigestSchedule, digest.Next().Format(time.RFC3339))
	}

	handler := web.NewMux(stores, web.Options{
		CSRFKey:        []byte(cfg.CSRFKey),
		SecureCookies:  cfg.IsProduction(),
		TrustedOrigins: cfg.TrustedOrigins,
		SlowRequestMs:  cfg.SlowRequestMs,
		Policy:         cfg.Policy(),
		Location:       cfg.Location(),
		Metrics:        m,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	log.Printf("Coachdesk %s starting on %s (env=%s, schema=%d, tz=%s)", version, cfg.Addr, cfg.Env, storage.LatestSchemaVersion(), cfg.Timezone)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server failed: %v", err)
	}
}
