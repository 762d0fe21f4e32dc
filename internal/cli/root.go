// Package cli implements the periods operator command.
package cli

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"coachdesk/internal/adapters/storage"
	adjustmentStore "coachdesk/internal/adapters/storage/adjustment"
	clientStore "coachdesk/internal/adapters/storage/client"
	frequencyStore "coachdesk/internal/adapters/storage/frequency"
	sessionStore "coachdesk/internal/adapters/storage/session"
	"coachdesk/internal/application/orchestrators"
	"coachdesk/internal/application/projections"
	"coachdesk/internal/config"
	"coachdesk/internal/domain/adherence"
)

// app holds what every subcommand needs once the database is open.
type app struct {
	dbPath string
	cfg    *config.Config
	db     *sql.DB

	clients     *clientStore.SQLiteStore
	frequencies *frequencyStore.SQLiteStore
	adjustments *adjustmentStore.SQLiteStore
	sessions    *sessionStore.SQLiteStore
}

// NewRootCommand builds the periods command tree. Each call returns an
// independent tree so flags never leak between invocations.
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "periods",
		Short: "Inspect and adjust client training periods",
		Long: `Inspect the 28-day training periods computed for a client and override
where a period starts.

Reads the same SQLite database as the server. Configuration comes from
COACHDESK_* environment variables; --db overrides COACHDESK_DB_PATH.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.open,
	}
	root.PersistentFlags().StringVar(&a.dbPath, "db", "", "Path to the SQLite database (default from COACHDESK_DB_PATH)")

	root.AddCommand(newShowCommand(a))
	root.AddCommand(newAdjustCommand(a))
	root.AddCommand(newClearCommand(a))
	return root
}

// Execute runs the periods command against os.Args.
func Execute() error {
	return NewRootCommand().Execute()
}

func (a *app) open(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if a.dbPath != "" {
		cfg.DBPath = a.dbPath
	}
	a.cfg = cfg

	if _, err := os.Stat(cfg.DBPath); err != nil {
		return fmt.Errorf("database %s: %w", cfg.DBPath, err)
	}
	db, err := sql.Open("sqlite", cfg.DBPath+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)")
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	if err := storage.MigrateDB(db); err != nil {
		db.Close()
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	a.db = db

	timed := storage.NewTimedDB(db, nil, cfg.SlowQueryMs)
	a.clients = clientStore.NewSQLiteStore(timed)
	a.frequencies = frequencyStore.NewSQLiteStore(timed)
	a.adjustments = adjustmentStore.NewSQLiteStore(timed)
	a.sessions = sessionStore.NewSQLiteStore(timed)
	return nil
}

// close releases the database. Subcommands defer it so failed runs close too.
func (a *app) close() {
	if a.db == nil {
		return
	}
	if err := a.db.Close(); err != nil {
		slog.Warn("cli_db_close_failed", "error", err)
	}
	a.db = nil
}

func (a *app) periodsDeps() projections.GetClientPeriodsDeps {
	return projections.GetClientPeriodsDeps{
		ClientStore:     a.clients,
		FrequencyStore:  a.frequencies,
		AdjustmentStore: a.adjustments,
		SessionStore:    a.sessions,
		Policy:          a.cfg.Policy(),
		Location:        a.cfg.Location(),
	}
}

func (a *app) adjustDeps() orchestrators.AdjustPeriodStartDeps {
	return orchestrators.AdjustPeriodStartDeps{
		ClientStore:     a.clients,
		AdjustmentStore: a.adjustments,
		GenerateID:      uuid.NewString,
		Now:             time.Now,
	}
}

// parseDay reads a YYYY-MM-DD argument as midnight in the configured zone.
func (a *app) parseDay(value string) (time.Time, error) {
	t, err := time.ParseInLocation(adherence.DateLayout, value, a.cfg.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", value)
	}
	return t, nil
}
