package storage

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"time"

	"coachdesk/internal/metrics"
)

// SQLDB is the database interface used by all stores.
// Both *sql.DB and *TimedDB satisfy this interface.
type SQLDB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

var (
	_ SQLDB = (*sql.DB)(nil)
	_ SQLDB = (*TimedDB)(nil)
)

// DefaultSlowQueryMs is the default threshold for slow query warnings.
const DefaultSlowQueryMs = 50

// TimedDB instruments every store call: latency goes to the query histogram under a
// "verb table" label, and calls at or above the threshold log a slow_query warning.
type TimedDB struct {
	db      *sql.DB
	metrics *metrics.Manager
	slow    time.Duration
}

// NewTimedDB wraps db. A slowQueryMs <= 0 uses DefaultSlowQueryMs; m may be nil.
// PRE: db is a valid database connection
// POST: Returns a TimedDB that forwards every call to db
func NewTimedDB(db *sql.DB, m *metrics.Manager, slowQueryMs int) *TimedDB {
	if slowQueryMs <= 0 {
		slowQueryMs = DefaultSlowQueryMs
	}
	return &TimedDB{db: db, metrics: m, slow: time.Duration(slowQueryMs) * time.Millisecond}
}

func (t *TimedDB) observe(ctx context.Context, label string, start time.Time, err error) {
	elapsed := time.Since(start)
	if elapsed >= t.slow {
		attrs := []any{"statement", label, "duration_ms", float64(elapsed.Microseconds()) / 1000.0}
		if err != nil {
			attrs = append(attrs, "error", err)
		}
		slog.WarnContext(ctx, "slow_query", attrs...)
		if t.metrics != nil {
			t.metrics.CounterSlowQueries.Inc()
		}
	}
	if t.metrics != nil {
		t.metrics.HistQueryDuration.WithLabelValues(label).Observe(elapsed.Seconds())
	}
}

func (t *TimedDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	result, err := t.db.ExecContext(ctx, query, args...)
	t.observe(ctx, StatementLabel(query), start, err)
	return result, err
}

func (t *TimedDB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	rows, err := t.db.QueryContext(ctx, query, args...)
	t.observe(ctx, StatementLabel(query), start, err)
	return rows, err
}

// QueryRowContext times the round trip only; scan errors surface later through the Row.
func (t *TimedDB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	start := time.Now()
	row := t.db.QueryRowContext(ctx, query, args...)
	t.observe(ctx, StatementLabel(query), start, nil)
	return row
}

func (t *TimedDB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	start := time.Now()
	tx, err := t.db.BeginTx(ctx, opts)
	t.observe(ctx, "begin", start, err)
	return tx, err
}

// StatementLabel reduces a SQL statement to its verb and main table, e.g. "select client"
// or "insert period_adjustment". Statements it does not recognise keep the verb only.
func StatementLabel(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return "unknown"
	}
	verb := strings.ToLower(fields[0])
	var marker string
	switch verb {
	case "select", "delete":
		marker = "from"
	case "insert", "replace":
		marker = "into"
	case "update":
		if len(fields) > 1 {
			return verb + " " + tableName(fields[1])
		}
		return verb
	default:
		return verb
	}
	for i := 1; i < len(fields)-1; i++ {
		if strings.EqualFold(fields[i], marker) {
			return verb + " " + tableName(fields[i+1])
		}
	}
	return verb
}

func tableName(field string) string {
	if i := strings.IndexAny(field, "(,;"); i >= 0 {
		field = field[:i]
	}
	return strings.ToLower(field)
}
