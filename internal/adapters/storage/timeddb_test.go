package storage

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"coachdesk/internal/metrics"
)

func openTimedTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	_, err = db.Exec("CREATE TABLE client (id TEXT PRIMARY KEY, name TEXT)")
	require.NoError(t, err)
	return db
}

func TestStatementLabel(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"SELECT id, name FROM client WHERE id = ?", "select client"},
		{"\n\t\tselect count(*)\n\t\tfrom training_session\n\t\twhere client_id = ?", "select training_session"},
		{"INSERT INTO period_adjustment (id, client_id) VALUES (?, ?)", "insert period_adjustment"},
		{"INSERT INTO frequency_change(id) VALUES (?)", "insert frequency_change"},
		{"UPDATE account SET failed_logins = ?", "update account"},
		{"DELETE FROM period_adjustment WHERE client_id = ?", "delete period_adjustment"},
		{"PRAGMA foreign_keys=ON", "pragma"},
		{"SELECT 1", "select"},
		{"   ", "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, StatementLabel(tt.query))
		})
	}
}

func TestTimedDB_ObservesByStatement(t *testing.T) {
	m := metrics.NewTestManager()
	tdb := NewTimedDB(openTimedTestDB(t), m, 0)
	ctx := context.Background()

	_, err := tdb.ExecContext(ctx, "INSERT INTO client (id, name) VALUES (?, ?)", "c1", "Ana")
	require.NoError(t, err)

	var name string
	require.NoError(t, tdb.QueryRowContext(ctx, "SELECT name FROM client WHERE id = ?", "c1").Scan(&name))
	assert.Equal(t, "Ana", name)

	rows, err := tdb.QueryContext(ctx, "SELECT id FROM client")
	require.NoError(t, err)
	rows.Close()

	tx, err := tdb.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())

	// one series each for "insert client", "select client" and "begin"
	assert.Equal(t, 3, testutil.CollectAndCount(m.HistQueryDuration))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.CounterSlowQueries))
}

func TestTimedDB_SlowQueryCounted(t *testing.T) {
	m := metrics.NewTestManager()
	tdb := NewTimedDB(openTimedTestDB(t), m, 1)
	tdb.slow = 0

	_, err := tdb.ExecContext(context.Background(), "INSERT INTO client (id, name) VALUES (?, ?)", "c1", "Ana")
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterSlowQueries))
}

func TestTimedDB_ErrorsPassThrough(t *testing.T) {
	m := metrics.NewTestManager()
	tdb := NewTimedDB(openTimedTestDB(t), m, 0)
	ctx := context.Background()

	_, err := tdb.ExecContext(ctx, "INSERT INTO missing_table VALUES (?)", "x")
	assert.Error(t, err)

	var name string
	err = tdb.QueryRowContext(ctx, "SELECT name FROM client WHERE id = ?", "nope").Scan(&name)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = tdb.ExecContext(cancelled, "INSERT INTO client (id, name) VALUES (?, ?)", "c2", "Rangi")
	assert.Error(t, err)

	// failed calls are still timed
	assert.Equal(t, 3, testutil.CollectAndCount(m.HistQueryDuration))
}

func TestTimedDB_NilMetricsAndDefaults(t *testing.T) {
	db := openTimedTestDB(t)
	tdb := NewTimedDB(db, nil, 0)
	assert.Equal(t, int64(DefaultSlowQueryMs), tdb.slow.Milliseconds())
	assert.Equal(t, int64(250), NewTimedDB(db, nil, 250).slow.Milliseconds())

	_, err := tdb.ExecContext(context.Background(), "INSERT INTO client (id, name) VALUES (?, ?)", "c1", "Ana")
	assert.NoError(t, err)
}

func TestTimedDB_Concurrent(t *testing.T) {
	m := metrics.NewTestManager()
	tdb := NewTimedDB(openTimedTestDB(t), m, 0)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				tdb.ExecContext(ctx, "INSERT OR REPLACE INTO client (id, name) VALUES (?, ?)", "c1", "Ana")
				var n int
				tdb.QueryRowContext(ctx, "SELECT COUNT(*) FROM client").Scan(&n)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, testutil.CollectAndCount(m.HistQueryDuration))
}
