package frequency

import (
	"context"

	"coachdesk/internal/adapters/storage"
	domain "coachdesk/internal/domain/frequency"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new frequency history store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// ListByClientID returns a client's frequency history, oldest first.
// PRE: clientID is non-empty
// POST: Returns all changes for the client; empty slice when there is no history
func (s *SQLiteStore) ListByClientID(ctx context.Context, clientID string) ([]domain.Change, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, client_id, frequency, effective_from, created_at FROM frequency_change WHERE client_id = ? ORDER BY effective_from ASC",
		clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Change
	for rows.Next() {
		var c domain.Change
		var effectiveFrom, createdAt string
		if err := rows.Scan(&c.ID, &c.ClientID, &c.Frequency, &effectiveFrom, &createdAt); err != nil {
			return nil, err
		}
		if c.EffectiveFrom, err = storage.ParseDate(effectiveFrom); err != nil {
			return nil, err
		}
		c.CreatedAt, _ = storage.ParseTime(createdAt)
		results = append(results, c)
	}
	return results, rows.Err()
}

// Save records a frequency change. A second change on the same effective date
// replaces the first.
// PRE: value has been validated
// POST: Exactly one row exists for (ClientID, EffectiveFrom)
func (s *SQLiteStore) Save(ctx context.Context, value domain.Change) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO frequency_change (id, client_id, frequency, effective_from, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(client_id, effective_from) DO UPDATE SET
			frequency=excluded.frequency,
			created_at=excluded.created_at`,
		value.ID,
		value.ClientID,
		value.Frequency,
		storage.FormatDate(value.EffectiveFrom),
		storage.FormatTime(value.CreatedAt),
	)
	return err
}
