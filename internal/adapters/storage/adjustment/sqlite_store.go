package adjustment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"coachdesk/internal/adapters/storage"
	domain "coachdesk/internal/domain/adjustment"
)

const selectColumns = "SELECT id, client_id, period_number, custom_start_date, created_by, created_at FROM period_adjustment"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new adjustment store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// ListByClientID returns every override recorded for a client, by period number.
// PRE: clientID is non-empty
// POST: Returns at most one adjustment per period number
func (s *SQLiteStore) ListByClientID(ctx context.Context, clientID string) ([]domain.PeriodAdjustment, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+" WHERE client_id = ? ORDER BY period_number ASC", clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.PeriodAdjustment
	for rows.Next() {
		a, err := scanAdjustment(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, a)
	}
	return results, rows.Err()
}

// GetByClientAndPeriod retrieves the override for one period.
// POST: Returns an error wrapping sql.ErrNoRows when the period has no override
func (s *SQLiteStore) GetByClientAndPeriod(ctx context.Context, clientID string, periodNumber int) (domain.PeriodAdjustment, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE client_id = ? AND period_number = ?", clientID, periodNumber)
	a, err := scanAdjustment(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.PeriodAdjustment{}, fmt.Errorf("period adjustment not found: %w", err)
	}
	return a, err
}

// Upsert stores an override, replacing any earlier override for the same period.
// The original row ID is kept on replace.
// PRE: value has been validated
// POST: Exactly one row exists for (ClientID, PeriodNumber)
func (s *SQLiteStore) Upsert(ctx context.Context, value domain.PeriodAdjustment) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO period_adjustment (id, client_id, period_number, custom_start_date, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(client_id, period_number) DO UPDATE SET
			custom_start_date=excluded.custom_start_date,
			created_by=excluded.created_by,
			created_at=excluded.created_at`,
		value.ID,
		value.ClientID,
		value.PeriodNumber,
		storage.FormatDate(value.CustomStartDate),
		value.CreatedBy,
		storage.FormatTime(value.CreatedAt),
	)
	return err
}

// DeleteByClientAndPeriod removes the override so the period start is computed again.
// POST: Returns an error wrapping sql.ErrNoRows when there was nothing to remove
func (s *SQLiteStore) DeleteByClientAndPeriod(ctx context.Context, clientID string, periodNumber int) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM period_adjustment WHERE client_id = ? AND period_number = ?", clientID, periodNumber)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("period adjustment not found: %w", sql.ErrNoRows)
	}
	return nil
}

// scanAdjustment extracts a PeriodAdjustment from a row scanner function.
func scanAdjustment(scan func(dest ...any) error) (domain.PeriodAdjustment, error) {
	var a domain.PeriodAdjustment
	var startDate, createdAt string
	if err := scan(&a.ID, &a.ClientID, &a.PeriodNumber, &startDate, &a.CreatedBy, &createdAt); err != nil {
		return domain.PeriodAdjustment{}, err
	}
	var err error
	if a.CustomStartDate, err = storage.ParseDate(startDate); err != nil {
		return domain.PeriodAdjustment{}, err
	}
	a.CreatedAt, _ = storage.ParseTime(createdAt)
	return a, nil
}
