package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"coachdesk/internal/adapters/storage"
	domain "coachdesk/internal/domain/session"
)

const selectColumns = "SELECT id, client_id, date, start_time, end_time, status, type, notes, created_at FROM training_session"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new session store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Session by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error wrapping sql.ErrNoRows if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Session, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id)
	entity, err := scanSession(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Session{}, fmt.Errorf("session not found: %w", err)
	}
	return entity, err
}

// Save persists a Session to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Session) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO training_session (id, client_id, date, start_time, end_time, status, type, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			date=excluded.date,
			start_time=excluded.start_time,
			end_time=excluded.end_time,
			status=excluded.status,
			type=excluded.type,
			notes=excluded.notes`,
		entity.ID,
		entity.ClientID,
		storage.FormatDate(entity.Date),
		entity.StartTime,
		entity.EndTime,
		entity.Status,
		entity.Type,
		entity.Notes,
		storage.FormatTime(entity.CreatedAt),
	)
	return err
}

// ListByClientID returns every session the client has, regardless of date or status.
// PRE: clientID is non-empty
// POST: Sessions ordered by date then start time
func (s *SQLiteStore) ListByClientID(ctx context.Context, clientID string) ([]domain.Session, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+" WHERE client_id = ? ORDER BY date ASC, start_time ASC, id ASC", clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Session
	for rows.Next() {
		entity, err := scanSession(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

// scanSession extracts a Session from a row scanner function.
func scanSession(scan func(dest ...any) error) (domain.Session, error) {
	var entity domain.Session
	var date, createdAt string
	err := scan(
		&entity.ID,
		&entity.ClientID,
		&date,
		&entity.StartTime,
		&entity.EndTime,
		&entity.Status,
		&entity.Type,
		&entity.Notes,
		&createdAt,
	)
	if err != nil {
		return domain.Session{}, err
	}
	if entity.Date, err = storage.ParseDate(date); err != nil {
		return domain.Session{}, err
	}
	entity.CreatedAt, _ = storage.ParseTime(createdAt)
	return entity, nil
}
