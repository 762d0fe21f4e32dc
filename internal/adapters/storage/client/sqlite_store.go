package client

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"coachdesk/internal/adapters/storage"
	domain "coachdesk/internal/domain/client"
)

const selectColumns = "SELECT id, name, email, join_date, training_frequency, coach_email, created_at FROM client"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new ClientStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Client by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error wrapping sql.ErrNoRows if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Client, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id)
	entity, err := scanClient(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Client{}, fmt.Errorf("client not found: %w", err)
	}
	return entity, err
}

// Save persists a Client to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Client) error {
	query := `INSERT INTO client (id, name, email, join_date, training_frequency, coach_email, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name=excluded.name,
			email=excluded.email,
			join_date=excluded.join_date,
			training_frequency=excluded.training_frequency,
			coach_email=excluded.coach_email`
	_, err := s.db.ExecContext(ctx, query,
		entity.ID,
		entity.Name,
		entity.Email,
		storage.FormatDate(entity.JoinDate),
		entity.TrainingFrequency,
		entity.CoachEmail,
		storage.FormatTime(entity.CreatedAt),
	)
	return err
}

// orderColumns maps sortable names to SQL columns. Values are never taken from input.
var orderColumns = map[string]string{
	SortName:      "name",
	SortJoinDate:  "join_date",
	SortFrequency: "training_frequency",
}

// List retrieves Clients ordered by filter.Sort, name by default.
// PRE: filter has valid parameters
// POST: Returns matching entities; Limit <= 0 means no limit
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Client, error) {
	var queryBuilder strings.Builder
	var args []any

	queryBuilder.WriteString(selectColumns)
	where, whereArgs := searchClause(filter.Search)
	queryBuilder.WriteString(where)
	args = append(args, whereArgs...)

	column, ok := orderColumns[filter.Sort]
	if !ok {
		column = "name"
	}
	dir := "ASC"
	if filter.Desc {
		dir = "DESC"
	}
	fmt.Fprintf(&queryBuilder, " ORDER BY %s %s, id ASC", column, dir)
	if filter.Limit > 0 {
		queryBuilder.WriteString(" LIMIT ? OFFSET ?")
		args = append(args, filter.Limit, filter.Offset)
	}

	return s.query(ctx, queryBuilder.String(), args...)
}

// Count returns how many Clients match search, for paging List.
// PRE: none
// POST: Returns the number of matching rows
func (s *SQLiteStore) Count(ctx context.Context, search string) (int, error) {
	where, args := searchClause(search)
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM client"+where, args...).Scan(&n)
	return n, err
}

func searchClause(search string) (string, []any) {
	if search == "" {
		return "", nil
	}
	pattern := "%" + search + "%"
	return " WHERE name LIKE ? OR email LIKE ?", []any{pattern, pattern}
}

// ListByCoachEmail retrieves the Clients a coach receives the digest for.
// PRE: coachEmail is non-empty
// POST: Returns matching entities ordered by name
func (s *SQLiteStore) ListByCoachEmail(ctx context.Context, coachEmail string) ([]domain.Client, error) {
	return s.query(ctx, selectColumns+" WHERE coach_email = ? ORDER BY name ASC, id ASC", coachEmail)
}

func (s *SQLiteStore) query(ctx context.Context, query string, args ...any) ([]domain.Client, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Client
	for rows.Next() {
		entity, err := scanClient(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

// scanClient extracts a Client from a row scanner function.
func scanClient(scan func(dest ...any) error) (domain.Client, error) {
	var entity domain.Client
	var joinDate, createdAt string
	err := scan(
		&entity.ID,
		&entity.Name,
		&entity.Email,
		&joinDate,
		&entity.TrainingFrequency,
		&entity.CoachEmail,
		&createdAt,
	)
	if err != nil {
		return domain.Client{}, err
	}
	if entity.JoinDate, err = storage.ParseDate(joinDate); err != nil {
		return domain.Client{}, err
	}
	entity.CreatedAt, _ = storage.ParseTime(createdAt)
	return entity, nil
}
