package client

import (
	"context"

	domain "coachdesk/internal/domain/client"
)

// Store persists Client state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Client, error)
	Save(ctx context.Context, value domain.Client) error
	List(ctx context.Context, filter ListFilter) ([]domain.Client, error)
	Count(ctx context.Context, search string) (int, error)
	ListByCoachEmail(ctx context.Context, coachEmail string) ([]domain.Client, error)
}

// Sortable columns for List. Anything else sorts by name.
const (
	SortName      = "name"
	SortJoinDate  = "join_date"
	SortFrequency = "frequency"
)

// SortColumns lists the values accepted in ListFilter.Sort.
var SortColumns = []string{SortName, SortJoinDate, SortFrequency}

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	Limit  int
	Offset int
	Search string
	Sort   string // one of SortColumns; empty means name
	Desc   bool
}
