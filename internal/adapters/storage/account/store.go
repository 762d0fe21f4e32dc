package account

import (
	"context"

	domain "coachdesk/internal/domain/account"
)

// Store persists coach and admin accounts.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Account, error)
	GetByEmail(ctx context.Context, email string) (domain.Account, error)
	Save(ctx context.Context, value domain.Account) error
	Count(ctx context.Context) (int, error)
	// ListDigestRecipients returns coach and admin accounts with the digest enabled, by email.
	ListDigestRecipients(ctx context.Context) ([]domain.Account, error)
}
