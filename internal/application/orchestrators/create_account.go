package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"coachdesk/internal/domain/account"
)

// ErrEmailAlreadyExists is returned when an account already uses the email.
var ErrEmailAlreadyExists = errors.New("an account with this email already exists")

// ErrAccountNotFound is returned when a write names an account that does not exist.
var ErrAccountNotFound = errors.New("account not found")

// AccountStoreForCreate defines the store interface needed by CreateAccount.
type AccountStoreForCreate interface {
	GetByEmail(ctx context.Context, email string) (account.Account, error)
	Save(ctx context.Context, a account.Account) error
	Count(ctx context.Context) (int, error)
}

// CreateAccountInput carries input for the orchestrator.
type CreateAccountInput struct {
	Email    string
	Name     string
	Password string
	Role     string
}

// CreateAccountDeps holds dependencies for CreateAccount.
type CreateAccountDeps struct {
	AccountStore AccountStoreForCreate
	GenerateID   func() string    // nil means uuid.NewString
	Now          func() time.Time // nil means time.Now
}

// ExecuteCreateAccount creates a coach or admin login with the digest switched on.
// PRE: Valid email, password >= 12 chars, role admin or coach
// POST: Account persisted with a bcrypt hash; the returned ID identifies it
// INVARIANT: Emails are unique after normalization
func ExecuteCreateAccount(ctx context.Context, input CreateAccountInput, deps CreateAccountDeps) (string, error) {
	acct := account.Account{
		Email:         account.NormalizeEmail(input.Email),
		Name:          strings.TrimSpace(input.Name),
		Role:          input.Role,
		DigestEnabled: true,
	}
	if err := acct.Validate(); err != nil {
		return "", err
	}
	if _, err := deps.AccountStore.GetByEmail(ctx, acct.Email); err == nil {
		return "", ErrEmailAlreadyExists
	}
	if err := acct.SetPassword(input.Password); err != nil {
		return "", err
	}

	acct.ID = uuid.NewString()
	if deps.GenerateID != nil {
		acct.ID = deps.GenerateID()
	}
	acct.CreatedAt = time.Now()
	if deps.Now != nil {
		acct.CreatedAt = deps.Now()
	}
	if err := deps.AccountStore.Save(ctx, acct); err != nil {
		return "", fmt.Errorf("save account: %w", err)
	}

	slog.Info("auth_event", "event", "account_created", "email", acct.Email, "role", acct.Role)
	return acct.ID, nil
}

// ExecuteSeedAdmin creates the first admin when the account table is empty.
// PRE: Database is migrated
// POST: Exactly one admin exists if there were no accounts; otherwise nothing changes
func ExecuteSeedAdmin(ctx context.Context, deps CreateAccountDeps, email, password string) error {
	count, err := deps.AccountStore.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	if _, err := ExecuteCreateAccount(ctx, CreateAccountInput{
		Email:    email,
		Name:     "Admin",
		Password: password,
		Role:     account.RoleAdmin,
	}, deps); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	slog.Info("auth_event", "event", "admin_seeded", "email", account.NormalizeEmail(email))
	return nil
}

// --- Digest Preference ---

// AccountStoreForPreference defines the store interface needed by SetDigestPreference.
type AccountStoreForPreference interface {
	GetByID(ctx context.Context, id string) (account.Account, error)
	Save(ctx context.Context, a account.Account) error
}

// SetDigestPreferenceInput carries input for the digest preference orchestrator.
type SetDigestPreferenceInput struct {
	AccountID string
	Enabled   bool
}

// ExecuteSetDigestPreference switches the scheduled adherence digest on or off for an account.
// PRE: AccountID names an existing account
// POST: DigestEnabled persisted; other fields unchanged
func ExecuteSetDigestPreference(ctx context.Context, input SetDigestPreferenceInput, store AccountStoreForPreference) (account.Account, error) {
	acct, err := store.GetByID(ctx, input.AccountID)
	if err != nil {
		return account.Account{}, lookupErr(err, ErrAccountNotFound, "account", input.AccountID)
	}
	if acct.DigestEnabled == input.Enabled {
		return acct, nil
	}
	acct.DigestEnabled = input.Enabled
	if err := store.Save(ctx, acct); err != nil {
		return account.Account{}, fmt.Errorf("save digest preference: %w", err)
	}
	slog.Info("auth_event", "event", "digest_preference_changed", "account_id", acct.ID, "enabled", acct.DigestEnabled)
	return acct, nil
}
