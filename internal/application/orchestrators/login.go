package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"coachdesk/internal/domain/account"
)

// Login errors. Unknown emails and wrong passwords share ErrInvalidCredentials.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountLocked      = errors.New("account is locked due to too many failed attempts")
)

// AccountStoreForLogin defines the store interface needed by Login.
type AccountStoreForLogin interface {
	GetByEmail(ctx context.Context, email string) (account.Account, error)
	Save(ctx context.Context, a account.Account) error
}

// LoginInput carries input for the login orchestrator.
type LoginInput struct {
	Email    string
	Password string
}

// LoginResult is what the session needs to know about the account.
type LoginResult struct {
	AccountID string
	Email     string
	Name      string
	Role      string
}

// LoginDeps holds dependencies for Login.
type LoginDeps struct {
	AccountStore AccountStoreForLogin
	Now          func() time.Time // nil means time.Now
}

// ExecuteLogin checks a coach or admin's credentials.
// PRE: none
// POST: On success any failure count is cleared; on a wrong password the failure is
// recorded and may lock the account
// INVARIANT: A locked account is refused even with the right password
func ExecuteLogin(ctx context.Context, input LoginInput, deps LoginDeps) (LoginResult, error) {
	email := account.NormalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return LoginResult{}, ErrInvalidCredentials
	}
	now := time.Now()
	if deps.Now != nil {
		now = deps.Now()
	}

	acct, err := deps.AccountStore.GetByEmail(ctx, email)
	if err != nil {
		slog.Info("auth_event", "event", "login_failed", "email", email, "reason", "unknown_account")
		return LoginResult{}, ErrInvalidCredentials
	}
	if acct.IsLocked(now) {
		slog.Warn("auth_event", "event", "login_blocked", "email", email, "locked_until", acct.LockedUntil)
		return LoginResult{}, ErrAccountLocked
	}

	if acct.CheckPassword(input.Password) != nil {
		locked := acct.RegisterFailure(now)
		if err := deps.AccountStore.Save(ctx, acct); err != nil {
			slog.Error("auth_event", "event", "login_failure_not_recorded", "email", email, "error", err)
		}
		if locked {
			slog.Warn("auth_event", "event", "account_locked", "email", email, "failed_logins", acct.FailedLogins)
		} else {
			slog.Info("auth_event", "event", "login_failed", "email", email, "reason", "wrong_password", "failed_logins", acct.FailedLogins)
		}
		return LoginResult{}, ErrInvalidCredentials
	}

	if acct.FailedLogins > 0 {
		acct.ClearFailures()
		if err := deps.AccountStore.Save(ctx, acct); err != nil {
			slog.Error("auth_event", "event", "login_reset_not_recorded", "email", email, "error", err)
		}
	}
	slog.Info("auth_event", "event", "login_success", "email", email, "role", acct.Role)
	return LoginResult{
		AccountID: acct.ID,
		Email:     acct.Email,
		Name:      acct.Name,
		Role:      acct.Role,
	}, nil
}
