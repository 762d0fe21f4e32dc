package account

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Role constants. Clients never log in; they reach a coach through Client.CoachEmail.
const (
	RoleAdmin = "admin"
	RoleCoach = "coach"
)

// Field limits.
const (
	MaxEmailLength = 254
	MaxNameLength  = 100
	MinPasswordLen = 12
)

// Lockout policy: MaxFailedLogins wrong passwords in a row lock the account for LockoutDuration.
const (
	MaxFailedLogins = 5
	LockoutDuration = 15 * time.Minute
)

const bcryptCost = 12

// Domain errors
var (
	ErrEmptyEmail       = errors.New("email cannot be empty")
	ErrInvalidEmail     = errors.New("email must contain '@'")
	ErrEmailTooLong     = errors.New("email cannot exceed 254 characters")
	ErrNameTooLong      = errors.New("name cannot exceed 100 characters")
	ErrInvalidRole      = errors.New("role must be one of: admin, coach")
	ErrEmptyPassword    = errors.New("password cannot be empty")
	ErrPasswordTooShort = errors.New("password must be at least 12 characters")
	ErrWrongPassword    = errors.New("incorrect password")
)

// Account is a coach or admin login. Its Email is also the key clients are
// assigned by, so it is stored normalized (see NormalizeEmail).
type Account struct {
	ID            string
	Email         string
	Name          string // shown in the digest greeting; optional
	PasswordHash  string
	Role          string
	DigestEnabled bool // receives the scheduled adherence digest
	CreatedAt     time.Time
	FailedLogins  int
	LockedUntil   time.Time
}

// NormalizeEmail lowercases and trims an address so lookups and client
// assignment compare equal regardless of how it was typed.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Validate checks if the Account has valid data.
// PRE: Email has been passed through NormalizeEmail
// POST: Returns nil if valid, a domain error otherwise
func (a *Account) Validate() error {
	switch {
	case a.Email == "":
		return ErrEmptyEmail
	case len(a.Email) > MaxEmailLength:
		return ErrEmailTooLong
	case !strings.Contains(a.Email, "@"):
		return ErrInvalidEmail
	case len(a.Name) > MaxNameLength:
		return ErrNameTooLong
	case a.Role != RoleAdmin && a.Role != RoleCoach:
		return ErrInvalidRole
	}
	return nil
}

// SetPassword replaces the stored bcrypt hash.
// PRE: plaintext has at least MinPasswordLen characters
// POST: PasswordHash holds a bcrypt hash of plaintext; unchanged on error
func (a *Account) SetPassword(plaintext string) error {
	if plaintext == "" {
		return ErrEmptyPassword
	}
	if len(plaintext) < MinPasswordLen {
		return ErrPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcryptCost)
	if err != nil {
		return err
	}
	a.PasswordHash = string(hash)
	return nil
}

// CheckPassword returns ErrWrongPassword unless plaintext matches the stored hash.
// An account without a hash never matches.
func (a *Account) CheckPassword(plaintext string) error {
	if a.PasswordHash == "" {
		return ErrWrongPassword
	}
	if bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(plaintext)) != nil {
		return ErrWrongPassword
	}
	return nil
}

// IsLocked reports whether the account is locked out at now.
func (a *Account) IsLocked(now time.Time) bool {
	return !a.LockedUntil.IsZero() && now.Before(a.LockedUntil)
}

// RegisterFailure counts a wrong password and reports whether it locked the account.
// POST: FailedLogins incremented; LockedUntil = now+LockoutDuration once the limit is hit
func (a *Account) RegisterFailure(now time.Time) bool {
	a.FailedLogins++
	if a.FailedLogins < MaxFailedLogins {
		return false
	}
	a.LockedUntil = now.Add(LockoutDuration)
	return true
}

// ClearFailures forgets earlier wrong passwords after a successful login.
// POST: FailedLogins is 0 and LockedUntil is zero
func (a *Account) ClearFailures() {
	a.FailedLogins = 0
	a.LockedUntil = time.Time{}
}

// CanManagePeriods reports whether the account may view clients and adjust their periods.
func (a *Account) CanManagePeriods() bool {
	return a.Role == RoleAdmin || a.Role == RoleCoach
}

// ReceivesDigest reports whether the scheduled adherence digest goes to this account.
func (a *Account) ReceivesDigest() bool {
	return a.CanManagePeriods() && a.DigestEnabled
}

// DisplayName returns Name, falling back to the local part of Email.
func (a *Account) DisplayName() string {
	if a.Name != "" {
		return a.Name
	}
	local, _, _ := strings.Cut(a.Email, "@")
	return local
}
