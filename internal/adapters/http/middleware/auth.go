package middleware

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	domainAccount "coachdesk/internal/domain/account"
)

type sessionKey struct{}

const (
	// SessionTTL caps how long a login lasts regardless of activity.
	SessionTTL = 24 * time.Hour
	// IdleTimeout ends a login nobody has used for a while.
	IdleTimeout = 2 * time.Hour

	sessionCookieName = "coachdesk_session"
	sweepAt           = 256
)

// SecureCookies marks session cookies Secure. Set once at startup in production.
var SecureCookies bool

// Session is a signed-in coach or admin.
type Session struct {
	AccountID string
	Email     string
	Name      string
	Role      string
	CreatedAt time.Time
	LastSeen  time.Time
}

func (s Session) expired(now time.Time) bool {
	return now.Sub(s.CreatedAt) > SessionTTL || now.Sub(s.LastSeen) > IdleTimeout
}

// SessionStore keeps logins in memory, so a restart signs everyone out.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]Session
	now      func() time.Time
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]Session), now: time.Now}
}

// Create stores s under a fresh random token.
// PRE: s.AccountID and s.Role are set
// POST: Returns the token; CreatedAt and LastSeen are stamped with the current time
func (ss *SessionStore) Create(s Session) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	token := base64.RawURLEncoding.EncodeToString(buf)

	ss.mu.Lock()
	defer ss.mu.Unlock()
	now := ss.now()
	if len(ss.sessions) >= sweepAt {
		ss.sweepLocked(now)
	}
	s.CreatedAt, s.LastSeen = now, now
	ss.sessions[token] = s
	return token, nil
}

// Get returns the live session for token and marks it as used.
// Expired sessions are evicted on read.
func (ss *SessionStore) Get(token string) (Session, bool) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	s, ok := ss.sessions[token]
	if !ok {
		return Session{}, false
	}
	now := ss.now()
	if s.expired(now) {
		delete(ss.sessions, token)
		return Session{}, false
	}
	s.LastSeen = now
	ss.sessions[token] = s
	return s, true
}

func (ss *SessionStore) Delete(token string) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	delete(ss.sessions, token)
}

// Sweep drops every expired session and reports how many went.
func (ss *SessionStore) Sweep() int {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.sweepLocked(ss.now())
}

func (ss *SessionStore) sweepLocked(now time.Time) int {
	n := 0
	for token, s := range ss.sessions {
		if s.expired(now) {
			delete(ss.sessions, token)
			n++
		}
	}
	return n
}

// SessionToken returns the raw session token from the request cookie, if any.
func SessionToken(r *http.Request) string {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// Auth attaches the cookie's session to the request context. Anonymous requests pass
// through; RequireRole does the blocking.
func Auth(sessions *SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := SessionToken(r); token != "" {
				if s, ok := sessions.Get(token); ok {
					r = r.WithContext(ContextWithSession(r.Context(), s))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole lets through sessions holding one of roles. Anonymous API calls get 401,
// anonymous page loads are sent to /login, and other roles get 403.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, ok := GetSessionFromContext(r.Context())
			switch {
			case !ok && strings.HasPrefix(r.URL.Path, "/api/"):
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
			case !ok:
				http.Redirect(w, r, "/login", http.StatusSeeOther)
			case !slices.Contains(roles, s.Role):
				http.Error(w, "Forbidden", http.StatusForbidden)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

// RequireCoachOrAdmin guards every back-office route.
func RequireCoachOrAdmin(next http.Handler) http.Handler {
	return RequireRole(domainAccount.RoleAdmin, domainAccount.RoleCoach)(next)
}

func GetSessionFromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	return s, ok
}

func ContextWithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SetSessionCookie hands the browser token; an empty token clears the cookie.
func SetSessionCookie(w http.ResponseWriter, token string) {
	maxAge := int(SessionTTL.Seconds())
	if token == "" {
		maxAge = -1
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   SecureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearSessionCookie removes the session cookie.
func ClearSessionCookie(w http.ResponseWriter) {
	SetSessionCookie(w, "")
}
