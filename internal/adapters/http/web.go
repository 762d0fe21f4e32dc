package web

import (
	"crypto/rand"
	"log"
	"net/http"
	"time"

	"coachdesk/internal/adapters/email"
	"coachdesk/internal/adapters/http/middleware"
	accountStore "coachdesk/internal/adapters/storage/account"
	adjustmentStore "coachdesk/internal/adapters/storage/adjustment"
	clientStore "coachdesk/internal/adapters/storage/client"
	frequencyStore "coachdesk/internal/adapters/storage/frequency"
	sessionStore "coachdesk/internal/adapters/storage/session"
	accountDomain "coachdesk/internal/domain/account"
	"coachdesk/internal/domain/adherence"
	"coachdesk/internal/metrics"
)

// Stores holds all storage dependencies.
type Stores struct {
	AccountStore    accountStore.Store
	ClientStore     clientStore.Store
	FrequencyStore  frequencyStore.Store
	AdjustmentStore adjustmentStore.Store
	SessionStore    sessionStore.Store
}

// Options configures NewMux. Zero values fall back to development defaults.
type Options struct {
	CSRFKey        []byte // 32 bytes; anything else generates a per-process key
	SecureCookies  bool
	TrustedOrigins []string
	SlowRequestMs  int
	Policy         adherence.Policy
	Location       *time.Location
	Metrics        *metrics.Manager
}

// loadCSRFKey returns key, or a random key when it is not 32 bytes long.
// Config.Validate refuses a bad key in production before we get here.
func loadCSRFKey(key []byte) []byte {
	if len(key) == 32 {
		return key
	}
	key = make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		log.Fatalf("failed to generate CSRF key: %v", err)
	}
	log.Println("WARNING: using random CSRF key (form sessions won't survive restart). Set COACHDESK_CSRF_KEY for production.")
	return key
}

// Global stores instance (set by NewMux)
var stores *Stores

// Global session store instance
var sessions *middleware.SessionStore

// RateLimitPerSecond controls the per-IP rate limit. Tests can increase this.
var RateLimitPerSecond = 20

// Engine settings and metrics (set by NewMux)
var (
	adherencePolicy   = adherence.DefaultPolicy()
	adherenceLocation = time.UTC
	appMetrics        *metrics.Manager
)

// Global email sender instance (set by SetEmailSender)
var emailSender email.Sender

// Email configuration
var emailFromAddress string

// SetEmailSender sets the sender used by the on-demand adherence digest.
func SetEmailSender(sender email.Sender, from string) {
	emailSender = sender
	emailFromAddress = from
}

// NewMux wires HTTP handlers for the app.
func NewMux(s *Stores, opts Options) http.Handler {
	stores = s
	sessions = middleware.NewSessionStore()
	middleware.SecureCookies = opts.SecureCookies
	appMetrics = opts.Metrics
	if opts.Policy.MaxPeriods > 0 {
		adherencePolicy = opts.Policy
	}
	if opts.Location != nil {
		adherenceLocation = opts.Location
	}

	mux := http.NewServeMux()
	registerRoutes(mux)

	csrfKey := loadCSRFKey(opts.CSRFKey)

	// Rate limiter: configurable requests per second per IP (OWASP A04)
	limiter := middleware.NewRateLimiter(RateLimitPerSecond, time.Second)

	// Applied inside out: Timing is outermost, SecurityHeaders wraps the mux.
	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.CSRF(csrfKey, middleware.CSRFOptions{Secure: opts.SecureCookies, TrustedOrigins: opts.TrustedOrigins}),
		middleware.Auth(sessions),
		middleware.RateLimit(limiter),
		middleware.Timing(opts.Metrics, opts.SlowRequestMs),
	)
}

// registerRoutes maps every route onto mux. Everything except login, logout, health
// and metrics requires a coach or admin session.
func registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /login", handleLogin)
	mux.HandleFunc("POST /logout", handleLogout)
	mux.HandleFunc("GET /healthz", handleHealthz)
	if appMetrics != nil {
		mux.Handle("GET /metrics", appMetrics.Handler())
	}

	staff := func(h http.HandlerFunc) http.Handler { return middleware.RequireCoachOrAdmin(h) }

	mux.Handle("GET /api/clients", staff(handleListClients))
	mux.Handle("POST /api/clients", staff(handleRegisterClient))
	mux.Handle("GET /api/clients/{id}", staff(handleGetClient))
	mux.Handle("POST /api/clients/{id}/frequency", staff(handleChangeFrequency))

	mux.Handle("GET /api/clients/{id}/sessions", staff(handleListSessions))
	mux.Handle("POST /api/clients/{id}/sessions", staff(handleScheduleSession))
	mux.Handle("PUT /api/sessions/{id}/status", staff(handleSetSessionStatus))

	mux.Handle("GET /api/clients/{id}/periods", staff(handleGetClientPeriods))
	mux.Handle("PUT /api/clients/{id}/periods/{number}/start", staff(handleAdjustPeriodStart))
	mux.Handle("DELETE /api/clients/{id}/periods/{number}/start", staff(handleClearPeriodAdjustment))
	mux.Handle("GET /clients/{id}/periods", staff(handlePeriodsPage))

	mux.Handle("PUT /api/account/digest", staff(handleSetDigestPreference))
	mux.Handle("POST /api/admin/digest", middleware.RequireRole(accountDomain.RoleAdmin)(http.HandlerFunc(handleRunDigest)))
}
