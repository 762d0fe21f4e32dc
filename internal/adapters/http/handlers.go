package web

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"coachdesk/internal/adapters/http/middleware"
	"coachdesk/internal/application/orchestrators"
	"coachdesk/internal/application/projections"
	"coachdesk/internal/domain/adherence"
	adjustmentDomain "coachdesk/internal/domain/adjustment"
	clientDomain "coachdesk/internal/domain/client"
	frequencyDomain "coachdesk/internal/domain/frequency"
	sessionDomain "coachdesk/internal/domain/session"
)

// timeNow is a variable for testability.
var timeNow = time.Now

// generateID creates a new UUID string.
func generateID() string {
	return uuid.New().String()
}

// internalError logs the real error and returns a generic message to the client.
// This prevents leaking internal details per OWASP A05.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("response_encode_failed", "error", err)
	}
}

// validationErrors are the domain errors a caller can fix by changing the request.
var validationErrors = []error{
	clientDomain.ErrEmptyName, clientDomain.ErrNameTooLong, clientDomain.ErrInvalidEmail,
	clientDomain.ErrEmptyJoinDate, clientDomain.ErrNegativeFrequency,
	frequencyDomain.ErrEmptyClientID, frequencyDomain.ErrNegativeFrequency,
	frequencyDomain.ErrFrequencyTooHigh, frequencyDomain.ErrEmptyEffectiveFrom,
	adjustmentDomain.ErrEmptyClientID, adjustmentDomain.ErrInvalidPeriod, adjustmentDomain.ErrEmptyStartDate,
	sessionDomain.ErrEmptyClientID, sessionDomain.ErrEmptyDate, sessionDomain.ErrInvalidStatus,
	sessionDomain.ErrInvalidTime, sessionDomain.ErrEndBeforeStart, sessionDomain.ErrNotesTooLong,
}

// writeError maps orchestrator and store errors onto status codes.
// Validation failures are 400, unknown records 404, everything else a logged 500.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, orchestrators.ErrClientNotFound),
		errors.Is(err, orchestrators.ErrSessionNotFound),
		errors.Is(err, orchestrators.ErrAccountNotFound),
		errors.Is(err, sql.ErrNoRows):
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	for _, v := range validationErrors {
		if errors.Is(err, v) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	internalError(w, err)
}

// parseDate reads a YYYY-MM-DD civil date. Empty input yields the zero time.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(adherence.DateLayout, s)
}

// periodsDeps builds the projection dependencies from the wired stores and settings.
func periodsDeps() projections.GetClientPeriodsDeps {
	return projections.GetClientPeriodsDeps{
		ClientStore:     stores.ClientStore,
		FrequencyStore:  stores.FrequencyStore,
		AdjustmentStore: stores.AdjustmentStore,
		SessionStore:    stores.SessionStore,
		Policy:          adherencePolicy,
		Location:        adherenceLocation,
		Metrics:         appMetrics,
	}
}

// handleHealthz handles GET /healthz
func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}

// handleLogin handles POST /login with a JSON body.
func handleLogin(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email    string `json:"Email"`
		Password string `json:"Password"`
	}
	if err := strictDecode(r, &input); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	result, err := orchestrators.ExecuteLogin(r.Context(), orchestrators.LoginInput{
		Email:    input.Email,
		Password: input.Password,
	}, orchestrators.LoginDeps{
		AccountStore: stores.AccountStore,
		Now:          timeNow,
	})
	switch {
	case errors.Is(err, orchestrators.ErrAccountLocked):
		http.Error(w, err.Error(), http.StatusLocked)
		return
	case errors.Is(err, orchestrators.ErrInvalidCredentials):
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	case err != nil:
		internalError(w, err)
		return
	}

	token, err := sessions.Create(middleware.Session{
		AccountID: result.AccountID,
		Email:     result.Email,
		Name:      result.Name,
		Role:      result.Role,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	middleware.SetSessionCookie(w, token)
	writeJSON(w, http.StatusOK, result)
}

// handleLogout handles POST /logout
func handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := middleware.SessionToken(r); token != "" {
		sessions.Delete(token)
	}
	middleware.ClearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

type accountJSON struct {
	Email         string `json:"Email"`
	Name          string `json:"Name"`
	DigestEnabled bool   `json:"DigestEnabled"`
}

// handleSetDigestPreference handles PUT /api/account/digest for the signed-in account.
func handleSetDigestPreference(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Enabled bool `json:"Enabled"`
	}
	if err := strictDecode(r, &input); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	acct, err := orchestrators.ExecuteSetDigestPreference(r.Context(), orchestrators.SetDigestPreferenceInput{
		AccountID: sess.AccountID,
		Enabled:   input.Enabled,
	}, stores.AccountStore)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, accountJSON{Email: acct.Email, Name: acct.Name, DigestEnabled: acct.DigestEnabled})
}

// handleRunDigest handles POST /api/admin/digest, sending the adherence digest now.
func handleRunDigest(w http.ResponseWriter, r *http.Request) {
	if emailSender == nil {
		http.Error(w, "email is not configured", http.StatusServiceUnavailable)
		return
	}
	result, err := orchestrators.ExecuteAdherenceDigest(r.Context(), orchestrators.AdherenceDigestInput{
		Now: timeNow(),
	}, orchestrators.AdherenceDigestDeps{
		AccountStore: stores.AccountStore,
		ClientStore:  stores.ClientStore,
		Periods:      periodsDeps(),
		Sender:       emailSender,
		From:         emailFromAddress,
		Metrics:      appMetrics,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
