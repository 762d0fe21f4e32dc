package web

import (
	"net/http"

	"coachdesk/internal/application/orchestrators"
	"coachdesk/internal/domain/adherence"
	sessionDomain "coachdesk/internal/domain/session"
)

// sessionJSON is the wire form of a training session. Bucket is only set inside a period.
type sessionJSON struct {
	ID        string `json:"ID"`
	ClientID  string `json:"ClientID"`
	Date      string `json:"Date"`
	StartTime string `json:"StartTime"`
	EndTime   string `json:"EndTime"`
	Status    string `json:"Status"`
	Type      string `json:"Type"`
	Notes     string `json:"Notes"`
	Bucket    string `json:"Bucket,omitempty"`
}

func toSessionJSON(s sessionDomain.Session) sessionJSON {
	return sessionJSON{
		ID:        s.ID,
		ClientID:  s.ClientID,
		Date:      s.Date.Format(adherence.DateLayout),
		StartTime: s.StartTime,
		EndTime:   s.EndTime,
		Status:    s.Status,
		Type:      s.Type,
		Notes:     s.Notes,
	}
}

// handleListSessions handles GET /api/clients/{id}/sessions
func handleListSessions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	c, err := stores.ClientStore.GetByID(ctx, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	list, err := stores.SessionStore.ListByClientID(ctx, c.ID)
	if err != nil {
		internalError(w, err)
		return
	}
	out := make([]sessionJSON, 0, len(list))
	for _, s := range list {
		out = append(out, toSessionJSON(s))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleScheduleSession handles POST /api/clients/{id}/sessions
func handleScheduleSession(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Date      string `json:"Date"`
		StartTime string `json:"StartTime"`
		EndTime   string `json:"EndTime"`
		Type      string `json:"Type"`
		Status    string `json:"Status"`
		Notes     string `json:"Notes"`
	}
	if err := strictDecode(r, &input); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	date, err := parseDate(input.Date)
	if err != nil {
		http.Error(w, "Date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	s, err := orchestrators.ExecuteScheduleSession(r.Context(), orchestrators.ScheduleSessionInput{
		ClientID:  r.PathValue("id"),
		Date:      date,
		StartTime: input.StartTime,
		EndTime:   input.EndTime,
		Type:      input.Type,
		Status:    input.Status,
		Notes:     input.Notes,
	}, orchestrators.ScheduleSessionDeps{
		ClientStore:  stores.ClientStore,
		SessionStore: stores.SessionStore,
		GenerateID:   generateID,
		Now:          timeNow,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSessionJSON(s))
}

// handleSetSessionStatus handles PUT /api/sessions/{id}/status
func handleSetSessionStatus(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Status string `json:"Status"`
	}
	if err := strictDecode(r, &input); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	s, err := orchestrators.ExecuteSetSessionStatus(r.Context(), orchestrators.SetSessionStatusInput{
		SessionID: r.PathValue("id"),
		Status:    input.Status,
	}, orchestrators.SetSessionStatusDeps{
		SessionStore: stores.SessionStore,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionJSON(s))
}
