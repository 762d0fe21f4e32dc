package web

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"coachdesk/internal/adapters/http/middleware"
	"coachdesk/internal/application/orchestrators"
	"coachdesk/internal/application/projections"
	"coachdesk/internal/domain/adherence"
)

//go:embed templates/*.html
var templateFS embed.FS

// mdRenderer is a goldmark instance configured for safe HTML output.
// Raw HTML in markdown input is escaped (WithUnsafe is NOT set), preventing XSS.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// renderMarkdown turns session notes into HTML, falling back to escaped text.
func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

var periodsTemplate = template.Must(template.New("periods.html").Funcs(template.FuncMap{
	"renderMarkdown": renderMarkdown,
	"percent":        func(f float64) string { return strconv.Itoa(int(f*100+0.5)) + "%" },
}).ParseFS(templateFS, "templates/periods.html"))

// periodJSON is the wire form of one computed period.
type periodJSON struct {
	Number           int           `json:"Number"`
	StartDate        string        `json:"StartDate"`
	EndDate          string        `json:"EndDate"`
	Frequency        int           `json:"Frequency"`
	ExpectedSessions int           `json:"ExpectedSessions"`
	ScheduledCount   int           `json:"ScheduledCount"`
	CompletedCount   int           `json:"CompletedCount"`
	MissedCount      int           `json:"MissedCount"`
	OtherCount       int           `json:"OtherCount"`
	AdherenceRate    float64       `json:"AdherenceRate"`
	Sessions         []sessionJSON `json:"Sessions"`
}

// clientPeriodsJSON is the response for the periods endpoints. Current is null when
// now falls outside every generated period.
type clientPeriodsJSON struct {
	Client  clientJSON   `json:"Client"`
	Now     string       `json:"Now"`
	Current *periodJSON  `json:"Current"`
	Periods []periodJSON `json:"Periods"`
}

func toPeriodJSON(p adherence.Period) periodJSON {
	out := periodJSON{
		Number:           p.Number,
		StartDate:        p.StartDate.Format(adherence.DateLayout),
		EndDate:          p.EndDate.Format(adherence.DateLayout),
		Frequency:        p.Frequency,
		ExpectedSessions: p.ExpectedSessions,
		ScheduledCount:   p.ScheduledCount,
		CompletedCount:   p.CompletedCount,
		MissedCount:      p.MissedCount,
		OtherCount:       p.OtherCount,
		AdherenceRate:    p.AdherenceRate(),
		Sessions:         make([]sessionJSON, 0, len(p.Sessions)),
	}
	for _, cs := range p.Sessions {
		s := toSessionJSON(cs.Session)
		s.Bucket = cs.Bucket
		out.Sessions = append(out.Sessions, s)
	}
	return out
}

func toClientPeriodsJSON(res projections.ClientPeriodsResult) clientPeriodsJSON {
	out := clientPeriodsJSON{
		Client:  toClientJSON(res.Client),
		Now:     res.Now.Format(time.RFC3339),
		Periods: make([]periodJSON, 0, len(res.Periods)),
	}
	for _, p := range res.Periods {
		out.Periods = append(out.Periods, toPeriodJSON(p))
	}
	if res.HasCurrent {
		cur := toPeriodJSON(res.Current)
		out.Current = &cur
	}
	return out
}

// requestNow returns the evaluation instant: now, or midnight of ?at=YYYY-MM-DD in
// the configured zone for looking at a past or future date.
func requestNow(r *http.Request) (time.Time, error) {
	at := r.URL.Query().Get("at")
	if at == "" {
		return timeNow(), nil
	}
	return time.ParseInLocation(adherence.DateLayout, at, adherenceLocation)
}

func loadClientPeriods(ctx context.Context, clientID string, now time.Time) (projections.ClientPeriodsResult, error) {
	return projections.QueryGetClientPeriods(ctx, projections.GetClientPeriodsQuery{
		ClientID: clientID,
		Now:      now,
	}, periodsDeps())
}

// handleGetClientPeriods handles GET /api/clients/{id}/periods
func handleGetClientPeriods(w http.ResponseWriter, r *http.Request) {
	now, err := requestNow(r)
	if err != nil {
		http.Error(w, "at must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	res, err := loadClientPeriods(r.Context(), r.PathValue("id"), now)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toClientPeriodsJSON(res))
}

// periodNumber reads the {number} path segment.
func periodNumber(r *http.Request) (int, bool) {
	n, err := strconv.Atoi(r.PathValue("number"))
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// handleAdjustPeriodStart handles PUT /api/clients/{id}/periods/{number}/start.
// On success it answers with the recomputed periods; on failure nothing is recomputed.
func handleAdjustPeriodStart(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	number, ok := periodNumber(r)
	if !ok {
		http.Error(w, "period number must be 1 or greater", http.StatusBadRequest)
		return
	}
	var input struct {
		StartDate string `json:"StartDate"`
	}
	if err := strictDecode(r, &input); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	start, err := parseDate(input.StartDate)
	if err != nil {
		http.Error(w, "StartDate must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	clientID := r.PathValue("id")
	_, err = orchestrators.ExecuteAdjustPeriodStart(r.Context(), orchestrators.AdjustPeriodStartInput{
		ClientID:     clientID,
		PeriodNumber: number,
		StartDate:    start,
		ActorID:      sess.AccountID,
	}, orchestrators.AdjustPeriodStartDeps{
		ClientStore:     stores.ClientStore,
		AdjustmentStore: stores.AdjustmentStore,
		GenerateID:      generateID,
		Now:             timeNow,
		Metrics:         appMetrics,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	res, err := loadClientPeriods(r.Context(), clientID, timeNow())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toClientPeriodsJSON(res))
}

// handleClearPeriodAdjustment handles DELETE /api/clients/{id}/periods/{number}/start
func handleClearPeriodAdjustment(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	number, ok := periodNumber(r)
	if !ok {
		http.Error(w, "period number must be 1 or greater", http.StatusBadRequest)
		return
	}

	clientID := r.PathValue("id")
	err := orchestrators.ExecuteClearPeriodAdjustment(r.Context(), orchestrators.ClearPeriodAdjustmentInput{
		ClientID:     clientID,
		PeriodNumber: number,
		ActorID:      sess.AccountID,
	}, orchestrators.ClearPeriodAdjustmentDeps{
		AdjustmentStore: stores.AdjustmentStore,
		Metrics:         appMetrics,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	res, err := loadClientPeriods(r.Context(), clientID, timeNow())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toClientPeriodsJSON(res))
}

// periodsPage is the data behind templates/periods.html. Periods run newest first.
type periodsPage struct {
	Client  clientJSON
	Now     string
	Current *periodJSON
	Periods []periodJSON
	Email   string
}

// handlePeriodsPage handles GET /clients/{id}/periods
func handlePeriodsPage(w http.ResponseWriter, r *http.Request) {
	now, err := requestNow(r)
	if err != nil {
		http.Error(w, "at must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	res, err := loadClientPeriods(r.Context(), r.PathValue("id"), now)
	if err != nil {
		writeError(w, err)
		return
	}

	view := toClientPeriodsJSON(res)
	page := periodsPage{
		Client:  view.Client,
		Now:     res.Now.Format(adherence.DateLayout),
		Current: view.Current,
		Periods: make([]periodJSON, 0, len(view.Periods)),
	}
	for i := len(view.Periods) - 1; i >= 0; i-- {
		page.Periods = append(page.Periods, view.Periods[i])
	}
	if sess, ok := middleware.GetSessionFromContext(r.Context()); ok {
		page.Email = sess.Email
	}

	var buf bytes.Buffer
	if err := periodsTemplate.Execute(&buf, page); err != nil {
		internalError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}
