package web

import (
	"net/http"

	clientStore "coachdesk/internal/adapters/storage/client"
	"coachdesk/internal/application/listutil"
	"coachdesk/internal/application/orchestrators"
	"coachdesk/internal/domain/adherence"
	clientDomain "coachdesk/internal/domain/client"
	frequencyDomain "coachdesk/internal/domain/frequency"
)

// clientJSON is the wire form of a client; dates are YYYY-MM-DD.
type clientJSON struct {
	ID                string `json:"ID"`
	Name              string `json:"Name"`
	Email             string `json:"Email"`
	JoinDate          string `json:"JoinDate"`
	TrainingFrequency int    `json:"TrainingFrequency"`
	CoachEmail        string `json:"CoachEmail"`
}

func toClientJSON(c clientDomain.Client) clientJSON {
	return clientJSON{
		ID:                c.ID,
		Name:              c.Name,
		Email:             c.Email,
		JoinDate:          c.JoinDate.Format(adherence.DateLayout),
		TrainingFrequency: c.TrainingFrequency,
		CoachEmail:        c.CoachEmail,
	}
}

// clientListJSON is one page of clients with its paging metadata.
type clientListJSON struct {
	Clients []clientJSON `json:"Clients"`
	listutil.PageInfo
}

// frequencyChangeJSON is the wire form of a frequency change.
type frequencyChangeJSON struct {
	ID            string `json:"ID"`
	ClientID      string `json:"ClientID"`
	Frequency     int    `json:"Frequency"`
	EffectiveFrom string `json:"EffectiveFrom"`
}

func toFrequencyChangeJSON(c frequencyDomain.Change) frequencyChangeJSON {
	return frequencyChangeJSON{
		ID:            c.ID,
		ClientID:      c.ClientID,
		Frequency:     c.Frequency,
		EffectiveFrom: c.EffectiveFrom.Format(adherence.DateLayout),
	}
}

// handleListClients handles GET /api/clients?q=&page=&per_page=&sort=&dir=
func handleListClients(w http.ResponseWriter, r *http.Request) {
	params := listutil.ParseListParams(r.URL.Query(), clientStore.SortColumns)

	total, err := stores.ClientStore.Count(r.Context(), params.Search)
	if err != nil {
		internalError(w, err)
		return
	}
	list, err := stores.ClientStore.List(r.Context(), clientStore.ListFilter{
		Search: params.Search,
		Sort:   params.Sort,
		Desc:   params.Desc,
		Limit:  params.PerPage,
		Offset: params.Offset(),
	})
	if err != nil {
		internalError(w, err)
		return
	}
	out := clientListJSON{
		Clients:  make([]clientJSON, 0, len(list)),
		PageInfo: listutil.NewPageInfo(params.PageParams, total),
	}
	for _, c := range list {
		out.Clients = append(out.Clients, toClientJSON(c))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleRegisterClient handles POST /api/clients
func handleRegisterClient(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name              string `json:"Name"`
		Email             string `json:"Email"`
		JoinDate          string `json:"JoinDate"`
		TrainingFrequency int    `json:"TrainingFrequency"`
		CoachEmail        string `json:"CoachEmail"`
	}
	if err := strictDecode(r, &input); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	joinDate, err := parseDate(input.JoinDate)
	if err != nil {
		http.Error(w, "JoinDate must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	c, err := orchestrators.ExecuteRegisterClient(r.Context(), orchestrators.RegisterClientInput{
		Name:              input.Name,
		Email:             input.Email,
		JoinDate:          joinDate,
		TrainingFrequency: input.TrainingFrequency,
		CoachEmail:        input.CoachEmail,
	}, orchestrators.RegisterClientDeps{
		ClientStore:    stores.ClientStore,
		FrequencyStore: stores.FrequencyStore,
		GenerateID:     generateID,
		Now:            timeNow,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toClientJSON(c))
}

// handleGetClient handles GET /api/clients/{id}, including the frequency history.
func handleGetClient(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	c, err := stores.ClientStore.GetByID(ctx, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	history, err := stores.FrequencyStore.ListByClientID(ctx, c.ID)
	if err != nil {
		internalError(w, err)
		return
	}

	resp := struct {
		clientJSON
		FrequencyHistory []frequencyChangeJSON `json:"FrequencyHistory"`
	}{clientJSON: toClientJSON(c), FrequencyHistory: make([]frequencyChangeJSON, 0, len(history))}
	for _, h := range history {
		resp.FrequencyHistory = append(resp.FrequencyHistory, toFrequencyChangeJSON(h))
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleChangeFrequency handles POST /api/clients/{id}/frequency
func handleChangeFrequency(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Frequency     int    `json:"Frequency"`
		EffectiveFrom string `json:"EffectiveFrom"`
	}
	if err := strictDecode(r, &input); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	effective, err := parseDate(input.EffectiveFrom)
	if err != nil {
		http.Error(w, "EffectiveFrom must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	change, err := orchestrators.ExecuteChangeFrequency(r.Context(), orchestrators.ChangeFrequencyInput{
		ClientID:      r.PathValue("id"),
		Frequency:     input.Frequency,
		EffectiveFrom: effective,
	}, orchestrators.ChangeFrequencyDeps{
		ClientStore:    stores.ClientStore,
		FrequencyStore: stores.FrequencyStore,
		GenerateID:     generateID,
		Now:            timeNow,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toFrequencyChangeJSON(change))
}
