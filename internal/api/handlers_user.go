package api

import (
	"net/http"

	"github.com/soaringjerry/npsdesk/internal/services"
)

func (rt *Router) handleUserDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := rt.responses.Dashboard(actor(r), recentResponses)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (rt *Router) handleMyQuestions(w http.ResponseWriter, r *http.Request) {
	d, err := rt.responses.Dashboard(actor(r), 0)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"questions": d.Questions, "pending": d.Pending})
}

func (rt *Router) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var ans services.Answer
	if err := decodeJSON(w, r, &ans); err != nil {
		rt.writeError(w, r, err)
		return
	}
	resp, err := rt.responses.Submit(r.Context(), actor(r), ans)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// POST /api/me/responses/batch {answers: [...]}: every visible question at once
func (rt *Router) handleSubmitBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Answers []services.Answer `json:"answers"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		rt.writeError(w, r, err)
		return
	}
	stored, err := rt.responses.SubmitBatch(r.Context(), actor(r), req.Answers)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"responses": stored, "count": len(stored)})
}

func (rt *Router) handleMyResponses(w http.ResponseWriter, r *http.Request) {
	vs, err := rt.responses.ListOwn(actor(r))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"responses": vs})
}
