package api

import (
	"io"
	"net/http"
	"strconv"

	"github.com/soaringjerry/npsdesk/internal/middleware"
	"github.com/soaringjerry/npsdesk/internal/services"
)

const recentResponses = 5

func (rt *Router) handleAdminDashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, rt.analytics.AdminDashboard(actor(r).Company, recentResponses))
}

func (rt *Router) handleListQuestions(w http.ResponseWriter, r *http.Request) {
	qs, err := rt.questions.List(actor(r))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"questions": qs})
}

func (rt *Router) handleCreateQuestion(w http.ResponseWriter, r *http.Request) {
	var in services.QuestionInput
	if err := decodeJSON(w, r, &in); err != nil {
		rt.writeError(w, r, err)
		return
	}
	q, err := rt.questions.Create(r.Context(), actor(r), in)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

// POST /api/questions/import with a text/csv body
func (rt *Router) handleImportQuestions(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		rt.writeError(w, r, services.NewInvalidError("could not read csv body"))
		return
	}
	n, err := rt.questions.ImportCSV(r.Context(), actor(r), data)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"imported": n})
}

func (rt *Router) handleUpdateQuestion(w http.ResponseWriter, r *http.Request) {
	var patch services.QuestionPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		rt.writeError(w, r, err)
		return
	}
	q, err := rt.questions.Update(r.Context(), actor(r), r.PathValue("id"), patch)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (rt *Router) handleDeleteQuestion(w http.ResponseWriter, r *http.Request) {
	if err := rt.questions.Delete(r.Context(), actor(r), r.PathValue("id")); err != nil {
		rt.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) handleListUsers(w http.ResponseWriter, r *http.Request) {
	us, err := rt.users.List(actor(r))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": us})
}

func (rt *Router) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var in services.UserInput
	if err := decodeJSON(w, r, &in); err != nil {
		rt.writeError(w, r, err)
		return
	}
	u, err := rt.users.Create(r.Context(), actor(r), in)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (rt *Router) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var patch services.UserPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		rt.writeError(w, r, err)
		return
	}
	u, err := rt.users.Update(r.Context(), actor(r), r.PathValue("id"), patch)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (rt *Router) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := rt.users.Delete(r.Context(), actor(r), r.PathValue("id")); err != nil {
		rt.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func filterFromQuery(r *http.Request) (services.Filter, error) {
	q := r.URL.Query()
	return services.ParseFilter(q.Get("question"), q.Get("rating"), q.Get("value"))
}

// GET /api/analytics?question=&rating=&value=
func (rt *Router) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rt.analytics.Analyze(actor(r).Company, f))
}

func (rt *Router) handleQuestionRanking(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"questions": rt.analytics.Questions(actor(r).Company)})
}

func (rt *Router) handleSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, rt.analytics.Summary(actor(r).Company))
}

// GET /api/reports/export.csv?lang=&question=&rating=&value=
func (rt *Router) handleExport(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	res, err := rt.export.ExportCSV(services.ExportParams{
		Actor:    actor(r),
		Lang:     middleware.LocaleFromContext(r.Context()),
		Location: rt.opts.Location,
		Filter:   f,
	})
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+res.Filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Data)))
	w.Header().Set("X-Report-Checksum", res.Checksum)
	_, _ = w.Write(res.Data)
}

func (rt *Router) handleListResponses(w http.ResponseWriter, r *http.Request) {
	vs, err := rt.responses.ListCompany(actor(r))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"responses": vs})
}

func (rt *Router) handleAudit(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"entries": rt.store.ListAudit()})
}
