package api

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/soaringjerry/npsdesk/internal/middleware"
	"github.com/soaringjerry/npsdesk/internal/models"
	"github.com/soaringjerry/npsdesk/internal/services"
)

// Options tunes the HTTP surface.
type Options struct {
	TokenTTL       time.Duration
	ExportInterval time.Duration
	SecureCookies  bool
	// Location renders report dates; UTC when nil.
	Location  *time.Location
	Commit    string
	BuildTime string
}

type Router struct {
	store     Store
	tokens    *middleware.Tokens
	log       zerolog.Logger
	opts      Options
	auth      *services.AuthService
	questions *services.QuestionService
	users     *services.UserService
	responses *services.ResponseService
	analytics *services.AnalyticsService
	export    *services.ExportService
}

func NewRouter(store Store, tokens *middleware.Tokens, opts Options, logger zerolog.Logger) *Router {
	return &Router{
		store:     store,
		tokens:    tokens,
		log:       logger.With().Str("component", "api").Logger(),
		opts:      opts,
		auth:      services.NewAuthService(store, tokens.Sign, opts.TokenTTL),
		questions: services.NewQuestionService(store),
		users:     services.NewUserService(store),
		responses: services.NewResponseService(store),
		analytics: services.NewAnalyticsService(store),
		export:    services.NewExportService(store, opts.ExportInterval),
	}
}

// Register mounts every route on mux.
func (rt *Router) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", rt.handleHealth)
	mux.HandleFunc("GET /version", rt.handleVersion)
	mux.HandleFunc("GET /{$}", rt.handleRoot)
	mux.HandleFunc("GET /login", rt.handleLoginPage)

	mux.HandleFunc("POST /api/auth/login", rt.handleLogin)
	mux.HandleFunc("POST /api/auth/logout", rt.handleLogout)
	mux.Handle("GET /api/auth/me", rt.guard(services.ActionReadProfile, rt.handleMe))

	mux.Handle("GET /admin", rt.guard(services.ActionReadAdminDashboard, rt.handleAdminDashboard))
	mux.Handle("GET /api/questions", rt.guard(services.ActionManageQuestions, rt.handleListQuestions))
	mux.Handle("POST /api/questions", rt.guard(services.ActionManageQuestions, rt.handleCreateQuestion))
	mux.Handle("POST /api/questions/import", rt.guard(services.ActionManageQuestions, rt.handleImportQuestions))
	mux.Handle("PATCH /api/questions/{id}", rt.guard(services.ActionManageQuestions, rt.handleUpdateQuestion))
	mux.Handle("DELETE /api/questions/{id}", rt.guard(services.ActionManageQuestions, rt.handleDeleteQuestion))
	mux.Handle("GET /api/users", rt.guard(services.ActionManageUsers, rt.handleListUsers))
	mux.Handle("POST /api/users", rt.guard(services.ActionManageUsers, rt.handleCreateUser))
	mux.Handle("PATCH /api/users/{id}", rt.guard(services.ActionManageUsers, rt.handleUpdateUser))
	mux.Handle("DELETE /api/users/{id}", rt.guard(services.ActionManageUsers, rt.handleDeleteUser))
	mux.Handle("GET /api/analytics", rt.guard(services.ActionReadAnalytics, rt.handleAnalytics))
	mux.Handle("GET /api/analytics/questions", rt.guard(services.ActionReadAnalytics, rt.handleQuestionRanking))
	mux.Handle("GET /api/reports/summary", rt.guard(services.ActionReadAnalytics, rt.handleSummary))
	mux.Handle("GET /api/reports/export.csv", rt.guard(services.ActionExportReports, rt.handleExport))
	mux.Handle("GET /api/responses", rt.guard(services.ActionReadAllResponses, rt.handleListResponses))
	mux.Handle("GET /api/audit", rt.guard(services.ActionReadAudit, rt.handleAudit))

	mux.Handle("GET /user", rt.guard(services.ActionReadOwnDashboard, rt.handleUserDashboard))
	mux.Handle("GET /api/me/questions", rt.guard(services.ActionReadOwnDashboard, rt.handleMyQuestions))
	mux.Handle("POST /api/me/responses", rt.guard(services.ActionSubmitResponse, rt.handleSubmit))
	mux.Handle("POST /api/me/responses/batch", rt.guard(services.ActionSubmitResponse, rt.handleSubmitBatch))
	mux.Handle("GET /api/me/responses", rt.guard(services.ActionReadOwnResponses, rt.handleMyResponses))
}

// Handler returns the routes wrapped with session resolution.
func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	rt.Register(mux)
	return rt.tokens.WithAuth(rt.store.GetUser)(mux)
}

func (rt *Router) guard(action services.Action, h http.HandlerFunc) http.Handler {
	return middleware.Require(action, h)
}

// actor is only called behind guard, so a session is always present.
func actor(r *http.Request) *models.User {
	u, _ := middleware.UserFromContext(r.Context())
	return u
}
