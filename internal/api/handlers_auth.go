package api

import (
	"net/http"
	"time"

	"github.com/soaringjerry/npsdesk/internal/middleware"
	"github.com/soaringjerry/npsdesk/internal/services"
	"github.com/soaringjerry/npsdesk/internal/utils"
)

func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	locale := middleware.LocaleFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":         true,
		"name":       "NPS API",
		"locale":     locale,
		"msg":        utils.T(locale, "health.ok"),
		"commit":     rt.opts.Commit,
		"build_time": rt.opts.BuildTime,
	})
}

func (rt *Router) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"commit":     rt.opts.Commit,
		"build_time": rt.opts.BuildTime,
	})
}

// GET / sends the visitor to their home page, or to login.
func (rt *Router) handleRoot(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.UserFromContext(r.Context())
	http.Redirect(w, r, services.HomePath(u), http.StatusSeeOther)
}

func (rt *Router) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if u, ok := middleware.UserFromContext(r.Context()); ok {
		http.Redirect(w, r, services.HomePath(u), http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"login": "/api/auth/login", "method": http.MethodPost})
}

func (rt *Router) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		rt.writeError(w, r, err)
		return
	}
	res, err := rt.auth.Login(req.Email, req.Password)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    res.Token,
		Path:     "/",
		Expires:  res.ExpiresAt,
		HttpOnly: true,
		Secure:   rt.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"token":     res.Token,
		"user":      res.User,
		"expiresAt": res.ExpiresAt,
		"home":      services.HomePath(&res.User),
	})
}

func (rt *Router) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   rt.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (rt *Router) handleMe(w http.ResponseWriter, r *http.Request) {
	u := actor(r)
	writeJSON(w, http.StatusOK, map[string]any{"user": u, "home": services.HomePath(u)})
}
