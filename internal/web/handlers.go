package web

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"

	"github.com/haynafi/MusicPlayer/internal/auth"
	"github.com/haynafi/MusicPlayer/internal/player"
)

// Handlers contains the HTTP handlers for the web application.
type Handlers struct {
	mgr       *player.Manager
	authn     *auth.Authenticator
	templates *Templates
	logger    *log.Logger

	// pollCtx outlives individual requests so the device poll started on
	// login keeps running until logout or server shutdown.
	pollCtx context.Context
}

// NewHandlers creates a Handlers instance.
func NewHandlers(pollCtx context.Context, mgr *player.Manager, authn *auth.Authenticator, templates *Templates, logger *log.Logger) *Handlers {
	return &Handlers{
		mgr:       mgr,
		authn:     authn,
		templates: templates,
		logger:    logger,
		pollCtx:   pollCtx,
	}
}

// Home renders the player page (GET /).
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	data := HomePageData{
		PageData: PageData{Title: "Music Player", CurrentPath: r.URL.Path},
		Session:  h.mgr.Session(),
		Playback: h.mgr.Playback(),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.Render(w, "home", data); err != nil {
		h.logger.Error("rendering home", "err", err)
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
	}
}

// LoginPage renders the login surface (GET /login). A failed authorization
// attempt lands here with an error indicator in the query string.
func (h *Handlers) LoginPage(w http.ResponseWriter, r *http.Request) {
	data := LoginPageData{
		PageData: PageData{Title: "Sign in", CurrentPath: r.URL.Path},
		Error:    r.URL.Query().Get("error"),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.Render(w, "login", data); err != nil {
		h.logger.Error("rendering login", "err", err)
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
	}
}

// Login initiates the authorization flow (GET /auth/login): it stores a
// fresh state nonce in a short-lived cookie and hands the browser off to the
// provider's authorization URL.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	authURL, state, err := h.mgr.LoginURL()
	if err != nil {
		h.logger.Error("generating state", "err", err)
		http.Error(w, "Failed to start login", http.StatusInternalServerError)
		return
	}

	setStateCookie(w, state)
	http.Redirect(w, r, authURL, http.StatusTemporaryRedirect)
}

// Callback receives the provider redirect (GET /callback), exchanges the
// code for tokens and delivers them as cookies. Every failure is terminal
// for the login attempt and redirects back to /login with an error
// indicator; nothing is persisted on failure.
func (h *Handlers) Callback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	expectedState := cookieValue(r, stateCookieName)
	if expectedState == "" || query.Get("state") != expectedState {
		h.loginError(w, r, "state_mismatch")
		return
	}
	clearStateCookie(w)

	if errMsg := query.Get("error"); errMsg != "" {
		h.logger.Warn("authorization denied", "err", errMsg)
		h.loginError(w, r, errMsg)
		return
	}

	code := query.Get("code")
	if code == "" {
		h.loginError(w, r, "missing_code")
		return
	}

	token, err := h.authn.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("token exchange failed", "err", err)
		switch {
		case errors.Is(err, auth.ErrTokenExchange):
			h.loginError(w, r, "token_exchange")
		case errors.Is(err, auth.ErrTimeout):
			h.loginError(w, r, "timeout")
		default:
			h.loginError(w, r, "network")
		}
		return
	}

	ttl := time.Until(token.Expiry)
	setTokenCookies(w, token.AccessToken, token.RefreshToken, ttl)
	h.mgr.SetTokens(token.AccessToken, token.RefreshToken, int(ttl.Seconds()))
	h.mgr.StartDevicePoll(h.pollCtx, player.DefaultPollInterval)

	// Populate the session before landing on the player page. A failure
	// here is not fatal to the login; the page offers a manual refresh.
	if err := h.mgr.FetchUserData(r.Context()); err != nil {
		h.logger.Warn("loading user data", "err", err)
	}

	h.logger.Info("authorization complete")
	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}

// Logout ends the session (POST /auth/logout): both token cookies and the
// manager state are cleared. Safe to call when already logged out.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	h.mgr.Logout()
	clearTokenCookies(w)
	http.Redirect(w, r, "/login", http.StatusTemporaryRedirect)
}

// loginError redirects to the login surface carrying an error indicator.
func (h *Handlers) loginError(w http.ResponseWriter, r *http.Request, code string) {
	http.Redirect(w, r, "/login?error="+url.QueryEscape(code), http.StatusTemporaryRedirect)
}
