package web

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/haynafi/MusicPlayer/internal/player"
)

// publicPaths need no authentication.
var publicPaths = []string{"/login", "/auth/login", "/callback", "/static/"}

func isPublic(path string) bool {
	for _, p := range publicPaths {
		if path == p || (strings.HasSuffix(p, "/") && strings.HasPrefix(path, p)) {
			return true
		}
	}
	return false
}

// gate is the navigation filter: requests without an access-token cookie are
// redirected to the login page (API paths get a plain 401), and an already
// authenticated visit to /login goes home. It also keeps the Manager's token
// store and the browser cookies in step.
func gate(mgr *player.Manager, pollCtx context.Context) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			access := cookieValue(r, accessCookieName)
			refresh := cookieValue(r, refreshCookieName)
			authed := access != ""

			if r.URL.Path == "/login" && authed {
				http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
				return
			}

			if isPublic(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			if !authed {
				if strings.HasPrefix(r.URL.Path, "/api/") {
					http.Error(w, "authentication required", http.StatusUnauthorized)
					return
				}
				http.Redirect(w, r, "/login", http.StatusTemporaryRedirect)
				return
			}

			syncTokens(w, r, mgr, pollCtx, access, refresh)
			next.ServeHTTP(w, r)
		})
	}
}

// syncTokens reconciles the browser cookies with the Manager's store. After
// a restart the store is empty while the browser still holds valid cookies;
// after a mid-session refresh the store holds a newer access token than the
// cookie. Cookie TTLs for the seeded case are unknown, so the access cookie
// keeps its remaining browser lifetime. A seeded session also restarts the
// device poll, which otherwise only login starts.
func syncTokens(w http.ResponseWriter, r *http.Request, mgr *player.Manager, pollCtx context.Context, cookieAccess, cookieRefresh string) {
	if !mgr.Authenticated() {
		mgr.SetTokens(cookieAccess, cookieRefresh, 0)
		mgr.StartDevicePoll(pollCtx, player.DefaultPollInterval)
		return
	}

	storeAccess, storeTTL := mgr.AccessToken()
	if storeAccess != "" && storeAccess != cookieAccess {
		ttl := storeTTL
		if ttl <= 0 {
			ttl = time.Hour
		}
		refreshAccessCookie(w, storeAccess, ttl)
	}
}
