// Package web provides the HTTP server, OAuth callback handling and browser
// UI for the music player.
package web

import (
	"net/http"
	"time"
)

// Cookie contract: the access-token cookie lives as long as the token
// itself, the refresh-token cookie for a fixed 30 days. Both are HttpOnly;
// the browser never needs script access because all API calls go through
// this server.
const (
	accessCookieName  = "spotify_access_token"
	refreshCookieName = "spotify_refresh_token"
	stateCookieName   = "spotify_auth_state"

	refreshCookieTTL = 30 * 24 * time.Hour
	stateCookieTTL   = 5 * time.Minute
)

// setTokenCookies stores both tokens on the response. accessTTL is the
// token's expires_in reported by the provider.
func setTokenCookies(w http.ResponseWriter, access, refresh string, accessTTL time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     accessCookieName,
		Value:    access,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(accessTTL.Seconds()),
	})
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    refresh,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(refreshCookieTTL.Seconds()),
	})
}

// refreshAccessCookie re-issues only the access-token cookie, used after the
// API client refreshed the token mid-session.
func refreshAccessCookie(w http.ResponseWriter, access string, accessTTL time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     accessCookieName,
		Value:    access,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(accessTTL.Seconds()),
	})
}

// clearTokenCookies removes both token cookies.
func clearTokenCookies(w http.ResponseWriter) {
	for _, name := range []string{accessCookieName, refreshCookieName} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			HttpOnly: true,
			MaxAge:   -1,
		})
	}
}

// setStateCookie stores the anti-CSRF nonce for the in-flight login attempt,
// replacing any previous one.
func setStateCookie(w http.ResponseWriter, state string) {
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(stateCookieTTL.Seconds()),
	})
}

// clearStateCookie invalidates the nonce; it is single-use.
func clearStateCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// cookieValue returns the named cookie's value, or "" when absent.
func cookieValue(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}
