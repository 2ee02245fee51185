package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/haynafi/MusicPlayer/internal/spotify"
)

// JSON API backing the player UI. All routes live under /api/ and sit
// behind the navigation gate.

// Session returns the current session and playback view (GET /api/session).
func (h *Handlers) Session(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"session":  h.mgr.Session(),
		"playback": h.mgr.Playback(),
	})
}

// RefreshSession re-fetches the user's profile, playlists, top tracks and
// history (POST /api/session/refresh). A partial failure leaves the prior
// session untouched.
func (h *Handlers) RefreshSession(w http.ResponseWriter, r *http.Request) {
	if err := h.mgr.FetchUserData(r.Context()); err != nil {
		h.apiError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.mgr.Session())
}

// Search queries the catalog (GET /api/search?q=...&type=...&limit=...).
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		http.Error(w, "missing query", http.StatusBadRequest)
		return
	}

	var types []string
	if t := r.URL.Query().Get("type"); t != "" {
		types = strings.Split(t, ",")
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	result, err := h.mgr.Search(r.Context(), query, types, limit)
	if err != nil {
		h.apiError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Devices lists available playback devices (GET /api/player/devices).
func (h *Handlers) Devices(w http.ResponseWriter, r *http.Request) {
	devices, err := h.mgr.Devices(r.Context())
	if err != nil {
		h.apiError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, spotify.DeviceList{Devices: devices})
}

// Play starts playback of a track URI, or resumes the paused track when no
// uri is given (PUT /api/player/play?uri=...).
func (h *Handlers) Play(w http.ResponseWriter, r *http.Request) {
	uri := r.URL.Query().Get("uri")
	if uri == "" {
		h.playbackAction(w, r, func() error { return h.mgr.Resume(r.Context()) })
		return
	}
	h.playbackAction(w, r, func() error { return h.mgr.PlayTrack(r.Context(), uri) })
}

// Pause pauses playback (PUT /api/player/pause).
func (h *Handlers) Pause(w http.ResponseWriter, r *http.Request) {
	h.playbackAction(w, r, func() error { return h.mgr.PauseTrack(r.Context()) })
}

// Next skips forward (POST /api/player/next).
func (h *Handlers) Next(w http.ResponseWriter, r *http.Request) {
	h.playbackAction(w, r, func() error { return h.mgr.NextTrack(r.Context()) })
}

// Previous skips backward (POST /api/player/previous).
func (h *Handlers) Previous(w http.ResponseWriter, r *http.Request) {
	h.playbackAction(w, r, func() error { return h.mgr.PreviousTrack(r.Context()) })
}

// PlayAlbum starts album playback (PUT /api/player/play-album?uri=...).
func (h *Handlers) PlayAlbum(w http.ResponseWriter, r *http.Request) {
	uri := r.URL.Query().Get("uri")
	if uri == "" {
		http.Error(w, "missing uri", http.StatusBadRequest)
		return
	}
	h.playbackAction(w, r, func() error { return h.mgr.PlayAlbum(r.Context(), uri) })
}

// PlayArtist plays an artist's top tracks (PUT /api/player/play-artist?id=...).
func (h *Handlers) PlayArtist(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "missing id", http.StatusBadRequest)
		return
	}
	h.playbackAction(w, r, func() error { return h.mgr.PlayArtistTopTracks(r.Context(), id) })
}

// Seek moves the playback position (PUT /api/player/seek?position_ms=...).
func (h *Handlers) Seek(w http.ResponseWriter, r *http.Request) {
	pos, err := strconv.Atoi(r.URL.Query().Get("position_ms"))
	if err != nil || pos < 0 {
		http.Error(w, "invalid position_ms", http.StatusBadRequest)
		return
	}
	h.playbackAction(w, r, func() error { return h.mgr.Seek(r.Context(), pos) })
}

// Volume sets the device volume (PUT /api/player/volume?percent=...).
func (h *Handlers) Volume(w http.ResponseWriter, r *http.Request) {
	percent, err := strconv.Atoi(r.URL.Query().Get("percent"))
	if err != nil {
		http.Error(w, "invalid percent", http.StatusBadRequest)
		return
	}
	h.playbackAction(w, r, func() error { return h.mgr.SetVolume(r.Context(), percent) })
}

// Shuffle toggles shuffle mode (PUT /api/player/shuffle?state=true|false).
func (h *Handlers) Shuffle(w http.ResponseWriter, r *http.Request) {
	on, err := strconv.ParseBool(r.URL.Query().Get("state"))
	if err != nil {
		http.Error(w, "invalid state", http.StatusBadRequest)
		return
	}
	h.playbackAction(w, r, func() error { return h.mgr.SetShuffle(r.Context(), on) })
}

// Repeat sets the repeat mode (PUT /api/player/repeat?state=track|context|off).
func (h *Handlers) Repeat(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("state")
	switch mode {
	case "track", "context", "off":
	default:
		http.Error(w, "invalid state", http.StatusBadRequest)
		return
	}
	h.playbackAction(w, r, func() error { return h.mgr.SetRepeat(r.Context(), mode) })
}

// playbackAction runs a playback command and answers with the resulting
// predicted playback view.
func (h *Handlers) playbackAction(w http.ResponseWriter, r *http.Request, fn func() error) {
	if err := fn(); err != nil {
		h.apiError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.mgr.Playback())
}

// apiError maps client errors onto HTTP statuses. A SessionExpired forces
// logout: the cookies are cleared so the gate sends the browser to /login on
// the next navigation.
func (h *Handlers) apiError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, spotify.ErrSessionExpired):
		h.logger.Warn("session expired", "path", r.URL.Path)
		h.mgr.Logout()
		clearTokenCookies(w)
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "session_expired"})
	case errors.Is(err, spotify.ErrNotAuthenticated):
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not_authenticated"})
	case errors.Is(err, spotify.ErrTimeout):
		writeJSON(w, http.StatusGatewayTimeout, map[string]string{"error": "timeout"})
	default:
		var apiErr *spotify.APIError
		if errors.As(err, &apiErr) {
			h.logger.Warn("upstream error", "path", r.URL.Path, "status", apiErr.Status)
			writeJSON(w, http.StatusBadGateway, map[string]any{
				"error":  "upstream",
				"status": apiErr.Status,
			})
			return
		}
		h.logger.Error("request failed", "path", r.URL.Path, "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
