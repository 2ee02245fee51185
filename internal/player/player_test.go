package player

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/haynafi/MusicPlayer/internal/auth"
	"github.com/haynafi/MusicPlayer/internal/spotify"
)

// fakeSpotify serves canned responses for the data and playback endpoints,
// with per-path failure injection.
type fakeSpotify struct {
	mu       sync.Mutex
	failures map[string]int // path -> forced status
}

func (f *fakeSpotify) fail(path string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures == nil {
		f.failures = map[string]int{}
	}
	f.failures[path] = status
}

func (f *fakeSpotify) handler() http.Handler {
	responses := map[string]string{
		"/me":           `{"id":"u1","display_name":"Test User"}`,
		"/me/playlists": `{"items":[{"id":"p1","name":"Daily Mix","tracks":{"total":3}}],"total":1}`,
		"/me/top/tracks": `{"items":[
			{"id":"t1","name":"Top Song","uri":"spotify:track:t1","artists":[{"name":"Artist A"}]}
		],"total":1}`,
		"/me/player/recently-played": `{"items":[
			{"played_at":"2024-01-01T00:00:00Z","track":{"id":"t2","name":"Recent Song","uri":"spotify:track:t2"}}
		]}`,
		"/me/player": `{
			"device":{"id":"dev1","name":"Speaker","is_active":true},
			"is_playing":true,"progress_ms":500,"repeat_state":"off",
			"item":{"id":"t9","name":"Confirmed Song","uri":"spotify:track:t9"}
		}`,
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		status, forced := f.failures[r.URL.Path]
		f.mu.Unlock()
		if forced {
			w.WriteHeader(status)
			return
		}

		if body, ok := responses[r.URL.Path]; ok {
			w.Write([]byte(body))
			return
		}
		// Playback commands acknowledge without a body.
		w.WriteHeader(http.StatusNoContent)
	})
}

func newTestManager(t *testing.T, api *fakeSpotify) (*Manager, *auth.MemoryStore) {
	t.Helper()

	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)

	authn, err := auth.New(auth.Config{ClientID: "id", ClientSecret: "secret"})
	if err != nil {
		t.Fatalf("auth.New() error = %v", err)
	}

	store := auth.NewMemoryStore()
	store.SetTokens("valid", "R", time.Hour)

	client := spotify.NewClient(store, authn,
		spotify.WithBaseURL(srv.URL),
		spotify.WithLimiter(rate.NewLimiter(rate.Inf, 0)))

	return NewManager(store, authn, client, nil), store
}

func TestFetchUserData(t *testing.T) {
	mgr, _ := newTestManager(t, &fakeSpotify{})

	if err := mgr.FetchUserData(context.Background()); err != nil {
		t.Fatalf("FetchUserData() error = %v", err)
	}

	session := mgr.Session()
	if !session.Authenticated {
		t.Error("session not authenticated after fetch")
	}
	if session.User == nil || session.User.ID != "u1" {
		t.Errorf("user = %+v", session.User)
	}
	if len(session.Playlists) != 1 || session.Playlists[0].Name != "Daily Mix" {
		t.Errorf("playlists = %+v", session.Playlists)
	}
	if len(session.TopTracks) != 1 || session.TopTracks[0].ID != "t1" {
		t.Errorf("top tracks = %+v", session.TopTracks)
	}
	if len(session.RecentTracks) != 1 || session.RecentTracks[0].ID != "t2" {
		t.Errorf("recent tracks = %+v", session.RecentTracks)
	}
}

func TestFetchUserData_PartialFailureKeepsPriorSession(t *testing.T) {
	api := &fakeSpotify{}
	mgr, _ := newTestManager(t, api)

	if err := mgr.FetchUserData(context.Background()); err != nil {
		t.Fatalf("first FetchUserData() error = %v", err)
	}
	before := mgr.Session()

	// One of the four reads failing aborts the batch.
	api.fail("/me/player/recently-played", http.StatusInternalServerError)

	err := mgr.FetchUserData(context.Background())
	if err == nil {
		t.Fatal("FetchUserData() with failing sub-fetch returned nil error")
	}
	var apiErr *spotify.APIError
	if !errors.As(err, &apiErr) {
		t.Errorf("error = %v, want wrapped APIError", err)
	}

	after := mgr.Session()
	if after.User == nil || after.User.ID != before.User.ID {
		t.Errorf("user changed: %+v", after.User)
	}
	if len(after.Playlists) != len(before.Playlists) ||
		len(after.TopTracks) != len(before.TopTracks) ||
		len(after.RecentTracks) != len(before.RecentTracks) {
		t.Errorf("session partially overwritten: %+v", after)
	}
}

func TestLogout_Idempotent(t *testing.T) {
	mgr, store := newTestManager(t, &fakeSpotify{})

	if err := mgr.FetchUserData(context.Background()); err != nil {
		t.Fatalf("FetchUserData() error = %v", err)
	}

	for i := 0; i < 2; i++ {
		mgr.Logout()

		if mgr.Authenticated() {
			t.Errorf("logout %d: still authenticated", i)
		}
		access, refresh := store.Tokens()
		if access != "" || refresh != "" {
			t.Errorf("logout %d: store = %q/%q, want empty", i, access, refresh)
		}
		session := mgr.Session()
		if session.User != nil || len(session.Playlists) != 0 ||
			len(session.TopTracks) != 0 || len(session.RecentTracks) != 0 {
			t.Errorf("logout %d: session not empty: %+v", i, session)
		}
	}
}

func TestPlayTrack_PredictsState(t *testing.T) {
	mgr, _ := newTestManager(t, &fakeSpotify{})

	if err := mgr.FetchUserData(context.Background()); err != nil {
		t.Fatalf("FetchUserData() error = %v", err)
	}

	if err := mgr.PlayTrack(context.Background(), "spotify:track:t1"); err != nil {
		t.Fatalf("PlayTrack() error = %v", err)
	}

	view := mgr.Playback()
	if !view.IsPlaying {
		t.Error("IsPlaying = false after play command")
	}
	if view.Confirmed {
		t.Error("Confirmed = true for a predicted state")
	}
	if view.CurrentTrack == nil || view.CurrentTrack.ID != "t1" {
		t.Errorf("CurrentTrack = %+v, want the session's t1", view.CurrentTrack)
	}
}

func TestPauseTrack_PredictsState(t *testing.T) {
	mgr, _ := newTestManager(t, &fakeSpotify{})

	if err := mgr.FetchUserData(context.Background()); err != nil {
		t.Fatalf("FetchUserData() error = %v", err)
	}
	if err := mgr.PlayTrack(context.Background(), "spotify:track:t1"); err != nil {
		t.Fatalf("PlayTrack() error = %v", err)
	}

	if err := mgr.PauseTrack(context.Background()); err != nil {
		t.Fatalf("PauseTrack() error = %v", err)
	}

	view := mgr.Playback()
	if view.IsPlaying {
		t.Error("IsPlaying = true after pause command")
	}
	if view.CurrentTrack == nil || view.CurrentTrack.ID != "t1" {
		t.Errorf("CurrentTrack = %+v, want t1 kept through pause", view.CurrentTrack)
	}
}

func TestPlayTrack_UnknownURIStillPlays(t *testing.T) {
	mgr, _ := newTestManager(t, &fakeSpotify{})

	if err := mgr.PlayTrack(context.Background(), "spotify:track:unknown"); err != nil {
		t.Fatalf("PlayTrack() error = %v", err)
	}

	view := mgr.Playback()
	if !view.IsPlaying {
		t.Error("IsPlaying = false")
	}
	if view.CurrentTrack != nil {
		t.Errorf("CurrentTrack = %+v, want nil for a track outside the session", view.CurrentTrack)
	}
}

func TestDevicePoll_ConfirmsState(t *testing.T) {
	mgr, _ := newTestManager(t, &fakeSpotify{})

	if err := mgr.PlayTrack(context.Background(), "spotify:track:t1"); err != nil {
		t.Fatalf("PlayTrack() error = %v", err)
	}
	if view := mgr.Playback(); view.Confirmed {
		t.Fatal("state confirmed before any poll")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	mgr.StartDevicePoll(ctx, 10*time.Millisecond)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if view := mgr.Playback(); view.Confirmed {
			if view.CurrentTrack == nil || view.CurrentTrack.ID != "t9" {
				t.Errorf("confirmed track = %+v, want t9", view.CurrentTrack)
			}
			if view.Device == nil || view.Device.ID != "dev1" {
				t.Errorf("device = %+v, want dev1", view.Device)
			}
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("poll never confirmed playback state")
}

func TestDevicePoll_StopsOnLogout(t *testing.T) {
	mgr, store := newTestManager(t, &fakeSpotify{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	mgr.StartDevicePoll(ctx, 10*time.Millisecond)

	mgr.Logout()

	// A stopped poll must not resurrect state or tokens.
	time.Sleep(50 * time.Millisecond)
	if access, _ := store.Tokens(); access != "" {
		t.Errorf("store access = %q after logout", access)
	}
	if view := mgr.Playback(); view.Confirmed || view.IsPlaying {
		t.Errorf("playback state after logout: %+v", view)
	}
}

func TestLoginURL_CarriesState(t *testing.T) {
	mgr, _ := newTestManager(t, &fakeSpotify{})

	authURL, state, err := mgr.LoginURL()
	if err != nil {
		t.Fatalf("LoginURL() error = %v", err)
	}
	if state == "" {
		t.Fatal("empty state")
	}

	u, err := url.Parse(authURL)
	if err != nil {
		t.Fatalf("parsing URL: %v", err)
	}
	if got := u.Query().Get("state"); got != state {
		t.Errorf("URL state = %q, want %q", got, state)
	}
}
