package spotify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/haynafi/MusicPlayer/internal/auth"
)

// recorder captures the last request the client sent.
type recorder struct {
	method string
	path   string
	query  map[string]string
	body   []byte
	status int
	reply  string
}

func (rec *recorder) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.method = r.Method
		rec.path = r.URL.Path
		rec.query = map[string]string{}
		for k, v := range r.URL.Query() {
			rec.query[k] = v[0]
		}
		rec.body, _ = io.ReadAll(r.Body)
		if rec.status != 0 {
			w.WriteHeader(rec.status)
		}
		if rec.reply != "" {
			w.Write([]byte(rec.reply))
		}
	})
}

func playerTestClient(t *testing.T, rec *recorder) *Client {
	t.Helper()

	srv := httptest.NewServer(rec.handler())
	t.Cleanup(srv.Close)

	authn, err := auth.New(auth.Config{ClientID: "id", ClientSecret: "secret"})
	if err != nil {
		t.Fatalf("auth.New() error = %v", err)
	}

	store := auth.NewMemoryStore()
	store.SetTokens("valid", "R", time.Hour)
	return NewClient(store, authn,
		WithBaseURL(srv.URL),
		WithLimiter(rate.NewLimiter(rate.Inf, 0)))
}

func TestPlaybackCommands(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		call       func(c *Client) error
		wantMethod string
		wantPath   string
		wantQuery  map[string]string
	}{
		{
			name:       "pause",
			call:       func(c *Client) error { return c.Pause(ctx, "") },
			wantMethod: http.MethodPut,
			wantPath:   "/me/player/pause",
		},
		{
			name:       "pause with device",
			call:       func(c *Client) error { return c.Pause(ctx, "dev1") },
			wantMethod: http.MethodPut,
			wantPath:   "/me/player/pause",
			wantQuery:  map[string]string{"device_id": "dev1"},
		},
		{
			name:       "next",
			call:       func(c *Client) error { return c.Next(ctx, "") },
			wantMethod: http.MethodPost,
			wantPath:   "/me/player/next",
		},
		{
			name:       "previous",
			call:       func(c *Client) error { return c.Previous(ctx, "") },
			wantMethod: http.MethodPost,
			wantPath:   "/me/player/previous",
		},
		{
			name:       "seek",
			call:       func(c *Client) error { return c.Seek(ctx, 42000, "") },
			wantMethod: http.MethodPut,
			wantPath:   "/me/player/seek",
			wantQuery:  map[string]string{"position_ms": "42000"},
		},
		{
			name:       "seek with device",
			call:       func(c *Client) error { return c.Seek(ctx, 42000, "dev1") },
			wantMethod: http.MethodPut,
			wantPath:   "/me/player/seek",
			wantQuery:  map[string]string{"position_ms": "42000", "device_id": "dev1"},
		},
		{
			name:       "volume clamps to 100",
			call:       func(c *Client) error { return c.SetVolume(ctx, 150, "") },
			wantMethod: http.MethodPut,
			wantPath:   "/me/player/volume",
			wantQuery:  map[string]string{"volume_percent": "100"},
		},
		{
			name:       "shuffle on",
			call:       func(c *Client) error { return c.SetShuffle(ctx, true, "") },
			wantMethod: http.MethodPut,
			wantPath:   "/me/player/shuffle",
			wantQuery:  map[string]string{"state": "true"},
		},
		{
			name:       "repeat track",
			call:       func(c *Client) error { return c.SetRepeat(ctx, "track", "") },
			wantMethod: http.MethodPut,
			wantPath:   "/me/player/repeat",
			wantQuery:  map[string]string{"state": "track"},
		},
		{
			name:       "resume",
			call:       func(c *Client) error { return c.Resume(ctx, "") },
			wantMethod: http.MethodPut,
			wantPath:   "/me/player/play",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{status: http.StatusNoContent}
			client := playerTestClient(t, rec)

			if err := tt.call(client); err != nil {
				t.Fatalf("call error = %v", err)
			}
			if rec.method != tt.wantMethod {
				t.Errorf("method = %s, want %s", rec.method, tt.wantMethod)
			}
			if rec.path != tt.wantPath {
				t.Errorf("path = %s, want %s", rec.path, tt.wantPath)
			}
			for k, v := range tt.wantQuery {
				if got := rec.query[k]; got != v {
					t.Errorf("query %s = %q, want %q", k, got, v)
				}
			}
		})
	}
}

func TestPlayTracks_Body(t *testing.T) {
	rec := &recorder{status: http.StatusNoContent}
	client := playerTestClient(t, rec)

	uris := []string{"spotify:track:abc", "spotify:track:def"}
	if err := client.PlayTracks(context.Background(), uris, ""); err != nil {
		t.Fatalf("PlayTracks() error = %v", err)
	}

	var body struct {
		URIs []string `json:"uris"`
	}
	if err := json.Unmarshal(rec.body, &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if len(body.URIs) != 2 || body.URIs[0] != "spotify:track:abc" {
		t.Errorf("uris = %v", body.URIs)
	}
}

func TestPlayContext_Body(t *testing.T) {
	rec := &recorder{status: http.StatusNoContent}
	client := playerTestClient(t, rec)

	if err := client.PlayContext(context.Background(), "spotify:album:xyz", ""); err != nil {
		t.Fatalf("PlayContext() error = %v", err)
	}

	var body struct {
		ContextURI string `json:"context_uri"`
	}
	if err := json.Unmarshal(rec.body, &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body.ContextURI != "spotify:album:xyz" {
		t.Errorf("context_uri = %q", body.ContextURI)
	}
}

func TestPlaybackState_NothingPlaying(t *testing.T) {
	// The API answers 204 with no body when nothing plays anywhere.
	rec := &recorder{status: http.StatusNoContent}
	client := playerTestClient(t, rec)

	state, err := client.PlaybackState(context.Background())
	if err != nil {
		t.Fatalf("PlaybackState() error = %v", err)
	}
	if state != nil {
		t.Errorf("state = %+v, want nil", state)
	}
}

func TestPlaybackState_Playing(t *testing.T) {
	rec := &recorder{reply: `{
		"device": {"id": "dev1", "name": "Speaker", "is_active": true},
		"is_playing": true,
		"progress_ms": 1234,
		"repeat_state": "off",
		"item": {"id": "t1", "name": "Song", "uri": "spotify:track:t1"}
	}`}
	client := playerTestClient(t, rec)

	state, err := client.PlaybackState(context.Background())
	if err != nil {
		t.Fatalf("PlaybackState() error = %v", err)
	}
	if state == nil {
		t.Fatal("state = nil, want playing state")
	}
	if !state.IsPlaying || state.Item == nil || state.Item.Name != "Song" {
		t.Errorf("state = %+v", state)
	}
	if state.Device.ID != "dev1" {
		t.Errorf("device = %+v", state.Device)
	}
}

func TestTransferPlayback_Body(t *testing.T) {
	rec := &recorder{status: http.StatusNoContent}
	client := playerTestClient(t, rec)

	if err := client.TransferPlayback(context.Background(), "dev2", true); err != nil {
		t.Fatalf("TransferPlayback() error = %v", err)
	}

	if rec.method != http.MethodPut || rec.path != "/me/player" {
		t.Errorf("request = %s %s", rec.method, rec.path)
	}

	var body struct {
		DeviceIDs []string `json:"device_ids"`
		Play      bool     `json:"play"`
	}
	if err := json.Unmarshal(rec.body, &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if len(body.DeviceIDs) != 1 || body.DeviceIDs[0] != "dev2" || !body.Play {
		t.Errorf("body = %+v", body)
	}
}
