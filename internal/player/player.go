// Package player holds the application state behind the music player UI:
// the authenticated session, the playback state and the actions the UI can
// trigger. Playback actions are best-effort; they update a predicted state
// immediately and let the device poll reconcile it with the provider.
package player

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/haynafi/MusicPlayer/internal/auth"
	"github.com/haynafi/MusicPlayer/internal/spotify"
)

const (
	defaultPageLimit   = 20
	recentlyPlayedSize = 20
)

// Manager is the process-wide state container. All exported methods are safe
// for concurrent use.
type Manager struct {
	store  auth.TokenStore
	authn  *auth.Authenticator
	client *spotify.Client
	logger *log.Logger

	mu        sync.RWMutex
	session   Session
	predicted *predictedState
	confirmed *spotify.PlaybackState

	pollCancel context.CancelFunc
}

// NewManager creates a Manager around the given token store, authenticator
// and API client.
func NewManager(store auth.TokenStore, authn *auth.Authenticator, client *spotify.Client, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Manager{
		store:  store,
		authn:  authn,
		client: client,
		logger: logger,
	}
}

// LoginURL generates a fresh state nonce and the authorization URL carrying
// it. The returned state must be persisted by the caller (the web layer
// keeps it in a short-lived cookie) and compared on callback.
func (m *Manager) LoginURL() (url, state string, err error) {
	state, err = auth.GenerateState()
	if err != nil {
		return "", "", err
	}
	return m.authn.AuthCodeURL(state), state, nil
}

// Authenticated reports whether an access token is stored.
func (m *Manager) Authenticated() bool {
	access, _ := m.store.Tokens()
	return access != ""
}

// SetTokens installs tokens obtained from the callback exchange.
func (m *Manager) SetTokens(access, refresh string, ttl int) {
	m.store.SetTokens(access, refresh, secondsToDuration(ttl))

	m.mu.Lock()
	m.session.Authenticated = true
	m.mu.Unlock()
}

// AccessToken returns the stored access token and its remaining lifetime
// (zero when the expiry is unknown).
func (m *Manager) AccessToken() (string, time.Duration) {
	access, _ := m.store.Tokens()
	if exp := m.store.ExpiresAt(); !exp.IsZero() {
		return access, time.Until(exp)
	}
	return access, 0
}

// Logout clears the token store and all derived state and stops the device
// poll. Calling it repeatedly is safe and leaves the same empty state.
func (m *Manager) Logout() {
	m.stopPoll()
	m.store.Clear()

	m.mu.Lock()
	m.session = Session{}
	m.predicted = nil
	m.confirmed = nil
	m.mu.Unlock()

	m.logger.Info("logged out")
}

// Session returns a snapshot of the current session.
func (m *Manager) Session() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session
}

// Playback returns the playback state for the UI: the confirmed provider
// state overlaid with any prediction not yet reconciled.
func (m *Manager) Playback() PlaybackView {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var view PlaybackView
	if m.confirmed != nil {
		view.CurrentTrack = m.confirmed.Item
		view.IsPlaying = m.confirmed.IsPlaying
		view.ProgressMS = m.confirmed.ProgressMS
		device := m.confirmed.Device
		view.Device = &device
		view.Confirmed = true
	}
	if m.predicted != nil {
		view.IsPlaying = m.predicted.isPlaying
		if m.predicted.track != nil {
			view.CurrentTrack = m.predicted.track
		}
		view.Confirmed = false
	}
	return view
}

// FetchUserData loads the profile, playlists, top tracks and recently-played
// history and commits them as the new Session. Any one fetch failing aborts
// the batch; the previous Session stays intact.
func (m *Manager) FetchUserData(ctx context.Context) error {
	user, err := m.client.CurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("fetching profile: %w", err)
	}

	playlists, err := m.client.CurrentUserPlaylists(ctx, defaultPageLimit, 0)
	if err != nil {
		return fmt.Errorf("fetching playlists: %w", err)
	}

	top, err := m.client.TopTracks(ctx, "", defaultPageLimit, 0)
	if err != nil {
		return fmt.Errorf("fetching top tracks: %w", err)
	}

	recent, err := m.client.RecentlyPlayed(ctx, recentlyPlayedSize)
	if err != nil {
		return fmt.Errorf("fetching recently played: %w", err)
	}

	recentTracks := make([]spotify.Track, 0, len(recent.Items))
	for _, item := range recent.Items {
		recentTracks = append(recentTracks, item.Track)
	}

	m.mu.Lock()
	m.session = Session{
		Authenticated: true,
		User:          user,
		Playlists:     playlists.Items,
		TopTracks:     top.Items,
		RecentTracks:  recentTracks,
	}
	m.mu.Unlock()

	m.logger.Debug("session refreshed",
		"playlists", len(playlists.Items),
		"top_tracks", len(top.Items),
		"recent_tracks", len(recentTracks))
	return nil
}

// PlayTrack starts playback of a track URI and predicts the result.
func (m *Manager) PlayTrack(ctx context.Context, trackURI string) error {
	if err := m.client.PlayTracks(ctx, []string{trackURI}, ""); err != nil {
		return err
	}

	m.mu.Lock()
	m.predicted = &predictedState{
		track:     m.findTrackLocked(trackURI),
		isPlaying: true,
	}
	m.mu.Unlock()
	return nil
}

// Resume resumes playback where it left off.
func (m *Manager) Resume(ctx context.Context) error {
	if err := m.client.Resume(ctx, ""); err != nil {
		return err
	}

	m.mu.Lock()
	current := m.currentTrackLocked()
	m.predicted = &predictedState{track: current, isPlaying: true}
	m.mu.Unlock()
	return nil
}

// PauseTrack pauses playback and predicts the result.
func (m *Manager) PauseTrack(ctx context.Context) error {
	if err := m.client.Pause(ctx, ""); err != nil {
		return err
	}

	m.mu.Lock()
	current := m.currentTrackLocked()
	m.predicted = &predictedState{track: current, isPlaying: false}
	m.mu.Unlock()
	return nil
}

// NextTrack skips forward. The resulting track is unknown until the next
// poll, so only the playing flag is predicted.
func (m *Manager) NextTrack(ctx context.Context) error {
	if err := m.client.Next(ctx, ""); err != nil {
		return err
	}

	m.mu.Lock()
	m.predicted = &predictedState{isPlaying: true}
	m.mu.Unlock()
	return nil
}

// PreviousTrack skips backward.
func (m *Manager) PreviousTrack(ctx context.Context) error {
	if err := m.client.Previous(ctx, ""); err != nil {
		return err
	}

	m.mu.Lock()
	m.predicted = &predictedState{isPlaying: true}
	m.mu.Unlock()
	return nil
}

// PlayAlbum starts playback of an album context URI.
func (m *Manager) PlayAlbum(ctx context.Context, albumURI string) error {
	if err := m.client.PlayContext(ctx, albumURI, ""); err != nil {
		return err
	}

	m.mu.Lock()
	m.predicted = &predictedState{isPlaying: true}
	m.mu.Unlock()
	return nil
}

// PlayArtistTopTracks queues an artist's top tracks and starts playback.
func (m *Manager) PlayArtistTopTracks(ctx context.Context, artistID string) error {
	tracks, err := m.client.ArtistTopTracks(ctx, artistID, "")
	if err != nil {
		return err
	}
	if len(tracks) == 0 {
		return fmt.Errorf("artist %s has no top tracks", artistID)
	}

	uris := make([]string, 0, len(tracks))
	for _, t := range tracks {
		uris = append(uris, t.URI)
	}
	if err := m.client.PlayTracks(ctx, uris, ""); err != nil {
		return err
	}

	first := tracks[0]
	m.mu.Lock()
	m.predicted = &predictedState{track: &first, isPlaying: true}
	m.mu.Unlock()
	return nil
}

// Seek moves the playback position.
func (m *Manager) Seek(ctx context.Context, positionMS int) error {
	return m.client.Seek(ctx, positionMS, "")
}

// SetVolume sets the active device volume.
func (m *Manager) SetVolume(ctx context.Context, percent int) error {
	return m.client.SetVolume(ctx, percent, "")
}

// SetShuffle toggles shuffle mode.
func (m *Manager) SetShuffle(ctx context.Context, on bool) error {
	return m.client.SetShuffle(ctx, on, "")
}

// SetRepeat sets the repeat mode: track, context or off.
func (m *Manager) SetRepeat(ctx context.Context, mode string) error {
	return m.client.SetRepeat(ctx, mode, "")
}

// Search queries the catalog on behalf of the UI.
func (m *Manager) Search(ctx context.Context, query string, types []string, limit int) (*spotify.SearchResult, error) {
	return m.client.Search(ctx, query, types, limit)
}

// Devices lists the user's available playback devices.
func (m *Manager) Devices(ctx context.Context) ([]spotify.Device, error) {
	return m.client.Devices(ctx)
}

// findTrackLocked looks up a track by URI in the session's track lists.
// Caller holds m.mu.
func (m *Manager) findTrackLocked(uri string) *spotify.Track {
	for i := range m.session.TopTracks {
		if m.session.TopTracks[i].URI == uri {
			t := m.session.TopTracks[i]
			return &t
		}
	}
	for i := range m.session.RecentTracks {
		if m.session.RecentTracks[i].URI == uri {
			t := m.session.RecentTracks[i]
			return &t
		}
	}
	return nil
}

// currentTrackLocked returns the track the UI currently shows, predicted or
// confirmed. Caller holds m.mu.
func (m *Manager) currentTrackLocked() *spotify.Track {
	if m.predicted != nil && m.predicted.track != nil {
		return m.predicted.track
	}
	if m.confirmed != nil {
		return m.confirmed.Item
	}
	return nil
}

func secondsToDuration(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}
