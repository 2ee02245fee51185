package player

import "github.com/haynafi/MusicPlayer/internal/spotify"

// Session is the derived view of the authenticated user: profile, playlists,
// top tracks and listening history. It is rebuilt wholesale on every
// successful FetchUserData; a failed fetch never touches it.
type Session struct {
	Authenticated bool
	User          *spotify.User
	Playlists     []spotify.Playlist
	TopTracks     []spotify.Track
	RecentTracks  []spotify.Track
}

// PlaybackView is the playback state presented to the UI. After a playback
// command it reflects the predicted outcome; once the device poll observes
// the provider again it carries the confirmed state.
type PlaybackView struct {
	CurrentTrack *spotify.Track
	IsPlaying    bool
	ProgressMS   int
	Device       *spotify.Device
	Confirmed    bool
}

// predictedState is the optimistic playback state set by commands before the
// provider confirms anything.
type predictedState struct {
	track     *spotify.Track
	isPlaying bool
}
