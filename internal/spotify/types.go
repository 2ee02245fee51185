package spotify

// Spotify API response types based on
// https://developer.spotify.com/documentation/web-api/reference/

type followers struct {
	Total int `json:"total"`
}

// User represents a Spotify user profile.
type User struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	Country     string    `json:"country"`
	Product     string    `json:"product"` // premium, free, etc.
	Followers   followers `json:"followers"`
	Images      []Image   `json:"images"`
}

// Image represents an image resource.
type Image struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// Artist represents a Spotify artist.
type Artist struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Genres []string `json:"genres"`
	Images []Image  `json:"images"`
	URI    string   `json:"uri"`
}

// Album represents a Spotify album.
type Album struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Artists     []Artist `json:"artists"`
	ReleaseDate string   `json:"release_date"`
	TotalTracks int      `json:"total_tracks"`
	Images      []Image  `json:"images"`
	URI         string   `json:"uri"`
}

// Track represents a Spotify track.
type Track struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Artists    []Artist `json:"artists"`
	Album      Album    `json:"album"`
	DurationMS int      `json:"duration_ms"`
	Explicit   bool     `json:"explicit"`
	Popularity int      `json:"popularity"`
	URI        string   `json:"uri"`
}

// Owner identifies the user owning a playlist.
type Owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type playlistTracks struct {
	Total int `json:"total"`
}

// Playlist represents a Spotify playlist as returned in list responses.
type Playlist struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Owner       Owner          `json:"owner"`
	Public      bool           `json:"public"`
	Tracks      playlistTracks `json:"tracks"`
	Images      []Image        `json:"images"`
	URI         string         `json:"uri"`
}

// PlayedTrack represents an entry in the recently-played history.
type PlayedTrack struct {
	PlayedAt string `json:"played_at"`
	Track    Track  `json:"track"`
}

// Paginated wrappers.

// PlaylistPage is a paginated playlist response.
type PlaylistPage struct {
	Items    []Playlist `json:"items"`
	Total    int        `json:"total"`
	Limit    int        `json:"limit"`
	Offset   int        `json:"offset"`
	Next     *string    `json:"next"`
	Previous *string    `json:"previous"`
}

// TrackPage is a paginated track response.
type TrackPage struct {
	Items    []Track `json:"items"`
	Total    int     `json:"total"`
	Limit    int     `json:"limit"`
	Offset   int     `json:"offset"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
}

// PlayHistoryPage is the recently-played response.
type PlayHistoryPage struct {
	Items []PlayedTrack `json:"items"`
	Limit int           `json:"limit"`
}

// ArtistPage is a paginated artist response.
type ArtistPage struct {
	Items []Artist `json:"items"`
	Total int      `json:"total"`
}

// AlbumPage is a paginated album response.
type AlbumPage struct {
	Items []Album `json:"items"`
	Total int     `json:"total"`
}

// SearchResult holds the per-type pages of a search response.
type SearchResult struct {
	Tracks  *TrackPage  `json:"tracks"`
	Artists *ArtistPage `json:"artists"`
	Albums  *AlbumPage  `json:"albums"`
}

// Category represents a browse category.
type Category struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Icons []Image `json:"icons"`
}

// CategoryPage is a paginated browse-category response.
type CategoryPage struct {
	Categories struct {
		Items []Category `json:"items"`
		Total int        `json:"total"`
	} `json:"categories"`
}

// Device represents a playback device.
type Device struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	IsActive      bool   `json:"is_active"`
	IsRestricted  bool   `json:"is_restricted"`
	VolumePercent int    `json:"volume_percent"`
}

// DeviceList is the available-devices response.
type DeviceList struct {
	Devices []Device `json:"devices"`
}

// PlaybackState is the current playback state of the active device. A nil
// PlaybackState from the API means nothing is playing anywhere.
type PlaybackState struct {
	Device       Device `json:"device"`
	IsPlaying    bool   `json:"is_playing"`
	ProgressMS   int    `json:"progress_ms"`
	ShuffleState bool   `json:"shuffle_state"`
	RepeatState  string `json:"repeat_state"` // off, track, context
	Item         *Track `json:"item"`
}
