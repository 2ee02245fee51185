package spotify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// clampLimit keeps page sizes inside the API's accepted range.
func clampLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > 50 {
		return 50
	}
	return limit
}

// CurrentUser retrieves the authenticated user's profile.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// CurrentUserPlaylists retrieves the user's playlists with pagination.
func (c *Client) CurrentUserPlaylists(ctx context.Context, limit, offset int) (*PlaylistPage, error) {
	path := fmt.Sprintf("/me/playlists?limit=%d&offset=%d", clampLimit(limit), offset)

	var page PlaylistPage
	if err := c.do(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// TopTracks retrieves the user's top tracks. timeRange is one of
// short_term, medium_term or long_term and defaults to medium_term.
func (c *Client) TopTracks(ctx context.Context, timeRange string, limit, offset int) (*TrackPage, error) {
	if timeRange == "" {
		timeRange = "medium_term"
	}
	path := fmt.Sprintf("/me/top/tracks?time_range=%s&limit=%d&offset=%d",
		url.QueryEscape(timeRange), clampLimit(limit), offset)

	var page TrackPage
	if err := c.do(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// RecentlyPlayed retrieves the user's recently-played history.
func (c *Client) RecentlyPlayed(ctx context.Context, limit int) (*PlayHistoryPage, error) {
	path := fmt.Sprintf("/me/player/recently-played?limit=%d", clampLimit(limit))

	var page PlayHistoryPage
	if err := c.do(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Track retrieves a single track by ID.
func (c *Client) Track(ctx context.Context, trackID string) (*Track, error) {
	var track Track
	if err := c.do(ctx, http.MethodGet, "/tracks/"+url.PathEscape(trackID), nil, &track); err != nil {
		return nil, err
	}
	return &track, nil
}

// Album retrieves a single album by ID.
func (c *Client) Album(ctx context.Context, albumID string) (*Album, error) {
	var album Album
	if err := c.do(ctx, http.MethodGet, "/albums/"+url.PathEscape(albumID), nil, &album); err != nil {
		return nil, err
	}
	return &album, nil
}

// Playlist retrieves a single playlist by ID.
func (c *Client) Playlist(ctx context.Context, playlistID string) (*Playlist, error) {
	var playlist Playlist
	if err := c.do(ctx, http.MethodGet, "/playlists/"+url.PathEscape(playlistID), nil, &playlist); err != nil {
		return nil, err
	}
	return &playlist, nil
}

// ArtistTopTracks retrieves an artist's top tracks for the given market.
func (c *Client) ArtistTopTracks(ctx context.Context, artistID, market string) ([]Track, error) {
	if market == "" {
		market = "from_token"
	}
	path := fmt.Sprintf("/artists/%s/top-tracks?market=%s", url.PathEscape(artistID), url.QueryEscape(market))

	var response struct {
		Tracks []Track `json:"tracks"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &response); err != nil {
		return nil, err
	}
	return response.Tracks, nil
}

// Search queries the catalog. types defaults to track, artist and album.
func (c *Client) Search(ctx context.Context, query string, types []string, limit int) (*SearchResult, error) {
	if len(types) == 0 {
		types = []string{"track", "artist", "album"}
	}
	path := fmt.Sprintf("/search?q=%s&type=%s&limit=%d",
		url.QueryEscape(query), url.QueryEscape(strings.Join(types, ",")), clampLimit(limit))

	var result SearchResult
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Categories retrieves browse categories.
func (c *Client) Categories(ctx context.Context, limit, offset int) (*CategoryPage, error) {
	path := fmt.Sprintf("/browse/categories?limit=%d&offset=%d", clampLimit(limit), offset)

	var page CategoryPage
	if err := c.do(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// CategoryPlaylists retrieves the playlists of a browse category.
func (c *Client) CategoryPlaylists(ctx context.Context, categoryID string, limit, offset int) (*PlaylistPage, error) {
	path := fmt.Sprintf("/browse/categories/%s/playlists?limit=%d&offset=%d",
		url.PathEscape(categoryID), clampLimit(limit), offset)

	var response struct {
		Playlists PlaylistPage `json:"playlists"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &response); err != nil {
		return nil, err
	}
	return &response.Playlists, nil
}
