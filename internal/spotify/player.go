package spotify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Playback commands are best-effort: Spotify acknowledges them without
// reporting the resulting state, so callers track a predicted state and
// reconcile against PlaybackState later.

// withDevice appends a device_id query parameter when deviceID is set.
func withDevice(path, deviceID string) string {
	if deviceID == "" {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "device_id=" + url.QueryEscape(deviceID)
}

// PlayTracks starts playback of the given track URIs on the device (or the
// active one when deviceID is empty).
func (c *Client) PlayTracks(ctx context.Context, uris []string, deviceID string) error {
	body := map[string]any{"uris": uris}
	return c.do(ctx, http.MethodPut, withDevice("/me/player/play", deviceID), body, nil)
}

// PlayContext starts playback of a context URI (album, artist or playlist).
func (c *Client) PlayContext(ctx context.Context, contextURI, deviceID string) error {
	body := map[string]any{"context_uri": contextURI}
	return c.do(ctx, http.MethodPut, withDevice("/me/player/play", deviceID), body, nil)
}

// Resume resumes playback where it left off.
func (c *Client) Resume(ctx context.Context, deviceID string) error {
	return c.do(ctx, http.MethodPut, withDevice("/me/player/play", deviceID), nil, nil)
}

// Pause pauses playback.
func (c *Client) Pause(ctx context.Context, deviceID string) error {
	return c.do(ctx, http.MethodPut, withDevice("/me/player/pause", deviceID), nil, nil)
}

// Next skips to the next track.
func (c *Client) Next(ctx context.Context, deviceID string) error {
	return c.do(ctx, http.MethodPost, withDevice("/me/player/next", deviceID), nil, nil)
}

// Previous skips to the previous track.
func (c *Client) Previous(ctx context.Context, deviceID string) error {
	return c.do(ctx, http.MethodPost, withDevice("/me/player/previous", deviceID), nil, nil)
}

// Seek moves the playback position.
func (c *Client) Seek(ctx context.Context, positionMS int, deviceID string) error {
	path := fmt.Sprintf("/me/player/seek?position_ms=%d", positionMS)
	return c.do(ctx, http.MethodPut, withDevice(path, deviceID), nil, nil)
}

// SetVolume sets the device volume, 0-100.
func (c *Client) SetVolume(ctx context.Context, percent int, deviceID string) error {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	path := fmt.Sprintf("/me/player/volume?volume_percent=%d", percent)
	return c.do(ctx, http.MethodPut, withDevice(path, deviceID), nil, nil)
}

// SetShuffle toggles shuffle mode.
func (c *Client) SetShuffle(ctx context.Context, on bool, deviceID string) error {
	path := fmt.Sprintf("/me/player/shuffle?state=%t", on)
	return c.do(ctx, http.MethodPut, withDevice(path, deviceID), nil, nil)
}

// SetRepeat sets the repeat mode: track, context or off.
func (c *Client) SetRepeat(ctx context.Context, mode, deviceID string) error {
	path := "/me/player/repeat?state=" + url.QueryEscape(mode)
	return c.do(ctx, http.MethodPut, withDevice(path, deviceID), nil, nil)
}

// PlaybackState retrieves the current playback state. Returns nil when
// nothing is playing on any device (the API answers 204).
func (c *Client) PlaybackState(ctx context.Context) (*PlaybackState, error) {
	var state PlaybackState
	if err := c.do(ctx, http.MethodGet, "/me/player", nil, &state); err != nil {
		return nil, err
	}
	if state.Device.ID == "" && state.Item == nil {
		return nil, nil
	}
	return &state, nil
}

// Devices retrieves the user's available playback devices.
func (c *Client) Devices(ctx context.Context) ([]Device, error) {
	var list DeviceList
	if err := c.do(ctx, http.MethodGet, "/me/player/devices", nil, &list); err != nil {
		return nil, err
	}
	return list.Devices, nil
}

// TransferPlayback moves playback to another device, optionally starting it.
func (c *Client) TransferPlayback(ctx context.Context, deviceID string, play bool) error {
	body := map[string]any{
		"device_ids": []string{deviceID},
		"play":       play,
	}
	return c.do(ctx, http.MethodPut, "/me/player", body, nil)
}
