package spotify

import (
	"errors"
	"fmt"
)

var (
	// ErrNotAuthenticated is returned when no access token is stored.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrSessionExpired is returned when the access token is rejected and
	// no refresh is possible. The token store is cleared before it is
	// returned; callers should send the user back to login.
	ErrSessionExpired = errors.New("session expired")

	// ErrTimeout is returned when a request exceeds the client timeout.
	ErrTimeout = errors.New("request timed out")
)

// APIError is any non-2xx response from the Spotify Web API other than the
// 401s handled by the refresh path. The caller decides what to do with it;
// the client never retries.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("spotify api: status %d", e.Status)
	}
	return fmt.Sprintf("spotify api: status %d: %s", e.Status, e.Body)
}

// StatusCode returns the HTTP status of the failed request.
func (e *APIError) StatusCode() int { return e.Status }
