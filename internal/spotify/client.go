// Package spotify is a bearer-authenticated client for the Spotify Web API.
//
// Every request reads the access token from the injected token store. A 401
// response triggers exactly one refresh and one retry of the original
// request; the retry never refreshes again, so a provider that keeps
// returning 401 cannot loop the client.
package spotify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/haynafi/MusicPlayer/internal/auth"
)

// DefaultBaseURL is the Spotify Web API root.
const DefaultBaseURL = "https://api.spotify.com/v1"

// defaultTimeout bounds every outbound API call. The refresh POST carries
// its own identical bound inside the auth package.
const defaultTimeout = 10 * time.Second

// Spotify allows roughly 180 requests per minute per client.
const defaultRate = rate.Limit(3)

// TokenRefresher exchanges a refresh token for a new access token. Satisfied
// by *auth.Authenticator.
type TokenRefresher interface {
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}

// Client issues authenticated requests against the Spotify Web API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      auth.TokenStore
	refresher  TokenRefresher
	limiter    *rate.Limiter
	logger     *log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API root, used by tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithLimiter overrides the outbound rate limiter.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithLogger sets the structured logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a Client reading credentials from store and refreshing
// through refresher.
func NewClient(store auth.TokenStore, refresher TokenRefresher, opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		store:      store,
		refresher:  refresher,
		limiter:    rate.NewLimiter(defaultRate, 5),
		logger:     log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// do performs an authenticated request and decodes the JSON response into
// out (which may be nil for endpoints that return no body).
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	accessToken, refreshToken := c.store.Tokens()
	if accessToken == "" {
		return ErrNotAuthenticated
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
	}

	resp, err := c.send(ctx, method, path, payload, accessToken)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		drain(resp)

		newToken, err := c.refreshOnce(ctx, refreshToken)
		if err != nil {
			return err
		}

		// Bounded to a single retry: a second 401 surfaces as APIError.
		resp, err = c.send(ctx, method, path, payload, newToken)
		if err != nil {
			return err
		}
	}

	return decode(resp, out)
}

// refreshOnce performs the single allowed refresh after a 401. Any failure
// clears the token store so the caller lands in the unauthenticated state.
func (c *Client) refreshOnce(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		c.store.Clear()
		return "", ErrSessionExpired
	}

	token, err := c.refresher.Refresh(ctx, refreshToken)
	if err != nil {
		c.logger.Warn("token refresh failed", "err", err)
		c.store.Clear()
		return "", fmt.Errorf("%w: %v", ErrSessionExpired, err)
	}

	ttl := time.Until(token.Expiry)
	if token.RefreshToken != "" && token.RefreshToken != refreshToken {
		c.store.SetTokens(token.AccessToken, token.RefreshToken, ttl)
	} else {
		c.store.SetAccessToken(token.AccessToken, ttl)
	}
	c.logger.Debug("access token refreshed")

	return token.AccessToken, nil
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, accessToken string) (*http.Response, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("X-Request-Id", uuid.NewString())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %s %s", ErrTimeout, method, path)
		}
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

// decode consumes the response, mapping non-2xx statuses to APIError.
func decode(resp *http.Response, out any) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{Status: resp.StatusCode, Body: string(bytes.TrimSpace(body))}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
