// Package auth implements the Spotify OAuth2 authorization-code flow: the
// authorization URL with its anti-CSRF state nonce, the server-side code
// exchange, and token refresh.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"

	// defaultTimeout bounds each token-endpoint POST. The oauth2 package
	// falls back to http.DefaultClient, which has no timeout, so the
	// Authenticator always supplies its own client.
	defaultTimeout = 10 * time.Second
)

// Scopes requested at authorization time. The streaming scope is required by
// the Web Playback SDK.
var Scopes = []string{
	"user-read-private",
	"user-read-email",
	"user-library-read",
	"user-top-read",
	"user-read-recently-played",
	"user-read-playback-state",
	"user-modify-playback-state",
	"playlist-read-private",
	"playlist-read-collaborative",
	"streaming",
}

var (
	// ErrMissingCredentials is returned when the client id or secret is empty.
	ErrMissingCredentials = errors.New("missing client id or client secret")

	// ErrMissingCode is returned when the provider redirect carries no
	// authorization code.
	ErrMissingCode = errors.New("authorization callback missing code")

	// ErrTokenExchange is returned when the provider rejects a code or
	// refresh token.
	ErrTokenExchange = errors.New("token exchange rejected")

	// ErrNetwork is returned when the token endpoint cannot be reached or
	// its response cannot be parsed.
	ErrNetwork = errors.New("token endpoint unreachable")

	// ErrTimeout is returned when the token endpoint does not answer within
	// the request timeout.
	ErrTimeout = errors.New("token endpoint timed out")
)

// Config holds the settings needed to construct an Authenticator. AuthURL
// and TokenURL default to the Spotify accounts service and exist so tests
// can point the flow at a local server; Timeout defaults to 10 seconds.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	AuthURL      string
	TokenURL     string
	Timeout      time.Duration
}

// Authenticator drives the authorization-code flow against the Spotify
// accounts service.
type Authenticator struct {
	config     *oauth2.Config
	httpClient *http.Client
	timeout    time.Duration
}

// New creates an Authenticator. Returns ErrMissingCredentials if the client
// id or secret is empty.
func New(cfg Config) (*Authenticator, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, ErrMissingCredentials
	}

	authURL := cfg.AuthURL
	if authURL == "" {
		authURL = spotifyAuthURL
	}
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = spotifyTokenURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Authenticator{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   authURL,
				TokenURL:  tokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		httpClient: &http.Client{Timeout: timeout},
		timeout:    timeout,
	}, nil
}

// callCtx derives the context every token-endpoint call runs under: bounded
// by the request timeout and carrying the Authenticator's own HTTP client.
func (a *Authenticator) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	return context.WithValue(ctx, oauth2.HTTPClient, a.httpClient), cancel
}

// AuthCodeURL returns the provider authorization URL carrying the client id,
// response_type=code, the redirect URI, the given state nonce and the
// space-joined scope list. Pure construction; no network call.
func (a *Authenticator) AuthCodeURL(state string) string {
	return a.config.AuthCodeURL(state)
}

// Exchange trades an authorization code for tokens via a server-to-server
// POST authenticated with the confidential client credentials.
func (a *Authenticator) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	if code == "" {
		return nil, ErrMissingCode
	}

	ctx, cancel := a.callCtx(ctx)
	defer cancel()

	token, err := a.config.Exchange(ctx, code)
	if err != nil {
		return nil, classify(err)
	}
	return token, nil
}

// Refresh trades a refresh token for a new access token. Spotify may omit
// the refresh token from the response, in which case the caller keeps the
// one it already holds.
func (a *Authenticator) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("%w: no refresh token", ErrTokenExchange)
	}

	ctx, cancel := a.callCtx(ctx)
	defer cancel()

	src := a.config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := src.Token()
	if err != nil {
		return nil, classify(err)
	}
	if token.RefreshToken == "" {
		token.RefreshToken = refreshToken
	}
	return token, nil
}

// classify maps oauth2 failures onto the package error taxonomy: a response
// the provider actually sent is a rejection, a missed deadline is a timeout,
// anything else is transport.
func classify(err error) error {
	var retrieve *oauth2.RetrieveError
	if errors.As(err, &retrieve) {
		code := retrieve.ErrorCode
		if code == "" {
			code = strings.TrimSpace(string(retrieve.Body))
		}
		return fmt.Errorf("%w: %s", ErrTokenExchange, code)
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrNetwork, err)
}
