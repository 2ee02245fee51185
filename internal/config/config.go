// Package config loads application configuration from a TOML file with
// environment variable overrides.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

var (
	// ErrMissingCredentials is returned when the Spotify client id or secret
	// is not configured.
	ErrMissingCredentials = errors.New("missing spotify client_id or client_secret")

	// ErrMissingRedirectURI is returned when no OAuth redirect URI is configured.
	ErrMissingRedirectURI = errors.New("missing spotify redirect_uri")
)

// Config represents the application configuration.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Server      ServerConfig      `toml:"server"`
}

// CredentialsConfig contains service credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains the Spotify application credentials.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns the listen address in host:port form.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Load reads and parses a TOML configuration file from the specified path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return &config, nil
}

// Default returns a Config populated from the embedded example file.
func Default() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("parsing embedded default config: %v", err))
	}
	return &config
}

// ApplyEnv overrides config values with environment variables when set:
// SPOTIFY_CLIENT_ID, SPOTIFY_CLIENT_SECRET, SPOTIFY_REDIRECT_URI and
// MUSICPLAYER_ADDR (host:port).
func (c *Config) ApplyEnv() {
	if v := os.Getenv("SPOTIFY_CLIENT_ID"); v != "" {
		c.Credentials.Spotify.ClientID = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_SECRET"); v != "" {
		c.Credentials.Spotify.ClientSecret = v
	}
	if v := os.Getenv("SPOTIFY_REDIRECT_URI"); v != "" {
		c.Credentials.Spotify.RedirectURI = v
	}
	if v := os.Getenv("MUSICPLAYER_ADDR"); v != "" {
		if host, port, err := net.SplitHostPort(v); err == nil {
			if p, err := strconv.Atoi(port); err == nil {
				c.Server.Host = host
				c.Server.Port = p
			}
		}
	}
}

// Validate checks that the required credential fields are present.
func (c *Config) Validate() error {
	sp := c.Credentials.Spotify
	if sp.ClientID == "" || sp.ClientSecret == "" {
		return ErrMissingCredentials
	}
	if sp.RedirectURI == "" {
		return ErrMissingRedirectURI
	}
	return nil
}
