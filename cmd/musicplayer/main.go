// Command musicplayer runs the Spotify-backed music player web application.
package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/haynafi/MusicPlayer/internal/auth"
	"github.com/haynafi/MusicPlayer/internal/config"
	"github.com/haynafi/MusicPlayer/internal/player"
	"github.com/haynafi/MusicPlayer/internal/spotify"
	"github.com/haynafi/MusicPlayer/internal/web"
	webfs "github.com/haynafi/MusicPlayer/web"
)

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})

	app := &cli.Command{
		Name:    "musicplayer",
		Usage:   "Browser-based music player backed by the Spotify Web API",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to config.toml",
				Value:   "config.toml",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "enable debug logging",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Start the web server",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if cmd.Bool("verbose") {
						logger.SetLevel(log.DebugLevel)
					}
					return serve(cmd.String("config"), logger)
				},
			},
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatal("application error", "err", err)
	}
}

func serve(configPath string, logger *log.Logger) error {
	cfg := config.Default()
	if _, err := os.Stat(configPath); err == nil {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	authn, err := auth.New(auth.Config{
		ClientID:     cfg.Credentials.Spotify.ClientID,
		ClientSecret: cfg.Credentials.Spotify.ClientSecret,
		RedirectURI:  cfg.Credentials.Spotify.RedirectURI,
	})
	if err != nil {
		return err
	}

	store := auth.NewMemoryStore()
	client := spotify.NewClient(store, authn,
		spotify.WithLogger(logger.With("component", "spotify")))
	manager := player.NewManager(store, authn, client,
		logger.With("component", "player"))

	templates, err := fs.Sub(webfs.TemplatesFS, "templates")
	if err != nil {
		return fmt.Errorf("creating templates filesystem: %w", err)
	}
	static, err := fs.Sub(webfs.StaticFS, "static")
	if err != nil {
		return fmt.Errorf("creating static filesystem: %w", err)
	}

	server, err := web.NewServer(web.ServerConfig{
		Addr:        cfg.Server.Addr(),
		Manager:     manager,
		Auth:        authn,
		TemplatesFS: templates,
		StaticFS:    static,
		Logger:      logger.With("component", "web"),
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	return server.Run()
}
