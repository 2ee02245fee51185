package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/haynafi/MusicPlayer/internal/auth"
	"github.com/haynafi/MusicPlayer/internal/player"
)

// ServerConfig holds server configuration.
type ServerConfig struct {
	Addr        string
	Manager     *player.Manager
	Auth        *auth.Authenticator
	TemplatesFS fs.FS
	StaticFS    fs.FS
	Logger      *log.Logger
}

// Server is the HTTP server for the music player.
type Server struct {
	router     chi.Router
	server     *http.Server
	handlers   *Handlers
	logger     *log.Logger
	pollCancel context.CancelFunc
}

// NewServer creates the web server, wiring routes, middleware and templates.
func NewServer(cfg ServerConfig) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	templates, err := NewTemplates(cfg.TemplatesFS)
	if err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}

	// The device poll survives individual requests; it dies with the server.
	pollCtx, pollCancel := context.WithCancel(context.Background())

	handlers := NewHandlers(pollCtx, cfg.Manager, cfg.Auth, templates, logger)

	router := chi.NewRouter()
	s := &Server{
		router:     router,
		handlers:   handlers,
		logger:     logger,
		pollCancel: pollCancel,
	}

	s.setupMiddleware(cfg.Manager, pollCtx)
	s.setupRoutes(cfg.StaticFS)

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

func (s *Server) setupMiddleware(mgr *player.Manager, pollCtx context.Context) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(gate(mgr, pollCtx))
}

func (s *Server) setupRoutes(staticFS fs.FS) {
	fileServer := http.FileServer(http.FS(staticFS))
	s.router.Handle("/static/*", http.StripPrefix("/static/", fileServer))

	// Pages
	s.router.Get("/", s.handlers.Home)
	s.router.Get("/login", s.handlers.LoginPage)

	// Auth flow
	s.router.Get("/auth/login", s.handlers.Login)
	s.router.Get("/callback", s.handlers.Callback)
	s.router.Post("/auth/logout", s.handlers.Logout)

	// UI API
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/session", s.handlers.Session)
		r.Post("/session/refresh", s.handlers.RefreshSession)
		r.Get("/search", s.handlers.Search)

		r.Route("/player", func(r chi.Router) {
			r.Get("/devices", s.handlers.Devices)
			r.Put("/play", s.handlers.Play)
			r.Put("/pause", s.handlers.Pause)
			r.Post("/next", s.handlers.Next)
			r.Post("/previous", s.handlers.Previous)
			r.Put("/play-album", s.handlers.PlayAlbum)
			r.Put("/play-artist", s.handlers.PlayArtist)
			r.Put("/seek", s.handlers.Seek)
			r.Put("/volume", s.handlers.Volume)
			r.Put("/shuffle", s.handlers.Shuffle)
			r.Put("/repeat", s.handlers.Repeat)
		})
	})
}

// requestLogger logs each request through the structured logger.
func requestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()))
		})
	}
}

// Router exposes the handler tree, used by tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server and stops the device poll.
func (s *Server) Shutdown(ctx context.Context) error {
	s.pollCancel()
	return s.server.Shutdown(ctx)
}

// Run starts the server and handles graceful shutdown on interrupt signals.
func (s *Server) Run() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-stop:
		s.logger.Info("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}
