// Package server sets up the HTTP server, router, and all route
// definitions.
//
// This package is the "wiring" layer — the composition root where the
// dependency chain is assembled:
//
//	sqlite.DB → AuthService / NoteService → AuthHandler / NoteHandler → routes
//
// main.go stays minimal: it reads configuration, builds the optional
// collaborators (mailer, Google provider), and calls New + Start.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/hwdlte/notewell/internal/auth"
	"github.com/hwdlte/notewell/internal/handler"
	"github.com/hwdlte/notewell/internal/mail"
	"github.com/hwdlte/notewell/internal/middleware"
	sqliteRepo "github.com/hwdlte/notewell/internal/repository/sqlite"
	"github.com/hwdlte/notewell/internal/service"
)

// Config holds server configuration, loaded from the environment in
// main.go and passed around as a single value.
type Config struct {
	Port        int
	DBPath      string   // path to the SQLite database file
	StaticDir   string   // SPA bundle directory; empty disables static serving
	JWTSecret   string   // HMAC secret for session tokens
	CORSOrigins []string // allowed browser origins for the SPA
}

// Server is the HTTP server and all its dependencies. It owns the
// database connection and closes it during graceful shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New creates a Server and wires the full dependency chain.
//
// mailer delivers login codes; google may be nil, in which case the
// Google sign-in routes are not registered and the POST endpoint
// reports the feature as unavailable.
func New(cfg Config, logger *slog.Logger, mailer mail.Mailer, google *auth.GoogleProvider) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(mailer, google); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	POST   /api/users/send-otp    → issue login code          (public)
//	POST   /api/users/verify-otp  → code → session token      (public)
//	POST   /api/users/google      → Google ID token → session (public)
//	GET    /api/users/me          → current identity          (bearer)
//	POST   /api/notes             → create note               (bearer)
//	GET    /api/notes             → list notes                (bearer)
//	GET    /api/notes/{id}        → get note                  (bearer)
//	PUT    /api/notes/{id}        → update note               (bearer)
//	DELETE /api/notes/{id}        → delete note               (bearer)
//	GET    /auth/google/login     → redirect code flow        (when configured)
//	GET    /auth/google/callback  → redirect code flow        (when configured)
//	GET    /healthz               → liveness probe
//	GET    /static/*, /           → SPA bundle                (when configured)
func (s *Server) setupRoutes(m mail.Mailer, google *auth.GoogleProvider) error {
	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	// === Global middleware — order matters ===
	s.router.Use(chimiddleware.RequestID) // Adds X-Request-ID header
	s.router.Use(chimiddleware.RealIP)    // Extracts real IP from X-Forwarded-For
	s.router.Use(chimiddleware.Recoverer) // Recovers from panics, returns 500
	s.router.Use(middleware.Logger(s.logger))

	// Browser SPA talks to this API from its own origin, with the
	// Authorization header on every protected call.
	s.router.Use(cors.New(cors.Options{
		AllowedOrigins:   s.config.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "Origin", "X-Requested-With", "Accept"},
		AllowCredentials: true,
	}).Handler)

	// === Dependency chain ===
	// s.db implements both repository interfaces; each service gets
	// only the interface it needs.
	var verifier service.IdentityVerifier
	if google != nil {
		verifier = google
	}
	authService := service.NewAuthService(s.db, tokens, m, verifier, s.logger)
	noteService := service.NewNoteService(s.db, s.logger)

	authHandler := handler.NewAuthHandler(authService, google, s.logger)
	noteHandler := handler.NewNoteHandler(noteService, s.logger)

	// === API routes ===
	s.router.Route("/api", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/send-otp", authHandler.HandleSendOTP)
			r.Post("/verify-otp", authHandler.HandleVerifyOTP)
			r.Post("/google", authHandler.HandleGoogleLogin)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAuth(tokens))
				r.Get("/me", authHandler.HandleMe)
			})
		})

		r.Route("/notes", func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))
			r.Post("/", noteHandler.HandleCreate)
			r.Get("/", noteHandler.HandleList)
			r.Get("/{id}", noteHandler.HandleGetByID)
			r.Put("/{id}", noteHandler.HandleUpdate)
			r.Delete("/{id}", noteHandler.HandleDelete)
		})
	})

	// === Server-side Google code flow (optional) ===
	if google != nil {
		s.router.Get("/auth/google/login", authHandler.HandleGoogleRedirect)
		s.router.Get("/auth/google/callback", authHandler.HandleGoogleCallback)
	}

	// === Liveness ===
	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// === SPA bundle (optional) ===
	if s.config.StaticDir != "" {
		fileServer := http.FileServer(http.Dir(s.config.StaticDir))
		s.router.Handle("/static/*", http.StripPrefix("/static/", fileServer))
		s.router.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.ServeFile(w, r, s.config.StaticDir+"/index.html")
		})
	}

	return nil
}

// Router exposes the configured router for httptest-based tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server and blocks until shutdown.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new connections on SIGINT/SIGTERM
// 2. Wait up to 30s for in-flight requests to finish
// 3. Close the database connection (flushes the WAL, releases the lock)
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
