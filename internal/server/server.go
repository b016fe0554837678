// Package server sets up the HTTP server, router, and all route definitions.
//
// This is the "composition root": the one place the dependency chain is
// assembled (sqlite.DB → CardService → handlers → routes) and the one place
// the startup mode decision happens.
//
// STARTUP MODE DECISION:
// Before any route is wired, the snapshot resolver inspects the environment
// for a share token (SNAPSHOT_TOKEN). If one is present and decodes, the
// whole server boots in read-only snapshot mode: the database is never
// opened, no mutating route exists, and every view renders the single
// decoded card. If the token is absent or rejected, the server falls back
// to normal editable mode against its persisted collection. The check runs
// exactly once, here, at startup.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/naco727/StudentCards/internal/handler"
	"github.com/naco727/StudentCards/internal/middleware"
	"github.com/naco727/StudentCards/internal/model"
	sqliteRepo "github.com/naco727/StudentCards/internal/repository/sqlite"
	"github.com/naco727/StudentCards/internal/service"
	"github.com/naco727/StudentCards/internal/snapshot"
)

// Config holds server configuration.
type Config struct {
	Port   int
	DBPath string

	// SnapshotToken, when set, puts the whole server into read-only
	// snapshot mode for its lifetime. Persisted data is never loaded.
	SnapshotToken string

	// AllowedOrigins feeds the CORS middleware. Empty means same-origin only
	// in practice, "*" opens it up for local frontend development.
	AllowedOrigins []string
}

// Server represents the HTTP server and all its dependencies.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger

	// db is nil in snapshot mode — there is nothing to persist.
	db *sqliteRepo.DB
	// bootSnapshot is non-nil in snapshot mode: the one card this server shows.
	bootSnapshot *model.Snapshot
}

// New creates a new Server with the given config.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
	}

	// === RESOLVE THE STARTUP MODE ===
	// The resolver owns the fallback policy: a bad token logs a diagnostic
	// and the server proceeds in editable mode, never a startup failure.
	resolver := snapshot.NewResolver(logger)
	if snap, ok := resolver.ResolveToken(cfg.SnapshotToken); ok {
		s.bootSnapshot = snap
		s.setupSnapshotRoutes()
		logger.Info("starting in read-only snapshot mode",
			slog.String("card", snap.Name),
			slog.Int("stamps", snap.StampCount),
		)
		return s, nil
	}

	// === EDITABLE MODE: OPEN THE DATABASE ===
	// A missing file is not a failure — sqlite creates a fresh, empty
	// collection, which is exactly the degraded start the app wants.
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	s.db = db

	s.setupRoutes()
	return s, nil
}

// baseMiddleware wires the stack every mode shares.
//
// MIDDLEWARE ORDER MATTERS: RequestID first so everything downstream (the
// logger included) can see it; Recoverer before our logger so a panicking
// handler still produces a request log line.
func (s *Server) baseMiddleware() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	allowed := s.config.AllowedOrigins
	if len(allowed) == 0 {
		allowed = []string{"*"}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowed,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
}

// setupRoutes configures the full editable-mode route set.
//
// ROUTE STRUCTURE:
//
//	GET    /healthz                        → liveness probe
//	GET    /shared?s=<token>               → decode a share token (read-only snapshot)
//	GET    /api/cards                      → list cards
//	POST   /api/cards                      → create card
//	GET    /api/cards/{id}                 → get one card
//	DELETE /api/cards/{id}                 → delete card
//	POST   /api/cards/{id}/stamps/{index}  → toggle one stamp
//	POST   /api/cards/{id}/share           → issue a share link
//	GET    /api/cards/{id}/preview         → simulated read-only snapshot
func (s *Server) setupRoutes() {
	s.baseMiddleware()

	// DEPENDENCY CHAIN: s.db implements both repository interfaces;
	// the service sees interfaces, the handlers see the service.
	cardService := service.NewCardService(s.db, s.db, s.logger)
	cardHandler := handler.NewCardHandler(cardService, s.logger)
	shareHandler := handler.NewShareHandler(cardService, s.logger)

	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/shared", shareHandler.HandleShared)

	s.router.Route("/api", func(r chi.Router) {
		// Per-IP rate limit: this is a single-user tool, anything beyond
		// human clicking speed on the API is someone probing tokens.
		r.Use(httprate.LimitByIP(300, 1*time.Minute))

		r.Get("/cards", cardHandler.HandleList)
		r.Post("/cards", cardHandler.HandleCreate)
		r.Get("/cards/{id}", cardHandler.HandleGet)
		r.Delete("/cards/{id}", cardHandler.HandleDelete)
		r.Post("/cards/{id}/stamps/{index}", cardHandler.HandleToggleStamp)
		r.Post("/cards/{id}/share", shareHandler.HandleShare)
		r.Get("/cards/{id}/preview", shareHandler.HandlePreview)
	})
}

// setupSnapshotRoutes configures the minimal read-only route set used when
// the server booted from a share token. No mutating route exists at all —
// read-only mode is enforced by construction, not by checks in handlers.
func (s *Server) setupSnapshotRoutes() {
	s.baseMiddleware()

	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/", s.handleBootSnapshot)
	s.router.Get("/shared", s.handleBootSnapshot)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleBootSnapshot serves the one snapshot this server was started with.
func (s *Server) handleBootSnapshot(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.bootSnapshot); err != nil {
		s.logger.Error("failed to encode boot snapshot", slog.String("error", err.Error()))
	}
}

// Start starts the HTTP server and blocks until shutdown.
//
// GRACEFUL SHUTDOWN: stop accepting connections, give in-flight requests
// 30 seconds, then close the database so the WAL is flushed and the file
// lock released.
func (s *Server) Start() error {
	if s.db != nil {
		defer s.db.Close()
	}

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
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.Bool("snapshotMode", s.bootSnapshot != nil),
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
