// Package server sets up the HTTP server, router, and all route definitions.
//
// This is the composition root: every dependency is built and wired here.
//
//	config → sqlstore.DB → services → handlers → chi routes
//	                     ↘ auth (passwords, tokens, revocations)
//
// Keeping it out of main.go lets tests build a full server around an
// in-memory database and drive it through httptest.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/sakif/healthvault/internal/auth"
	"github.com/sakif/healthvault/internal/cache"
	"github.com/sakif/healthvault/internal/config"
	"github.com/sakif/healthvault/internal/handler"
	"github.com/sakif/healthvault/internal/middleware"
	"github.com/sakif/healthvault/internal/repository/sqlstore"
	"github.com/sakif/healthvault/internal/service"
)

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the database pool, the optional Redis client and the rate
// limiter's sweeper goroutine. Close releases all three.
type Server struct {
	router  *chi.Mux
	config  config.Config
	logger  *slog.Logger
	db      *sqlstore.DB
	redis   *redis.Client
	limiter *middleware.RateLimiter
}

// New opens the database, builds every service and registers the routes.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqlstore.New(ctx, sqlstore.Config{Driver: cfg.DBDriver, DSN: cfg.DBDSN})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	var revocations auth.Revocations = auth.NewMemoryRevocations()
	if cfg.RedisURL != "" {
		client, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			db.Close()
			return nil, err
		}
		s.redis = client
		revocations = cache.NewRedisRevocations(client)
		logger.Info("session revocations stored in redis")
	}

	if err := s.setupRoutes(revocations); err != nil {
		s.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
// GET    /healthz                                      → database ping
// POST   /auth/register | /auth/login                  → start a session (rate limited)
// POST   /auth/logout                                  → end the session
// GET    /api/me, PATCH /api/me                        → caller's profile
// GET    /api/accounts/{accountID}, PATCH              → profile by ID
// GET    /api/accounts/{accountID}/records|vitals|goals → lists
// POST   /api/accounts/{accountID}/records|vitals|goals → add
// GET    /api/accounts/{accountID}/goals/active/count  → active goal count
// GET    /api/accounts/{accountID}/dashboard           → overview
//
// MIDDLEWARE ORDER MATTERS:
// RequestID and RealIP run first so the logger and the rate limiter see them;
// Recoverer turns panics into 500s instead of dropped connections.
func (s *Server) setupRoutes(revocations auth.Revocations) error {
	tokens, err := auth.NewTokenServiceWithTTL(s.config.JWTSecret, s.config.JWTTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordServiceWithCost(s.config.BcryptCost)

	accountService := service.NewAccountService(s.db, passwords, s.logger)
	healthService := service.NewHealthService(s.db, s.logger)
	authService := service.NewAuthService(accountService, tokens, revocations, s.logger)

	authHandler := handler.NewAuthHandler(authService, s.config.CookieSecure, s.logger)
	accountHandler := handler.NewAccountHandler(accountService, s.logger)
	healthHandler := handler.NewHealthHandler(healthService, s.logger)
	statusHandler := handler.NewStatusHandler(s.db, s.logger)

	s.limiter = middleware.NewRateLimiter(rate.Limit(s.config.AuthRateLimitRPS), s.config.AuthRateLimitBurst)
	requireAuth := auth.RequireAuth(authService.Authenticator())

	// === Global Middleware ===
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	s.router.Get("/healthz", statusHandler.HandleHealthz)

	// === Session Routes ===
	s.router.Route("/auth", func(r chi.Router) {
		r.With(s.limiter.Limit).Post("/register", authHandler.HandleRegister)
		r.With(s.limiter.Limit).Post("/login", authHandler.HandleLogin)
		r.With(requireAuth).Post("/logout", authHandler.HandleLogout)
	})

	// === API Routes ===
	// Everything under /api needs a session. Which account the session may
	// touch is decided by the services, not by these routes.
	s.router.Route("/api", func(r chi.Router) {
		r.Use(requireAuth)

		r.Get("/me", accountHandler.HandleGetMe)
		r.Patch("/me", accountHandler.HandleUpdateMe)

		r.Route("/accounts/{accountID}", func(r chi.Router) {
			r.Get("/", accountHandler.HandleGet)
			r.Patch("/", accountHandler.HandleUpdate)

			r.Get("/records", healthHandler.HandleListRecords)
			r.Post("/records", healthHandler.HandleAddRecord)
			r.Get("/vitals", healthHandler.HandleListVitals)
			r.Post("/vitals", healthHandler.HandleAddVital)
			r.Get("/goals", healthHandler.HandleListGoals)
			r.Post("/goals", healthHandler.HandleAddGoal)
			r.Get("/goals/active/count", healthHandler.HandleCountActiveGoals)
			r.Get("/dashboard", healthHandler.HandleDashboard)
		})
	})

	return nil
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the limiter, Redis and the database. Safe to call once
// after Start returns, or instead of Start.
func (s *Server) Close() error {
	if s.limiter != nil {
		s.limiter.Close()
	}
	var errs []error
	if s.redis != nil {
		errs = append(errs, s.redis.Close())
	}
	errs = append(errs, s.db.Close())
	return errors.Join(errs...)
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
//  1. Stop accepting new HTTP connections on SIGINT/SIGTERM
//  2. Wait up to 30s for in-flight requests to finish
//  3. Close the database, Redis and the limiter
func (s *Server) Start() error {
	defer func() {
		if err := s.Close(); err != nil {
			s.logger.Error("closing resources", slog.String("error", err.Error()))
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("db_driver", s.config.DBDriver),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
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
