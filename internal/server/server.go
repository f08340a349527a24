// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package server wires configuration, storage and services into the HTTP server.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/urfave/cli/v3"
	"github.com/vinovest/sqlx"

	"codeberg.org/oliverandrich/shopdesk/internal/config"
	"codeberg.org/oliverandrich/shopdesk/internal/database"
	"codeberg.org/oliverandrich/shopdesk/internal/handlers"
	"codeberg.org/oliverandrich/shopdesk/internal/i18n"
	"codeberg.org/oliverandrich/shopdesk/internal/logging"
	"codeberg.org/oliverandrich/shopdesk/internal/metrics"
	"codeberg.org/oliverandrich/shopdesk/internal/repository"
	authsvc "codeberg.org/oliverandrich/shopdesk/internal/services/auth"
	"codeberg.org/oliverandrich/shopdesk/internal/services/email"
	"codeberg.org/oliverandrich/shopdesk/internal/services/session"
	"codeberg.org/oliverandrich/shopdesk/internal/services/token"
)

const shutdownTimeout = 10 * time.Second

// Server holds the echo instance and everything it depends on.
type Server struct {
	cfg        *config.Config
	logger     *slog.Logger
	echo       *echo.Echo
	db         *sqlx.DB
	repo       *repository.Repository
	auth       *authsvc.Service
	dispatcher *email.Dispatcher
}

// New opens the database, applies migrations and builds the HTTP stack.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.CheckSecrets(); err != nil {
		return nil, err
	}

	if err := i18n.Init(); err != nil {
		return nil, fmt.Errorf("failed to init i18n: %w", err)
	}

	sessions, err := session.NewManager(&cfg.Session, cfg.SecureCookies())
	if err != nil {
		return nil, fmt.Errorf("failed to create session manager: %w", err)
	}

	tokenSecret, err := config.DecodeKey("token secret", cfg.Token.Secret)
	if err != nil {
		return nil, err
	}

	notifier, err := newNotifier(cfg, logger)
	if err != nil {
		return nil, err
	}

	db, err := database.OpenContext(ctx, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	m := metrics.New()
	repo := repository.New(db)
	dispatcher := email.NewDispatcher(notifier, email.WithMetrics(m), email.WithLogger(logger))
	svc := authsvc.NewService(repo, cfg, token.NewService(tokenSecret), dispatcher, m)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handlers.NewValidator()
	e.HTTPErrorHandler = handlers.ErrorHandler(logger)

	s := &Server{
		cfg:        cfg,
		logger:     logger,
		echo:       e,
		db:         db,
		repo:       repo,
		auth:       svc,
		dispatcher: dispatcher,
	}
	setupMiddleware(e, cfg, logger, m, sessions, repo)
	setupRoutes(e, cfg, repo, svc, sessions, m)

	return s, nil
}

func newNotifier(cfg *config.Config, logger *slog.Logger) (email.Notifier, error) {
	if !cfg.SMTP.Enabled() {
		logger.Warn("smtp_disabled", "detail", "emails are written to the log")
		return email.NewLogNotifier(logger), nil
	}
	n, err := email.NewSMTPNotifier(&cfg.SMTP)
	if err != nil {
		return nil, fmt.Errorf("failed to configure SMTP: %w", err)
	}
	return n, nil
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Auth returns the auth service.
func (s *Server) Auth() *authsvc.Service {
	return s.auth
}

// Repository returns the repository.
func (s *Server) Repository() *repository.Repository {
	return s.repo
}

// EnsureAdmin creates the configured bootstrap admin when no admin exists.
func (s *Server) EnsureAdmin(ctx context.Context) error {
	a := s.cfg.Auth
	if a.AdminUsername == "" || a.AdminPassword == "" {
		return nil
	}
	if err := s.auth.EnsureAdmin(ctx, a.AdminUsername, a.AdminEmail, a.AdminPassword); err != nil {
		return fmt.Errorf("failed to ensure admin: %w", err)
	}
	return nil
}

// Close drains pending notifications and closes the database.
func (s *Server) Close(ctx context.Context) error {
	var errs []error
	if err := s.dispatcher.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to drain notifications: %w", err))
	}
	if err := s.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close database: %w", err))
	}
	return errors.Join(errs...)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("server_running", "url", s.cfg.Server.BaseURL, "addr", addr)
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting_down")
	case err := <-errChan:
		s.logger.Error("server_error", "error", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("shutdown_failed", "error", err)
	}
	if err := s.Close(shutdownCtx); err != nil {
		s.logger.Error("close_failed", "error", err)
	}

	s.logger.Info("server_stopped")
	return nil
}

// FromCLI builds a server from the flags of cmd and installs its logger as
// the default.
func FromCLI(ctx context.Context, cmd *cli.Command) (*Server, error) {
	cfg := config.NewFromCLI(cmd)
	logger := logging.Setup(cfg.Log.Level, cfg.Log.Format, "shopdesk", cmd.Root().Version)
	return New(ctx, cfg, logger)
}

// Run starts the server with the given CLI command.
func Run(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s, err := FromCLI(ctx, cmd)
	if err != nil {
		return err
	}
	if err := s.EnsureAdmin(ctx); err != nil {
		_ = s.Close(context.WithoutCancel(ctx))
		return err
	}

	s.logger.Info("starting_server",
		"host", s.cfg.Server.Host,
		"port", s.cfg.Server.Port,
		"base_url", s.cfg.Server.BaseURL,
	)
	return s.ListenAndServe(ctx)
}
