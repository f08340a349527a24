// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"fmt"
	"log/slog"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"codeberg.org/oliverandrich/shopdesk/internal/config"
	"codeberg.org/oliverandrich/shopdesk/internal/metrics"
	"codeberg.org/oliverandrich/shopdesk/internal/middleware"
	"codeberg.org/oliverandrich/shopdesk/internal/repository"
	"codeberg.org/oliverandrich/shopdesk/internal/services/session"
)

func setupMiddleware(
	e *echo.Echo,
	cfg *config.Config,
	logger *slog.Logger,
	m *metrics.Metrics,
	sessions *session.Manager,
	repo *repository.Repository,
) {
	e.Pre(middleware.StripTrailingSlash())

	e.Use(echomw.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger(logger, m))
	e.Use(echomw.Secure())
	e.Use(echomw.Gzip())
	e.Use(echomw.BodyLimit(fmt.Sprintf("%dM", cfg.Server.MaxBodySize)))
	e.Use(middleware.Locale())

	// Without revalidation the signed cookie is trusted until it expires.
	var loader middleware.AccountLoader
	if cfg.Auth.RevalidateSessions {
		loader = repo
	}
	e.Use(middleware.LoadSession(sessions, loader))
}
