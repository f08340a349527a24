// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package middleware

import (
	"context"
	"errors"
	"log/slog"

	"github.com/labstack/echo/v4"

	"codeberg.org/oliverandrich/shopdesk/internal/auth"
	"codeberg.org/oliverandrich/shopdesk/internal/metrics"
	"codeberg.org/oliverandrich/shopdesk/internal/models"
	"codeberg.org/oliverandrich/shopdesk/internal/repository"
	"codeberg.org/oliverandrich/shopdesk/internal/services/session"
)

// AccountLoader loads the live account behind a session.
type AccountLoader interface {
	GetAccountByID(ctx context.Context, id int64) (*models.Account, error)
}

// LoadSession binds the session principal to the request context.
// With a non-nil loader every session is checked against the live account:
// sessions of deleted accounts or of accounts whose role changed are dropped.
func LoadSession(sessions *session.Manager, loader AccountLoader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			data, err := sessions.Parse(req)
			if err != nil || data == nil {
				return next(c)
			}

			if loader != nil {
				account, err := loader.GetAccountByID(req.Context(), data.AccountID)
				switch {
				case errors.Is(err, repository.ErrNotFound):
					slog.InfoContext(req.Context(), "session_dropped", "account_id", data.AccountID, "reason", "account_missing")
					c.SetCookie(sessions.Clear())
					return next(c)
				case err != nil:
					return err
				case account.Role != data.Role:
					slog.InfoContext(req.Context(), "session_dropped", "account_id", data.AccountID, "reason", "role_changed")
					c.SetCookie(sessions.Clear())
					return next(c)
				}
			}

			p := &auth.Principal{AccountID: data.AccountID, Username: data.Username, Role: data.Role}
			c.SetRequest(req.WithContext(auth.WithPrincipal(req.Context(), p)))
			return next(c)
		}
	}
}

// RequireAuth rejects anonymous requests with auth.ErrUnauthenticated.
func RequireAuth(m *metrics.Metrics) echo.MiddlewareFunc {
	return RequireAnyRole(m)
}

// RequireRole rejects requests whose principal does not hold role.
func RequireRole(m *metrics.Metrics, role models.Role) echo.MiddlewareFunc {
	return RequireAnyRole(m, role)
}

// RequireAnyRole rejects requests whose principal holds none of roles.
// Anonymous requests fail with auth.ErrUnauthenticated before any role check.
func RequireAnyRole(m *metrics.Metrics, roles ...models.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			if _, err := auth.RequireAnyRole(ctx, roles...); err != nil {
				reason := "forbidden"
				if errors.Is(err, auth.ErrUnauthenticated) {
					reason = "unauthenticated"
				}
				m.GateDenial(reason)
				slog.DebugContext(ctx, "access_denied", "path", c.Path(), "reason", reason)
				return err
			}
			return next(c)
		}
	}
}
