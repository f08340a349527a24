// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"codeberg.org/oliverandrich/shopdesk/internal/i18n"
	"codeberg.org/oliverandrich/shopdesk/internal/repository"
)

// Handlers contains the handlers for dashboards and shop records.
type Handlers struct {
	repo *repository.Repository
}

// New creates a new Handlers instance.
func New(repo *repository.Repository) *Handlers {
	return &Handlers{repo: repo}
}

// Health returns the health status. The database is pinged when one is configured.
func (h *Handlers) Health(c echo.Context) error {
	if h.repo != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := h.repo.Ping(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
			})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// CustomerDashboard greets customers.
func (h *Handlers) CustomerDashboard(c echo.Context) error {
	return message(c, http.StatusOK, "customer_dashboard_welcome")
}

// AdminDashboard greets administrators.
func (h *Handlers) AdminDashboard(c echo.Context) error {
	return message(c, http.StatusOK, "admin_dashboard_welcome")
}

// message responds with a localised {"message": ...} body.
func message(c echo.Context, status int, messageID string) error {
	return c.JSON(status, map[string]string{
		"message": i18n.T(c.Request().Context(), messageID),
	})
}

// messageWith responds with a localised message and one named payload.
func messageWith(c echo.Context, status int, messageID, key string, payload any) error {
	return c.JSON(status, map[string]any{
		"message": i18n.T(c.Request().Context(), messageID),
		key:       payload,
	})
}
