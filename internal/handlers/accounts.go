// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ListAccounts returns all accounts for administrators.
func (h *AuthHandlers) ListAccounts(c echo.Context) error {
	accounts, err := h.repo.ListAccounts(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, accounts)
}

// ApproveAccount marks an account as approved.
func (h *AuthHandlers) ApproveAccount(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.Approve(c.Request().Context(), id); err != nil {
		return err
	}
	return message(c, http.StatusOK, "account_approved")
}
