// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"codeberg.org/oliverandrich/shopdesk/internal/auth"
	"codeberg.org/oliverandrich/shopdesk/internal/errutil"
	"codeberg.org/oliverandrich/shopdesk/internal/i18n"
	"codeberg.org/oliverandrich/shopdesk/internal/repository"
	authsvc "codeberg.org/oliverandrich/shopdesk/internal/services/auth"
	"codeberg.org/oliverandrich/shopdesk/internal/services/password"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

// classification maps taxonomy errors to their fixed status and message.
var classification = []struct {
	err    error
	status int
	code   string
}{
	{auth.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
	{auth.ErrForbidden, http.StatusForbidden, "forbidden"},
	{authsvc.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{authsvc.ErrDuplicateIdentity, http.StatusBadRequest, "duplicate_identity"},
	{authsvc.ErrEmailNotVerified, http.StatusForbidden, "email_not_verified"},
	{authsvc.ErrNotApproved, http.StatusForbidden, "not_approved"},
	{authsvc.ErrInvalidOrExpiredToken, http.StatusBadRequest, "invalid_token"},
	{authsvc.ErrInvalidRole, http.StatusBadRequest, "invalid_role"},
	{authsvc.ErrInvalidEmail, http.StatusBadRequest, "invalid_email"},
	{authsvc.ErrInvalidUsername, http.StatusBadRequest, "invalid_username"},
	{authsvc.ErrNoEmail, http.StatusBadRequest, "no_email"},
	{repository.ErrNotFound, http.StatusNotFound, "not_found"},
	{repository.ErrDuplicate, http.StatusConflict, "duplicate_record"},
	{repository.ErrInvalidReference, http.StatusBadRequest, "invalid_reference"},
	{errBadRequest, http.StatusBadRequest, "invalid_request"},
}

// errorResponse returns the status code and body for err. ok is false for
// errors outside the taxonomy, which must be logged by the caller.
func errorResponse(ctx context.Context, err error) (status int, body ErrorResponse, ok bool) {
	for _, entry := range classification {
		if errors.Is(err, entry.err) {
			return entry.status, ErrorResponse{Error: entry.code, Message: i18n.T(ctx, entry.code)}, true
		}
	}

	var pwErr *password.ValidationError
	if errors.As(err, &pwErr) {
		details := make([]string, len(pwErr.Violations))
		for i, v := range pwErr.Violations {
			details[i] = i18n.TData(ctx, "password_"+v.Code, map[string]any{"Limit": v.Limit})
		}
		return http.StatusBadRequest, ErrorResponse{
			Error:   "validation_failed",
			Message: i18n.T(ctx, "validation_failed"),
			Details: details,
		}, true
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		details := make([]string, len(fieldErrs))
		for i, fe := range fieldErrs {
			key := "field_invalid"
			if fe.Tag() == "required" || fe.Tag() == "required_without" {
				key = "field_required"
			}
			details[i] = i18n.TData(ctx, key, map[string]any{"Field": fe.Field()})
		}
		return http.StatusBadRequest, ErrorResponse{
			Error:   "validation_failed",
			Message: i18n.T(ctx, "validation_failed"),
			Details: details,
		}, true
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code := "invalid_request"
		switch he.Code {
		case http.StatusNotFound:
			code = "not_found"
		case http.StatusUnauthorized:
			code = "unauthenticated"
		case http.StatusForbidden:
			code = "forbidden"
		}
		msg := i18n.T(ctx, code)
		if he.Code >= http.StatusInternalServerError || he.Code == http.StatusMethodNotAllowed ||
			he.Code == http.StatusRequestEntityTooLarge || he.Code == http.StatusTooManyRequests {
			msg = http.StatusText(he.Code)
		}
		return he.Code, ErrorResponse{Error: code, Message: msg}, he.Code < http.StatusInternalServerError
	}

	return http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: i18n.T(ctx, "internal_error"),
	}, false
}

// ErrorHandler renders errors returned by handlers and middleware as JSON.
// Errors outside the taxonomy are logged and answered with 500.
func ErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		ctx := c.Request().Context()
		status, body, ok := errorResponse(ctx, err)
		if !ok {
			errutil.LogError(ctx, logger, "request_failed", err)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			logger.ErrorContext(ctx, "error_response_failed", "error", err)
		}
	}
}
