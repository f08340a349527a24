// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"

	"codeberg.org/oliverandrich/shopdesk/internal/auth"
	"codeberg.org/oliverandrich/shopdesk/internal/repository"
	authsvc "codeberg.org/oliverandrich/shopdesk/internal/services/auth"
	"codeberg.org/oliverandrich/shopdesk/internal/services/password"
)

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
		ok     bool
	}{
		{auth.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated", true},
		{auth.ErrForbidden, http.StatusForbidden, "forbidden", true},
		{authsvc.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials", true},
		{authsvc.ErrDuplicateIdentity, http.StatusBadRequest, "duplicate_identity", true},
		{authsvc.ErrEmailNotVerified, http.StatusForbidden, "email_not_verified", true},
		{authsvc.ErrNotApproved, http.StatusForbidden, "not_approved", true},
		{authsvc.ErrInvalidOrExpiredToken, http.StatusBadRequest, "invalid_token", true},
		{fmt.Errorf("wrapped: %w", repository.ErrNotFound), http.StatusNotFound, "not_found", true},
		{repository.ErrDuplicate, http.StatusConflict, "duplicate_record", true},
		{repository.ErrInvalidReference, http.StatusBadRequest, "invalid_reference", true},
		{echo.ErrNotFound, http.StatusNotFound, "not_found", true},
		{echo.ErrMethodNotAllowed, http.StatusMethodNotAllowed, "invalid_request", true},
		{oops.Code("db_query").Wrap(errors.New("disk full")), http.StatusInternalServerError, "internal_error", false},
	}

	for _, tt := range tests {
		t.Run(tt.code+"_"+tt.err.Error(), func(t *testing.T) {
			status, body, ok := errorResponse(context.Background(), tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, body.Error)
			assert.Equal(t, tt.ok, ok)
			assert.NotEmpty(t, body.Message)
		})
	}
}

func TestErrorResponse_Messages(t *testing.T) {
	_, body, _ := errorResponse(context.Background(), auth.ErrUnauthenticated)
	assert.Equal(t, "You must be logged in to access this resource.", body.Message)

	_, body, _ = errorResponse(context.Background(), auth.ErrForbidden)
	assert.Equal(t, "Access denied for this role.", body.Message)

	_, body, _ = errorResponse(context.Background(), oops.Wrap(errors.New("secret detail")))
	assert.NotContains(t, body.Message, "secret detail")
}

func TestErrorResponse_PasswordViolations(t *testing.T) {
	err := password.NewValidator(8).Validate("123")

	status, body, ok := errorResponse(context.Background(), err)

	assert.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "validation_failed", body.Error)
	assert.Contains(t, body.Details, "Password must be at least 8 characters long.")
	assert.Contains(t, body.Details, "Password cannot be entirely numeric.")
}
