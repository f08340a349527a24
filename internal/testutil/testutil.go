// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package testutil provides test helpers and fixtures.
package testutil

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"github.com/vinovest/sqlx"
	"golang.org/x/crypto/bcrypt"

	"codeberg.org/oliverandrich/shopdesk/internal/database"
	"codeberg.org/oliverandrich/shopdesk/internal/models"
	"codeberg.org/oliverandrich/shopdesk/internal/repository"
)

// NewTestDB creates an in-memory SQLite database for tests.
// Returns both the database connection and the repository for convenience.
func NewTestDB(t *testing.T) (*sqlx.DB, *repository.Repository) {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	repo := repository.New(db)
	return db, repo
}

// NewTestAccount creates an approved account with the given password.
// The email address is username@example.com.
func NewTestAccount(t *testing.T, repo *repository.Repository, username, password string, role models.Role) *models.Account {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	email := username + "@example.com"
	account := &models.Account{
		Username:     username,
		Email:        &email,
		PasswordHash: string(hash),
		Role:         role,
		IsApproved:   true,
	}
	require.NoError(t, repo.CreateAccount(context.Background(), account))
	return account
}

// NewTestCustomer creates a customer record.
func NewTestCustomer(t *testing.T, repo *repository.Repository, name string) *models.Customer {
	t.Helper()
	c := &models.Customer{Name: name, Email: name + "@example.com", Contact: "555-0100"}
	require.NoError(t, repo.CreateCustomer(context.Background(), c))
	return c
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, path string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}
