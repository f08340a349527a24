// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import (
	"errors"
	"strings"
	"time"
)

// ErrInvalidRole is returned when a role name is not one of the known roles.
var ErrInvalidRole = errors.New("invalid role")

// Role is the closed set of account roles.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleStaff    Role = "staff"
	RoleAdmin    Role = "admin"
)

// ParseRole parses a role name case-insensitively.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", ErrInvalidRole
	}
	return r, nil
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleStaff, RoleAdmin:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

// HomePath is where a client is sent after logging in with this role.
func (r Role) HomePath() string {
	switch r {
	case RoleAdmin:
		return "/admin/dashboard"
	case RoleStaff:
		return "/staff/inventory"
	default:
		return "/customer/dashboard"
	}
}

// Account is a registered identity with its credential and policy flags.
type Account struct { //nolint:govet // fieldalignment: readability over optimization
	ID                int64     `db:"id" json:"id"`
	Username          string    `db:"username" json:"username"`
	Email             *string   `db:"email" json:"email,omitempty"`
	PasswordHash      string    `db:"password_hash" json:"-"`
	Role              Role      `db:"role" json:"role"`
	IsApproved        bool      `db:"is_approved" json:"is_approved"`
	IsEmailVerified   bool      `db:"is_email_verified" json:"is_email_verified"`
	VerificationToken *string   `db:"verification_token" json:"-"` // JWT ID of the outstanding verification token
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// EmailAddress returns the account's email address or "" if none is set.
func (a *Account) EmailAddress() string {
	if a.Email == nil {
		return ""
	}
	return *a.Email
}

// HasEmail reports whether the account has an email address.
func (a *Account) HasEmail() bool {
	return a.Email != nil && *a.Email != ""
}

// NormalizeIdentity trims and lower-cases a username or email address.
// Identities are stored and compared in this form.
func NormalizeIdentity(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
