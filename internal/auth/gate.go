// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth

import (
	"context"
	"errors"
	"slices"

	"codeberg.org/oliverandrich/shopdesk/internal/models"
)

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("access denied for this role")
)

// RequireAuthenticated returns the request principal or ErrUnauthenticated.
func RequireAuthenticated(ctx context.Context) (*Principal, error) {
	p := GetPrincipal(ctx)
	if p == nil {
		return nil, ErrUnauthenticated
	}
	return p, nil
}

// RequireRole checks authentication first, then that the principal holds role.
func RequireRole(ctx context.Context, role models.Role) (*Principal, error) {
	return RequireAnyRole(ctx, role)
}

// RequireAnyRole checks authentication first, then that the principal holds
// one of roles. An empty role list admits every authenticated principal.
func RequireAnyRole(ctx context.Context, roles ...models.Role) (*Principal, error) {
	p, err := RequireAuthenticated(ctx)
	if err != nil {
		return nil, err
	}
	if len(roles) > 0 && !slices.Contains(roles, p.Role) {
		return nil, ErrForbidden
	}
	return p, nil
}
