// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package auth holds the request principal and the role gate applied before
// protected handlers run.
package auth

import (
	"context"

	"codeberg.org/oliverandrich/shopdesk/internal/ctxkeys"
	"codeberg.org/oliverandrich/shopdesk/internal/models"
)

// Principal is the authenticated account bound to a request.
// Role is the role captured when the session was created.
type Principal struct {
	AccountID int64
	Username  string
	Role      models.Role
}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, ctxkeys.Principal{}, p)
}

// GetPrincipal retrieves the principal from the context, or nil.
func GetPrincipal(ctx context.Context) *Principal {
	p, _ := ctx.Value(ctxkeys.Principal{}).(*Principal)
	return p
}

// IsAuthenticated returns true if a principal is present in the context.
func IsAuthenticated(ctx context.Context) bool {
	return GetPrincipal(ctx) != nil
}

// RequestID returns the request ID stored in the context, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxkeys.RequestID{}).(string)
	return id
}

// WithRequestID returns a copy of ctx carrying the request ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxkeys.RequestID{}, id)
}
