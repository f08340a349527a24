// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package ctxkeys provides shared context keys for type-safe context values.
package ctxkeys

// Principal is the context key for the authenticated principal.
type Principal struct{}

// RequestID is the context key for the request ID.
type RequestID struct{}
