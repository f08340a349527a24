// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package password hashes, verifies and validates account passwords.
package password

import (
	"github.com/samber/oops"
	"golang.org/x/crypto/bcrypt"
)

// Hasher produces and checks bcrypt password hashes.
type Hasher struct {
	cost int
}

// NewHasher creates a Hasher. A cost outside bcrypt's range falls back to
// bcrypt.DefaultCost.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash returns a salted hash of plaintext. Two calls with the same input
// produce different hashes.
func (h *Hasher) Hash(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", oops.Code("password_hash").Wrap(err)
	}
	return string(hash), nil
}

// Verify reports whether plaintext matches hash. Malformed hashes never match.
func (h *Hasher) Verify(hash, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// DummyHash returns a hash with the hasher's cost for comparisons against
// unknown identities, so that failed lookups take as long as wrong passwords.
func (h *Hasher) DummyHash() string {
	hash, err := bcrypt.GenerateFromPassword([]byte("dummy-password-for-timing"), h.cost)
	if err != nil {
		return ""
	}
	return string(hash)
}
