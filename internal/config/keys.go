// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
)

// KeyLength is the size of every signing and encryption key.
const KeyLength = 32

// DecodeKey decodes a hex encoded 32-byte key. An empty value yields a fresh
// random key, which does not survive restarts.
func DecodeKey(label, value string) ([]byte, error) {
	if value == "" {
		key := make([]byte, KeyLength)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("failed to generate %s: %w", label, err)
		}
		slog.Warn("key_generated", "key", label, "hint", "set a fixed key so sessions and links survive restarts")
		return key, nil
	}

	key, err := hex.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", label, err)
	}
	if len(key) != KeyLength {
		return nil, fmt.Errorf("%s must be %d bytes, got %d", label, KeyLength, len(key))
	}
	return key, nil
}

// CheckSecrets rejects configurations that would run outside development
// with generated keys.
func (c *Config) CheckSecrets() error {
	if c.IsDevelopment() {
		return nil
	}
	if c.Session.HashKey == "" {
		return errors.New("session hash key is required when not running on localhost")
	}
	if c.Token.Secret == "" {
		return errors.New("token secret is required when not running on localhost")
	}
	return nil
}
