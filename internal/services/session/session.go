// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package session stores the authenticated principal in a signed cookie.
package session

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"

	"codeberg.org/oliverandrich/shopdesk/internal/config"
	"codeberg.org/oliverandrich/shopdesk/internal/models"
)

// Data is the session state carried by the cookie.
type Data struct {
	AccountID int64       `json:"account_id"`
	Username  string      `json:"username"`
	Role      models.Role `json:"role"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// Manager creates, reads and clears session cookies.
type Manager struct {
	codec  *securecookie.SecureCookie
	name   string
	maxAge int
	secure bool
	now    func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces the time source used for session expiry.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a Manager from cfg. secure sets the Secure flag on cookies.
// An empty hash key is replaced by a random one.
func NewManager(cfg *config.SessionConfig, secure bool, opts ...Option) (*Manager, error) {
	hashKey, err := config.DecodeKey("session hash key", cfg.HashKey)
	if err != nil {
		return nil, err
	}

	var blockKey []byte
	if cfg.BlockKey != "" {
		blockKey, err = config.DecodeKey("session block key", cfg.BlockKey)
		if err != nil {
			return nil, err
		}
	}

	codec := securecookie.New(hashKey, blockKey)
	codec.MaxAge(cfg.MaxAge)
	codec.SetSerializer(securecookie.JSONEncoder{})

	m := &Manager{
		codec:  codec,
		name:   cfg.CookieName,
		maxAge: cfg.MaxAge,
		secure: secure,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Create returns a cookie binding the account to a new session. Sending it
// replaces any session the client held before.
func (m *Manager) Create(accountID int64, username string, role models.Role) (*http.Cookie, error) {
	data := Data{
		AccountID: accountID,
		Username:  username,
		Role:      role,
		ExpiresAt: m.now().Add(time.Duration(m.maxAge) * time.Second).UTC(),
	}

	value, err := m.codec.Encode(m.name, data)
	if err != nil {
		return nil, err
	}

	return m.cookie(value, m.maxAge), nil
}

// Parse returns the session carried by r, or nil when the request has no
// cookie or the cookie is tampered, signed with another key or expired.
func (m *Manager) Parse(r *http.Request) (*Data, error) {
	cookie, err := r.Cookie(m.name)
	if err != nil {
		return nil, nil //nolint:nilerr // a missing cookie is not an error
	}

	var data Data
	if err := m.codec.Decode(m.name, cookie.Value, &data); err != nil {
		slog.Debug("session_rejected", "error", err)
		return nil, nil //nolint:nilerr // invalid cookies are treated as anonymous
	}

	if data.AccountID == 0 || m.now().After(data.ExpiresAt) {
		return nil, nil
	}

	return &data, nil
}

// Clear returns a cookie that deletes the session. Clearing twice is harmless.
func (m *Manager) Clear() *http.Cookie {
	return m.cookie("", -1)
}

func (m *Manager) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     m.name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
