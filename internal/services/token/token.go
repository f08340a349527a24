// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package token issues and redeems signed, purpose-bound, time-limited tokens
// such as email verification and password reset links.
package token

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Purposes a token can be bound to. A token issued for one purpose is
// rejected for every other.
const (
	PurposeEmailVerification = "email-verification"
	PurposePasswordReset     = "password-reset"
)

const issuer = "shopdesk"

var (
	ErrExpired = errors.New("token has expired")
	ErrInvalid = errors.New("token is invalid")
)

// Payload is the data carried by a token.
type Payload struct {
	AccountID int64
	Email     string
	ID        string // unique token ID, generated on Issue when empty
	IssuedAt  time.Time
}

type claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Service signs tokens with a single process-wide secret.
type Service struct {
	secret []byte
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces the time source. Used by tests to move time forward.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a Service signing with secret.
func NewService(secret []byte, opts ...Option) *Service {
	s := &Service{secret: secret, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewID returns a fresh token ID.
func NewID() string {
	return uuid.NewString()
}

// Issue signs p for purpose. The issue time is always the service clock.
func (s *Service) Issue(p Payload, purpose string) (string, error) {
	if p.ID == "" {
		p.ID = NewID()
	}

	c := claims{
		Email: p.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   issuer,
			Subject:  strconv.FormatInt(p.AccountID, 10),
			Audience: jwt.ClaimStrings{purpose},
			IssuedAt: jwt.NewNumericDate(s.now()),
			ID:       p.ID,
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
}

// Redeem verifies token for purpose and returns its payload. Tokens older than
// maxAge yield ErrExpired. Bad signatures, other purposes and malformed tokens
// yield ErrInvalid.
func (s *Service) Redeem(token, purpose string, maxAge time.Duration) (*Payload, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(purpose),
		jwt.WithIssuer(issuer),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalid
	}

	if c.IssuedAt == nil || c.ID == "" {
		return nil, ErrInvalid
	}

	accountID, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || accountID <= 0 {
		return nil, ErrInvalid
	}

	issuedAt := c.IssuedAt.Time
	if s.now().After(issuedAt.Add(maxAge)) {
		return nil, ErrExpired
	}

	return &Payload{
		AccountID: accountID,
		Email:     c.Email,
		ID:        c.ID,
		IssuedAt:  issuedAt,
	}, nil
}
