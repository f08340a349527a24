// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package token_test

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/oliverandrich/shopdesk/internal/services/token"
)

var secret = []byte("0123456789abcdef0123456789abcdef")

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newService(c *clock) *token.Service {
	return token.NewService(secret, token.WithClock(c.now))
}

func TestIssueAndRedeem(t *testing.T) {
	c := &clock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	svc := newService(c)

	tok, err := svc.Issue(token.Payload{AccountID: 42, Email: "alice@example.com", ID: "jti-1"}, token.PurposeEmailVerification)
	require.NoError(t, err)

	c.t = c.t.Add(23 * time.Hour)
	p, err := svc.Redeem(tok, token.PurposeEmailVerification, 24*time.Hour)

	require.NoError(t, err)
	assert.Equal(t, int64(42), p.AccountID)
	assert.Equal(t, "alice@example.com", p.Email)
	assert.Equal(t, "jti-1", p.ID)
	assert.Equal(t, time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC), p.IssuedAt.UTC())
}

func TestIssue_GeneratesID(t *testing.T) {
	svc := token.NewService(secret)

	tok, err := svc.Issue(token.Payload{AccountID: 1}, token.PurposeEmailVerification)
	require.NoError(t, err)

	p, err := svc.Redeem(tok, token.PurposeEmailVerification, time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
}

func TestRedeem_Expired(t *testing.T) {
	c := &clock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	svc := newService(c)

	tok, err := svc.Issue(token.Payload{AccountID: 42}, token.PurposeEmailVerification)
	require.NoError(t, err)

	c.t = c.t.Add(24*time.Hour + time.Second)
	_, err = svc.Redeem(tok, token.PurposeEmailVerification, 24*time.Hour)

	assert.ErrorIs(t, err, token.ErrExpired)
}

func TestRedeem_WrongPurpose(t *testing.T) {
	svc := token.NewService(secret)

	tok, err := svc.Issue(token.Payload{AccountID: 42}, token.PurposeEmailVerification)
	require.NoError(t, err)

	_, err = svc.Redeem(tok, token.PurposePasswordReset, time.Hour)

	assert.ErrorIs(t, err, token.ErrInvalid)
}

func TestRedeem_WrongSecret(t *testing.T) {
	tok, err := token.NewService(secret).Issue(token.Payload{AccountID: 42}, token.PurposeEmailVerification)
	require.NoError(t, err)

	other := token.NewService([]byte("fedcba9876543210fedcba9876543210"))
	_, err = other.Redeem(tok, token.PurposeEmailVerification, time.Hour)

	assert.ErrorIs(t, err, token.ErrInvalid)
}

func TestRedeem_Tampered(t *testing.T) {
	svc := token.NewService(secret)

	tok, err := svc.Issue(token.Payload{AccountID: 42}, token.PurposeEmailVerification)
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	require.Len(t, parts, 3)
	forged, err := token.NewService([]byte("another-secret-another-secret-xx")).
		Issue(token.Payload{AccountID: 1}, token.PurposeEmailVerification)
	require.NoError(t, err)
	// Payload of one token with the signature of another.
	mixed := parts[0] + "." + strings.Split(forged, ".")[1] + "." + parts[2]

	_, err = svc.Redeem(mixed, token.PurposeEmailVerification, time.Hour)
	assert.ErrorIs(t, err, token.ErrInvalid)
}

func TestRedeem_Malformed(t *testing.T) {
	svc := token.NewService(secret)

	for _, tok := range []string{"", "garbage", "a.b.c"} {
		_, err := svc.Redeem(tok, token.PurposeEmailVerification, time.Hour)
		assert.ErrorIs(t, err, token.ErrInvalid, "token %q", tok)
	}
}

func TestRedeem_RejectsOtherAlgorithms(t *testing.T) {
	svc := token.NewService(secret)

	c := jwt.RegisteredClaims{
		Issuer:   "shopdesk",
		Subject:  "42",
		Audience: jwt.ClaimStrings{token.PurposeEmailVerification},
		IssuedAt: jwt.NewNumericDate(time.Now()),
		ID:       "jti",
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, c).SignedString(secret)
	require.NoError(t, err)

	_, err = svc.Redeem(tok, token.PurposeEmailVerification, time.Hour)
	assert.ErrorIs(t, err, token.ErrInvalid)
}

func TestRedeem_MissingSubject(t *testing.T) {
	svc := token.NewService(secret)

	c := jwt.RegisteredClaims{
		Issuer:   "shopdesk",
		Audience: jwt.ClaimStrings{token.PurposeEmailVerification},
		IssuedAt: jwt.NewNumericDate(time.Now()),
		ID:       "jti",
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(secret)
	require.NoError(t, err)

	_, err = svc.Redeem(tok, token.PurposeEmailVerification, time.Hour)
	assert.ErrorIs(t, err, token.ErrInvalid)
}
