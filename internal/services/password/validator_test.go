// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package password

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func codes(err error) []string {
	var ve *ValidationError
	if !errors.As(err, &ve) {
		return nil
	}
	out := make([]string, len(ve.Violations))
	for i, v := range ve.Violations {
		out[i] = v.Code
	}
	return out
}

func TestValidator_Validate(t *testing.T) {
	v := NewValidator(8, WithCommonPasswordCheck(), WithSimilarityCheck())

	tests := []struct {
		name     string
		password string
		attrs    []string
		want     []string
	}{
		{"valid", "correct-horse-battery", []string{"alice"}, nil},
		{"too short", "ab1", nil, []string{"min_length"}},
		{"numeric", "1234123412", nil, []string{"entirely_numeric"}},
		{"common", "password123", nil, []string{"common_password"}},
		{"contains username", "alice-rocks-99", []string{"alice"}, []string{"too_similar"}},
		{"email local part", "xbobbuilderx", []string{"bobbuilder@example.com"}, []string{"too_similar"}},
		{"too long", strings.Repeat("x", MaxLength+1), nil, []string{"max_length"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, codes(v.Validate(tt.password, tt.attrs...)))
		})
	}
}

func TestValidator_RequireDigit(t *testing.T) {
	v := NewValidator(4, WithRequireDigit())

	assert.Equal(t, []string{"no_digit"}, codes(v.Validate("abcdefgh")))
	assert.NoError(t, v.Validate("abcdefg1"))
}

func TestValidator_Defaults(t *testing.T) {
	v := NewValidator(0)

	assert.Equal(t, 1, v.MinLength)
	assert.NoError(t, v.Validate("pw1", "alice", "alice@example.com"))
	assert.NoError(t, v.Validate("pw2", "bob"))
	assert.NoError(t, v.Validate("password", "new_user"), "common password check is opt-in")
	assert.NoError(t, v.Validate("alice-rocks", "alice"), "similarity check is opt-in")
	assert.Equal(t, []string{"min_length"}, codes(v.Validate("")))
	assert.Equal(t, []string{"entirely_numeric"}, codes(v.Validate("1234")))
}

func TestValidationError_FirstViolationIsMessage(t *testing.T) {
	err := NewValidator(12).Validate("12345")

	require.Error(t, err)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Violations, 2)
	assert.Equal(t, "Password must be at least 12 characters long.", err.Error())
}

func TestSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, similarity("abc", "abc"), 0.001)
	assert.InDelta(t, 0.0, similarity("", "abc"), 0.001)
	assert.Equal(t, 3, longestCommonSubsequence("abcde", "ace"))
}
