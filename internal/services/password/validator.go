// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package password

import (
	"bufio"
	"embed"
	"fmt"
	"strings"
	"unicode"
)

//go:embed common_passwords.txt
var commonPasswordsFS embed.FS

var commonPasswords map[string]struct{}

func init() {
	commonPasswords = make(map[string]struct{})
	file, err := commonPasswordsFS.Open("common_passwords.txt")
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		password := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if password != "" {
			commonPasswords[password] = struct{}{}
		}
	}
}

// MaxLength is the longest password bcrypt accepts, in bytes.
const MaxLength = 72

// Validator checks new passwords against the configured rules.
type Validator struct {
	MinLength            int
	RequireDigit         bool
	CheckCommonPasswords bool
	CheckUserSimilarity  bool
}

// ValidatorOption enables an additional rule on a Validator.
type ValidatorOption func(*Validator)

// WithRequireDigit rejects passwords without a digit.
func WithRequireDigit() ValidatorOption {
	return func(v *Validator) { v.RequireDigit = true }
}

// WithCommonPasswordCheck rejects passwords from the embedded common password list.
func WithCommonPasswordCheck() ValidatorOption {
	return func(v *Validator) { v.CheckCommonPasswords = true }
}

// WithSimilarityCheck rejects passwords resembling the username or email address.
func WithSimilarityCheck() ValidatorOption {
	return func(v *Validator) { v.CheckUserSimilarity = true }
}

// NewValidator returns a validator enforcing minLength, the bcrypt input
// limit and the numeric-only rule. Everything else is opt-in.
func NewValidator(minLength int, opts ...ValidatorOption) *Validator {
	v := &Validator{MinLength: max(minLength, 1)}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Violation is a single failed rule. Code is stable and used as message key.
type Violation struct {
	Code    string
	Message string
	Limit   int
}

// ValidationError is returned when a password breaks one or more rules.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 0 {
		return "password validation failed"
	}
	return e.Violations[0].Message
}

// Validate checks password against all rules and returns a *ValidationError
// when any of them fail. userAttributes are the identity values the password
// must not resemble.
func (v *Validator) Validate(password string, userAttributes ...string) error {
	var violations []Violation

	if len([]rune(password)) < v.MinLength {
		violations = append(violations, Violation{
			Code:    "min_length",
			Message: fmt.Sprintf("Password must be at least %d characters long.", v.MinLength),
			Limit:   v.MinLength,
		})
	}

	if len(password) > MaxLength {
		violations = append(violations, Violation{
			Code:    "max_length",
			Message: fmt.Sprintf("Password must be at most %d bytes long.", MaxLength),
			Limit:   MaxLength,
		})
	}

	if v.RequireDigit && !strings.ContainsFunc(password, unicode.IsDigit) {
		violations = append(violations, Violation{
			Code:    "no_digit",
			Message: "Password must contain at least one digit.",
		})
	}

	if isEntirelyNumeric(password) {
		violations = append(violations, Violation{
			Code:    "entirely_numeric",
			Message: "Password cannot be entirely numeric.",
		})
	}

	if v.CheckCommonPasswords && isCommonPassword(password) {
		violations = append(violations, Violation{
			Code:    "common_password",
			Message: "This password is too common. Please choose a more secure password.",
		})
	}

	if v.CheckUserSimilarity && isSimilarToUserAttributes(password, userAttributes) {
		violations = append(violations, Violation{
			Code:    "too_similar",
			Message: "Password is too similar to your username or email address.",
		})
	}

	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}

func isEntirelyNumeric(password string) bool {
	for _, r := range password {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return len(password) > 0
}

func isCommonPassword(password string) bool {
	_, exists := commonPasswords[strings.ToLower(password)]
	return exists
}

func isSimilarToUserAttributes(password string, attributes []string) bool {
	passwordLower := strings.ToLower(password)
	if passwordLower == "" {
		return false
	}

	for _, attr := range attributes {
		// Compare against the local part of email addresses too.
		candidates := []string{strings.ToLower(attr)}
		if at := strings.IndexByte(attr, '@'); at > 0 {
			candidates = append(candidates, strings.ToLower(attr[:at]))
		}

		for _, c := range candidates {
			if len(c) < 3 {
				continue
			}
			if strings.Contains(passwordLower, c) || strings.Contains(c, passwordLower) {
				return true
			}
			if similarity(passwordLower, c) > 0.7 {
				return true
			}
		}
	}

	return false
}

func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	lcs := longestCommonSubsequence(a, b)
	return float64(lcs) / float64(max(len(a), len(b)))
}

func longestCommonSubsequence(a, b string) int {
	m, n := len(a), len(b)
	dp := make([][]int, m+1)
	for i := range dp {
		dp[i] = make([]int, n+1)
	}

	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			if a[i-1] == b[j-1] {
				dp[i][j] = dp[i-1][j-1] + 1
			} else {
				dp[i][j] = max(dp[i-1][j], dp[i][j-1])
			}
		}
	}

	return dp[m][n]
}
