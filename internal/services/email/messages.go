// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package email

import (
	"context"
	"net/url"
	"strings"
	"time"

	"codeberg.org/oliverandrich/shopdesk/internal/i18n"
)

// VerificationMessage returns subject and body of the email verification mail
// in the locale carried by ctx.
func VerificationMessage(ctx context.Context, baseURL, username, token string, validFor time.Duration) (string, string) {
	link := buildLink(baseURL, "/auth/verify-email", token)
	subject := i18n.T(ctx, "email_verification_subject")
	body := i18n.TData(ctx, "email_verification_body", map[string]any{
		"Username": username,
		"URL":      link,
		"Hours":    int(validFor.Hours()),
	})
	return subject, body
}

// PasswordResetMessage returns subject and body of the password reset mail.
func PasswordResetMessage(ctx context.Context, baseURL, username, token string, validFor time.Duration) (string, string) {
	link := buildLink(baseURL, "/auth/password/reset", token)
	subject := i18n.T(ctx, "password_reset_subject")
	body := i18n.TData(ctx, "password_reset_body", map[string]any{
		"Username": username,
		"URL":      link,
		"Minutes":  int(validFor.Minutes()),
	})
	return subject, body
}

func buildLink(baseURL, path, token string) string {
	return strings.TrimSuffix(baseURL, "/") + path + "?token=" + url.QueryEscape(token)
}
