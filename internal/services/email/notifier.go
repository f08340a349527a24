// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package email delivers account notifications such as verification and
// password reset links.
package email

import (
	"context"
	"log/slog"
)

// Notifier delivers a single message.
type Notifier interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

// LogNotifier writes messages to the log instead of sending them.
// It is used when no SMTP server is configured.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier. A nil logger uses slog.Default.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Send(ctx context.Context, recipient, subject, body string) error {
	n.logger.InfoContext(ctx, "email_logged", "to", recipient, "subject", subject, "body", body)
	return nil
}
