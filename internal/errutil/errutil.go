// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package errutil logs wrapped errors with their structured context.
package errutil

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/oops"
)

// LogError logs err at error level. For oops errors the code and context
// attributes are logged as separate fields.
func LogError(ctx context.Context, logger *slog.Logger, msg string, err error) {
	if logger == nil {
		logger = slog.Default()
	}

	if oopsErr, ok := oops.AsOops(err); ok {
		attrs := []any{"error", oopsErr.Error()}
		if code := codeOf(oopsErr); code != "" {
			attrs = append(attrs, "code", code)
		}
		if c := oopsErr.Context(); len(c) > 0 {
			attrs = append(attrs, "context", c)
		}
		logger.ErrorContext(ctx, msg, attrs...)
		return
	}

	logger.ErrorContext(ctx, msg, "error", err)
}

// Code returns the oops code of err, or "" for other errors.
func Code(err error) string {
	if oopsErr, ok := oops.AsOops(err); ok {
		return codeOf(oopsErr)
	}
	return ""
}

func codeOf(err oops.OopsError) string {
	code := fmt.Sprint(err.Code())
	if code == "<nil>" {
		return ""
	}
	return code
}
