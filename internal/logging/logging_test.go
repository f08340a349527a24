// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"codeberg.org/oliverandrich/shopdesk/internal/logging"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, logging.ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, logging.ParseLevel("warn"))
	assert.Equal(t, slog.LevelError, logging.ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, logging.ParseLevel("verbose"))
}

func TestNew_JSONAddsServiceAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New("info", "json", "shopdesk", "1.2.3", &buf)

	logger.Info("login_success", "account_id", 7)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "login_success", entry["msg"])
	assert.Equal(t, "shopdesk", entry["service"])
	assert.Equal(t, "1.2.3", entry["version"])
	assert.NotContains(t, entry, "trace_id")
}

func TestNew_AddsTraceContext(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New("info", "json", "shopdesk", "dev", &buf)

	traceID, err := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("0102030405060708")
	require.NoError(t, err)
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID,
		SpanID:  spanID,
	}))

	logger.InfoContext(ctx, "register_success")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, traceID.String(), entry["trace_id"])
	assert.Equal(t, spanID.String(), entry["span_id"])
}

func TestNew_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New("warn", "text", "shopdesk", "dev", &buf)

	logger.Info("ignored")
	assert.Empty(t, buf.String())

	logger.With("k", "v").WithGroup("g").Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}
