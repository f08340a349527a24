// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package middleware

import (
	"log/slog"
	"strconv"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/oklog/ulid/v2"

	"codeberg.org/oliverandrich/shopdesk/internal/auth"
	"codeberg.org/oliverandrich/shopdesk/internal/metrics"
)

// RequestID assigns every request a ULID, echoes it in the X-Request-Id
// header and stores it in the request context.
func RequestID() echo.MiddlewareFunc {
	return echomw.RequestIDWithConfig(echomw.RequestIDConfig{
		Generator: func() string {
			return ulid.Make().String()
		},
		RequestIDHandler: func(c echo.Context, id string) {
			c.SetRequest(c.Request().WithContext(auth.WithRequestID(c.Request().Context(), id)))
		},
	})
}

// RequestLogger logs every request with slog and records its duration.
// Health checks and metric scrapes are observed but not logged.
func RequestLogger(logger *slog.Logger, m *metrics.Metrics) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRoutePath: true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			m.ObserveRequest(v.Method, v.RoutePath, strconv.Itoa(v.Status), v.Latency.Seconds())
			if skipLogging(v.URI) {
				return nil
			}

			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("ip", v.RemoteIP),
				slog.String("request_id", v.RequestID),
			}
			if p := auth.GetPrincipal(c.Request().Context()); p != nil {
				attrs = append(attrs, slog.Int64("account_id", p.AccountID))
			}

			level := slog.LevelInfo
			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
				if v.Status >= 500 {
					level = slog.LevelError
				}
			}
			logger.LogAttrs(c.Request().Context(), level, "request", attrs...)
			return nil
		},
	})
}

func skipLogging(uri string) bool {
	return uri == "/health" || uri == "/metrics"
}
