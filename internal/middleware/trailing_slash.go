// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// StripTrailingSlash makes /path/ and /path equivalent. Safe requests are
// redirected to the canonical URL; other methods are rewritten in place so
// that request bodies are not lost. Register it with Echo#Pre.
func StripTrailingSlash() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			path := req.URL.Path
			if path == "/" || !strings.HasSuffix(path, "/") {
				return next(c)
			}

			// A leading "//" or "/\" would make the Location header a
			// protocol-relative URL pointing at another host.
			canonical := "/" + strings.TrimLeft(strings.TrimRight(path, "/"), "/\\")
			if req.Method == http.MethodGet || req.Method == http.MethodHead {
				target := canonical
				if req.URL.RawQuery != "" {
					target += "?" + req.URL.RawQuery
				}
				return c.Redirect(http.StatusMovedPermanently, target)
			}

			req.URL.Path = canonical
			req.URL.RawPath = ""
			return next(c)
		}
	}
}
