// Copyright (c) 2025, the idpkit contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package middleware

import (
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Sensitive query parameters are redacted before the request path is logged.
// Credentials only ever travel in request bodies, which are never logged.
var sensitiveParams = []string{
	"token",
	"password",
	"secret",
	"key",
}

// Logger returns a gin middleware logging HTTP requests with zerolog.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.Request.URL.Path
		if query := redactQuery(c.Request.URL.RawQuery); query != "" {
			path = path + "?" + query
		}

		event := log.Debug()
		if len(c.Errors) > 0 {
			event = log.Error().Err(c.Errors.Last())
		} else if c.Writer.Status() >= 500 {
			event = log.Error()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Str("ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

func redactQuery(raw string) string {
	if raw == "" {
		return ""
	}
	parsed, err := url.ParseQuery(raw)
	if err != nil {
		return raw
	}
	for param := range parsed {
		for _, sensitive := range sensitiveParams {
			if strings.Contains(strings.ToLower(param), sensitive) {
				parsed.Set(param, "[REDACTED]")
			}
		}
	}
	return parsed.Encode()
}
