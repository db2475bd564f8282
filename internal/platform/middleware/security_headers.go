package middleware

import (
	"github.com/labstack/echo/v4"
)

const (
	apiCSP = "default-src 'none'; frame-ancestors 'none'"
	// Uploaded case documents are untrusted. Rendered inline, they get no
	// scripts and an opaque origin.
	downloadCSP = apiCSP + "; sandbox"
)

// HeaderConfig selects the response headers of the API.
type HeaderConfig struct {
	// HSTS pins browsers to HTTPS. Off in development, where the API is
	// served over plain HTTP on localhost.
	HSTS bool
	// DownloadPaths are the route paths that stream uploaded files.
	DownloadPaths []string
}

// SecurityHeaders sets the response headers of the casedesk API. Every
// response is no-store since profiles carry passport and personal data.
func SecurityHeaders(cfg HeaderConfig) echo.MiddlewareFunc {
	downloads := make(map[string]bool, len(cfg.DownloadPaths))
	for _, p := range cfg.DownloadPaths {
		downloads[p] = true
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("X-XSS-Protection", "0")
			h.Set("Referrer-Policy", "no-referrer")
			h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
			h.Set("Cache-Control", "no-store")

			if downloads[c.Path()] {
				h.Set("Content-Security-Policy", downloadCSP)
			} else {
				h.Set("Content-Security-Policy", apiCSP)
			}
			if cfg.HSTS {
				h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}
			return next(c)
		}
	}
}
