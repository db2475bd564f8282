package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/casedesk/casedesk/internal/platform/apperr"
	"github.com/casedesk/casedesk/internal/platform/auth"
)

// AuditEntry records who touched which case resource, when and with what outcome.
type AuditEntry struct {
	UserID     string
	UserRoles  []string
	Resource   string
	SubjectID  string
	Action     string // read, create, update, delete
	IPAddress  string
	UserAgent  string
	Path       string
	Route      string
	Method     string
	Timestamp  time.Time
	RequestID  string
	StatusCode int
}

// AuditRecorder persists audit entries in addition to the structured log.
type AuditRecorder interface {
	RecordAccess(entry AuditEntry) error
}

// AuditRecorderFunc is a function adapter for AuditRecorder.
type AuditRecorderFunc func(entry AuditEntry) error

func (f AuditRecorderFunc) RecordAccess(entry AuditEntry) error {
	return f(entry)
}

// Audit logs every /api/v1 request against client case data: profiles,
// forms, accounts, notes and documents.
func Audit(logger zerolog.Logger, recorders ...AuditRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			path := req.URL.Path
			if !strings.HasPrefix(path, "/api/v1/") {
				return next(c)
			}

			err := next(c)

			status := c.Response().Status
			if err != nil {
				status, _ = apperr.ToBody(err)
			}

			ctx := req.Context()
			entry := AuditEntry{
				UserID:     auth.UserIDFromContext(ctx),
				UserRoles:  auth.RolesFromContext(ctx),
				Action:     httpMethodToAction(req.Method),
				IPAddress:  c.RealIP(),
				UserAgent:  req.UserAgent(),
				Path:       path,
				Route:      c.Path(),
				Method:     req.Method,
				Timestamp:  time.Now().UTC(),
				StatusCode: status,
			}
			entry.Resource, entry.SubjectID = extractResource(path)
			if rid, ok := c.Get("request_id").(string); ok {
				entry.RequestID = rid
			}

			for _, r := range recorders {
				if r == nil {
					continue
				}
				if recErr := r.RecordAccess(entry); recErr != nil {
					logger.Error().Err(recErr).
						Str("request_id", entry.RequestID).
						Msg("failed to record audit entry")
				}
			}

			logger.Info().
				Str("type", "case_audit").
				Str("request_id", entry.RequestID).
				Str("user_id", entry.UserID).
				Strs("user_roles", entry.UserRoles).
				Str("resource", entry.Resource).
				Str("subject_id", entry.SubjectID).
				Str("action", entry.Action).
				Str("method", entry.Method).
				Str("route", entry.Route).
				Str("remote_ip", entry.IPAddress).
				Int("status", entry.StatusCode).
				Msg("case_access")

			return err
		}
	}
}

func httpMethodToAction(method string) string {
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return "read"
	}
}

// extractResource returns the first path segment after /api/v1/ and the id
// that follows it when that id is a UUID.
//
//	/api/v1/profiles                 -> profiles, ""
//	/api/v1/profiles/<uuid>/form     -> profiles, <uuid>
//	/api/v1/confirmations/<token>    -> confirmations, ""
func extractResource(path string) (string, string) {
	segments := strings.Split(strings.TrimPrefix(path, "/api/v1/"), "/")
	if len(segments) == 0 || segments[0] == "" {
		return "unknown", ""
	}
	if len(segments) > 1 {
		if _, err := uuid.Parse(segments[1]); err == nil {
			return segments[0], segments[1]
		}
	}
	return segments[0], ""
}
