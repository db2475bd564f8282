package middleware

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/casedesk/casedesk/internal/platform/apperr"
)

// RequestTimeout puts a deadline on each request context. Document content
// streams are exempt. Handlers observe the deadline through ctx; an expired
// request is reported as an internal error.
func RequestTimeout(timeout time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if strings.HasSuffix(c.Request().URL.Path, "/content") {
				return next(c)
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
			defer cancel()
			c.SetRequest(c.Request().WithContext(ctx))

			err := next(c)
			if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) && !apperr.Is(err, apperr.CodeConflict) {
				return apperr.Internal(errors.Join(err, ctx.Err()))
			}
			return err
		}
	}
}
