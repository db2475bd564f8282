package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	RoleAdmin  = "admin"
	RoleStaff  = "staff"
	RoleClient = "client"
)

// HasRole reports whether the caller holds one of roles. Admin holds every role.
func HasRole(ctx context.Context, roles ...string) bool {
	for _, has := range RolesFromContext(ctx) {
		if has == RoleAdmin {
			return true
		}
		for _, required := range roles {
			if has == required {
				return true
			}
		}
	}
	return false
}

// IsStaff reports whether the caller works the admin dashboard.
func IsStaff(ctx context.Context) bool {
	return HasRole(ctx, RoleStaff)
}

// CanAccessAccount reports whether the caller may read or write data owned
// by accountID. Staff may access every account, clients only their own.
func CanAccessAccount(ctx context.Context, accountID string) bool {
	if IsStaff(ctx) {
		return true
	}
	own := AccountIDFromContext(ctx)
	return own != "" && HasRole(ctx, RoleClient) && own == accountID
}

// RequireRole returns middleware that checks if the user has at least one of the specified roles.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if HasRole(c.Request().Context(), roles...) {
				return next(c)
			}
			return echo.NewHTTPError(http.StatusForbidden,
				fmt.Sprintf("required role: %s", strings.Join(roles, " or ")))
		}
	}
}
