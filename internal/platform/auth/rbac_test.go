package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func ctxWithRoles(roles ...string) context.Context {
	return WithIdentity(context.Background(), Identity{UserID: "u", Roles: roles})
}

func TestRequireRole_Allowed(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctxWithRoles(RoleStaff))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := RequireRole(RoleStaff)(okHandler)(c); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestRequireRole_Denied(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctxWithRoles(RoleClient))
	c := e.NewContext(req, httptest.NewRecorder())

	err := RequireRole(RoleStaff)(okHandler)(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", httpErr.Code)
	}
}

func TestRequireRole_AdminBypass(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctxWithRoles(RoleAdmin))
	c := e.NewContext(req, httptest.NewRecorder())

	if err := RequireRole(RoleStaff)(okHandler)(c); err != nil {
		t.Error("admin should bypass role checks")
	}
}

func TestCanAccessAccount(t *testing.T) {
	tests := []struct {
		name string
		id   Identity
		acc  string
		want bool
	}{
		{"staff any account", Identity{Roles: []string{RoleStaff}}, "acc-9", true},
		{"client own account", Identity{Roles: []string{RoleClient}, AccountID: "acc-1"}, "acc-1", true},
		{"client other account", Identity{Roles: []string{RoleClient}, AccountID: "acc-1"}, "acc-2", false},
		{"client without account", Identity{Roles: []string{RoleClient}}, "", false},
		{"no roles", Identity{AccountID: "acc-1"}, "acc-1", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := WithIdentity(context.Background(), tt.id)
			if got := CanAccessAccount(ctx, tt.acc); got != tt.want {
				t.Errorf("CanAccessAccount() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUserIDFromContext(t *testing.T) {
	ctx := context.WithValue(context.Background(), UserIDKey, "user-123")
	if uid := UserIDFromContext(ctx); uid != "user-123" {
		t.Errorf("expected user-123, got %s", uid)
	}
	if empty := UserIDFromContext(context.Background()); empty != "" {
		t.Errorf("expected empty string, got %s", empty)
	}
}
