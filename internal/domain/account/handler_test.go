package account

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/casedesk/casedesk/internal/platform/apperr"
	"github.com/casedesk/casedesk/internal/platform/auth"
)

func newTestHandler() (*Handler, *echo.Echo) {
	svc, _ := newTestService()
	return NewHandler(svc), echo.New()
}

func withRoles(req *http.Request, accountID string, roles ...string) *http.Request {
	ctx := auth.WithIdentity(req.Context(), auth.Identity{UserID: "u-1", Roles: roles, AccountID: accountID})
	return req.WithContext(ctx)
}

func TestHandler_CreateAccount(t *testing.T) {
	h, e := newTestHandler()
	body := `{"name":"Ana","email":"ana@example.com","phone":"123"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.CreateAccount(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Error("password hash must not be serialised")
	}
}

func TestHandler_GetAccount_ClientOwnership(t *testing.T) {
	h, e := newTestHandler()
	a, _ := h.svc.CreateAccount(context.Background(), CreateRequest{Name: "Ana", Email: "ana@example.com"})

	tests := []struct {
		name      string
		accountID string
		roles     []string
		wantCode  apperr.Code
	}{
		{"owner", a.ID.String(), []string{auth.RoleClient}, ""},
		{"other client", "someone-else", []string{auth.RoleClient}, apperr.CodeNotFound},
		{"staff", "", []string{auth.RoleStaff}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := withRoles(httptest.NewRequest(http.MethodGet, "/", nil), tt.accountID, tt.roles...)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			c.SetParamNames("id")
			c.SetParamValues(a.ID.String())

			err := h.GetAccount(c)
			if apperr.CodeOf(err) != tt.wantCode {
				t.Fatalf("code = %q, want %q (err %v)", apperr.CodeOf(err), tt.wantCode, err)
			}
			if err == nil {
				var got Account
				if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
					t.Fatal(err)
				}
				if got.ID != a.ID {
					t.Errorf("unexpected account %v", got.ID)
				}
			}
		})
	}
}

func TestHandler_GetAccount_InvalidID(t *testing.T) {
	h, e := newTestHandler()
	req := withRoles(httptest.NewRequest(http.MethodGet, "/", nil), "", auth.RoleStaff)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")

	if err := h.GetAccount(c); !apperr.Is(err, apperr.CodeValidation) {
		t.Fatalf("expected VALIDATION, got %v", err)
	}
}

func TestHandler_ListAccounts(t *testing.T) {
	h, e := newTestHandler()
	ctx := context.Background()
	_, _ = h.svc.CreateAccount(ctx, CreateRequest{Name: "Ana", Email: "ana@example.com"})
	_, _ = h.svc.CreateAccount(ctx, CreateRequest{Name: "Bia", Email: "bia@example.com"})

	req := httptest.NewRequest(http.MethodGet, "/?limit=1", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := h.ListAccounts(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var resp map[string]interface{}
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["total"] != float64(2) || resp["has_more"] != true {
		t.Errorf("unexpected response %v", resp)
	}
}

func TestHandler_UpdateAccount_Conflict(t *testing.T) {
	h, e := newTestHandler()
	ctx := context.Background()
	_, _ = h.svc.CreateAccount(ctx, CreateRequest{Name: "Ana", Email: "ana@example.com"})
	b, _ := h.svc.CreateAccount(ctx, CreateRequest{Name: "Bia", Email: "bia@example.com"})

	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"email":"ana@example.com"}`))
	req.Header.Set("Content-Type", "application/json")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues(b.ID.String())

	if err := h.UpdateAccount(c); !apperr.Is(err, apperr.CodeConflict) {
		t.Fatalf("expected CONFLICT, got %v", err)
	}
}
