package account

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/casedesk/casedesk/internal/platform/apperr"
	"github.com/casedesk/casedesk/internal/platform/auth"
	"github.com/casedesk/casedesk/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	staff := api.Group("", auth.RequireRole(auth.RoleStaff))
	staff.POST("/accounts", h.CreateAccount)
	staff.GET("/accounts", h.ListAccounts)
	staff.PUT("/accounts/:id", h.UpdateAccount)

	api.GET("/accounts/:id", h.GetAccount, auth.RequireRole(auth.RoleStaff, auth.RoleClient))
}

// ParseID reads the :id path parameter.
func ParseID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperr.Validation("Identificador inválido", []apperr.FieldError{
			{Path: name, Message: "Identificador inválido", Rule: "uuid"},
		})
	}
	return id, nil
}

func (h *Handler) CreateAccount(c echo.Context) error {
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	a, err := h.svc.CreateAccount(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) GetAccount(c echo.Context) error {
	id, err := ParseID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if !auth.CanAccessAccount(ctx, id.String()) {
		return apperr.NotFound(msgNotFound)
	}
	a, err := h.svc.GetAccount(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) ListAccounts(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListAccounts(c.Request().Context(), c.QueryParam("q"), pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateAccount(c echo.Context) error {
	id, err := ParseID(c, "id")
	if err != nil {
		return err
	}
	var req UpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	a, err := h.svc.UpdateAccount(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}
