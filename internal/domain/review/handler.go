package review

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/casedesk/casedesk/internal/domain/account"
	"github.com/casedesk/casedesk/internal/domain/form"
	"github.com/casedesk/casedesk/internal/platform/auth"
)

type Handler struct {
	svc   *Service
	panel *Panel
}

func NewHandler(svc *Service, panel *Panel) *Handler {
	return &Handler{svc: svc, panel: panel}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	intake := api.Group("", auth.RequireRole(auth.RoleStaff, auth.RoleClient))
	intake.GET("/profiles/:id/review", h.GetReview)
	intake.POST("/profiles/:id/review/confirm", h.Confirm)

	api.GET("/profiles/:id/panel", h.GetPanel, auth.RequireRole(auth.RoleStaff))
}

func (h *Handler) GetReview(c echo.Context) error {
	id, err := account.ParseID(c, "id")
	if err != nil {
		return err
	}
	r, err := h.svc.GetReview(c.Request().Context(), id)
	if err != nil {
		return err
	}
	c.Response().Header().Set("ETag", form.ETag(r.Version))
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) Confirm(c echo.Context) error {
	id, err := account.ParseID(c, "id")
	if err != nil {
		return err
	}
	var req ConfirmRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	res, err := h.svc.Confirm(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	c.Response().Header().Set("ETag", form.ETag(res.Version))
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) GetPanel(c echo.Context) error {
	id, err := account.ParseID(c, "id")
	if err != nil {
		return err
	}
	view, err := ParseView(c.QueryParam("view"))
	if err != nil {
		return err
	}
	payload, err := h.panel.Load(c.Request().Context(), id, view)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, payload)
}
