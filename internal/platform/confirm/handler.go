package confirm

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/casedesk/casedesk/internal/platform/auth"
)

// Handler exposes confirm and cancel for every registered action kind.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/confirmations/:token/confirm", h.Confirm)
	api.DELETE("/confirmations/:token", h.Cancel)
}

func (h *Handler) Confirm(c echo.Context) error {
	uid := auth.UserIDFromContext(c.Request().Context())
	result, err := h.svc.Confirm(c.Request().Context(), c.Param("token"), uid)
	if err != nil {
		return err
	}
	if result == nil {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) Cancel(c echo.Context) error {
	uid := auth.UserIDFromContext(c.Request().Context())
	if err := h.svc.Cancel(c.Request().Context(), c.Param("token"), uid); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
