package notes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/casedesk/casedesk/internal/domain/account"
	"github.com/casedesk/casedesk/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts annotation and comment routes. Both are staff only.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	staff := api.Group("", auth.RequireRole(auth.RoleStaff))

	staff.GET("/profiles/:id/annotations", h.ListAnnotations)
	staff.POST("/profiles/:id/annotations", h.AddAnnotation)
	staff.PUT("/annotations/:id", h.UpdateAnnotation)
	staff.DELETE("/annotations/:id", h.DeleteAnnotation)

	staff.GET("/profiles/:id/comments", h.ListProfileComments)
	staff.POST("/profiles/:id/comments", h.AddProfileComment)
	staff.GET("/accounts/:id/comments", h.ListAccountComments)
	staff.POST("/accounts/:id/comments", h.AddAccountComment)
	staff.PUT("/comments/:id", h.UpdateComment)
	staff.DELETE("/comments/:id", h.DeleteComment)
}

func bindCreate(c echo.Context) (CreateRequest, error) {
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return req, echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	return req, nil
}

func (h *Handler) ListAnnotations(c echo.Context) error {
	id, err := account.ParseID(c, "id")
	if err != nil {
		return err
	}
	items, err := h.svc.ListAnnotations(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) AddAnnotation(c echo.Context) error {
	id, err := account.ParseID(c, "id")
	if err != nil {
		return err
	}
	req, err := bindCreate(c)
	if err != nil {
		return err
	}
	n, err := h.svc.AddAnnotation(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, n)
}

func (h *Handler) UpdateAnnotation(c echo.Context) error {
	id, err := account.ParseID(c, "id")
	if err != nil {
		return err
	}
	var req UpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	n, err := h.svc.UpdateAnnotation(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, n)
}

// DeleteAnnotation answers 202 with a pending confirmation.
func (h *Handler) DeleteAnnotation(c echo.Context) error {
	id, err := account.ParseID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	pending, err := h.svc.RequestAnnotationDelete(ctx, id, auth.UserIDFromContext(ctx))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, pending)
}

func (h *Handler) ListProfileComments(c echo.Context) error {
	id, err := account.ParseID(c, "id")
	if err != nil {
		return err
	}
	items, err := h.svc.ListProfileComments(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) AddProfileComment(c echo.Context) error {
	id, err := account.ParseID(c, "id")
	if err != nil {
		return err
	}
	req, err := bindCreate(c)
	if err != nil {
		return err
	}
	n, err := h.svc.AddProfileComment(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, n)
}

func (h *Handler) ListAccountComments(c echo.Context) error {
	id, err := account.ParseID(c, "id")
	if err != nil {
		return err
	}
	items, err := h.svc.ListAccountComments(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) AddAccountComment(c echo.Context) error {
	id, err := account.ParseID(c, "id")
	if err != nil {
		return err
	}
	req, err := bindCreate(c)
	if err != nil {
		return err
	}
	n, err := h.svc.AddAccountComment(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, n)
}

func (h *Handler) UpdateComment(c echo.Context) error {
	id, err := account.ParseID(c, "id")
	if err != nil {
		return err
	}
	var req UpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	n, err := h.svc.UpdateComment(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, n)
}

func (h *Handler) DeleteComment(c echo.Context) error {
	id, err := account.ParseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteComment(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
