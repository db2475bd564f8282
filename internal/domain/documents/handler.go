package documents

import (
	"fmt"
	"mime"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/casedesk/casedesk/internal/domain/account"
	"github.com/casedesk/casedesk/internal/platform/apperr"
	"github.com/casedesk/casedesk/internal/platform/auth"
)

// ContentPath is the route that streams a stored document.
const ContentPath = "/documents/:id/content"

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole(auth.RoleStaff, auth.RoleClient))
	g.POST("/profiles/:id/documents", h.Upload)
	g.GET("/profiles/:id/documents", h.List)
	g.GET(ContentPath, h.Content)

	api.DELETE("/documents/:id", h.Delete, auth.RequireRole(auth.RoleStaff))
}

// Upload accepts multipart/form-data with a "file" part and an optional
// "kind" field.
func (h *Handler) Upload(c echo.Context) error {
	id, err := account.ParseID(c, "id")
	if err != nil {
		return err
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return apperr.Validation(msgNoFile, []apperr.FieldError{{Path: "file", Message: msgNoFile, Rule: "required"}})
	}
	f, err := fh.Open()
	if err != nil {
		return apperr.Internal(fmt.Errorf("open upload: %w", err))
	}
	defer f.Close()

	d, err := h.svc.Upload(c.Request().Context(), id, Upload{
		Kind:        c.FormValue("kind"),
		FileName:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Content:     f,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) List(c echo.Context) error {
	id, err := account.ParseID(c, "id")
	if err != nil {
		return err
	}
	items, err := h.svc.List(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) Content(c echo.Context) error {
	id, err := account.ParseID(c, "id")
	if err != nil {
		return err
	}
	d, rc, err := h.svc.Open(c.Request().Context(), id)
	if err != nil {
		return err
	}
	defer rc.Close()

	c.Response().Header().Set(echo.HeaderContentDisposition,
		mime.FormatMediaType("attachment", map[string]string{"filename": d.FileName}))
	if d.SHA256 != "" {
		c.Response().Header().Set("ETag", `"`+d.SHA256+`"`)
	}
	return c.Stream(http.StatusOK, d.ContentType, rc)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := account.ParseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
