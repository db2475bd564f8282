package form

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

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

func (h *Handler) RegisterRoutes(api *echo.Group) {
	intake := api.Group("", auth.RequireRole(auth.RoleStaff, auth.RoleClient))
	intake.GET("/form/sections", h.ListSections)
	intake.GET("/profiles/:id/form", h.GetForm)
	intake.PUT("/profiles/:id/form/sections/:section", h.SaveSection)
	intake.POST("/profiles/:id/form/submit", h.Submit)

	api.PUT("/profiles/:id/form/editable", h.SetEditable, auth.RequireRole(auth.RoleStaff))
}

// ETag renders a document version as an entity tag.
func ETag(version int) string {
	return fmt.Sprintf(`"v%d"`, version)
}

// parseIfMatch extracts the version from an If-Match header; 0 when absent.
func parseIfMatch(header string) int {
	h := strings.TrimSpace(header)
	h = strings.TrimPrefix(h, "W/")
	h = strings.Trim(h, `"`)
	h = strings.TrimPrefix(h, "v")
	v, err := strconv.Atoi(h)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

type sectionView struct {
	Key    string      `json:"key"`
	Title  string      `json:"title"`
	Step   int         `json:"step"`
	Fields []fieldView `json:"fields"`
}

type fieldView struct {
	Name     string   `json:"name"`
	Label    string   `json:"label"`
	Required bool     `json:"required,omitempty"`
	Options  []string `json:"options,omitempty"`
	// DetailsOf names the confirmation a details field depends on.
	DetailsOf string `json:"detailsOf,omitempty"`
}

// ListSections describes the form layout.
func (h *Handler) ListSections(c echo.Context) error {
	out := make([]sectionView, 0, StepCount)
	for _, s := range Sections() {
		v := sectionView{Key: s.Key, Title: s.Title, Step: s.Step}
		for _, f := range s.Fields {
			v.Fields = append(v.Fields, fieldView{Name: f.Name, Label: f.Label, Required: f.Required, Options: f.Options})
		}
		for _, p := range s.Pairs {
			v.Fields = append(v.Fields,
				fieldView{Name: p.Confirmation, Label: p.Label, Required: true, Options: []string{No, Yes}},
				fieldView{Name: p.Details, Label: "Detalhes", DetailsOf: p.Confirmation},
			)
		}
		out = append(out, v)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) GetForm(c echo.Context) error {
	id, err := account.ParseID(c, "id")
	if err != nil {
		return err
	}
	doc, err := h.svc.GetForm(c.Request().Context(), id)
	if err != nil {
		return err
	}
	c.Response().Header().Set("ETag", ETag(doc.Version))
	return c.JSON(http.StatusOK, doc)
}

func (h *Handler) SaveSection(c echo.Context) error {
	id, err := account.ParseID(c, "id")
	if err != nil {
		return err
	}
	var req DraftRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Version == 0 {
		req.Version = parseIfMatch(c.Request().Header.Get("If-Match"))
	}
	res, err := h.svc.SaveDraft(c.Request().Context(), id, c.Param("section"), req)
	if err != nil {
		return err
	}
	c.Response().Header().Set("ETag", ETag(res.Version))
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) Submit(c echo.Context) error {
	id, err := account.ParseID(c, "id")
	if err != nil {
		return err
	}
	var req SubmitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Version == 0 {
		req.Version = parseIfMatch(c.Request().Header.Get("If-Match"))
	}
	res, err := h.svc.Submit(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	c.Response().Header().Set("ETag", ETag(res.Version))
	return c.JSON(http.StatusOK, res)
}

type editableRequest struct {
	Editable bool `json:"editable"`
}

func (h *Handler) SetEditable(c echo.Context) error {
	id, err := account.ParseID(c, "id")
	if err != nil {
		return err
	}
	var req editableRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	doc, err := h.svc.SetEditable(c.Request().Context(), id, req.Editable)
	if err != nil {
		return err
	}
	c.Response().Header().Set("ETag", ETag(doc.Version))
	return c.JSON(http.StatusOK, doc)
}
