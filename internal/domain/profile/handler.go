package profile

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/casedesk/casedesk/internal/domain/account"
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
	staff.GET("/profiles", h.ListProfiles)
	staff.PUT("/profiles/:id", h.UpdateProfile)
	staff.POST("/profiles/:id/transitions", h.RequestTransition)
	staff.PUT("/profiles/:id/workflow/:category", h.UpdateWorkflow)

	owner := api.Group("", auth.RequireRole(auth.RoleStaff, auth.RoleClient))
	owner.GET("/profiles/:id", h.GetClientDetails)
	owner.POST("/accounts/:id/profiles", h.CreateProfile)
	owner.GET("/accounts/:id/profiles", h.ListAccountProfiles)
}

func (h *Handler) ListProfiles(c echo.Context) error {
	status := StatusActive
	if raw := c.QueryParam("status"); raw != "" {
		st, ok := ParseStatus(raw)
		if !ok {
			return apperr.Validation("Status inválido", []apperr.FieldError{
				{Path: "status", Message: "Opção inválida", Rule: "enum"},
			})
		}
		status = st
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListByStatus(c.Request().Context(), status, pg)
	if err != nil {
		return err
	}
	if items == nil {
		items = []*Profile{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) GetClientDetails(c echo.Context) error {
	id, err := account.ParseID(c, "id")
	if err != nil {
		return err
	}
	details, err := h.svc.GetClientDetails(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, details)
}

func (h *Handler) UpdateProfile(c echo.Context) error {
	id, err := account.ParseID(c, "id")
	if err != nil {
		return err
	}
	var req UpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	p, err := h.svc.UpdateProfile(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) CreateProfile(c echo.Context) error {
	accountID, err := account.ParseID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if !auth.CanAccessAccount(ctx, accountID.String()) {
		return apperr.NotFound("Conta não encontrada")
	}
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	p, err := h.svc.CreateProfile(ctx, accountID, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) ListAccountProfiles(c echo.Context) error {
	accountID, err := account.ParseID(c, "id")
	if err != nil {
		return err
	}
	items, err := h.svc.ListByAccount(c.Request().Context(), accountID)
	if err != nil {
		return err
	}
	if items == nil {
		items = []*Profile{}
	}
	return c.JSON(http.StatusOK, items)
}

type transitionRequest struct {
	To string `json:"to"`
}

// RequestTransition answers 202 with the pending confirmation.
func (h *Handler) RequestTransition(c echo.Context) error {
	id, err := account.ParseID(c, "id")
	if err != nil {
		return err
	}
	var req transitionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	ctx := c.Request().Context()
	pending, err := h.svc.RequestTransition(ctx, id, req.To, auth.UserIDFromContext(ctx))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, pending)
}

type workflowRequest struct {
	Status string `json:"status"`
}

func (h *Handler) UpdateWorkflow(c echo.Context) error {
	id, err := account.ParseID(c, "id")
	if err != nil {
		return err
	}
	var req workflowRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	res, err := h.svc.UpdateWorkflow(c.Request().Context(), id, c.Param("category"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}
