package cases

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ercase/ercase/internal/platform/auth"
	"github.com/ercase/ercase/internal/platform/middleware"
	"github.com/ercase/ercase/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole("admin", "physician", "nurse"))
	g.GET("/cases", h.ListCases)
	g.GET("/cases/:id", h.GetCase)
	g.POST("/cases", h.CreateCase)
	g.DELETE("/cases/:id", h.DeleteCase)
	g.PUT("/cases/:id/triage", h.SaveTriage)
	g.PUT("/cases/:id/case-sheet", h.SaveCaseSheet)
	g.PUT("/cases/:id/treatment", h.SaveTreatment)
	g.PUT("/cases/:id/investigations", h.SaveInvestigations)
	g.PUT("/cases/:id/procedures", h.SaveProcedures)
	g.POST("/cases/:id/addendum-notes", h.AppendAddendum)
	g.PUT("/cases/:id/discharge-summary", h.SaveDischargeSummary)
	g.PATCH("/cases/:id/status", h.UpdateStatus)
	g.POST("/cases/:id/differentials", h.SuggestDifferentials)
}

func (h *Handler) CreateCase(c echo.Context) error {
	var rec CaseRecord
	if err := c.Bind(&rec); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateCase(c.Request().Context(), &rec); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, rec)
}

func (h *Handler) GetCase(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	rec, err := h.svc.GetCase(c.Request().Context(), middleware.DeviceIDFromContext(c), id)
	if err != nil {
		if errors.Is(err, ErrCaseNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "case not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) ListCases(c echo.Context) error {
	pg := pagination.FromContext(c)
	params := map[string]string{}
	if status := c.QueryParam("status"); status != "" {
		params["status"] = status
	}
	if name := c.QueryParam("patient_name"); name != "" {
		params["patient_name"] = name
	}
	items, total, err := h.svc.ListCases(c.Request().Context(), params, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) DeleteCase(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteCase(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) SaveTriage(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var t TriageData
	if err := c.Bind(&t); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.SaveTriage(c.Request().Context(), id, t); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) SaveCaseSheet(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var cs CaseSheet
	if err := c.Bind(&cs); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.SaveCaseSheet(c.Request().Context(), id, cs); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, cs)
}

func (h *Handler) SaveTreatment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var t Treatment
	if err := c.Bind(&t); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.SaveTreatment(c.Request().Context(), middleware.DeviceIDFromContext(c), id, t); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) SaveInvestigations(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var inv Investigations
	if err := c.Bind(&inv); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.SaveInvestigations(c.Request().Context(), middleware.DeviceIDFromContext(c), id, inv); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, inv)
}

func (h *Handler) SaveProcedures(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var p Procedures
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.SaveProcedures(c.Request().Context(), middleware.DeviceIDFromContext(c), id, p); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) AppendAddendum(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req struct {
		Note string `json:"note"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	notes, err := h.svc.AppendAddendum(c.Request().Context(), middleware.DeviceIDFromContext(c), id, middleware.SanitizeString(req.Note))
	if err != nil {
		if errors.Is(err, ErrCaseNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "case not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, map[string][]string{"addendum_notes": notes})
}

func (h *Handler) SaveDischargeSummary(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var ds DischargeSummary
	if err := c.Bind(&ds); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.SaveDischargeSummary(c.Request().Context(), middleware.DeviceIDFromContext(c), id, ds); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, ds)
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.UpdateStatus(c.Request().Context(), id, req.Status); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) SuggestDifferentials(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	suggestions, err := h.svc.SuggestDifferentials(c.Request().Context(), middleware.DeviceIDFromContext(c), id)
	if err != nil {
		switch {
		case errors.Is(err, ErrCaseNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "case not found")
		case errors.Is(err, ErrSuggestionsUnavailable):
			return echo.NewHTTPError(http.StatusServiceUnavailable, "diagnosis suggestions not configured")
		default:
			return echo.NewHTTPError(http.StatusBadGateway, err.Error())
		}
	}
	return c.JSON(http.StatusOK, map[string][]string{"differentials": suggestions})
}
