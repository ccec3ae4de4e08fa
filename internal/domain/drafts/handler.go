package drafts

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ercase/ercase/internal/domain/cases"
	"github.com/ercase/ercase/internal/platform/auth"
	"github.com/ercase/ercase/internal/platform/middleware"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the draft endpoints. Every route reads or writes
// the calling device's draft file, so the device header is required here
// no matter how the parent group is wired.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/drafts", middleware.RequireDeviceID(), auth.RequireRole("admin", "physician", "nurse"))
	g.GET("", h.ListDrafts)
	g.POST("", h.CreateDraft)
	g.GET("/active", h.ActiveDraft)
	g.PUT("/active", h.SetActiveDraft)
	g.POST("/cleanup", h.Cleanup)
	g.POST("/for-case/:caseId", h.GetOrCreateForCase)
	g.GET("/:id", h.GetDraft)
	g.PATCH("/:id", h.UpdateDraft)
	g.DELETE("/:id", h.DeleteDraft)
	g.PUT("/:id/case-sheet", h.SaveCaseSheet)
	g.PUT("/:id/discharge-summary", h.SaveDischargeSummary)
	g.POST("/:id/commit", h.MarkCommitted)
}

func (h *Handler) CreateDraft(c echo.Context) error {
	var patch DraftPatch
	if err := c.Bind(&patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d := h.svc.CreateDraft(c.Request().Context(), middleware.DeviceIDFromContext(c), patch)
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) GetOrCreateForCase(c echo.Context) error {
	caseID, err := uuid.Parse(c.Param("caseId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid case id")
	}
	var patch DraftPatch
	if err := c.Bind(&patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d := h.svc.GetOrCreateDraftForCase(c.Request().Context(), middleware.DeviceIDFromContext(c), caseID.String(), patch)
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) ListDrafts(c echo.Context) error {
	items := h.svc.ListDrafts(c.Request().Context(), middleware.DeviceIDFromContext(c))
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) GetDraft(c echo.Context) error {
	d, ok := h.svc.GetDraft(c.Request().Context(), middleware.DeviceIDFromContext(c), c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "draft not found")
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) UpdateDraft(c echo.Context) error {
	var patch DraftPatch
	if err := c.Bind(&patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d, ok := h.svc.UpdateDraft(c.Request().Context(), middleware.DeviceIDFromContext(c), c.Param("id"), patch)
	if !ok {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) DeleteDraft(c echo.Context) error {
	h.svc.DeleteDraft(c.Request().Context(), middleware.DeviceIDFromContext(c), c.Param("id"))
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) SaveCaseSheet(c echo.Context) error {
	var cs cases.CaseSheet
	if err := c.Bind(&cs); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d, err := h.svc.SaveCaseSheet(c.Request().Context(), middleware.DeviceIDFromContext(c), c.Param("id"), cs)
	if err != nil {
		if errors.Is(err, ErrDraftNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "draft not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) SaveDischargeSummary(c echo.Context) error {
	var ds cases.DischargeSummary
	if err := c.Bind(&ds); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d, ok := h.svc.SaveDischargeSummary(c.Request().Context(), middleware.DeviceIDFromContext(c), c.Param("id"), ds)
	if !ok {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) MarkCommitted(c echo.Context) error {
	var req struct {
		BackendID string `json:"backend_id"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	backendID, err := uuid.Parse(req.BackendID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid backend_id")
	}
	d, ok := h.svc.MarkCommitted(c.Request().Context(), middleware.DeviceIDFromContext(c), c.Param("id"), backendID.String())
	if !ok {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) SetActiveDraft(c echo.Context) error {
	var req struct {
		DraftID string `json:"draft_id"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	h.svc.SetActiveDraft(c.Request().Context(), middleware.DeviceIDFromContext(c), req.DraftID)
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ActiveDraft(c echo.Context) error {
	d, ok := h.svc.ActiveDraft(c.Request().Context(), middleware.DeviceIDFromContext(c))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "no active draft")
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) Cleanup(c echo.Context) error {
	var req struct {
		MaxAgeDays int `json:"max_age_days"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	removed := h.svc.CleanupOldDrafts(c.Request().Context(), middleware.DeviceIDFromContext(c), req.MaxAgeDays)
	return c.JSON(http.StatusOK, map[string]int{"removed": removed})
}
