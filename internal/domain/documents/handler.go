package documents

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ercase/ercase/internal/platform/auth"
	"github.com/ercase/ercase/pkg/pagination"
)

// Handler exposes scan upload and retrieval over HTTP.
type Handler struct {
	store  DocumentStore
	logger zerolog.Logger
}

func NewHandler(store DocumentStore, logger zerolog.Logger) *Handler {
	return &Handler{store: store, logger: logger.With().Str("component", "documents").Logger()}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole("admin", "physician", "nurse"))
	g.POST("/cases/:caseId/documents", h.Upload)
	g.GET("/cases/:caseId/documents", h.ListByCase)
	g.GET("/documents/:id", h.Download)
	g.GET("/documents/:id/metadata", h.GetMetadata)
	g.DELETE("/documents/:id", h.Delete)
}

func (h *Handler) Upload(c echo.Context) error {
	caseID, err := uuid.Parse(c.Param("caseId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid case id")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	src, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot read uploaded file")
	}
	defer src.Close()

	doc := Document{
		CaseID:      caseID.String(),
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Category:    c.FormValue("category"),
		Note:        c.FormValue("note"),
		UploadedBy:  auth.UserIDFromContext(c.Request().Context()),
	}

	stored, err := h.store.Upload(c.Request().Context(), doc, src)
	if err != nil {
		return h.storeError(err)
	}

	h.logger.Debug().
		Str("document_id", stored.ID).
		Str("case_id", stored.CaseID).
		Str("category", stored.Category).
		Int64("size", stored.Size).
		Msg("scan stored")
	return c.JSON(http.StatusCreated, stored)
}

func (h *Handler) ListByCase(c echo.Context) error {
	caseID, err := uuid.Parse(c.Param("caseId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid case id")
	}
	pg := pagination.FromContext(c)
	category := c.QueryParam("category")

	docs, total, err := h.store.ListByCase(c.Request().Context(), caseID.String(), category, pg.Limit, pg.Offset)
	if err != nil {
		return h.storeError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(docs, total, pg.Limit, pg.Offset))
}

func (h *Handler) Download(c echo.Context) error {
	rc, meta, err := h.store.Download(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.storeError(err)
	}
	defer rc.Close()

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", meta.FileName))
	return c.Stream(http.StatusOK, meta.ContentType, rc)
}

func (h *Handler) GetMetadata(c echo.Context) error {
	meta, err := h.store.GetMetadata(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.storeError(err)
	}
	return c.JSON(http.StatusOK, meta)
}

func (h *Handler) Delete(c echo.Context) error {
	if err := h.store.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return h.storeError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) storeError(err error) error {
	switch {
	case errors.Is(err, ErrDocumentNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "document not found")
	case errors.Is(err, ErrFileTooLarge):
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, ErrInvalidContentType):
		return echo.NewHTTPError(http.StatusUnsupportedMediaType, err.Error())
	case errors.Is(err, ErrInvalidCategory), errors.Is(err, ErrMissingFileName), errors.Is(err, ErrMissingCaseID):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		h.logger.Error().Err(err).Msg("document store failure")
		return echo.NewHTTPError(http.StatusInternalServerError, "document storage unavailable")
	}
}
