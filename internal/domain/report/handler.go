package report

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/counsel/counsel/internal/domain/client"
	"github.com/counsel/counsel/internal/platform/auth"
	"github.com/counsel/counsel/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole("counselor", "supervisor"))
	g.POST("/reports/generate/:type", h.GenerateReport)
	g.GET("/reports", h.ListReports)
	g.GET("/reports/:id", h.GetReport)
	g.DELETE("/reports/:id", h.DeleteReport)
}

type generateRequest struct {
	ClientID  string `json:"client_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Save      bool   `json:"save"`
}

type generateResponse struct {
	ReportID *uuid.UUID  `json:"report_id,omitempty"`
	Summary  interface{} `json:"summary"`
}

func (h *Handler) GenerateReport(c echo.Context) error {
	reportType := c.Param("type")

	var req generateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid client_id")
	}
	from, err := parseDate(req.StartDate)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid start_date")
	}
	to, err := parseDate(req.EndDate)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid end_date")
	}

	ctx := c.Request().Context()
	requestedBy := auth.NameFromContext(ctx)

	if req.Save {
		rep, summary, err := h.svc.GenerateAndSave(ctx, reportType, clientID, from, to, requestedBy)
		if err != nil {
			return reportError(err)
		}
		return c.JSON(http.StatusCreated, generateResponse{ReportID: &rep.ID, Summary: summary})
	}

	summary, err := h.svc.Generate(ctx, reportType, clientID, from, to, requestedBy)
	if err != nil {
		return reportError(err)
	}
	return c.JSON(http.StatusOK, generateResponse{Summary: summary})
}

func (h *Handler) GetReport(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	rep, err := h.svc.GetReport(c.Request().Context(), id)
	if err != nil {
		return reportError(err)
	}
	return c.JSON(http.StatusOK, rep)
}

func (h *Handler) ListReports(c echo.Context) error {
	pg := pagination.FromContext(c)
	ctx := c.Request().Context()

	if clientID := c.QueryParam("client_id"); clientID != "" {
		cid, err := uuid.Parse(clientID)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid client_id")
		}
		items, total, err := h.svc.ListReportsByClient(ctx, cid, pg.Limit, pg.Offset)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
	}

	items, total, err := h.svc.ListReports(ctx, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) DeleteReport(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteReport(c.Request().Context(), id); err != nil {
		return reportError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func reportError(err error) error {
	switch {
	case errors.Is(err, client.ErrClientNotFound):
		return echo.NewHTTPError(http.StatusNotFound, client.ErrClientNotFound.Error())
	case errors.Is(err, ErrReportNotFound):
		return echo.NewHTTPError(http.StatusNotFound, ErrReportNotFound.Error())
	case errors.Is(err, ErrNoDiagnosticReports), errors.Is(err, ErrNoTreatmentReports):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidType):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

// parseDate accepts a bare date or a full RFC 3339 timestamp. An empty
// string means no bound.
func parseDate(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(dateLayout, v); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, err
	}
	t = t.UTC()
	return &t, nil
}
