package agent

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/counsel/counsel/internal/domain/aireport"
	"github.com/counsel/counsel/internal/domain/client"
	"github.com/counsel/counsel/internal/platform/ai"
	"github.com/counsel/counsel/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole("counselor", "supervisor"))
	g.POST("/ai/generate/:type", h.GenerateReport)
	g.GET("/ai/reports", h.ListReports)
	g.GET("/ai/reports/:id", h.GetReport)
}

type generateRequest struct {
	ClientID  string `json:"client_id"`
	SessionID string `json:"session_id"`
}

func (h *Handler) GenerateReport(c echo.Context) error {
	var req generateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid client_id")
	}
	var sessionID *uuid.UUID
	if req.SessionID != "" {
		sid, err := uuid.Parse(req.SessionID)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid session_id")
		}
		sessionID = &sid
	}

	ctx := c.Request().Context()
	rep, err := h.svc.GenerateReport(ctx, c.Param("type"), clientID, sessionID, auth.UserIDFromContext(ctx))
	if err != nil {
		return agentError(err)
	}
	return c.JSON(http.StatusCreated, rep)
}

func (h *Handler) GetReport(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	rep, err := h.svc.GetReport(c.Request().Context(), id)
	if err != nil {
		return agentError(err)
	}
	return c.JSON(http.StatusOK, rep)
}

func (h *Handler) ListReports(c echo.Context) error {
	clientID, err := uuid.Parse(c.QueryParam("client_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "client_id is required")
	}
	from, err := parseTimestamp(c.QueryParam("from"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid from timestamp")
	}
	to, err := parseTimestamp(c.QueryParam("to"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid to timestamp")
	}

	items, err := h.svc.ListReports(c.Request().Context(), clientID, c.QueryParam("type"), from, to)
	if err != nil {
		return agentError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func agentError(err error) error {
	var genErr *ai.GenerationError
	switch {
	case errors.As(err, &genErr):
		return echo.NewHTTPError(http.StatusBadGateway, "report generation failed")
	case errors.Is(err, client.ErrClientNotFound):
		return echo.NewHTTPError(http.StatusNotFound, client.ErrClientNotFound.Error())
	case errors.Is(err, aireport.ErrReportNotFound):
		return echo.NewHTTPError(http.StatusNotFound, aireport.ErrReportNotFound.Error())
	case errors.Is(err, aireport.ErrInvalidType):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

func parseTimestamp(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, err
	}
	t = t.UTC()
	return &t, nil
}
