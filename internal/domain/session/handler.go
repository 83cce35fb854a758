package session

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

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
	g.GET("/sessions", h.ListSessions)
	g.GET("/sessions/:id", h.GetSession)
	g.POST("/sessions", h.ScheduleSession)
	g.POST("/sessions/:id/reschedule", h.RescheduleSession)
	g.POST("/sessions/:id/start", h.StartSession)
	g.POST("/sessions/:id/complete", h.CompleteSession)
	g.POST("/sessions/:id/cancel", h.CancelSession)
	g.DELETE("/sessions/:id", h.DeleteSession)
}

func (h *Handler) ScheduleSession(c echo.Context) error {
	var s Session
	if err := c.Bind(&s); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.ScheduleSession(c.Request().Context(), &s); err != nil {
		if errors.Is(err, ErrSchedulingConflict) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, s)
}

func (h *Handler) GetSession(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	s, err := h.svc.GetSession(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, ErrSessionNotFound.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, s)
}

func (h *Handler) ListSessions(c echo.Context) error {
	ctx := c.Request().Context()

	if counselorID := c.QueryParam("counselor_id"); counselorID != "" {
		cid, err := uuid.Parse(counselorID)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid counselor_id")
		}
		from, to, err := parseWindow(c)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		items, err := h.svc.ListCounselorSchedule(ctx, cid, from, to)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, items)
	}

	clientID := c.QueryParam("client_id")
	if clientID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "client_id or counselor_id is required")
	}
	cid, err := uuid.Parse(clientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid client_id")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListSessionsByClient(ctx, cid, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

type rescheduleRequest struct {
	ScheduledAt time.Time `json:"scheduled_at"`
}

func (h *Handler) RescheduleSession(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req rescheduleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.ScheduledAt.IsZero() {
		return echo.NewHTTPError(http.StatusBadRequest, "scheduled_at is required")
	}
	s, err := h.svc.RescheduleSession(c.Request().Context(), id, req.ScheduledAt)
	if err != nil {
		return sessionError(err)
	}
	return c.JSON(http.StatusOK, s)
}

func (h *Handler) StartSession(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	s, err := h.svc.StartSession(c.Request().Context(), id)
	if err != nil {
		return sessionError(err)
	}
	return c.JSON(http.StatusOK, s)
}

type completeRequest struct {
	MoodRating *int   `json:"mood_rating"`
	Notes      string `json:"notes"`
}

func (h *Handler) CompleteSession(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req completeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	s, err := h.svc.CompleteSession(c.Request().Context(), id, req.MoodRating, req.Notes)
	if err != nil {
		return sessionError(err)
	}
	return c.JSON(http.StatusOK, s)
}

type cancelRequest struct {
	NoShow bool `json:"no_show"`
}

func (h *Handler) CancelSession(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req cancelRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	s, err := h.svc.CancelSession(c.Request().Context(), id, req.NoShow)
	if err != nil {
		return sessionError(err)
	}
	return c.JSON(http.StatusOK, s)
}

func (h *Handler) DeleteSession(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteSession(c.Request().Context(), id); err != nil {
		return sessionError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func sessionError(err error) error {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return echo.NewHTTPError(http.StatusNotFound, ErrSessionNotFound.Error())
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrInvalidMoodRating):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrSchedulingConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

func parseWindow(c echo.Context) (time.Time, time.Time, error) {
	from := time.Now().UTC().AddDate(0, 0, -7)
	to := time.Now().UTC().AddDate(0, 0, 30)
	if v := c.QueryParam("from"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("invalid from timestamp")
		}
		from = parsed
	}
	if v := c.QueryParam("to"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("invalid to timestamp")
		}
		to = parsed
	}
	return from, to, nil
}
