package audit

import (
	"net/http"
	"time"

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
	g := api.Group("", auth.RequireRole("admin"))
	g.GET("/audit", h.Search)
}

func (h *Handler) Search(c echo.Context) error {
	page := pagination.FromContext(c)
	params := SearchParams{
		Actor:        c.QueryParam("actor"),
		ClientID:     c.QueryParam("client_id"),
		ResourceType: c.QueryParam("resource_type"),
		Action:       c.QueryParam("action"),
		Limit:        page.Limit,
		Offset:       page.Offset,
	}

	var err error
	if params.From, err = parseTimestamp(c.QueryParam("from")); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid from timestamp")
	}
	if params.To, err = parseTimestamp(c.QueryParam("to")); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid to timestamp")
	}

	entries, total, err := h.svc.Search(c.Request().Context(), params)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if entries == nil {
		entries = []*Entry{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(entries, total, page.Limit, page.Offset))
}

func parseTimestamp(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
