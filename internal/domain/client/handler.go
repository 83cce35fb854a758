package client

import (
	"errors"
	"net/http"

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
	g.GET("/clients", h.ListClients)
	g.GET("/clients/:id", h.GetClient)
	g.POST("/clients", h.CreateClient)
	g.PUT("/clients/:id", h.UpdateClient)
	g.POST("/clients/:id/archive", h.ArchiveClient)
	g.DELETE("/clients/:id", h.DeleteClient)
}

func (h *Handler) CreateClient(c echo.Context) error {
	var cl Client
	if err := c.Bind(&cl); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateClient(c.Request().Context(), &cl); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, cl)
}

func (h *Handler) GetClient(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	cl, err := h.svc.GetClient(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrClientNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, ErrClientNotFound.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, cl)
}

func (h *Handler) ListClients(c echo.Context) error {
	pg := pagination.FromContext(c)
	ctx := c.Request().Context()

	if counselorID := c.QueryParam("counselor_id"); counselorID != "" {
		cid, err := uuid.Parse(counselorID)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid counselor_id")
		}
		items, total, err := h.svc.ListClientsByCounselor(ctx, cid, pg.Limit, pg.Offset)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
	}

	params := map[string]string{}
	if status := c.QueryParam("status"); status != "" {
		params["status"] = status
	}
	if name := c.QueryParam("name"); name != "" {
		params["name"] = name
	}
	if len(params) > 0 {
		items, total, err := h.svc.SearchClients(ctx, params, pg.Limit, pg.Offset)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
	}

	items, total, err := h.svc.ListClients(ctx, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateClient(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var cl Client
	if err := c.Bind(&cl); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	cl.ID = id
	if err := h.svc.UpdateClient(c.Request().Context(), &cl); err != nil {
		if errors.Is(err, ErrClientNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, ErrClientNotFound.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, cl)
}

func (h *Handler) ArchiveClient(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	cl, err := h.svc.ArchiveClient(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrClientNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, ErrClientNotFound.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, cl)
}

func (h *Handler) DeleteClient(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteClient(c.Request().Context(), id); err != nil {
		if errors.Is(err, ErrClientNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, ErrClientNotFound.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
