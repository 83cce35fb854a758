package user

import (
	"errors"
	"net/http"
	"strings"

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
	api.GET("/me", h.Me)

	g := api.Group("", auth.RequireRole("admin"))
	g.GET("/users", h.List)
	g.POST("/users", h.Create)
	g.GET("/users/:id", h.GetByID)
	g.PUT("/users/:id", h.Update)
}

// Me returns the account record for the authenticated caller.
func (h *Handler) Me(c echo.Context) error {
	id, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authenticated user id is not a valid uuid")
	}
	u, err := h.svc.GetByID(c.Request().Context(), id)
	if err != nil {
		return userError(err)
	}
	return c.JSON(http.StatusOK, u)
}

type createRequest struct {
	ID    string `json:"id,omitempty"` // identity provider subject, optional
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (h *Handler) Create(c echo.Context) error {
	var req createRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Name == "" || !strings.Contains(req.Email, "@") {
		return echo.NewHTTPError(http.StatusBadRequest, "name and a valid email are required")
	}

	u := &User{Name: req.Name, Email: req.Email, Role: req.Role}
	if req.ID != "" {
		id, err := uuid.Parse(req.ID)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "id must be a uuid")
		}
		u.ID = id
	}

	created, err := h.svc.Create(c.Request().Context(), u)
	if err != nil {
		return userError(err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) GetByID(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}
	u, err := h.svc.GetByID(c.Request().Context(), id)
	if err != nil {
		return userError(err)
	}
	return c.JSON(http.StatusOK, u)
}

type updateRequest struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Active *bool  `json:"active"`
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}
	var req updateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	u, err := h.svc.Update(c.Request().Context(), id, req.Name, req.Email, req.Role, req.Active)
	if err != nil {
		return userError(err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) List(c echo.Context) error {
	page := pagination.FromContext(c)
	users, total, err := h.svc.List(c.Request().Context(), page.Limit, page.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if users == nil {
		users = []*User{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(users, total, page.Limit, page.Offset))
}

func userError(err error) error {
	switch {
	case errors.Is(err, ErrUserNotFound):
		return echo.NewHTTPError(http.StatusNotFound, ErrUserNotFound.Error())
	case errors.Is(err, ErrEmailTaken):
		return echo.NewHTTPError(http.StatusConflict, ErrEmailTaken.Error())
	case errors.Is(err, ErrInvalidRole):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
