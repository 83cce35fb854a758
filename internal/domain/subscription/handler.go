package subscription

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/counsel/counsel/internal/platform/auth"
	"github.com/counsel/counsel/internal/platform/payments"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole("counselor", "supervisor"))
	g.POST("/subscription/checkout", h.StartCheckout)
	g.POST("/subscription/confirm", h.Confirm)
	g.GET("/subscription", h.GetStatus)
	g.POST("/subscription/cancel", h.Cancel)
}

type checkoutRequest struct {
	Plan       string `json:"plan"`
	Email      string `json:"email"`
	SuccessURL string `json:"success_url"`
	CancelURL  string `json:"cancel_url"`
}

func (h *Handler) StartCheckout(c echo.Context) error {
	var req checkoutRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	counselorID, err := currentCounselor(c)
	if err != nil {
		return err
	}

	sess, err := h.svc.StartCheckout(c.Request().Context(), counselorID, req.Email, req.Plan, req.SuccessURL, req.CancelURL)
	if err != nil {
		return subscriptionError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"checkout_url": sess.URL, "session_id": sess.ID})
}

type confirmRequest struct {
	CustomerID     string `json:"customer_id"`
	SubscriptionID string `json:"subscription_id"`
}

func (h *Handler) Confirm(c echo.Context) error {
	var req confirmRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.SubscriptionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "subscription_id is required")
	}
	counselorID, err := currentCounselor(c)
	if err != nil {
		return err
	}

	sub, err := h.svc.AttachProviderSubscription(c.Request().Context(), counselorID, req.CustomerID, req.SubscriptionID)
	if err != nil {
		return subscriptionError(err)
	}
	return c.JSON(http.StatusOK, sub)
}

func (h *Handler) GetStatus(c echo.Context) error {
	counselorID, err := currentCounselor(c)
	if err != nil {
		return err
	}
	sub, err := h.svc.GetStatus(c.Request().Context(), counselorID)
	if err != nil {
		return subscriptionError(err)
	}
	return c.JSON(http.StatusOK, sub)
}

func (h *Handler) Cancel(c echo.Context) error {
	counselorID, err := currentCounselor(c)
	if err != nil {
		return err
	}
	sub, err := h.svc.Cancel(c.Request().Context(), counselorID)
	if err != nil {
		return subscriptionError(err)
	}
	return c.JSON(http.StatusOK, sub)
}

func currentCounselor(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "authenticated user id is not a valid uuid")
	}
	return id, nil
}

func subscriptionError(err error) error {
	var provErr *payments.ProviderError
	switch {
	case errors.Is(err, ErrSubscriptionNotFound):
		return echo.NewHTTPError(http.StatusNotFound, ErrSubscriptionNotFound.Error())
	case errors.Is(err, ErrInvalidPlan), errors.Is(err, ErrNotSubscribed):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.As(err, &provErr):
		return echo.NewHTTPError(http.StatusBadGateway, "payment provider request failed")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
