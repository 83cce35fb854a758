package billing

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/counsel/counsel/internal/domain/client"
	"github.com/counsel/counsel/internal/platform/auth"
	"github.com/counsel/counsel/internal/platform/payments"
	"github.com/counsel/counsel/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole("counselor", "supervisor", "billing"))
	g.GET("/invoices", h.ListInvoices)
	g.GET("/invoices/:id", h.GetInvoice)
	g.POST("/invoices", h.CreateInvoice)
	g.POST("/invoices/:id/pdf", h.AttachPDF)
	g.POST("/invoices/:id/issue", h.IssueInvoice)
	g.POST("/invoices/:id/pay", h.MarkPaid)
	g.POST("/invoices/:id/void", h.VoidInvoice)
	g.DELETE("/invoices/:id", h.DeleteInvoice)
}

func (h *Handler) CreateInvoice(c echo.Context) error {
	var inv Invoice
	if err := c.Bind(&inv); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateInvoice(c.Request().Context(), &inv); err != nil {
		if errors.Is(err, client.ErrClientNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, client.ErrClientNotFound.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, inv)
}

func (h *Handler) GetInvoice(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	inv, err := h.svc.GetInvoice(c.Request().Context(), id)
	if err != nil {
		return invoiceError(err)
	}
	return c.JSON(http.StatusOK, inv)
}

func (h *Handler) ListInvoices(c echo.Context) error {
	pg := pagination.FromContext(c)
	ctx := c.Request().Context()

	if clientID := c.QueryParam("client_id"); clientID != "" {
		cid, err := uuid.Parse(clientID)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid client_id")
		}
		items, total, err := h.svc.ListInvoicesByClient(ctx, cid, pg.Limit, pg.Offset)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
	}

	items, total, err := h.svc.ListInvoices(ctx, c.QueryParam("status"), pg.Limit, pg.Offset)
	if err != nil {
		if errors.Is(err, ErrInvalidStatus) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) AttachPDF(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	file, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	src, err := file.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to open uploaded file")
	}
	defer src.Close()

	ctx := c.Request().Context()
	inv, err := h.svc.AttachPDF(ctx, id, file.Filename, src, auth.UserIDFromContext(ctx))
	if err != nil {
		return invoiceError(err)
	}
	return c.JSON(http.StatusOK, inv)
}

func (h *Handler) IssueInvoice(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	inv, err := h.svc.IssueInvoice(c.Request().Context(), id)
	if err != nil {
		return invoiceError(err)
	}
	return c.JSON(http.StatusOK, inv)
}

func (h *Handler) MarkPaid(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	inv, err := h.svc.MarkPaid(c.Request().Context(), id)
	if err != nil {
		return invoiceError(err)
	}
	return c.JSON(http.StatusOK, inv)
}

func (h *Handler) VoidInvoice(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	inv, err := h.svc.VoidInvoice(c.Request().Context(), id)
	if err != nil {
		return invoiceError(err)
	}
	return c.JSON(http.StatusOK, inv)
}

// DeleteInvoice reports the two-phase result so partial storage failures
// stay visible to the caller.
func (h *Handler) DeleteInvoice(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	result, err := h.svc.DeleteInvoice(c.Request().Context(), id)
	if err != nil {
		return invoiceError(err)
	}
	return c.JSON(http.StatusOK, result)
}

func invoiceError(err error) error {
	var provErr *payments.ProviderError
	switch {
	case errors.Is(err, ErrInvoiceNotFound):
		return echo.NewHTTPError(http.StatusNotFound, ErrInvoiceNotFound.Error())
	case errors.Is(err, ErrInvoiceNotDraft), errors.Is(err, ErrInvoiceFinalized), errors.Is(err, ErrInvalidStatus):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.As(err, &provErr):
		return echo.NewHTTPError(http.StatusBadGateway, "payment provider request failed")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
