package consent

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/counsel/counsel/internal/domain/client"
	"github.com/counsel/counsel/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes adds the authenticated consent management endpoints.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole("counselor", "supervisor"))
	g.POST("/consents", h.Create)
	g.GET("/consents", h.ListByClient)
	g.GET("/consents/:id", h.GetByID)
}

// RegisterPublicRoutes adds the token-addressed signing endpoints. They are
// intentionally unauthenticated: the signature token is the capability.
func (h *Handler) RegisterPublicRoutes(e *echo.Echo) {
	e.GET("/consent/sign/:token", h.ViewByToken)
	e.POST("/consent/sign/:token", h.Resolve)
}

type createRequest struct {
	ClientID     string `json:"client_id"`
	TemplateName string `json:"template_name"`
	Title        string `json:"title"`
	Body         string `json:"body"`
}

func (h *Handler) Create(c echo.Context) error {
	var req createRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid client_id")
	}
	if req.Title == "" || req.Body == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title and body are required")
	}

	ctx := c.Request().Context()
	form, err := h.svc.Create(ctx, CreateParams{
		ClientID:      clientID,
		TemplateName:  req.TemplateName,
		Title:         req.Title,
		Body:          req.Body,
		CounselorName: auth.NameFromContext(ctx),
		CreatedBy:     auth.UserIDFromContext(ctx),
	})
	if err != nil {
		return consentError(err)
	}
	return c.JSON(http.StatusCreated, form)
}

func (h *Handler) GetByID(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid consent form id")
	}
	form, err := h.svc.GetByID(c.Request().Context(), id)
	if err != nil {
		return consentError(err)
	}
	return c.JSON(http.StatusOK, form)
}

func (h *Handler) ListByClient(c echo.Context) error {
	clientID, err := uuid.Parse(c.QueryParam("client_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "client_id query parameter is required")
	}
	forms, err := h.svc.ListByClient(c.Request().Context(), clientID)
	if err != nil {
		return consentError(err)
	}
	if forms == nil {
		forms = []*Form{}
	}
	return c.JSON(http.StatusOK, forms)
}

// publicForm is what the signing page sees. It omits internal bookkeeping
// and never echoes the token back.
type publicForm struct {
	Title   string `json:"title"`
	Body    string `json:"body"`
	Status  string `json:"status"`
	Expires string `json:"expires_at"`
}

func (h *Handler) ViewByToken(c echo.Context) error {
	form, err := h.svc.GetByToken(c.Request().Context(), c.Param("token"))
	if err != nil {
		return consentError(err)
	}
	return c.JSON(http.StatusOK, publicForm{
		Title:   form.Title,
		Body:    form.Body,
		Status:  form.Status,
		Expires: form.TokenExpiresAt.Format("2006-01-02"),
	})
}

type resolveRequest struct {
	SignerName string `json:"signer_name"`
	Decision   string `json:"decision"` // "sign" or "decline"
}

func (h *Handler) Resolve(c echo.Context) error {
	var req resolveRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.SignerName == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "signer_name is required")
	}

	ctx := c.Request().Context()
	token := c.Param("token")
	ip := c.RealIP()

	var form *Form
	var err error
	switch req.Decision {
	case "sign":
		form, err = h.svc.Sign(ctx, token, req.SignerName, ip)
	case "decline":
		form, err = h.svc.Decline(ctx, token, req.SignerName, ip)
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "decision must be \"sign\" or \"decline\"")
	}
	if err != nil {
		return consentError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": form.Status})
}

func consentError(err error) error {
	switch {
	case errors.Is(err, ErrConsentNotFound), errors.Is(err, client.ErrClientNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrTokenExpired):
		return echo.NewHTTPError(http.StatusGone, ErrTokenExpired.Error())
	case errors.Is(err, ErrAlreadyResolved):
		return echo.NewHTTPError(http.StatusConflict, ErrAlreadyResolved.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
