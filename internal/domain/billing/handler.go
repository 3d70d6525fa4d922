package billing

import (
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicdesk/clinicdesk/internal/platform/auth"
	"github.com/clinicdesk/clinicdesk/internal/platform/fault"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes wires billing endpoints. The webhook goes on the public
// group: the provider authenticates with its signature, not a bearer token.
func (h *Handler) RegisterRoutes(public, api *echo.Group) {
	api.POST("/payments/checkout", h.CreateCheckout)
	api.GET("/payments/verify", h.Verify)

	public.POST("/payments/webhook", h.Webhook)
}

type checkoutRequest struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
}

func (h *Handler) CreateCheckout(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	var req checkoutRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	result, err := h.svc.CreateCheckout(c.Request().Context(), actor, req.AppointmentID)
	if err != nil {
		return echo.NewHTTPError(fault.HTTPStatus(err), fault.Message(err))
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) Verify(c echo.Context) error {
	result, err := h.svc.Verify(c.Request().Context(), c.QueryParam("session_id"))
	if err != nil {
		return echo.NewHTTPError(fault.HTTPStatus(err), fault.Message(err))
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) Webhook(c echo.Context) error {
	payload, err := io.ReadAll(io.LimitReader(c.Request().Body, 1<<20))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read request body")
	}
	signature := c.Request().Header.Get("Stripe-Signature")
	if err := h.svc.HandleWebhook(c.Request().Context(), payload, signature); err != nil {
		return echo.NewHTTPError(fault.HTTPStatus(err), fault.Message(err))
	}
	return c.JSON(http.StatusOK, map[string]bool{"received": true})
}
