package prescription

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicdesk/clinicdesk/internal/domain/identity"
	"github.com/clinicdesk/clinicdesk/internal/platform/auth"
	"github.com/clinicdesk/clinicdesk/internal/platform/fault"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	doctors := api.Group("", auth.RequireRole(identity.RoleDoctor))
	doctors.POST("/prescriptions", h.CreatePrescription)

	api.GET("/appointments/:id/prescription", h.GetPrescription)
}

type createPrescriptionRequest struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
	Medication    string    `json:"medication"`
	Dosage        string    `json:"dosage"`
	Instructions  string    `json:"instructions"`
}

func (h *Handler) CreatePrescription(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	var req createPrescriptionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.Create(c.Request().Context(), actor, req.AppointmentID, req.Medication, req.Dosage, req.Instructions)
	if err != nil {
		return echo.NewHTTPError(fault.HTTPStatus(err), fault.Message(err))
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetPrescription(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := h.svc.GetByAppointment(c.Request().Context(), actor, id)
	if err != nil {
		return echo.NewHTTPError(fault.HTTPStatus(err), fault.Message(err))
	}
	return c.JSON(http.StatusOK, p)
}
