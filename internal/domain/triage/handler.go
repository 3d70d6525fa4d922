package triage

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinicdesk/clinicdesk/internal/platform/fault"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes wires triage endpoints; all of them require authentication
// but none are role-restricted.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/triage/priority", h.AssessPriority)
	api.POST("/triage/recommendation", h.RecommendSpecialty)
	api.POST("/triage/recommendation/advanced", h.RecommendSpecialtyAdvanced)
	api.POST("/chatbot", h.Chat)
}

func (h *Handler) AssessPriority(c echo.Context) error {
	var in Intake
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	priority, err := h.svc.AssessPriority(in)
	if err != nil {
		return echo.NewHTTPError(fault.HTTPStatus(err), fault.Message(err))
	}
	return c.JSON(http.StatusOK, map[string]string{"priority": priority})
}

type symptomsRequest struct {
	Symptoms []string `json:"symptoms"`
}

func (h *Handler) RecommendSpecialty(c echo.Context) error {
	var req symptomsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	rec, err := h.svc.RecommendSpecialty(req.Symptoms)
	if err != nil {
		return echo.NewHTTPError(fault.HTTPStatus(err), fault.Message(err))
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) RecommendSpecialtyAdvanced(c echo.Context) error {
	var req symptomsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	rec, err := h.svc.RecommendSpecialtyAdvanced(c.Request().Context(), req.Symptoms)
	if err != nil {
		return echo.NewHTTPError(fault.HTTPStatus(err), fault.Message(err))
	}
	return c.JSON(http.StatusOK, rec)
}

type chatRequest struct {
	UserMessage string `json:"user_message"`
}

func (h *Handler) Chat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	reply, err := h.svc.Chat(c.Request().Context(), req.UserMessage)
	if err != nil {
		return echo.NewHTTPError(fault.HTTPStatus(err), fault.Message(err))
	}
	return c.JSON(http.StatusOK, map[string]string{"bot_reply": reply})
}
