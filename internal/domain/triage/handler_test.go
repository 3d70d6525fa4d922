package triage

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/clinicdesk/clinicdesk/internal/platform/fault"
)

func post(t *testing.T, h echo.HandlerFunc, body string) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return rec, h(e.NewContext(req, rec))
}

func TestAssessPriorityHandler(t *testing.T) {
	h := NewHandler(newTestService())

	rec, err := post(t, h.AssessPriority, `{"symptoms":["chest pain"],"patient_age":30}`)
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if body["priority"] != PriorityHigh {
		t.Errorf("expected HIGH, got %s", body["priority"])
	}
}

func TestAssessPriorityHandlerMissingSymptoms(t *testing.T) {
	h := NewHandler(newTestService())

	_, err := post(t, h.AssessPriority, `{"patient_age":70}`)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestRecommendSpecialtyHandler(t *testing.T) {
	h := NewHandler(newTestService())

	rec, err := post(t, h.RecommendSpecialty, `{"symptoms":["itchy skin"]}`)
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}

	var body Recommendation
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if body.Specialty != "Dermatology" {
		t.Errorf("expected Dermatology, got %s", body.Specialty)
	}
}

func TestChatHandlerProviderDown(t *testing.T) {
	h := NewHandler(NewService(&mockLLM{err: fault.New(fault.Unavailable, "provider down")}))

	_, err := post(t, h.Chat, `{"user_message":"hello"}`)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %v", err)
	}
}
