package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/clinicdesk/clinicdesk/internal/domain/booking"
	"github.com/clinicdesk/clinicdesk/internal/domain/triage"
	"github.com/clinicdesk/clinicdesk/internal/platform/auth"
	"github.com/clinicdesk/clinicdesk/internal/platform/fault"
	"github.com/clinicdesk/clinicdesk/internal/platform/payments"
)

// AmountForPriority maps an appointment priority to its consultation fee in
// minor currency units: $150 for HIGH, $100 for MEDIUM, $50 otherwise.
func AmountForPriority(priority string) int64 {
	switch priority {
	case triage.PriorityHigh:
		return 15000
	case triage.PriorityMedium:
		return 10000
	default:
		return 5000
	}
}

// Config carries the redirect URLs handed to the checkout provider and the
// secret used to verify webhook deliveries.
type Config struct {
	SuccessURL    string
	CancelURL     string
	WebhookSecret string
}

type Service struct {
	gateway      payments.Gateway
	appointments *booking.Service
	cfg          Config
}

func NewService(gateway payments.Gateway, appointments *booking.Service, cfg Config) *Service {
	return &Service{gateway: gateway, appointments: appointments, cfg: cfg}
}

// CheckoutResult is what the client needs to continue a payment.
type CheckoutResult struct {
	SessionID   string `json:"session_id"`
	CheckoutURL string `json:"checkout_url"`
	AmountCents int64  `json:"amount_cents"`
}

// CreateCheckout opens a checkout session for a PENDING appointment. The
// appointment lookup goes through the booking service, so ownership rules
// apply: only a party to the appointment can pay for it.
func (s *Service) CreateCheckout(ctx context.Context, actor auth.Actor, appointmentID uuid.UUID) (*CheckoutResult, error) {
	a, err := s.appointments.Get(ctx, actor, appointmentID)
	if err != nil {
		return nil, err
	}
	if a.Status != booking.StatusPending {
		return nil, fault.Errorf(fault.InvalidTransition, "cannot pay for a %s appointment", a.Status)
	}

	amount := AmountForPriority(a.Priority)
	session, err := s.gateway.CreateCheckout(ctx, payments.CheckoutParams{
		AppointmentID: a.ID.String(),
		UserID:        actor.ID.String(),
		AmountCents:   amount,
		ProductName:   "Medical appointment",
		Description:   "Consultation fee (" + a.Priority + " priority)",
		SuccessURL:    s.cfg.SuccessURL,
		CancelURL:     s.cfg.CancelURL,
	})
	if err != nil {
		return nil, err
	}
	return &CheckoutResult{
		SessionID:   session.ID,
		CheckoutURL: session.URL,
		AmountCents: amount,
	}, nil
}

// VerifyResult reports whether a checkout session settled and what happened
// to the appointment.
type VerifyResult struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
	Paid          bool      `json:"paid"`
	Status        string    `json:"status"`
}

// Verify polls the provider for a session's payment status and, when paid,
// confirms the appointment. Clients call this on the success redirect; the
// webhook usually gets there first, which is fine because confirmation is
// idempotent.
func (s *Service) Verify(ctx context.Context, sessionID string) (*VerifyResult, error) {
	if sessionID == "" {
		return nil, fault.New(fault.InvalidInput, "session_id is required")
	}
	session, err := s.gateway.RetrieveSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	appointmentID, err := uuid.Parse(session.Metadata.AppointmentID)
	if err != nil {
		return nil, fault.New(fault.InvalidInput, "checkout session has no appointment reference")
	}

	if !session.Paid() {
		return &VerifyResult{AppointmentID: appointmentID, Paid: false, Status: booking.StatusPending}, nil
	}

	a, err := s.appointments.ConfirmPayment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	return &VerifyResult{AppointmentID: appointmentID, Paid: true, Status: a.Status}, nil
}

// HandleWebhook processes a raw provider delivery. Only completed-checkout
// events confirm an appointment; everything else is acknowledged and
// dropped. Re-deliveries are no-op successes.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if err := payments.VerifySignature(payload, signature, s.cfg.WebhookSecret, time.Now()); err != nil {
		return err
	}
	event, err := payments.ParseEvent(payload)
	if err != nil {
		return err
	}

	if event.Type != payments.EventCheckoutCompleted {
		log.Debug().Str("event_type", event.Type).Msg("ignoring webhook event")
		return nil
	}

	appointmentID, err := uuid.Parse(event.Data.Object.Metadata.AppointmentID)
	if err != nil {
		return fault.New(fault.InvalidInput, "webhook event has no appointment reference")
	}

	if _, err := s.appointments.ConfirmPayment(ctx, appointmentID); err != nil {
		return err
	}
	log.Info().Str("appointment_id", appointmentID.String()).Msg("payment confirmed via webhook")
	return nil
}
