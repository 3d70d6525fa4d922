// Package payments integrates with a Stripe-compatible hosted checkout
// provider. The provider owns payment settlement; this package only creates
// checkout sessions, retrieves their payment status, and verifies webhook
// signatures. Provider failures surface as fault.Unavailable.
package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/clinicdesk/clinicdesk/internal/platform/fault"
)

// CheckoutSession is the provider-side session for one appointment payment.
type CheckoutSession struct {
	ID            string `json:"id"`
	URL           string `json:"url"`
	PaymentStatus string `json:"payment_status"`
	Metadata      struct {
		AppointmentID string `json:"appointmentId"`
		UserID        string `json:"userId"`
	} `json:"metadata"`
}

// Paid reports whether the session has been settled by the provider.
func (s *CheckoutSession) Paid() bool { return s.PaymentStatus == "paid" }

// CheckoutParams describes the single line item of an appointment checkout.
type CheckoutParams struct {
	AppointmentID string
	UserID        string
	AmountCents   int64
	Currency      string
	ProductName   string
	Description   string
	SuccessURL    string
	CancelURL     string
}

// Gateway is the boundary interface the billing service depends on.
type Gateway interface {
	CreateCheckout(ctx context.Context, p CheckoutParams) (*CheckoutSession, error)
	RetrieveSession(ctx context.Context, sessionID string) (*CheckoutSession, error)
}

const defaultRequestTimeout = 20 * time.Second

// StripeGateway talks to the Stripe checkout-sessions API over HTTPS.
type StripeGateway struct {
	baseURL   string
	secretKey string
	client    *http.Client
}

func NewStripeGateway(baseURL, secretKey string) *StripeGateway {
	return &StripeGateway{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		secretKey: secretKey,
		client:    &http.Client{Timeout: defaultRequestTimeout},
	}
}

// CreateCheckout creates a hosted checkout session for a single line item.
func (g *StripeGateway) CreateCheckout(ctx context.Context, p CheckoutParams) (*CheckoutSession, error) {
	currency := p.Currency
	if currency == "" {
		currency = "usd"
	}

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("payment_method_types[0]", "card")
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", currency)
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(p.AmountCents, 10))
	form.Set("line_items[0][price_data][product_data][name]", p.ProductName)
	if p.Description != "" {
		form.Set("line_items[0][price_data][product_data][description]", p.Description)
	}
	form.Set("success_url", p.SuccessURL)
	form.Set("cancel_url", p.CancelURL)
	form.Set("metadata[appointmentId]", p.AppointmentID)
	form.Set("metadata[userId]", p.UserID)

	return g.postSession(ctx, g.baseURL+"/v1/checkout/sessions", form)
}

// RetrieveSession fetches a checkout session by id.
func (g *StripeGateway) RetrieveSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		g.baseURL+"/v1/checkout/sessions/"+url.PathEscape(sessionID), nil)
	if err != nil {
		return nil, fault.Wrap(fault.Unavailable, "checkout provider request could not be created", err)
	}
	return g.doSession(req)
}

func (g *StripeGateway) postSession(ctx context.Context, endpoint string, form url.Values) (*CheckoutSession, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fault.Wrap(fault.Unavailable, "checkout provider request could not be created", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return g.doSession(req)
}

func (g *StripeGateway) doSession(req *http.Request) (*CheckoutSession, error) {
	req.Header.Set("Authorization", "Bearer "+g.secretKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fault.Wrap(fault.Unavailable, "checkout provider unreachable", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fault.Wrap(fault.Unavailable, "checkout provider response could not be read", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, fault.New(fault.NotFound, "checkout session not found")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fault.Errorf(fault.Unavailable, "checkout provider returned status %d", resp.StatusCode)
	}

	var session CheckoutSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fault.Wrap(fault.Unavailable, "checkout provider returned malformed JSON", err)
	}
	return &session, nil
}

var _ Gateway = (*StripeGateway)(nil)

// Event is the subset of a provider webhook event the server reacts to.
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object CheckoutSession `json:"object"`
	} `json:"data"`
}

// EventCheckoutCompleted is the only event type that confirms an appointment.
const EventCheckoutCompleted = "checkout.session.completed"

// signatureTolerance bounds how old a webhook timestamp may be before the
// delivery is rejected as a potential replay.
const signatureTolerance = 5 * time.Minute

// VerifySignature checks a Stripe-style signature header
// ("t=<unix>,v1=<hex hmac>") against the raw payload. The signed message is
// "<t>.<payload>" with HMAC-SHA256 keyed by the webhook secret.
func VerifySignature(payload []byte, header, secret string, now time.Time) error {
	if header == "" || secret == "" {
		return fault.New(fault.InvalidInput, "webhook signature or secret missing")
	}

	var ts string
	var sigs []string
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			ts = kv[1]
		case "v1":
			sigs = append(sigs, kv[1])
		}
	}
	if ts == "" || len(sigs) == 0 {
		return fault.New(fault.InvalidInput, "malformed webhook signature header")
	}

	tsec, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return fault.New(fault.InvalidInput, "malformed webhook signature timestamp")
	}
	if diff := now.Sub(time.Unix(tsec, 0)); diff > signatureTolerance || diff < -signatureTolerance {
		return fault.New(fault.InvalidInput, "webhook signature timestamp outside tolerance")
	}

	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%s.%s", ts, payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, sig := range sigs {
		if hmac.Equal([]byte(sig), []byte(expected)) {
			return nil
		}
	}
	return fault.New(fault.InvalidInput, "webhook signature verification failed")
}

// ParseEvent decodes a verified webhook payload.
func ParseEvent(payload []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, fault.Wrap(fault.InvalidInput, "malformed webhook payload", err)
	}
	if ev.Type == "" {
		return nil, fault.New(fault.InvalidInput, "webhook payload missing event type")
	}
	return &ev, nil
}

// Sign produces a signature header for the given payload; used by tests and
// local tooling to simulate provider deliveries.
func Sign(payload []byte, secret string, now time.Time) string {
	ts := strconv.FormatInt(now.Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%s.%s", ts, payload)
	return "t=" + ts + ",v1=" + hex.EncodeToString(mac.Sum(nil))
}
