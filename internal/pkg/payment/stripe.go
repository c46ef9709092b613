package payment

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/getyoursite/getyoursite/internal/pkg/env"
)

// StripeProvider implements Provider on Stripe hosted checkout. Signature
// verification goes through stripe-go's webhook package (HMAC-SHA256 over
// the timestamped payload with replay tolerance).
type StripeProvider struct {
	webhookSecret string
}

// NewStripeProviderFromEnv configures the global Stripe client key and
// returns the provider. Returns nil when no API key is configured so the
// caller can refuse payment routes instead of failing at request time.
func NewStripeProviderFromEnv() *StripeProvider {
	apiKey := strings.TrimSpace(env.GetEnv("STRIPE_API_KEY", ""))
	if apiKey == "" {
		log.Print("STRIPE_API_KEY not set, payment provider disabled")
		return nil
	}
	stripe.Key = apiKey
	return &StripeProvider{
		webhookSecret: strings.TrimSpace(env.GetEnv("STRIPE_WEBHOOK_SECRET", "")),
	}
}

func (p *StripeProvider) CreateSession(ctx context.Context, params CreateSessionParams) (Session, error) {
	sessParams := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(params.SuccessURL),
		CancelURL:  stripe.String(params.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(strings.ToLower(params.Currency)),
					UnitAmount: stripe.Int64(params.Amount),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(params.ProductName),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	sessParams.Context = ctx
	for k, v := range params.Metadata {
		sessParams.AddMetadata(k, v)
	}

	s, err := session.New(sessParams)
	if err != nil {
		log.Printf("stripe checkout session creation failed: %v", err)
		return Session{}, ErrProviderUnavailable
	}
	return Session{ID: s.ID, URL: s.URL}, nil
}

func (p *StripeProvider) GetSession(ctx context.Context, id string) (SessionStatus, error) {
	getParams := &stripe.CheckoutSessionParams{}
	getParams.Context = ctx

	s, err := session.Get(id, getParams)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) &&
			(stripeErr.HTTPStatusCode == http.StatusNotFound || stripeErr.Type == stripe.ErrorTypeInvalidRequest) {
			return SessionStatus{}, ErrSessionNotFound
		}
		log.Printf("stripe session lookup failed for %s: %v", id, err)
		return SessionStatus{}, ErrProviderUnavailable
	}

	return SessionStatus{
		ID:            s.ID,
		Status:        string(s.Status),
		PaymentStatus: string(s.PaymentStatus),
		AmountTotal:   s.AmountTotal,
		Currency:      strings.ToUpper(string(s.Currency)),
		Metadata:      s.Metadata,
	}, nil
}

// checkoutSessionPayload is the slice of the event object the webhook flow
// needs; the rest of the payload is stored verbatim for auditing.
type checkoutSessionPayload struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
}

func (p *StripeProvider) VerifyEvent(payload []byte, signatureHeader string) (Event, error) {
	if strings.TrimSpace(signatureHeader) == "" || p.webhookSecret == "" {
		return Event{}, ErrInvalidSignature
	}

	stripeEvent, err := webhook.ConstructEventWithOptions(payload, signatureHeader, p.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		if errors.Is(err, webhook.ErrNotSigned) || errors.Is(err, webhook.ErrNoValidSignature) ||
			errors.Is(err, webhook.ErrTooOld) || errors.Is(err, webhook.ErrInvalidHeader) {
			return Event{}, ErrInvalidSignature
		}
		return Event{}, ErrMalformedEvent
	}
	if stripeEvent.ID == "" {
		return Event{}, ErrMalformedEvent
	}

	event := Event{ID: stripeEvent.ID, Type: string(stripeEvent.Type)}
	if strings.HasPrefix(event.Type, "checkout.session.") && stripeEvent.Data != nil {
		var sess checkoutSessionPayload
		if err := json.Unmarshal(stripeEvent.Data.Raw, &sess); err != nil {
			return Event{}, ErrMalformedEvent
		}
		if sess.ID == "" {
			return Event{}, ErrMalformedEvent
		}
		event.SessionID = sess.ID
		event.Status = sess.Status
		event.PaymentStatus = sess.PaymentStatus
	}
	return event, nil
}
