package payment

import (
	"context"
	"errors"
)

// Error taxonomy shared by the checkout, status and webhook flows. The
// controllers map these onto HTTP statuses; provider internals never leak
// to clients.
var (
	ErrUnknownPackage      = errors.New("unknown package")
	ErrSessionNotFound     = errors.New("session not found")
	ErrInvalidSignature    = errors.New("invalid webhook signature")
	ErrMalformedEvent      = errors.New("malformed webhook event")
	ErrProviderUnavailable = errors.New("payment provider unavailable")
)

// CreateSessionParams describes one hosted checkout session to open.
// Amount and currency always come from the catalog entry.
type CreateSessionParams struct {
	Amount      int64 // cents
	Currency    string
	ProductName string
	SuccessURL  string
	CancelURL   string
	Metadata    map[string]string
}

// Session is the provider's answer to a create call.
type Session struct {
	ID  string
	URL string
}

// SessionStatus is the provider-reported state of an existing session.
type SessionStatus struct {
	ID            string
	Status        string
	PaymentStatus string
	AmountTotal   int64 // cents
	Currency      string
	Metadata      map[string]string
}

// Event is a verified, provider-agnostic webhook event.
type Event struct {
	ID            string
	Type          string
	SessionID     string
	Status        string
	PaymentStatus string
}

// Provider is the narrow seam to the hosted-payment collaborator. The
// core checkout/webhook logic only ever sees this interface; the Stripe
// implementation and the test stubs both satisfy it.
type Provider interface {
	CreateSession(ctx context.Context, params CreateSessionParams) (Session, error)
	GetSession(ctx context.Context, id string) (SessionStatus, error)
	VerifyEvent(payload []byte, signatureHeader string) (Event, error)
}
