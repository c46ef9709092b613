package payment

import (
	"context"
	"errors"
	"log"

	"gorm.io/gorm"

	"github.com/getyoursite/getyoursite/app/models"
)

// WebhookResult reports what the processor did with an inbound event.
type WebhookResult struct {
	EventType string
	SessionID string
	Duplicate bool
	Ignored   bool
}

// Processor verifies and applies provider webhook events. The signature
// is checked before the payload is parsed or trusted, and every event id
// is recorded so replays are no-ops.
type Processor struct {
	provider Provider
	repo     Repository
}

// NewProcessor wires the webhook processor.
func NewProcessor(provider Provider, repo Repository) *Processor {
	return &Processor{provider: provider, repo: repo}
}

// NewProcessorFromDB is the convenience constructor used by the controllers.
func NewProcessorFromDB(db *gorm.DB, provider Provider) *Processor {
	return NewProcessor(provider, NewRepository(db))
}

// Handle processes one raw webhook delivery. Returned errors are from the
// package taxonomy (ErrInvalidSignature, ErrMalformedEvent); anything the
// processor can absorb idempotently comes back as a successful result.
func (p *Processor) Handle(ctx context.Context, payload []byte, signatureHeader string) (*WebhookResult, error) {
	event, err := p.provider.VerifyEvent(payload, signatureHeader)
	if err != nil {
		return nil, err
	}

	created, stored, err := p.repo.CreateWebhookEventIfNotExists(&models.PaymentWebhookEvent{
		Provider:        "stripe",
		ProviderEventID: event.ID,
		EventType:       event.Type,
		SessionID:       event.SessionID,
		PayloadJSON:     string(payload),
		SignatureValid:  true,
	})
	if err != nil {
		return nil, err
	}
	if !created {
		// Replay of an already-recorded event id: acknowledged, no state
		// transition.
		return &WebhookResult{EventType: event.Type, SessionID: event.SessionID, Duplicate: true}, nil
	}

	result := &WebhookResult{EventType: event.Type, SessionID: event.SessionID}
	var processingErr error

	switch event.Type {
	case "checkout.session.completed":
		processingErr = p.applyCompleted(event)
	case "checkout.session.expired":
		processingErr = p.applyExpired(event)
	default:
		result.Ignored = true
	}

	errText := ""
	if processingErr != nil {
		errText = processingErr.Error()
	}
	if err := p.repo.MarkWebhookProcessed(stored.ID, errText); err != nil {
		log.Printf("failed to mark webhook event %d processed: %v", stored.ID, err)
	}
	if processingErr != nil {
		return nil, processingErr
	}

	log.Printf("webhook processed: %s for %s", event.Type, event.SessionID)
	return result, nil
}

func (p *Processor) applyCompleted(event Event) error {
	if event.SessionID == "" {
		return ErrMalformedEvent
	}
	if event.PaymentStatus != "" && event.PaymentStatus != models.PaymentStatusPaid {
		// Completed session that is not paid (e.g. delayed payment
		// methods): keep the pending row until a paid event arrives.
		return nil
	}

	status := event.Status
	if status == "" {
		status = models.TransactionStatusComplete
	}
	transitioned, err := p.repo.MarkTransactionPaid(event.SessionID, status, event.Type, event.ID)
	if err != nil {
		return err
	}
	if !transitioned {
		if _, lookupErr := p.repo.GetTransactionBySessionID(event.SessionID); errors.Is(lookupErr, gorm.ErrRecordNotFound) {
			log.Printf("RECONCILE: webhook %s for unknown session %s", event.ID, event.SessionID)
		}
		// Already paid: concurrent or replayed delivery, nothing to apply.
	}
	return nil
}

func (p *Processor) applyExpired(event Event) error {
	if event.SessionID == "" {
		return ErrMalformedEvent
	}
	return p.repo.UpdateTransactionStatus(event.SessionID, models.TransactionStatusExpired, models.PaymentStatusFailed)
}
