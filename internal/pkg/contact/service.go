package contact

import (
	"context"
	"log"
)

// Notifier forwards an accepted submission to whoever reads the contact
// inbox. Dispatch is fire and forget: a notifier failure is an operational
// concern, never a client-visible one.
type Notifier interface {
	Notify(ctx context.Context, sub Submission) error
}

// Ack is the success acknowledgment returned to the client.
type Ack struct {
	Message   string `json:"message"`
	RequestID string `json:"requestId"`
}

// Service validates submissions and hands them to the notifier. Origin
// gating and rate limiting run upstream as middleware; by the time Submit
// is called the request has already consumed its rate-limit slot.
type Service struct {
	notifier Notifier
}

// NewService builds the contact service. notifier may be nil when no
// delivery channel is configured; submissions are then only logged.
func NewService(notifier Notifier) *Service {
	return &Service{notifier: notifier}
}

// Submit validates and sanitizes the submission, then dispatches it
// asynchronously. The returned error is always a *ValidationError.
func (s *Service) Submit(ctx context.Context, sub Submission, requestID string) (Ack, error) {
	if err := sub.Validate(); err != nil {
		return Ack{}, err
	}

	preview := sub.Message
	if len(preview) > 100 {
		preview = preview[:100] + "..."
	}
	log.Printf("contact form submission: name=%s email=%s subject=%s message=%s request_id=%s",
		sub.Name, sub.Email, sub.Subject, preview, requestID)

	if s.notifier != nil {
		go func(sub Submission) {
			if err := s.notifier.Notify(context.Background(), sub); err != nil {
				log.Printf("contact notification dispatch failed (request_id=%s): %v", requestID, err)
			}
		}(sub)
	}

	return Ack{Message: "Message reçu avec succès!", RequestID: requestID}, nil
}
