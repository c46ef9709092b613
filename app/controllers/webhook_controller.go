package controllers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/getyoursite/getyoursite/internal/pkg/payment"
)

var webhookProcessor *payment.Processor

// InitializeWebhookController wires the provider webhook endpoint.
func InitializeWebhookController(processor *payment.Processor) {
	webhookProcessor = processor
}

// HandleStripeWebhook receives provider event deliveries. The raw body is
// verified against the Stripe-Signature header before anything is parsed;
// replays of recorded event ids are acknowledged without reprocessing.
func HandleStripeWebhook(c *fiber.Ctx) error {
	if webhookProcessor == nil {
		return jsonError(c, fiber.StatusServiceUnavailable, "Paiements indisponibles")
	}

	signature := c.Get("Stripe-Signature")
	if signature == "" {
		return jsonError(c, fiber.StatusBadRequest, "Missing stripe signature")
	}

	result, err := webhookProcessor.Handle(c.UserContext(), c.BodyRaw(), signature)
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrInvalidSignature):
			return jsonError(c, fiber.StatusBadRequest, "Invalid signature")
		case errors.Is(err, payment.ErrMalformedEvent):
			return jsonError(c, fiber.StatusBadRequest, "Invalid payload")
		default:
			log.Printf("webhook processing failed: %v", err)
			return jsonError(c, fiber.StatusInternalServerError, "Webhook processing failed")
		}
	}

	if result.Duplicate {
		log.Printf("duplicate webhook event acknowledged: %s", result.EventType)
	}
	return c.JSON(fiber.Map{"received": true})
}
