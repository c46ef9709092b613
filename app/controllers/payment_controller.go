package controllers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/getyoursite/getyoursite/internal/pkg/payment"
)

var paymentService *payment.Service

// InitializePaymentController wires the checkout endpoints. A nil service
// (no provider configured) makes the payment routes answer 503.
func InitializePaymentController(service *payment.Service) {
	paymentService = service
}

type checkoutRequest struct {
	PackageID string            `json:"package_id" form:"package_id"`
	Metadata  map[string]string `json:"metadata"`
}

// HandleCreateCheckout opens a checkout session for a catalog package.
// Prices come from the server-side catalog only; any amount in the body
// is ignored. Success and cancel URLs are derived from the request host
// so one backend serves every site domain.
func HandleCreateCheckout(c *fiber.Ctx) error {
	if paymentService == nil {
		return jsonError(c, fiber.StatusServiceUnavailable, "Paiements indisponibles")
	}
	if !requireJSONBody(c) {
		return nil
	}

	var req checkoutRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "Requête invalide")
	}

	proto := c.Get("X-Forwarded-Proto")
	if proto == "" {
		proto = c.Protocol()
	}

	result, err := paymentService.CreateCheckout(c.UserContext(), req.PackageID, c.Hostname(), proto, req.Metadata)
	if err != nil {
		if errors.Is(err, payment.ErrUnknownPackage) {
			return jsonError(c, fiber.StatusBadRequest, "Invalid package")
		}
		log.Printf("checkout creation failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "Erreur lors de la création de la session de paiement")
	}

	response := fiber.Map{
		"url":        result.URL,
		"session_id": result.SessionID,
		"amount":     payment.Euros(result.Amount),
		"currency":   result.Currency,
		"pizza_name": result.PizzaName,
	}
	if result.IsTest {
		response["status"] = result.Status
		response["message"] = result.Message
		response["is_test"] = true
	}
	return c.JSON(response)
}

// HandleCheckoutStatus reports the provider-authoritative state of a
// checkout session.
func HandleCheckoutStatus(c *fiber.Ctx) error {
	if paymentService == nil {
		return jsonError(c, fiber.StatusServiceUnavailable, "Paiements indisponibles")
	}

	snapshot, err := paymentService.GetStatus(c.UserContext(), c.Params("sessionId"))
	if err != nil {
		if errors.Is(err, payment.ErrSessionNotFound) {
			return jsonError(c, fiber.StatusBadRequest, "Session invalide")
		}
		log.Printf("checkout status lookup failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "Erreur lors de la récupération du statut")
	}

	return c.JSON(fiber.Map{
		"session_id":     snapshot.SessionID,
		"status":         snapshot.Status,
		"payment_status": snapshot.PaymentStatus,
		"amount_total":   payment.Euros(snapshot.AmountTotal),
		"currency":       snapshot.Currency,
		"pizza_name":     snapshot.PizzaName,
		"metadata":       snapshot.Metadata,
	})
}
