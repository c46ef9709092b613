package controllers

import (
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/getyoursite/getyoursite/internal/pkg/contact"
	"github.com/getyoursite/getyoursite/internal/pkg/hcaptcha"
	"github.com/getyoursite/getyoursite/internal/pkg/ratelimit"
	"github.com/getyoursite/getyoursite/internal/pkg/security"
)

// APIVersion is reported by the contact health endpoint.
const APIVersion = "1.0.0"

var (
	contactService *contact.Service
	contactLimiter *ratelimit.Limiter
)

// InitializeContactController wires the contact endpoints with their
// dependencies. Must run before the router installs the routes.
func InitializeContactController(service *contact.Service, limiter *ratelimit.Limiter) {
	contactService = service
	contactLimiter = limiter
}

// HandleContactHealth answers the GET health probe for the contact API.
func HandleContactHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message":   "API Contact GetYourSite",
		"status":    "active",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   APIVersion,
	})
}

type contactRequest struct {
	Name         string `json:"name" form:"name"`
	Email        string `json:"email" form:"email"`
	Subject      string `json:"subject" form:"subject"`
	Message      string `json:"message" form:"message"`
	CaptchaToken string `json:"captcha_token" form:"captcha_token"`
}

// HandleContactSubmit accepts a contact form submission. Rate limiting
// runs before body parsing so oversized or malformed floods are counted
// too; the limit headers are set on every response including denials.
func HandleContactSubmit(c *fiber.Ctx) error {
	decision := contactLimiter.Admit(c.UserContext(), GetClientIP(c), "contact")
	c.Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
	c.Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
	if !decision.Admitted {
		c.Set("Retry-After", strconv.Itoa(int(decision.RetryAfter.Seconds())))
		return jsonError(c, fiber.StatusTooManyRequests, "Trop de requêtes. Veuillez réessayer plus tard.")
	}

	if !requireJSONBody(c) {
		return nil
	}

	var req contactRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "Requête invalide")
	}

	if hcaptcha.Enabled() {
		if ok, err := hcaptcha.Verify(req.CaptchaToken); !ok {
			log.Printf("captcha verification failed: %v", err)
			return jsonError(c, fiber.StatusBadRequest, "Vérification anti-spam échouée")
		}
	}

	sub := contact.Submission{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
	}

	ack, err := contactService.Submit(c.UserContext(), sub, security.RequestID(c))
	if err != nil {
		var vErr *contact.ValidationError
		if errors.As(err, &vErr) {
			return jsonError(c, fiber.StatusBadRequest, vErr.Reason)
		}
		if errors.Is(err, contact.ErrValidation) {
			return jsonError(c, fiber.StatusBadRequest, "Requête invalide")
		}
		return jsonError(c, fiber.StatusInternalServerError, "Erreur interne du serveur")
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"message":   ack.Message,
		"requestId": ack.RequestID,
	})
}
