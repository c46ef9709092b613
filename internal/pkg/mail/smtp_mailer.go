package mail

import (
	"context"
	"fmt"
	"log"
	"net/smtp"
	"strings"

	"github.com/getyoursite/getyoursite/internal/pkg/contact"
	"github.com/getyoursite/getyoursite/internal/pkg/env"
)

// SendMail sends an email via SMTP using the configured relay.
func SendMail(to string, subject string, body string) error {
	host := env.GetEnv("SMTP_HOST", "")
	port := env.GetEnv("SMTP_PORT", "")
	username := env.GetEnv("SMTP_USERNAME", "")
	password := env.GetEnv("SMTP_PASSWORD", "")
	sender := env.GetEnv("SMTP_SENDER", "")

	if sender == "" {
		sender = fmt.Sprintf("no-reply@%s", "localhost")
		log.Printf("SMTP_SENDER not set, using default sender: %s", sender)
	}

	var auth smtp.Auth
	if username != "" && password != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}

	addr := fmt.Sprintf("%s:%s", host, port)

	msg := []byte(
		fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n", sender, to, subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/plain; charset=UTF-8\r\n\r\n" +
			body,
	)

	err := smtp.SendMail(addr, auth, sender, []string{to}, msg)
	if err != nil {
		log.Printf("SMTP send error: %v", err)
	} else {
		log.Printf("Email sent to %s via %s", to, addr)
	}
	return err
}

// ContactNotifier delivers contact submissions to the configured inbox.
// It implements contact.Notifier.
type ContactNotifier struct {
	recipient string
}

// NewContactNotifierFromEnv returns nil when no recipient is configured,
// which disables delivery without disabling the contact endpoint.
func NewContactNotifierFromEnv() *ContactNotifier {
	recipient := strings.TrimSpace(env.GetEnv("CONTACT_RECIPIENT", ""))
	if recipient == "" || env.GetEnv("SMTP_HOST", "") == "" {
		return nil
	}
	return &ContactNotifier{recipient: recipient}
}

func (n *ContactNotifier) Notify(_ context.Context, sub contact.Submission) error {
	subject := sub.Subject
	if subject == "" {
		subject = "Contact GetYourSite"
	}
	body := fmt.Sprintf("Nom: %s\nEmail: %s\n\nMessage:\n%s\n", sub.Name, sub.Email, sub.Message)
	return SendMail(n.recipient, subject, body)
}
