package contact

import (
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Field bounds mirror the public form limits.
const (
	NameMaxLen    = 100
	EmailMaxLen   = 254
	MessageMinLen = 10
	MessageMaxLen = 2000
	SubjectMaxLen = 150
)

// ErrValidation wraps every submission rejection; the message is the
// client-facing reason.
var ErrValidation = errors.New("validation failed")

// ValidationError carries the single human-readable reason a submission
// was refused. A submission is never half-accepted: the first failing rule
// rejects the whole thing.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Submission is one contact form post. It is validated, sanitized,
// dispatched and discarded; submissions are never persisted.
type Submission struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,email,max=254"`
	Subject string `json:"subject" validate:"omitempty,max=150"`
	Message string `json:"message" validate:"required,min=10,max=2000"`
}

var (
	validate = validator.New()

	// Letters (accents included), spaces, hyphens and apostrophes only.
	// Digits and markup delimiters are rejected outright.
	nameRe = regexp.MustCompile(`^[\p{L}][\p{L} '’-]*$`)

	htmlTagRe      = regexp.MustCompile(`<[^>]*>`)
	jsSchemeRe     = regexp.MustCompile(`(?i)javascript\s*:`)
	templateExprRe = regexp.MustCompile(`\{\{[^}]*\}\}|\$\{[^}]*\}`)
)

// Validate trims, checks and sanitizes the submission in place. Rule order
// is fixed and the first failure wins. Sanitization always runs on the
// accepted text: structurally valid input can still carry a payload.
func (s *Submission) Validate() error {
	s.Name = strings.TrimSpace(s.Name)
	s.Email = strings.TrimSpace(s.Email)
	s.Subject = strings.TrimSpace(s.Subject)
	s.Message = strings.TrimSpace(s.Message)

	if s.Name == "" || s.Email == "" || s.Message == "" {
		return &ValidationError{Reason: "Nom, email et message requis"}
	}

	if err := validate.Struct(s); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			return &ValidationError{Reason: reasonFor(fieldErrs)}
		}
		return &ValidationError{Reason: "Requête invalide"}
	}

	if !nameRe.MatchString(s.Name) {
		return &ValidationError{Reason: "Nom invalide"}
	}

	s.Subject = Sanitize(s.Subject)
	s.Message = Sanitize(s.Message)
	return nil
}

// reasonFor maps validator failures onto a single reason, checking length
// bounds before the email grammar so the reported rule order stays stable
// regardless of struct field order.
func reasonFor(errs validator.ValidationErrors) string {
	for _, fe := range errs {
		switch {
		case fe.Field() == "Name" && fe.Tag() == "max":
			return "Nom trop long (maximum 100 caractères)"
		case fe.Field() == "Email" && fe.Tag() == "max":
			return "Email trop long (maximum 254 caractères)"
		case fe.Field() == "Subject" && fe.Tag() == "max":
			return "Sujet trop long (maximum 150 caractères)"
		case fe.Field() == "Message" && fe.Tag() == "min":
			return "Message trop court (minimum 10 caractères)"
		case fe.Field() == "Message" && fe.Tag() == "max":
			return "Message trop long (maximum 2000 caractères)"
		}
	}
	for _, fe := range errs {
		if fe.Field() == "Email" && fe.Tag() == "email" {
			return "Email invalide"
		}
	}
	return "Requête invalide"
}

// Sanitize strips HTML markup and neutralizes script-significant sequences
// (javascript: scheme, {{..}} and ${..} template expressions) instead of
// storing or forwarding them verbatim.
func Sanitize(text string) string {
	out := htmlTagRe.ReplaceAllString(text, "")
	out = strings.ReplaceAll(out, "<", "&lt;")
	out = strings.ReplaceAll(out, ">", "&gt;")
	out = jsSchemeRe.ReplaceAllString(out, "")
	out = templateExprRe.ReplaceAllString(out, "")
	return strings.TrimSpace(out)
}
