package contact

import (
	"strings"
	"testing"
)

func TestSubmissionValidateRequiredFields(t *testing.T) {
	tests := []struct {
		name string
		sub  Submission
	}{
		{name: "all empty", sub: Submission{}},
		{name: "missing name", sub: Submission{Email: "a@b.fr", Message: "Bonjour, message valide"}},
		{name: "missing email", sub: Submission{Name: "Jean", Message: "Bonjour, message valide"}},
		{name: "missing message", sub: Submission{Name: "Jean", Email: "a@b.fr"}},
		{name: "blank after trim", sub: Submission{Name: "   ", Email: "a@b.fr", Message: "Bonjour, message valide"}},
	}

	for _, tt := range tests {
		err := tt.sub.Validate()
		if err == nil {
			t.Fatalf("%s: expected rejection", tt.name)
		}
		if err.Error() != "Nom, email et message requis" {
			t.Fatalf("%s: unexpected reason %q", tt.name, err.Error())
		}
	}
}

func TestSubmissionValidateMessageBounds(t *testing.T) {
	base := Submission{Name: "Jean Dupont", Email: "jean.dupont@example.com"}

	nine := base
	nine.Message = "123456789"
	if err := nine.Validate(); err == nil {
		t.Fatalf("9-character message must be rejected")
	}

	ten := base
	ten.Message = "1234567890"
	if err := ten.Validate(); err != nil {
		t.Fatalf("10-character message must be accepted, got %v", err)
	}

	long := base
	long.Message = strings.Repeat("x", 2001)
	if err := long.Validate(); err == nil {
		t.Fatalf("2001-character message must be rejected")
	}
}

func TestSubmissionValidateNameCharset(t *testing.T) {
	valid := []string{"Jean Dupont", "Éloïse Lefèvre", "Anne-Marie", "O'Brien", "José"}
	for _, name := range valid {
		sub := Submission{Name: name, Email: "a@b.fr", Message: "Bonjour, message valide"}
		if err := sub.Validate(); err != nil {
			t.Fatalf("name %q should be accepted, got %v", name, err)
		}
	}

	invalid := []string{"Jean2", "R2D2", "a<b>", "nom{{x}}", "12345"}
	for _, name := range invalid {
		sub := Submission{Name: name, Email: "a@b.fr", Message: "Bonjour, message valide"}
		err := sub.Validate()
		if err == nil {
			t.Fatalf("name %q should be rejected", name)
		}
	}
}

func TestSubmissionValidateEmail(t *testing.T) {
	sub := Submission{Name: "Jean", Email: "invalid-email-format", Message: "Bonjour, message valide"}
	err := sub.Validate()
	if err == nil {
		t.Fatalf("expected invalid email to be rejected")
	}
	if err.Error() != "Email invalide" {
		t.Fatalf("unexpected reason %q", err.Error())
	}
}

func TestSubmissionValidateSanitizesMessage(t *testing.T) {
	sub := Submission{
		Name:    "Jean Dupont",
		Email:   "jean@example.com",
		Subject: "Question {{7*7}}",
		Message: `Bonjour <script>alert('XSS')</script> voici javascript:alert(1) et ${7*7} merci beaucoup`,
	}
	if err := sub.Validate(); err != nil {
		t.Fatalf("structurally valid submission must pass, got %v", err)
	}

	for _, fragment := range []string{"<script>", "javascript:", "${7*7}", "{{7*7}}"} {
		if strings.Contains(sub.Message, fragment) || strings.Contains(sub.Subject, fragment) {
			t.Fatalf("payload fragment %q survived sanitization: %q / %q", fragment, sub.Subject, sub.Message)
		}
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "plain text stays", want: "plain text stays"},
		{in: "<img src=x onerror=alert('XSS')>", want: ""},
		{in: "prix < 20", want: "prix &lt; 20"},
		{in: "5 > 3", want: "5 &gt; 3"},
		{in: "JaVaScRiPt:alert(1)", want: "alert(1)"},
		{in: "x {{config}} y", want: "x  y"},
	}

	for _, tt := range tests {
		if got := Sanitize(tt.in); got != tt.want {
			t.Fatalf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
