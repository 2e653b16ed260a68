package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/shopspring/decimal"
)

//go:embed templates/*.html
var templateFS embed.FS

type baseEmailData struct {
	Title     string
	Heading   string
	CTALabel  string
	CTAURL    string
	Signature string
}

type quoteLinkEmailData struct {
	baseEmailData
	ClientName string
	QuoteID    string
	TotalTTC   string
	ValidUntil string
	Resend     bool
	Message    string
}

type quoteRefusedEmailData struct {
	baseEmailData
	ClientName string
	QuoteID    string
	ReasonText string
}

type quoteDecisionEmailData struct {
	baseEmailData
	ClientName string
	QuoteID    string
	Decision   string
	TotalTTC   string
	Comment    string
}

func renderEmailTemplate(name string, data any) (string, error) {
	templates := []string{"templates/base.html", "templates/" + name}
	tmpl, err := template.New("base.html").ParseFS(templateFS, templates...)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}

// formatEUR renders an amount the French way, e.g. "1 250,00 €".
func formatEUR(amount decimal.Decimal) string {
	fixed := amount.StringFixed(2)
	intPart, frac := fixed[:len(fixed)-3], fixed[len(fixed)-2:]

	neg := false
	if len(intPart) > 0 && intPart[0] == '-' {
		neg, intPart = true, intPart[1:]
	}
	var grouped []byte
	for i, c := range []byte(intPart) {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			grouped = append(grouped, ' ')
		}
		grouped = append(grouped, c)
	}
	out := string(grouped) + "," + frac + " €"
	if neg {
		out = "-" + out
	}
	return out
}

func formatDate(t time.Time) string {
	return t.Format("02/01/2006")
}
