package email

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatEUR(t *testing.T) {
	cases := map[string]string{
		"0":       "0,00 €",
		"12.5":    "12,50 €",
		"999.99":  "999,99 €",
		"1250":    "1 250,00 €",
		"1234567": "1 234 567,00 €",
		"-40":     "-40,00 €",
	}
	for in, want := range cases {
		assert.Equal(t, want, formatEUR(decimal.RequireFromString(in)), in)
	}
}

func TestRenderQuoteLinkTemplate(t *testing.T) {
	html, err := renderEmailTemplate("quote_link.html", quoteLinkEmailData{
		baseEmailData: baseEmailData{Heading: headingQuoteLink, CTALabel: ctaQuoteLink, CTAURL: "https://agence.example/devis/abc"},
		ClientName:    "Zoé <Durand>",
		QuoteID:       "DEV-2026-0007",
		TotalTTC:      formatEUR(decimal.NewFromInt(780)),
		ValidUntil:    formatDate(time.Date(2026, 6, 12, 0, 0, 0, 0, time.UTC)),
	})
	require.NoError(t, err)

	assert.Contains(t, html, "DEV-2026-0007")
	assert.Contains(t, html, "780,00 €")
	assert.Contains(t, html, "12/06/2026")
	assert.Contains(t, html, `href="https://agence.example/devis/abc"`)
	assert.Contains(t, html, "Zoé &lt;Durand&gt;", "client input must be escaped")
}

func TestRenderDecisionTemplate(t *testing.T) {
	html, err := renderEmailTemplate("quote_decision.html", quoteDecisionEmailData{
		baseEmailData: baseEmailData{Heading: headingQuoteDecision},
		ClientName:    "Hugo",
		QuoteID:       "DEV-2026-0002",
		Decision:      decisionDeclined,
		TotalTTC:      formatEUR(decimal.NewFromInt(300)),
		Comment:       "Trop cher pour nous cette année.",
	})
	require.NoError(t, err)
	assert.Contains(t, html, "Hugo a refusé le devis")
	assert.Contains(t, html, "Trop cher pour nous cette année.")
	assert.NotContains(t, html, "<a href", "admin notices carry no link")
}

func TestBuildMessage(t *testing.T) {
	s := NewSMTPSender("smtp.example", 587, "", "", "devis@agence.example", "Agence Pixel")

	msg, err := s.buildMessage("client@example.fr", "Votre devis DEV-2026-0001", "<p>ok</p>")
	require.NoError(t, err)
	require.Len(t, msg.GetFromString(), 1)
	assert.Contains(t, msg.GetFromString()[0], "devis@agence.example")
	assert.Contains(t, msg.GetFromString()[0], "Agence Pixel")
	require.Len(t, msg.GetToString(), 1)
	assert.Contains(t, msg.GetToString()[0], "client@example.fr")

	_, err = s.buildMessage("not an address", "x", "y")
	assert.Error(t, err)
}

func TestNoopSenderAcceptsEverything(t *testing.T) {
	var s Sender = NoopSender{}
	assert.NoError(t, s.SendQuoteLinkEmail(context.Background(), QuoteLinkEmail{}))
	assert.NoError(t, s.SendQuoteRefusedEmail(context.Background(), QuoteRefusedEmail{}))
	assert.NoError(t, s.SendQuoteDecisionEmail(context.Background(), QuoteDecisionEmail{}))
}
