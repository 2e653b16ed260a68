// Package email renders and delivers the quote emails.
package email

import (
	"context"
	"time"

	"agency_backend/platform/config"

	"github.com/shopspring/decimal"
)

// QuoteLinkEmail carries the client link of a validated or resent quote.
type QuoteLinkEmail struct {
	To         string
	ClientName string
	QuoteID    string
	Link       string
	TotalTTC   decimal.Decimal
	ValidUntil time.Time
	Resend     bool
	// Message is the optional personal note written by the agency.
	Message string
}

// QuoteRefusedEmail tells the client their request was turned down.
type QuoteRefusedEmail struct {
	To         string
	ClientName string
	QuoteID    string
	ReasonText string
}

// QuoteDecisionEmail tells the agency what the client decided.
type QuoteDecisionEmail struct {
	To         string
	ClientName string
	QuoteID    string
	Accepted   bool
	TotalTTC   decimal.Decimal
	Comment    string
}

type Sender interface {
	SendQuoteLinkEmail(ctx context.Context, msg QuoteLinkEmail) error
	SendQuoteRefusedEmail(ctx context.Context, msg QuoteRefusedEmail) error
	SendQuoteDecisionEmail(ctx context.Context, msg QuoteDecisionEmail) error
}

type NoopSender struct{}

func (NoopSender) SendQuoteLinkEmail(ctx context.Context, msg QuoteLinkEmail) error {
	return nil
}

func (NoopSender) SendQuoteRefusedEmail(ctx context.Context, msg QuoteRefusedEmail) error {
	return nil
}

func (NoopSender) SendQuoteDecisionEmail(ctx context.Context, msg QuoteDecisionEmail) error {
	return nil
}

// NewSender returns the SMTP sender, or a NoopSender when no SMTP host is set.
func NewSender(cfg config.SMTPConfig) (Sender, error) {
	if !cfg.IsSMTPEnabled() {
		return NoopSender{}, nil
	}
	return NewSMTPSender(
		cfg.GetSMTPHost(),
		cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(),
		cfg.GetEmailFromName(),
	), nil
}
