// Package notification delivers the quote emails: directly over SMTP, through
// the asynq queue, or to the log only. The caller decides what a failure
// means; dispatchers only report it.
package notification

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Kind identifies what a message tells its recipient.
type Kind string

const (
	KindQuoteValidated Kind = "quote_validated"
	KindQuoteResent    Kind = "quote_resent"
	KindQuoteRefused   Kind = "quote_refused"
	KindClientAccepted Kind = "client_accepted"
	KindClientRefused  Kind = "client_refused"
)

// Message is one notification. Link is the secret client URL and must never
// be logged. Comment is the agency's note on link emails and the client's
// comment on decision emails.
type Message struct {
	Kind       Kind
	QuoteID    string
	To         string
	ClientName string
	Link       string
	TotalTTC   decimal.Decimal
	ValidUntil time.Time
	ReasonText string
	Comment    string
}

// Dispatcher delivers messages.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg Message) error
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(ctx context.Context, msg Message) error

func (f DispatcherFunc) Dispatch(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}
