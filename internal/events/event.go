// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
//
// Quote events never carry the client token: subscribers that need the
// link load the quote by id.
package events

import (
	"agency_backend/platform/events"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Quote Domain Events
// =============================================================================

// QuoteCreated is published when a quote is opened, from the admin console
// or from the public request funnel.
type QuoteCreated struct {
	BaseEvent
	QuoteID       string `json:"quoteId"`
	Status        string `json:"status"`
	Actor         string `json:"actor"`
	AffiliateCode string `json:"affiliateCode,omitempty"`
	TotalTTC      string `json:"totalTtc"`
}

func (e QuoteCreated) EventName() string { return "quotes.quote.created" }

// QuoteStatusChanged is published after every persisted lifecycle transition,
// including lazily recorded expiries.
type QuoteStatusChanged struct {
	BaseEvent
	QuoteID    string `json:"quoteId"`
	FromStatus string `json:"fromStatus"`
	ToStatus   string `json:"toStatus"`
	Actor      string `json:"actor"`
	Action     string `json:"action"`
	Reason     string `json:"reason,omitempty"`
}

func (e QuoteStatusChanged) EventName() string { return "quotes.quote.status_changed" }

// QuoteAccepted is published when a quote reaches accepte, by the client or
// by an admin bypass.
type QuoteAccepted struct {
	BaseEvent
	QuoteID  string `json:"quoteId"`
	Actor    string `json:"actor"`
	TotalTTC string `json:"totalTtc"`
}

func (e QuoteAccepted) EventName() string { return "quotes.quote.accepted" }

// QuoteDuplicated is published when a quote is copied into a new draft.
type QuoteDuplicated struct {
	BaseEvent
	SourceQuoteID string `json:"sourceQuoteId"`
	QuoteID       string `json:"quoteId"`
}

func (e QuoteDuplicated) EventName() string { return "quotes.quote.duplicated" }

// QuoteDeleted is published after a refused or expired quote is removed.
type QuoteDeleted struct {
	BaseEvent
	QuoteID string `json:"quoteId"`
	Status  string `json:"status"`
}

func (e QuoteDeleted) EventName() string { return "quotes.quote.deleted" }

// QuotePaymentRecorded is published when the payment status moves forward.
type QuotePaymentRecorded struct {
	BaseEvent
	QuoteID       string `json:"quoteId"`
	PaymentStatus string `json:"paymentStatus"`
}

func (e QuotePaymentRecorded) EventName() string { return "quotes.quote.payment_recorded" }

// QuoteTokenRegenerated is published when an admin replaces the client link.
type QuoteTokenRegenerated struct {
	BaseEvent
	QuoteID string `json:"quoteId"`
}

func (e QuoteTokenRegenerated) EventName() string { return "quotes.quote.token_regenerated" }
