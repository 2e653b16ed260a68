package transport

import (
	"time"

	"agency_backend/internal/quotes/domain"
	"agency_backend/internal/quotes/pricing"

	"github.com/shopspring/decimal"
)

// ── Requests ──────────────────────────────────────────────────────────────────

// ClientRequest is the customer snapshot entered in the funnel or the console.
type ClientRequest struct {
	Name    string `json:"name" validate:"required,min=1,max=120"`
	Email   string `json:"email" validate:"required,email,max=254"`
	Company string `json:"company" validate:"omitempty,max=120"`
	Address string `json:"address" validate:"omitempty,max=300"`
	Phone   string `json:"phone" validate:"omitempty,max=32,phone"`
}

// OptionRequest selects one catalogue option. Quantity may be left out for
// flat options.
type OptionRequest struct {
	Key      string `json:"key" validate:"required,max=64"`
	Quantity int    `json:"quantity" validate:"lte=1000"`
}

// ProjectRequest is what the client asks for. Unknown keys and negative
// counts are rejected by the pricing engine with the field they concern.
type ProjectRequest struct {
	OfferType   string          `json:"offerType" validate:"required,max=64"`
	ExtraPages  int             `json:"extraPages" validate:"lte=500"`
	Options     []OptionRequest `json:"options" validate:"omitempty,max=30,dive"`
	Description string          `json:"description" validate:"omitempty,max=4000"`
}

// CreateQuoteRequest opens a quote, as a draft from the console or as a
// pending request from the public funnel.
type CreateQuoteRequest struct {
	Client        ClientRequest  `json:"client" validate:"required"`
	Project       ProjectRequest `json:"project" validate:"required"`
	AffiliateCode string         `json:"affiliateCode" validate:"omitempty,max=32"`
}

// PreviewRequest prices a project without storing anything.
type PreviewRequest struct {
	Project       ProjectRequest `json:"project" validate:"required"`
	AffiliateCode string         `json:"affiliateCode" validate:"omitempty,max=32"`
}

// QuoteActionRequest is the body of PATCH /quotes/:id. Version, when given,
// must match the stored version or the action fails with a conflict.
type QuoteActionRequest struct {
	Action     string `json:"action" validate:"required,oneof=valider refuser accepter duplicate renvoyer mettre_en_attente"`
	Message    string `json:"message" validate:"omitempty,max=2000"`
	ReasonCode string `json:"reasonCode" validate:"omitempty,max=32"`
	Comment    string `json:"comment" validate:"omitempty,max=2000"`
	Version    *int   `json:"version" validate:"omitempty,gte=1"`
}

type DeleteQuoteRequest struct {
	Version *int `form:"version" validate:"omitempty,gte=1"`
}

type PaymentRequest struct {
	Status  string `json:"status" validate:"required,oneof=acompte_paye paye"`
	Version *int   `json:"version" validate:"omitempty,gte=1"`
}

type ListQuotesRequest struct {
	Status    string `form:"status" validate:"omitempty,max=32"`
	Search    string `form:"search" validate:"omitempty,max=100"`
	SortBy    string `form:"sortBy" validate:"omitempty,oneof=id status total createdAt updatedAt"`
	SortOrder string `form:"sortOrder" validate:"omitempty,oneof=asc desc"`
	Page      int    `form:"page" validate:"omitempty,min=1"`
	PageSize  int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

// ClientRefuseRequest is the client's answer when turning a quote down.
type ClientRefuseRequest struct {
	Comment string `json:"comment" validate:"omitempty,max=2000"`
}

// SaveContentRequest replaces the content draft. Version is the version read
// last, zero for a draft that was never saved.
type SaveContentRequest struct {
	Fields  map[string]string `json:"fields" validate:"required"`
	Version int               `json:"version" validate:"min=0"`
}

// ── Responses ─────────────────────────────────────────────────────────────────

// Warning reports a side effect that failed after the action was applied.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

const (
	WarningNotificationFailed   = "notification_failed"
	WarningAffiliateCodeIgnored = "affiliate_code_ignored"
)

// QuoteResponse is the admin view of a quote. Status is the effective status
// at read time.
type QuoteResponse struct {
	ID               string                `json:"id"`
	Status           domain.Status         `json:"status"`
	PaymentStatus    domain.PaymentStatus  `json:"paymentStatus"`
	Client           domain.Client         `json:"client"`
	Project          pricing.Project       `json:"project"`
	Amounts          pricing.Amounts       `json:"amounts"`
	AffiliateCode    string                `json:"affiliateCode,omitempty"`
	DiscountPercent  int                   `json:"discountPercent"`
	History          []domain.HistoryEntry `json:"history"`
	DuplicatedFrom   string                `json:"duplicatedFrom,omitempty"`
	PublicURL        string                `json:"publicUrl,omitempty"`
	AllowedActions   []string              `json:"allowedActions"`
	CreatedAt        time.Time             `json:"createdAt"`
	ValidityDeadline time.Time             `json:"validityDeadline"`
	UpdatedAt        time.Time             `json:"updatedAt"`
	Version          int                   `json:"version"`
}

// QuoteSummary is a list row.
type QuoteSummary struct {
	ID               string               `json:"id"`
	Status           domain.Status        `json:"status"`
	PaymentStatus    domain.PaymentStatus `json:"paymentStatus"`
	ClientName       string               `json:"clientName"`
	ClientEmail      string               `json:"clientEmail"`
	OfferType        string               `json:"offerType"`
	TotalTTC         decimal.Decimal      `json:"totalTtc"`
	CreatedAt        time.Time            `json:"createdAt"`
	ValidityDeadline time.Time            `json:"validityDeadline"`
	UpdatedAt        time.Time            `json:"updatedAt"`
}

type QuoteListResponse struct {
	Items      []QuoteSummary `json:"items"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
	TotalPages int            `json:"totalPages"`
}

// ActionResponse is returned by every admin write. For a duplicate, Quote is
// the new copy.
type ActionResponse struct {
	Quote    QuoteResponse `json:"quote"`
	Warnings []Warning     `json:"warnings,omitempty"`
}

// QuoteRequestResponse acknowledges a funnel request. The client link is not
// part of it: it is only sent once the agency validates the quote.
type QuoteRequestResponse struct {
	ID       string          `json:"id"`
	Status   domain.Status   `json:"status"`
	Amounts  pricing.Amounts `json:"amounts"`
	Warnings []Warning       `json:"warnings,omitempty"`
}

type PreviewResponse struct {
	Project         pricing.Project `json:"project"`
	Amounts         pricing.Amounts `json:"amounts"`
	DiscountPercent int             `json:"discountPercent"`
	Warnings        []Warning       `json:"warnings,omitempty"`
}

type CatalogResponse struct {
	Currency     string           `json:"currency"`
	PricePerPage decimal.Decimal  `json:"pricePerPage"`
	VATEnabled   bool             `json:"vatEnabled"`
	VATRate      decimal.Decimal  `json:"vatRate"`
	Offers       []pricing.Offer  `json:"offers"`
	Options      []pricing.Option `json:"options"`
}

// PublicQuoteResponse is what the client sees behind the link. It carries
// neither the history nor internal notes.
type PublicQuoteResponse struct {
	ID                string               `json:"id"`
	Status            domain.Status        `json:"status"`
	PaymentStatus     domain.PaymentStatus `json:"paymentStatus"`
	ClientName        string               `json:"clientName"`
	ClientCompany     string               `json:"clientCompany,omitempty"`
	Project           pricing.Project      `json:"project"`
	Amounts           pricing.Amounts      `json:"amounts"`
	DiscountPercent   int                  `json:"discountPercent"`
	CreatedAt         time.Time            `json:"createdAt"`
	ValidityDeadline  time.Time            `json:"validityDeadline"`
	CanRespond        bool                 `json:"canRespond"`
	CanCollectContent bool                 `json:"canCollectContent"`
}

type ContentDraftResponse struct {
	Fields    map[string]string `json:"fields"`
	UpdatedAt *time.Time        `json:"updatedAt,omitempty"`
	Version   int               `json:"version"`
}
