package transport

import "time"

type UpsertAffiliateRequest struct {
	Name            string `json:"name" validate:"omitempty,max=120"`
	DiscountPercent *int   `json:"discountPercent" validate:"required,gte=0,lte=100"`
	Active          *bool  `json:"active" validate:"required"`
}

type AffiliateResponse struct {
	Code            string    `json:"code"`
	Name            string    `json:"name"`
	DiscountPercent int       `json:"discountPercent"`
	Active          bool      `json:"active"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type AffiliateListResponse struct {
	Items []AffiliateResponse `json:"items"`
}

// PublicAffiliateResponse is what the request funnel may show.
type PublicAffiliateResponse struct {
	Code            string `json:"code"`
	Name            string `json:"name"`
	DiscountPercent int    `json:"discountPercent"`
}
