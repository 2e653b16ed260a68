package domain

import (
	"time"

	"agency_backend/platform/apperr"
)

const (
	maxDraftFields     = 50
	maxDraftFieldKey   = 64
	maxDraftFieldValue = 10000
)

// ContentDraft is the content the client fills in after accepting and paying
// the deposit (texts, page list, brand notes). It is saved on its own and
// never touches the quote lifecycle.
type ContentDraft struct {
	QuoteID   string
	Fields    map[string]string
	UpdatedAt time.Time
	// Version is zero for a draft that was never saved.
	Version int
}

// CanCollectContent reports whether the client may read or write the draft.
func (q *Quote) CanCollectContent() bool {
	return q.Status == StatusAccepte && q.PaymentStatus.AllowsContentCollection()
}

// ValidateDraftFields bounds the size of a submitted draft.
func ValidateDraftFields(fields map[string]string) error {
	if len(fields) > maxDraftFields {
		return apperr.FieldValidation("fields", "too many fields")
	}
	for k, v := range fields {
		if k == "" || len(k) > maxDraftFieldKey {
			return apperr.FieldValidation("fields", "invalid field name")
		}
		if len(v) > maxDraftFieldValue {
			return apperr.FieldValidation("fields."+k, "value too long")
		}
	}
	return nil
}
