package domain

import "agency_backend/platform/apperr"

// Messages shared by the repository and the service. NotFound always uses the
// same text whether the id, the token or the status was the reason.
const (
	MsgQuoteNotFound = "quote not found"
	MsgStaleQuote    = "the quote was modified concurrently, reload it and retry"
	MsgNotDeletable  = "only refused or expired quotes can be deleted"
	MsgContentLocked = "content collection opens once the quote is accepted and the deposit paid"
	MsgStaleDraft    = "the content draft was modified concurrently, reload it and retry"
	MsgNotResendable = "only sent quotes can be sent again"
)

// ErrQuoteNotFound returns the uniform not-found error.
func ErrQuoteNotFound() *apperr.Error {
	return apperr.NotFound(MsgQuoteNotFound)
}

func invalidPayment(status Status, msg string) *apperr.Error {
	return apperr.InvalidTransition(msg).WithDetails(map[string]string{"status": string(status)})
}
