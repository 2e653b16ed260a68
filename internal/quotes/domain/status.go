// Package domain holds the quote aggregate and its lifecycle rules. The
// transition table in this package is the only place that decides which
// status change an actor may make.
package domain

import (
	"fmt"

	"agency_backend/platform/apperr"
)

// Status is the lifecycle state of a quote. Values are stored and sent on the
// wire as-is and must never be renamed.
type Status string

const (
	StatusBrouillon    Status = "brouillon"
	StatusEnAttente    Status = "en_attente"
	StatusValide       Status = "valide"
	StatusConsulte     Status = "consulte"
	StatusAccepte      Status = "accepte"
	StatusRefuseAdmin  Status = "refuse_admin"
	StatusRefuseClient Status = "refuse_client"
	StatusExpire       Status = "expire"
	StatusTermine      Status = "termine"
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []Status{
	StatusBrouillon, StatusEnAttente, StatusValide, StatusConsulte, StatusAccepte,
	StatusRefuseAdmin, StatusRefuseClient, StatusExpire, StatusTermine,
}

// ParseStatus validates a wire value.
func ParseStatus(s string) (Status, error) {
	for _, st := range AllStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", apperr.FieldValidation("status", fmt.Sprintf("unknown status %q", s))
}

// IsTerminal reports whether no further lifecycle transition can leave s.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusAccepte, StatusRefuseAdmin, StatusRefuseClient, StatusExpire, StatusTermine:
		return true
	}
	return false
}

// IsDeletable reports whether a quote in s may be physically removed.
func (s Status) IsDeletable() bool {
	return s == StatusRefuseAdmin || s == StatusRefuseClient || s == StatusExpire
}

// IsSent reports whether the client link has been sent and the validity
// window is running.
func (s Status) IsSent() bool {
	return s == StatusValide || s == StatusConsulte
}

// IsPubliclyVisible reports whether the client link shows the quote. Other
// states answer exactly like an unknown token.
func (s Status) IsPubliclyVisible() bool {
	switch s {
	case StatusValide, StatusConsulte, StatusAccepte, StatusRefuseClient, StatusExpire:
		return true
	}
	return false
}

// PaymentStatus tracks deposits and payment, independently of the lifecycle.
type PaymentStatus string

const (
	PaymentEnAttente   PaymentStatus = "en_attente"
	PaymentAcomptePaye PaymentStatus = "acompte_paye"
	PaymentPaye        PaymentStatus = "paye"
)

func (p PaymentStatus) rank() int {
	switch p {
	case PaymentEnAttente:
		return 0
	case PaymentAcomptePaye:
		return 1
	case PaymentPaye:
		return 2
	}
	return -1
}

// ParsePaymentStatus validates a wire value.
func ParsePaymentStatus(s string) (PaymentStatus, error) {
	p := PaymentStatus(s)
	if p.rank() < 0 {
		return "", apperr.FieldValidation("paymentStatus", fmt.Sprintf("unknown payment status %q", s))
	}
	return p, nil
}

// AllowsContentCollection reports whether the deposit is paid, which opens the
// post-acceptance content form.
func (p PaymentStatus) AllowsContentCollection() bool {
	return p == PaymentAcomptePaye || p == PaymentPaye
}

// Actor is who performs an action.
type Actor string

const (
	ActorAdmin  Actor = "admin"
	ActorClient Actor = "client"
	ActorSystem Actor = "system"
)

// Action names a lifecycle action or a history-only event. Values are
// persisted in history.
type Action string

const (
	ActionCreated         Action = "cree"
	ActionDuplicated      Action = "duplique"
	ActionMettreEnAttente Action = "mettre_en_attente"
	ActionValider         Action = "valider"
	ActionRenvoyer        Action = "renvoyer"
	ActionRefuser         Action = "refuser"
	ActionAccepter        Action = "accepter"
	ActionConsulter       Action = "consulter"
	ActionVue             Action = "vue"
	ActionExpirer         Action = "expirer"
	ActionTokenRegenere   Action = "token_regenere"
	ActionPaiement        Action = "paiement"
)
