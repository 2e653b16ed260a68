package domain

import (
	"fmt"
	"strings"

	"agency_backend/platform/apperr"
)

// RefusalReason is the closed list of reasons an admin can give when turning
// a quote down.
type RefusalReason string

const (
	ReasonSpam       RefusalReason = "spam"
	ReasonTest       RefusalReason = "test"
	ReasonHorsSujet  RefusalReason = "hors_sujet"
	ReasonBudget     RefusalReason = "budget"
	ReasonConcurrent RefusalReason = "concurrent"
	ReasonAbandon    RefusalReason = "abandon"
	ReasonAutre      RefusalReason = "autre"
)

var reasonTemplates = map[RefusalReason]string{
	ReasonSpam:       "Demande identifiée comme indésirable.",
	ReasonTest:       "Demande de test, aucune suite donnée.",
	ReasonHorsSujet:  "Votre demande ne correspond pas aux prestations proposées par l'agence. Nous vous souhaitons de trouver le prestataire adapté à votre projet.",
	ReasonBudget:     "Après étude, le budget envisagé ne permet pas de réaliser ce projet dans de bonnes conditions. N'hésitez pas à revenir vers nous si votre budget évolue.",
	ReasonConcurrent: "Nous prenons note que vous avez choisi un autre prestataire. Merci de l'intérêt porté à l'agence.",
	ReasonAbandon:    "Nous prenons note de l'abandon de votre projet. Nous restons disponibles si celui-ci devait reprendre.",
	ReasonAutre:      "Nous ne sommes malheureusement pas en mesure de donner suite à votre demande.",
}

// ParseRefusalReason validates a reason code. An empty code is a
// MissingReason error, an unknown one a validation error.
func ParseRefusalReason(code string) (RefusalReason, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", apperr.MissingReason("a refusal reason is required").
			WithDetails(map[string]string{"field": "reasonCode"})
	}
	r := RefusalReason(code)
	if _, ok := reasonTemplates[r]; !ok {
		return "", apperr.FieldValidation("reasonCode", fmt.Sprintf("unknown refusal reason %q", code))
	}
	return r, nil
}

// Template is the client-facing text for the reason.
func (r RefusalReason) Template() string {
	return reasonTemplates[r]
}

// HistoryDetails is the text kept in history for a refusal: the reason
// template, then the admin comment when there is one.
func (r RefusalReason) HistoryDetails(comment string) string {
	if comment == "" {
		return r.Template()
	}
	return r.Template() + " : " + comment
}

// NotifiesClient reports whether a refusal for this reason is mailed to the
// client. Spam and test requests are closed silently.
func (r RefusalReason) NotifiesClient() bool {
	return r != ReasonSpam && r != ReasonTest
}
