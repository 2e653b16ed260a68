package email

const (
	subjectQuoteLinkFmt     = "Votre devis %s"
	subjectQuoteResentFmt   = "Rappel : votre devis %s"
	subjectQuoteRefusedFmt  = "Votre demande de devis %s"
	subjectQuoteAcceptedFmt = "Devis %s accepté par le client"
	subjectQuoteDeclinedFmt = "Devis %s refusé par le client"
	decisionAccepted        = "accepté"
	decisionDeclined        = "refusé"
	headingQuoteLink        = "Votre devis est prêt"
	headingQuoteResent      = "Votre devis vous attend"
	headingQuoteRefused     = "Votre demande de devis"
	headingQuoteDecision    = "Décision du client"
	ctaQuoteLink            = "Consulter le devis"
)
