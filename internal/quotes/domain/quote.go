package domain

import (
	"fmt"
	"time"

	"agency_backend/internal/quotes/pricing"

	"github.com/google/uuid"
)

// Client is the customer snapshot copied into the quote at creation. Later
// edits of the customer record never reach issued quotes.
type Client struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Company string `json:"company,omitempty"`
	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

// HistoryEntry is one audit record. Entries are only ever appended.
type HistoryEntry struct {
	ID      uuid.UUID     `json:"id"`
	Date    time.Time     `json:"date"`
	Action  Action        `json:"action"`
	Actor   Actor         `json:"actor"`
	From    Status        `json:"from,omitempty"`
	To      Status        `json:"to,omitempty"`
	Reason  RefusalReason `json:"reason,omitempty"`
	Details string        `json:"details,omitempty"`
}

// IsTransition reports whether the entry records a status change.
func (h HistoryEntry) IsTransition() bool {
	return h.To != ""
}

// Quote is the devis aggregate.
type Quote struct {
	ID               string
	Token            string
	Status           Status
	PaymentStatus    PaymentStatus
	Client           Client
	Project          pricing.Project
	Amounts          pricing.Amounts
	AffiliateCode    string
	DiscountPercent  int
	History          []HistoryEntry
	DuplicatedFrom   string
	CreatedAt        time.Time
	// ValidityDeadline is CreatedAt plus the validity window until the quote
	// is sent. Validating restarts the window from the send time, so on a sent
	// quote it is not CreatedAt + 8 days.
	ValidityDeadline time.Time
	UpdatedAt        time.Time
	// Version is the optimistic concurrency counter, bumped by every write.
	Version int
}

// NewParams carries what is needed to open a quote.
type NewParams struct {
	ID              string
	Token           string
	Status          Status
	Actor           Actor
	Client          Client
	Project         pricing.Project
	AffiliateCode   string
	DiscountPercent int
	Now             time.Time
	Validity        time.Duration
	Details         string
}

// New opens a quote in brouillon or en_attente with amounts computed from the
// project and a single creation entry in its history.
func New(p NewParams) (*Quote, error) {
	if p.Status != StatusBrouillon && p.Status != StatusEnAttente {
		return nil, fmt.Errorf("quotes are created in %s or %s, not %s", StatusBrouillon, StatusEnAttente, p.Status)
	}
	amounts, err := pricing.ComputeAmounts(p.Project, p.DiscountPercent)
	if err != nil {
		return nil, err
	}

	q := &Quote{
		ID:               p.ID,
		Token:            p.Token,
		Status:           p.Status,
		PaymentStatus:    PaymentEnAttente,
		Client:           p.Client,
		Project:          p.Project,
		Amounts:          amounts,
		AffiliateCode:    p.AffiliateCode,
		DiscountPercent:  p.DiscountPercent,
		CreatedAt:        p.Now,
		ValidityDeadline: p.Now.Add(p.Validity),
		UpdatedAt:        p.Now,
	}
	q.appendEntry(HistoryEntry{
		Date:    p.Now,
		Action:  ActionCreated,
		Actor:   p.Actor,
		To:      p.Status,
		Details: p.Details,
	})
	return q, nil
}

// Duplicate builds an independent copy of q in brouillon under a new id and
// token. Amounts are recomputed from the copied project and the history starts
// over with one entry pointing at the source.
func (q *Quote) Duplicate(newID, newToken string, now time.Time, validity time.Duration) (*Quote, error) {
	amounts, err := pricing.ComputeAmounts(q.Project, q.DiscountPercent)
	if err != nil {
		return nil, err
	}

	project := q.Project
	project.Options = append([]pricing.SelectedOption(nil), q.Project.Options...)

	dup := &Quote{
		ID:               newID,
		Token:            newToken,
		Status:           StatusBrouillon,
		PaymentStatus:    PaymentEnAttente,
		Client:           q.Client,
		Project:          project,
		Amounts:          amounts,
		AffiliateCode:    q.AffiliateCode,
		DiscountPercent:  q.DiscountPercent,
		DuplicatedFrom:   q.ID,
		CreatedAt:        now,
		ValidityDeadline: now.Add(validity),
		UpdatedAt:        now,
	}
	dup.appendEntry(HistoryEntry{
		Date:    now,
		Action:  ActionDuplicated,
		Actor:   ActorAdmin,
		To:      StatusBrouillon,
		Details: "Dupliqué depuis " + q.ID,
	})
	return dup, nil
}

// IsExpiredAt reports whether a sent quote has passed its validity deadline.
func (q *Quote) IsExpiredAt(now time.Time) bool {
	return q.Status.IsSent() && now.After(q.ValidityDeadline)
}

// EffectiveStatus is the status a reader must see at now: a sent quote past
// its deadline reads as expire even before the expiry is persisted.
func (q *Quote) EffectiveStatus(now time.Time) Status {
	if q.IsExpiredAt(now) {
		return StatusExpire
	}
	return q.Status
}

// MaterializeExpiry records a pending expiry as a system transition. It
// returns true when the quote changed and must be written.
func (q *Quote) MaterializeExpiry(now time.Time) bool {
	if !q.IsExpiredAt(now) {
		return false
	}
	err := q.Transition(now, ActorSystem, ActionExpirer, TransitionDetails{
		Details: "Délai de validité dépassé le " + q.ValidityDeadline.Format("02/01/2006 15:04"),
	})
	return err == nil
}

// TransitionDetails carries the optional payload of a transition.
type TransitionDetails struct {
	Reason  RefusalReason
	Details string
}

// Transition applies one lifecycle step from the transition table and appends
// exactly one history entry. On error the quote is left untouched.
func (q *Quote) Transition(now time.Time, actor Actor, action Action, d TransitionDetails) error {
	to, err := Next(q.Status, actor, action)
	if err != nil {
		return err
	}
	from := q.Status
	q.Status = to
	q.UpdatedAt = now
	q.appendEntry(HistoryEntry{
		Date:    now,
		Action:  action,
		Actor:   actor,
		From:    from,
		To:      to,
		Reason:  d.Reason,
		Details: d.Details,
	})
	return nil
}

// RecordView handles a client opening the link. The first view of a sent
// quote moves it to consulte; later views of a consulted quote only leave a
// "vue" entry. It returns whether the status changed, and whether anything was
// recorded at all.
func (q *Quote) RecordView(now time.Time) (firstView bool, recorded bool) {
	switch q.Status {
	case StatusValide:
		if err := q.Transition(now, ActorClient, ActionConsulter, TransitionDetails{}); err != nil {
			return false, false
		}
		return true, true
	case StatusConsulte:
		q.Note(now, ActorClient, ActionVue, "")
		return false, true
	}
	return false, false
}

// Note appends a history entry that does not change the status, such as a
// resend or a payment update.
func (q *Quote) Note(now time.Time, actor Actor, action Action, details string) {
	q.UpdatedAt = now
	q.appendEntry(HistoryEntry{Date: now, Action: action, Actor: actor, Details: details})
}

// RestartValidity starts a fresh validity window, used when the quote is sent.
func (q *Quote) RestartValidity(now time.Time, validity time.Duration) {
	q.ValidityDeadline = now.Add(validity)
}

// AdvancePayment moves the payment status forward. Payments are only tracked
// on accepted quotes and never go backwards.
func (q *Quote) AdvancePayment(now time.Time, to PaymentStatus) error {
	if q.Status != StatusAccepte && q.Status != StatusTermine {
		return invalidPayment(q.Status, "payments are only recorded on accepted quotes")
	}
	if to.rank() <= q.PaymentStatus.rank() {
		return invalidPayment(q.Status, fmt.Sprintf("payment status cannot go from %s to %s", q.PaymentStatus, to))
	}
	from := q.PaymentStatus
	q.PaymentStatus = to
	q.Note(now, ActorAdmin, ActionPaiement, fmt.Sprintf("Paiement : %s → %s", from, to))
	return nil
}

// Recompute prices the stored project again. A stored quote must always
// reproduce its cached amounts.
func (q *Quote) Recompute() (pricing.Amounts, error) {
	return pricing.ComputeAmounts(q.Project, q.DiscountPercent)
}

func (q *Quote) appendEntry(e HistoryEntry) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	q.History = append(q.History, e)
}
