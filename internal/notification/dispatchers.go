package notification

import (
	"context"
	"fmt"

	"agency_backend/internal/email"
	"agency_backend/internal/scheduler"
	"agency_backend/platform/logger"

	"github.com/shopspring/decimal"
)

// EmailDispatcher renders and sends messages synchronously.
type EmailDispatcher struct {
	sender email.Sender
}

func NewEmailDispatcher(sender email.Sender) *EmailDispatcher {
	return &EmailDispatcher{sender: sender}
}

func (d *EmailDispatcher) Dispatch(ctx context.Context, m Message) error {
	switch m.Kind {
	case KindQuoteValidated, KindQuoteResent:
		return d.sender.SendQuoteLinkEmail(ctx, email.QuoteLinkEmail{
			To:         m.To,
			ClientName: m.ClientName,
			QuoteID:    m.QuoteID,
			Link:       m.Link,
			TotalTTC:   m.TotalTTC,
			ValidUntil: m.ValidUntil,
			Resend:     m.Kind == KindQuoteResent,
			Message:    m.Comment,
		})
	case KindQuoteRefused:
		return d.sender.SendQuoteRefusedEmail(ctx, email.QuoteRefusedEmail{
			To:         m.To,
			ClientName: m.ClientName,
			QuoteID:    m.QuoteID,
			ReasonText: m.ReasonText,
		})
	case KindClientAccepted, KindClientRefused:
		return d.sender.SendQuoteDecisionEmail(ctx, email.QuoteDecisionEmail{
			To:         m.To,
			ClientName: m.ClientName,
			QuoteID:    m.QuoteID,
			Accepted:   m.Kind == KindClientAccepted,
			TotalTTC:   m.TotalTTC,
			Comment:    m.Comment,
		})
	default:
		return fmt.Errorf("unknown notification kind %q", m.Kind)
	}
}

// Enqueuer is the scheduler client side of the queue.
type Enqueuer interface {
	EnqueueQuoteNotification(ctx context.Context, payload scheduler.QuoteNotificationPayload) error
}

// QueueDispatcher hands messages to the scheduler worker. A nil error means
// the message was queued, delivery happens later with retries.
type QueueDispatcher struct {
	queue Enqueuer
}

func NewQueueDispatcher(queue Enqueuer) *QueueDispatcher {
	return &QueueDispatcher{queue: queue}
}

func (d *QueueDispatcher) Dispatch(ctx context.Context, m Message) error {
	return d.queue.EnqueueQuoteNotification(ctx, toPayload(m))
}

// TaskHandler is the worker side of the queue.
type TaskHandler struct {
	next Dispatcher
}

func NewTaskHandler(next Dispatcher) *TaskHandler {
	return &TaskHandler{next: next}
}

func (h *TaskHandler) HandleQuoteNotification(ctx context.Context, p scheduler.QuoteNotificationPayload) error {
	m, err := fromPayload(p)
	if err != nil {
		return err
	}
	return h.next.Dispatch(ctx, m)
}

// LogDispatcher only writes a line per message. Used when no mail transport
// is configured.
type LogDispatcher struct {
	log *logger.Logger
}

func NewLogDispatcher(log *logger.Logger) *LogDispatcher {
	return &LogDispatcher{log: log}
}

func (d *LogDispatcher) Dispatch(ctx context.Context, m Message) error {
	d.log.WithContext(ctx).Info("notification",
		"kind", string(m.Kind),
		"quote_id", m.QuoteID,
		"to", m.To,
	)
	return nil
}

// Recorder counts delivery outcomes.
type Recorder interface {
	Notification(kind, result string)
}

type instrumented struct {
	next    Dispatcher
	metrics Recorder
}

// Instrument counts the outcome of every dispatch by kind.
func Instrument(next Dispatcher, metrics Recorder) Dispatcher {
	if metrics == nil {
		return next
	}
	return &instrumented{next: next, metrics: metrics}
}

func (d *instrumented) Dispatch(ctx context.Context, m Message) error {
	err := d.next.Dispatch(ctx, m)
	result := "ok"
	if err != nil {
		result = "error"
	}
	d.metrics.Notification(string(m.Kind), result)
	return err
}

func toPayload(m Message) scheduler.QuoteNotificationPayload {
	return scheduler.QuoteNotificationPayload{
		Kind:       string(m.Kind),
		QuoteID:    m.QuoteID,
		To:         m.To,
		ClientName: m.ClientName,
		Link:       m.Link,
		TotalTTC:   m.TotalTTC.StringFixed(2),
		ValidUntil: m.ValidUntil,
		ReasonText: m.ReasonText,
		Comment:    m.Comment,
	}
}

func fromPayload(p scheduler.QuoteNotificationPayload) (Message, error) {
	total := decimal.Zero
	if p.TotalTTC != "" {
		var err error
		if total, err = decimal.NewFromString(p.TotalTTC); err != nil {
			return Message{}, fmt.Errorf("invalid total in notification payload: %w", err)
		}
	}
	return Message{
		Kind:       Kind(p.Kind),
		QuoteID:    p.QuoteID,
		To:         p.To,
		ClientName: p.ClientName,
		Link:       p.Link,
		TotalTTC:   total,
		ValidUntil: p.ValidUntil,
		ReasonText: p.ReasonText,
		Comment:    p.Comment,
	}, nil
}
