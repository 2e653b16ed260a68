package scheduler

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const TaskQuoteNotification = "quotes.notification"

const TaskQuoteExpirySweep = "quotes.expiry_sweep"

// QuoteNotificationPayload is a queued quote email. It holds the client link,
// so it must never be logged as a whole.
type QuoteNotificationPayload struct {
	Kind       string    `json:"kind"`
	QuoteID    string    `json:"quoteId"`
	To         string    `json:"to"`
	ClientName string    `json:"clientName"`
	Link       string    `json:"link,omitempty"`
	TotalTTC   string    `json:"totalTtc,omitempty"`
	ValidUntil time.Time `json:"validUntil,omitempty"`
	ReasonText string    `json:"reasonText,omitempty"`
	Comment    string    `json:"comment,omitempty"`
}

func NewQuoteNotificationTask(payload QuoteNotificationPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskQuoteNotification, data, asynq.MaxRetry(5), asynq.Timeout(time.Minute)), nil
}

func ParseQuoteNotificationPayload(task *asynq.Task) (QuoteNotificationPayload, error) {
	var payload QuoteNotificationPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return QuoteNotificationPayload{}, err
	}
	return payload, nil
}

func NewQuoteExpirySweepTask() *asynq.Task {
	return asynq.NewTask(TaskQuoteExpirySweep, nil, asynq.MaxRetry(0))
}
