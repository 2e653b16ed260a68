package scheduler

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"agency_backend/platform/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type redisOnly struct{ url, sweep string }

func (r redisOnly) GetRedisURL() string          { return r.url }
func (r redisOnly) GetSchedulerConcurrency() int { return 1 }
func (r redisOnly) IsRedisEnabled() bool         { return r.url != "" }
func (r redisOnly) GetExpirySweepSpec() string   { return r.sweep }
func (r redisOnly) GetWorkerMetricsAddr() string { return "" }

type recordingNotifier struct {
	got []QuoteNotificationPayload
	err error
}

func (n *recordingNotifier) HandleQuoteNotification(_ context.Context, p QuoteNotificationPayload) error {
	n.got = append(n.got, p)
	return n.err
}

func TestQuoteNotificationPayloadRoundTrip(t *testing.T) {
	in := QuoteNotificationPayload{
		Kind:       "quote_validated",
		QuoteID:    "DEV-2026-0003",
		To:         "client@example.fr",
		ClientName: "Inès",
		Link:       "https://agence.example/devis/abc",
		TotalTTC:   "780.00",
		ValidUntil: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	task, err := NewQuoteNotificationTask(in)
	require.NoError(t, err)
	assert.Equal(t, TaskQuoteNotification, task.Type())

	out, err := ParseQuoteNotificationPayload(task)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestHandleQuoteNotification(t *testing.T) {
	n := &recordingNotifier{}
	w := &Worker{notifier: n, log: logger.Discard()}

	task, err := NewQuoteNotificationTask(QuoteNotificationPayload{Kind: "quote_refused", QuoteID: "DEV-2026-0004"})
	require.NoError(t, err)
	require.NoError(t, w.handleQuoteNotification(context.Background(), task))
	require.Len(t, n.got, 1)
	assert.Equal(t, "DEV-2026-0004", n.got[0].QuoteID)

	n.err = errors.New("smtp down")
	assert.Error(t, w.handleQuoteNotification(context.Background(), task), "delivery errors are retried")

	bad := asynq.NewTask(TaskQuoteNotification, []byte("{"))
	err = w.handleQuoteNotification(context.Background(), bad)
	assert.True(t, errors.Is(err, asynq.SkipRetry), "malformed payloads are not retried")
}

type countingSweeper struct{ calls int }

func (s *countingSweeper) SweepExpired(context.Context) (int, error) {
	s.calls++
	return 2, nil
}

func TestHandleQuoteExpirySweep(t *testing.T) {
	s := &countingSweeper{}
	w := &Worker{sweeper: s, log: logger.Discard()}

	require.NoError(t, w.handleQuoteExpirySweep(context.Background(), NewQuoteExpirySweepTask()))
	assert.Equal(t, 1, s.calls)
}

func TestClientEnqueuesOnRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	c, err := NewClient(redisOnly{url: "redis://" + mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	require.NoError(t, c.EnqueueQuoteNotification(context.Background(), QuoteNotificationPayload{
		Kind:    "quote_validated",
		QuoteID: "DEV-2026-0005",
	}))

	pending := false
	for _, k := range mr.Keys() {
		if strings.Contains(k, "pending") {
			pending = true
		}
	}
	assert.True(t, pending, "expected a pending task key, got %v", mr.Keys())
}

func TestNewClientRequiresRedis(t *testing.T) {
	_, err := NewClient(redisOnly{})
	assert.Error(t, err)
}

func TestWorkerSweepFollowsConfiguredSpec(t *testing.T) {
	mr := miniredis.RunT(t)
	url := "redis://" + mr.Addr()
	s := &countingSweeper{}

	w, err := NewWorker(redisOnly{url: url, sweep: "@every 1h"}, nil, s, logger.Discard())
	require.NoError(t, err)
	assert.NotNil(t, w.scheduler)

	w, err = NewWorker(redisOnly{url: url}, nil, s, logger.Discard())
	require.NoError(t, err)
	assert.Nil(t, w.scheduler, "an empty spec disables the sweep")

	_, err = NewWorker(redisOnly{url: url, sweep: "whenever"}, nil, s, logger.Discard())
	assert.Error(t, err)
}
