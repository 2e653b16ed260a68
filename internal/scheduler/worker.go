package scheduler

import (
	"context"
	"fmt"

	"agency_backend/platform/config"
	"agency_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// NotificationHandler delivers a queued quote email.
type NotificationHandler interface {
	HandleQuoteNotification(ctx context.Context, payload QuoteNotificationPayload) error
}

// ExpirySweeper records the expiries that are only derived so far.
type ExpirySweeper interface {
	SweepExpired(ctx context.Context) (int, error)
}

type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	scheduler *asynq.Scheduler
	notifier  NotificationHandler
	sweeper   ExpirySweeper
	log       *logger.Logger
}

// NewWorker builds the asynq server. The expiry sweep runs on the configured
// cron spec such as "@every 1h"; an empty spec disables it.
func NewWorker(cfg config.SchedulerConfig, notifier NotificationHandler, sweeper ExpirySweeper, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL)
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetSchedulerConcurrency()
	if concurrency < 1 {
		concurrency = 5
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			defaultQueue: 1,
		},
	})

	w := &Worker{
		server:   server,
		mux:      asynq.NewServeMux(),
		notifier: notifier,
		sweeper:  sweeper,
		log:      log,
	}
	w.mux.HandleFunc(TaskQuoteNotification, w.handleQuoteNotification)
	w.mux.HandleFunc(TaskQuoteExpirySweep, w.handleQuoteExpirySweep)

	if sweepSpec := cfg.GetExpirySweepSpec(); sweeper != nil && sweepSpec != "" {
		w.scheduler = asynq.NewScheduler(opt, nil)
		if _, err := w.scheduler.Register(sweepSpec, NewQuoteExpirySweepTask(), asynq.Queue(defaultQueue)); err != nil {
			return nil, fmt.Errorf("register expiry sweep: %w", err)
		}
	}

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	if w.scheduler != nil {
		if err := w.scheduler.Start(); err != nil {
			w.log.Error("failed to start periodic scheduler", "error", err)
		} else {
			defer w.scheduler.Shutdown()
		}
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleQuoteNotification(ctx context.Context, task *asynq.Task) error {
	if w.notifier == nil {
		return nil
	}

	payload, err := ParseQuoteNotificationPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	if err := w.notifier.HandleQuoteNotification(ctx, payload); err != nil {
		w.log.NotificationFailed(payload.QuoteID, payload.Kind, err)
		return err
	}
	return nil
}

func (w *Worker) handleQuoteExpirySweep(ctx context.Context, _ *asynq.Task) error {
	if w.sweeper == nil {
		return nil
	}

	n, err := w.sweeper.SweepExpired(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		w.log.Info("expired quotes recorded", "count", n)
	}
	return nil
}
