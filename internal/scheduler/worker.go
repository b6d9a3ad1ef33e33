package scheduler

import (
	"context"
	"fmt"

	"travelquote_backend/internal/events"
	"travelquote_backend/internal/followup"
	"travelquote_backend/platform/config"
	"travelquote_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Worker consumes due follow-up call tasks, flips the persisted call to
// "due" and publishes the event the external voice subsystem listens for.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	calls  *followup.Repository
	bus    events.Bus
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, pool *pgxpool.Pool, bus events.Bus, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		calls:  followup.NewRepository(pool),
		bus:    bus,
		log:    log,
	}

	mux.HandleFunc(TaskFollowUpCallDue, w.handleFollowUpCallDue)

	return w, nil
}

func (w *Worker) handleFollowUpCallDue(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseFollowUpCallPayload(task)
	if err != nil {
		return err
	}

	callID, err := uuid.Parse(payload.CallID)
	if err != nil {
		return err
	}

	call, err := w.calls.GetByID(ctx, callID)
	if err != nil {
		return err
	}
	if call == nil {
		w.log.Warn("follow-up call vanished before dispatch", "call_id", payload.CallID)
		return nil
	}

	flipped, err := w.calls.MarkDue(ctx, callID)
	if err != nil {
		return err
	}
	if !flipped {
		// Already dispatched by a previous delivery of this task.
		return nil
	}

	if w.bus != nil {
		return w.bus.PublishSync(ctx, events.FollowUpCallDue{
			BaseEvent: events.NewBaseEvent(),
			CallID:    call.ID,
			TenantID:  call.TenantID,
			QuoteID:   call.QuoteID,
			Phone:     call.Phone,
		})
	}
	return nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
