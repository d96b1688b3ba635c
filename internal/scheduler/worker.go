package scheduler

import (
	"context"
	"fmt"

	"ecoleta_backend/internal/email"
	"ecoleta_backend/platform/config"
	"ecoleta_backend/platform/logger"

	"github.com/hibiken/asynq"
)

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	sender email.Sender
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, sender email.Sender, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	w := newWorker(sender, log)
	w.server = server
	return w, nil
}

func newWorker(sender email.Sender, log *logger.Logger) *Worker {
	w := &Worker{
		mux:    asynq.NewServeMux(),
		sender: sender,
		log:    log,
	}
	w.mux.HandleFunc(TaskPointRegisteredEmail, w.handlePointRegisteredEmail)
	return w
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

func (w *Worker) handlePointRegisteredEmail(ctx context.Context, task *asynq.Task) error {
	payload, err := ParsePointRegisteredEmailPayload(task)
	if err != nil {
		w.log.Warn("dropping malformed task", "task", task.Type(), "error", err)
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	err = w.sender.SendPointRegistered(ctx, payload.Email, email.PointRegisteredEmail{
		PointID:  payload.PointID,
		Name:     payload.Name,
		City:     payload.City,
		UF:       payload.UF,
		PointURL: payload.PointURL,
	})
	if err != nil {
		return fmt.Errorf("send point registered email %s: %w", payload.PointID, err)
	}

	w.log.Info("point registered email sent", "point_id", payload.PointID)
	return nil
}
