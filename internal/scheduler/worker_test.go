package scheduler

import (
	"context"
	"errors"
	"testing"

	"ecoleta_backend/internal/email"
	"ecoleta_backend/platform/logger"

	"github.com/hibiken/asynq"
)

type recordingSender struct {
	to   []string
	data []email.PointRegisteredEmail
	err  error
}

func (s *recordingSender) SendPointRegistered(_ context.Context, to string, data email.PointRegisteredEmail) error {
	s.to = append(s.to, to)
	s.data = append(s.data, data)
	return s.err
}

func TestWorkerSendsPointRegisteredEmail(t *testing.T) {
	sender := &recordingSender{}
	w := newWorker(sender, logger.Nop())

	task, err := NewPointRegisteredEmailTask(PointRegisteredEmailPayload{
		PointID:  "p1",
		Email:    "eco@example.com",
		Name:     "Ecoponto",
		City:     "Campinas",
		UF:       "SP",
		PointURL: "https://ecoleta.test/points/p1",
	})
	if err != nil {
		t.Fatalf("new task: %v", err)
	}
	if task.Type() != TaskPointRegisteredEmail {
		t.Fatalf("unexpected task type %q", task.Type())
	}

	if err := w.mux.ProcessTask(context.Background(), task); err != nil {
		t.Fatalf("process task: %v", err)
	}
	if len(sender.to) != 1 || sender.to[0] != "eco@example.com" {
		t.Fatalf("unexpected recipients %v", sender.to)
	}
	if got := sender.data[0]; got.City != "Campinas" || got.UF != "SP" || got.PointURL != "https://ecoleta.test/points/p1" {
		t.Fatalf("unexpected email data %+v", got)
	}
}

func TestWorkerSkipsRetryForMalformedPayload(t *testing.T) {
	sender := &recordingSender{}
	w := newWorker(sender, logger.Nop())

	cases := []struct {
		name    string
		payload []byte
	}{
		{name: "not json", payload: []byte("{")},
		{name: "missing email", payload: []byte(`{"pointId":"p1"}`)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := w.mux.ProcessTask(context.Background(), asynq.NewTask(TaskPointRegisteredEmail, tc.payload))
			if !errors.Is(err, asynq.SkipRetry) {
				t.Fatalf("expected SkipRetry, got %v", err)
			}
		})
	}
	if len(sender.to) != 0 {
		t.Fatalf("expected no email to be sent, got %d", len(sender.to))
	}
}

func TestWorkerReturnsSendFailureForRetry(t *testing.T) {
	sender := &recordingSender{err: errors.New("connection refused")}
	w := newWorker(sender, logger.Nop())

	task, err := NewPointRegisteredEmailTask(PointRegisteredEmailPayload{PointID: "p1", Email: "eco@example.com"})
	if err != nil {
		t.Fatalf("new task: %v", err)
	}

	err = w.mux.ProcessTask(context.Background(), task)
	if err == nil || errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected retryable error, got %v", err)
	}
}
