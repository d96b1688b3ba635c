// Package notification provides event handlers for sending notifications
// in response to domain events.
// This module subscribes to events and inverts the dependency: domain modules
// do not need to know about email providers, templates or the task queue.
package notification

import (
	"context"
	"fmt"
	"strings"

	"ecoleta_backend/internal/email"
	"ecoleta_backend/internal/events"
	"ecoleta_backend/internal/scheduler"
	"ecoleta_backend/platform/config"
	"ecoleta_backend/platform/logger"
)

// EmailQueue defers email delivery to the background worker.
type EmailQueue interface {
	EnqueuePointRegisteredEmail(ctx context.Context, payload scheduler.PointRegisteredEmailPayload) error
}

// Module sends the registration confirmation email and writes audit log
// entries for catalog and point changes.
type Module struct {
	sender  email.Sender
	queue   EmailQueue
	baseURL string
	log     *logger.Logger
}

// New creates the notification module. sender is used for inline delivery
// when no queue is configured.
func New(sender email.Sender, cfg config.PublicConfig, log *logger.Logger) *Module {
	return &Module{
		sender:  sender,
		baseURL: strings.TrimRight(cfg.GetAppBaseURL(), "/"),
		log:     log,
	}
}

// SetEmailQueue routes outgoing email through the task queue.
func (m *Module) SetEmailQueue(queue EmailQueue) { m.queue = queue }

// RegisterHandlers subscribes the module to the events it reacts to.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.PointRegistered{}.EventName(), m)
	bus.Subscribe(events.PointImageAttached{}.EventName(), m)
	bus.Subscribe(events.ItemCreated{}.EventName(), m)

	m.log.Info("notification module registered event handlers")
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.PointRegistered:
		return m.handlePointRegistered(ctx, e)
	case events.PointImageAttached:
		m.log.WithContext(ctx).Info("audit", "event", e.EventName(), "point_id", e.PointID.String(), "image_key", e.ImageKey)
		return nil
	case events.ItemCreated:
		m.log.WithContext(ctx).Info("audit", "event", e.EventName(), "item_id", e.ItemID.String(), "title", e.Title)
		return nil
	default:
		m.log.Warn("unhandled event type", "event", event.EventName())
		return nil
	}
}

func (m *Module) handlePointRegistered(ctx context.Context, e events.PointRegistered) error {
	if strings.TrimSpace(e.Email) == "" {
		return nil
	}

	payload := scheduler.PointRegisteredEmailPayload{
		PointID:  e.PointID.String(),
		Email:    e.Email,
		Name:     e.Name,
		City:     e.City,
		UF:       e.UF,
		PointURL: fmt.Sprintf("%s/points/%s", m.baseURL, e.PointID),
	}

	if m.queue != nil {
		if err := m.queue.EnqueuePointRegisteredEmail(ctx, payload); err != nil {
			m.log.Error("failed to enqueue point registered email, sending inline", "point_id", payload.PointID, "error", err)
		} else {
			return nil
		}
	}

	if m.sender == nil {
		return nil
	}
	return m.sender.SendPointRegistered(ctx, payload.Email, email.PointRegisteredEmail{
		PointID:  payload.PointID,
		Name:     payload.Name,
		City:     payload.City,
		UF:       payload.UF,
		PointURL: payload.PointURL,
	})
}
