package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/Grupo-26-FIAP/hackaton-file-processor/internal/domain/port"
)

// NotificationPublisher sends JSON status payloads to an outbound queue.
type NotificationPublisher struct {
	queue port.Queue
}

func NewNotificationPublisher(q port.Queue) *NotificationPublisher {
	return &NotificationPublisher{queue: q}
}

func (p *NotificationPublisher) Notify(ctx context.Context, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	return p.queue.Send(ctx, body)
}

type errorNotification struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Stack     string    `json:"stack"`
	Timestamp time.Time `json:"timestamp"`
}

func (p *NotificationPublisher) NotifyError(ctx context.Context, err error) error {
	return p.Notify(ctx, errorNotification{
		Type:      "ERROR",
		Message:   err.Error(),
		Stack:     string(debug.Stack()),
		Timestamp: time.Now().UTC(),
	})
}

type deadLetterEnvelope struct {
	Reason    string    `json:"reason"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
}

// DLQPublisher records rejected messages on a dead-letter queue. The raw
// body is carried as a string because it may not be valid JSON.
type DLQPublisher struct {
	queue port.Queue
}

func NewDLQPublisher(q port.Queue) *DLQPublisher {
	return &DLQPublisher{queue: q}
}

func (p *DLQPublisher) PublishDeadLetter(ctx context.Context, body []byte, reason string) error {
	env, err := json.Marshal(deadLetterEnvelope{
		Reason:    reason,
		Body:      string(body),
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal dead letter: %w", err)
	}
	return p.queue.Send(ctx, env)
}
