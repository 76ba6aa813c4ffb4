package port

import "context"

// NotificationPublisher sends status payloads to the outbound queue.
// Send failures propagate to the caller; whether they abort the enclosing
// operation is the caller's decision.
type NotificationPublisher interface {
	Notify(ctx context.Context, payload any) error
	NotifyError(ctx context.Context, err error) error
}

// DeadLetterPublisher records messages that can never succeed, wrapped
// with the reason they were rejected.
type DeadLetterPublisher interface {
	PublishDeadLetter(ctx context.Context, body []byte, reason string) error
}
