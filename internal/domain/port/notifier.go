package port

import "context"

// FailureNotifier alerts an operator about messages that were dead-lettered
// and will not be retried.
type FailureNotifier interface {
	NotifyDeadLetter(ctx context.Context, reason string, body []byte) error
}
