package port

import "context"

// QueueMessage is one received message together with the opaque receipt
// handle needed to delete or release it.
type QueueMessage struct {
	ID            string
	Body          []byte
	ReceiptHandle string
}

// Queue is a point-to-point message queue with at-least-once delivery.
// Implementations must be safe for concurrent use.
type Queue interface {
	// Receive long-polls for up to max messages.
	Receive(ctx context.Context, max int) ([]QueueMessage, error)
	// Delete acknowledges a message so it is never redelivered.
	Delete(ctx context.Context, receiptHandle string) error
	// Release returns an unacknowledged message to the queue for
	// redelivery. Implementations whose broker redelivers on its own once
	// the visibility timeout expires may treat this as a no-op.
	Release(ctx context.Context, receiptHandle string) error
	Send(ctx context.Context, body []byte) error
}
