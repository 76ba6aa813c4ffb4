package rabbitmq

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/Grupo-26-FIAP/hackaton-file-processor/internal/domain/port"
	amqp "github.com/rabbitmq/amqp091-go"
)

const pollInterval = 250 * time.Millisecond

// Queue adapts one RabbitMQ queue to the port.Queue contract using pull
// style basic.get. Unacknowledged deliveries are requeued by the broker,
// which plays the visibility-timeout role.
type Queue struct {
	channel  *amqp.Channel
	name     string
	waitTime time.Duration
}

func NewQueue(conn *amqp.Connection, name string, waitTime time.Duration) (*Queue, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("declare queue %s: %w", name, err)
	}
	return &Queue{channel: ch, name: name, waitTime: waitTime}, nil
}

// Receive collects up to max messages, waiting up to the configured
// bounded-wait interval when the queue is empty.
func (q *Queue) Receive(ctx context.Context, max int) ([]port.QueueMessage, error) {
	deadline := time.Now().Add(q.waitTime)
	var msgs []port.QueueMessage

	for len(msgs) < max {
		d, ok, err := q.channel.Get(q.name, false)
		if err != nil {
			return nil, fmt.Errorf("get from %s: %w", q.name, err)
		}
		if !ok {
			if len(msgs) > 0 || !time.Now().Before(deadline) {
				break
			}
			select {
			case <-ctx.Done():
				return msgs, ctx.Err()
			case <-time.After(pollInterval):
			}
			continue
		}
		msgs = append(msgs, port.QueueMessage{
			ID:            d.MessageId,
			Body:          d.Body,
			ReceiptHandle: strconv.FormatUint(d.DeliveryTag, 10),
		})
	}
	return msgs, nil
}

func (q *Queue) Delete(_ context.Context, receiptHandle string) error {
	tag, err := strconv.ParseUint(receiptHandle, 10, 64)
	if err != nil {
		return fmt.Errorf("parse receipt handle: %w", err)
	}
	if err := q.channel.Ack(tag, false); err != nil {
		return fmt.Errorf("ack %d on %s: %w", tag, q.name, err)
	}
	return nil
}

// Release negatively acknowledges the delivery so the broker requeues it.
func (q *Queue) Release(_ context.Context, receiptHandle string) error {
	tag, err := strconv.ParseUint(receiptHandle, 10, 64)
	if err != nil {
		return fmt.Errorf("parse receipt handle: %w", err)
	}
	if err := q.channel.Nack(tag, false, true); err != nil {
		return fmt.Errorf("nack %d on %s: %w", tag, q.name, err)
	}
	return nil
}

func (q *Queue) Send(ctx context.Context, body []byte) error {
	err := q.channel.PublishWithContext(ctx,
		"",
		q.name,
		false, false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
		},
	)
	if err != nil {
		return fmt.Errorf("publish to %s: %w", q.name, err)
	}
	return nil
}

func (q *Queue) Close() error {
	return q.channel.Close()
}
