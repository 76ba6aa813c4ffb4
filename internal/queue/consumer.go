package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Grupo-26-FIAP/hackaton-file-processor/internal/domain/port"
	"go.uber.org/zap"
)

// MessageHandler processes one raw message body. A nil return means the
// message was durably handled and may be deleted from the queue.
type MessageHandler func(ctx context.Context, body []byte) error

type ConsumerConfig struct {
	// MaxMessages is the receive batch size and the only concurrency
	// bound: at most one batch is in flight per consumer.
	MaxMessages int
	// RetryDelay is slept after a failed receive before polling again.
	RetryDelay time.Duration
	// FIFO forces a batch size of 1 and strictly sequential
	// receive, handle, ack rounds.
	FIFO bool
}

// Consumer long-polls one input queue and fans received messages out to
// the handler. Messages are deleted only after the handler returns nil;
// handler failures leave the message for redelivery.
type Consumer struct {
	queue    port.Queue
	handler  MessageHandler
	logger   *zap.Logger
	cfg      ConsumerConfig
	started  atomic.Bool
	stopOnce sync.Once
	stopCh   chan struct{}
}

func NewConsumer(q port.Queue, handler MessageHandler, cfg ConsumerConfig, logger *zap.Logger) *Consumer {
	if cfg.MaxMessages <= 0 {
		cfg.MaxMessages = 1
	}
	return &Consumer{
		queue:   q,
		handler: handler,
		logger:  logger,
		cfg:     cfg,
		stopCh:  make(chan struct{}),
	}
}

// Start polls until ctx is cancelled or Stop is called. Safe to call once.
func (c *Consumer) Start(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return errors.New("consumer already started")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-c.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	max := c.cfg.MaxMessages
	if c.cfg.FIFO {
		max = 1
	}

	c.logger.Info("consumer started",
		zap.Int("max_messages", max),
		zap.Bool("fifo", c.cfg.FIFO),
	)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("consumer stopped")
			return nil
		default:
		}

		msgs, err := c.queue.Receive(ctx, max)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("consumer stopped")
				return nil
			}
			c.logger.Error("failed to receive messages", zap.Error(err))
			select {
			case <-time.After(c.cfg.RetryDelay):
			case <-ctx.Done():
			}
			continue
		}
		if len(msgs) == 0 {
			continue
		}

		c.logger.Debug("received messages", zap.Int("count", len(msgs)))

		if c.cfg.FIFO {
			for _, m := range msgs {
				c.process(ctx, m)
			}
			continue
		}

		var wg sync.WaitGroup
		for _, m := range msgs {
			wg.Add(1)
			go func(m port.QueueMessage) {
				defer wg.Done()
				c.process(ctx, m)
			}(m)
		}
		wg.Wait()
	}
}

// Stop signals the loop to exit after the current round. In-flight work is
// not aborted.
func (c *Consumer) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
}

func (c *Consumer) process(ctx context.Context, m port.QueueMessage) {
	// In-flight processing runs to completion even if the consumer is
	// stopping, so job state and queue deletion stay consistent.
	hctx := context.WithoutCancel(ctx)

	if err := c.handler(hctx, m.Body); err != nil {
		c.logger.Error("message processing failed, leaving for redelivery",
			zap.String("message_id", m.ID),
			zap.Error(err),
		)
		if rerr := c.queue.Release(hctx, m.ReceiptHandle); rerr != nil {
			c.logger.Error("failed to release message", zap.String("message_id", m.ID), zap.Error(rerr))
		}
		return
	}

	if err := c.queue.Delete(hctx, m.ReceiptHandle); err != nil {
		// The job was durably handled; the message may be redelivered and
		// downstream processing must tolerate the duplicate.
		c.logger.Error("failed to delete message", zap.String("message_id", m.ID), zap.Error(err))
		return
	}

	c.logger.Info("message processed", zap.String("message_id", m.ID))
}
