package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Handler processes one message body. A returned error rejects the
// message: it is requeued once, and dropped if it fails again.
type Handler func(ctx context.Context, body []byte) error

// Consume dials url and feeds every message on queue to handle until ctx
// is done, reconnecting with backoff whenever the broker goes away.
func Consume(ctx context.Context, url, queue string, prefetch int, handle Handler, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			logger.Warn("consumer: failed to dial broker", "queue", queue, "error", err, "retry_in", backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = consumeLoop(ctx, conn, queue, prefetch, handle, logger)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warn("consumer: consume loop ended, reconnecting", "queue", queue, "error", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, queue string, prefetch int, handle Handler, logger *slog.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(prefetch, 0, false); err != nil {
		logger.Warn("consumer: set QoS failed", "error", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			Dispatch(ctx, d, handle, logger)
		}
	}
}

// Dispatch runs handle on one delivery and settles it.
func Dispatch(ctx context.Context, d amqp.Delivery, handle Handler, logger *slog.Logger) {
	err := handle(ctx, d.Body)
	if err == nil {
		_ = d.Ack(false)
		return
	}

	requeue := !d.Redelivered
	logger.Error("consumer: handle message failed", "message_id", d.MessageId, "redelivered", d.Redelivered, "requeue", requeue, "error", err)
	_ = d.Nack(false, requeue)
}

func sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
