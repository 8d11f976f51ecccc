// Package queue carries messages over RabbitMQ: the tier request queue and
// the ticket event feed. Queues are durable and messages persistent.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Channel is the slice of *amqp.Channel the publisher needs.
type Channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// session is one broker channel and the connection behind it. closed is
// signalled by the broker when the channel goes away; it is nil for
// channels that cannot report that.
type session struct {
	ch     Channel
	conn   io.Closer
	closed <-chan *amqp.Error
}

// Publisher publishes JSON messages to named queues on the default
// exchange, declaring each queue once per channel. A publisher made by
// Dial redials when its channel is closed.
type Publisher struct {
	mu       sync.Mutex
	dial     func() (*session, error)
	sess     *session
	declared map[string]bool
	logger   *slog.Logger
}

func Dial(url string, logger *slog.Logger) (*Publisher, error) {
	p := newRedialingPublisher(func() (*session, error) { return dialSession(url) }, logger)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

func dialSession(url string) (*session, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: dial failed: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq: channel open failed: %w", err)
	}
	return &session{ch: ch, conn: conn, closed: ch.NotifyClose(make(chan *amqp.Error, 1))}, nil
}

// NewPublisher publishes on ch for its whole lifetime.
func NewPublisher(ch Channel, logger *slog.Logger) *Publisher {
	p := newRedialingPublisher(nil, logger)
	p.sess = &session{ch: ch}
	return p
}

func newRedialingPublisher(dial func() (*session, error), logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{dial: dial, declared: map[string]bool{}, logger: logger}
}

func (p *Publisher) Publish(ctx context.Context, queue string, msg any) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("rabbitmq: marshal message: %w", err)
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.publish(ctx, queue, pub)
	if err != nil && p.dial != nil && isChannelClosed(err) {
		p.logger.Warn("rabbitmq: channel closed, redialing", "queue", queue, "error", err)
		p.drop()
		err = p.publish(ctx, queue, pub)
	}
	if err != nil {
		p.logger.Error("rabbitmq: publish failed", "queue", queue, "error", err)
		return err
	}
	return nil
}

func (p *Publisher) publish(ctx context.Context, queue string, pub amqp.Publishing) error {
	if p.sess == nil || p.sess.isClosed() {
		if p.dial == nil {
			return amqp.ErrClosed
		}
		if err := p.connect(); err != nil {
			return err
		}
	}

	if !p.declared[queue] {
		if _, err := p.sess.ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
			return fmt.Errorf("rabbitmq: queue declare failed: %w", err)
		}
		p.declared[queue] = true
	}
	return p.sess.ch.PublishWithContext(ctx, "", queue, false, false, pub)
}

// connect replaces the current session. Queues are declared again on the
// new channel.
func (p *Publisher) connect() error {
	p.drop()
	sess, err := p.dial()
	if err != nil {
		return err
	}
	p.sess = sess
	return nil
}

func (p *Publisher) drop() {
	if p.sess != nil {
		_ = p.sess.close()
		p.sess = nil
	}
	p.declared = map[string]bool{}
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.sess == nil {
		return nil
	}
	err := p.sess.close()
	p.sess = nil
	return err
}

func (s *session) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

func (s *session) close() error {
	err := s.ch.Close()
	if s.conn != nil {
		if cerr := s.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// isChannelClosed reports broker-side closures: amqp.ErrClosed and the
// channel or connection exceptions that close a channel.
func isChannelClosed(err error) bool {
	var amqpErr *amqp.Error
	return errors.As(err, &amqpErr)
}
