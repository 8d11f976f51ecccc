package queue

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/srgjo27/tiered_ticket/internal/core/domain"
)

type mockChannel struct {
	mock.Mock
}

func (m *mockChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	ret := m.Called(name, durable, autoDelete, exclusive, noWait, args)
	return amqp.Queue{Name: name}, ret.Error(0)
}

func (m *mockChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	return m.Called(ctx, exchange, key, mandatory, immediate, msg).Error(0)
}

func (m *mockChannel) Close() error {
	return m.Called().Error(0)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeAcknowledger struct {
	acked, nacked, requeued bool
}

func (f *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	f.acked = true
	return nil
}

func (f *fakeAcknowledger) Nack(tag uint64, multiple, requeue bool) error {
	f.nacked = true
	f.requeued = requeue
	return nil
}

func (f *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	return f.Nack(tag, false, requeue)
}

func TestPublisher_DeclaresOnceAndPublishesPersistentJSON(t *testing.T) {
	ctx := context.Background()
	ch := new(mockChannel)
	pub := NewPublisher(ch, nil)

	ch.On("QueueDeclare", "tier.requests", true, false, false, false, amqp.Table(nil)).Return(nil).Once()
	ch.On("PublishWithContext", ctx, "", "tier.requests", false, false, mock.MatchedBy(func(p amqp.Publishing) bool {
		var body map[string]string
		return p.DeliveryMode == amqp.Persistent &&
			p.ContentType == "application/json" &&
			json.Unmarshal(p.Body, &body) == nil && body["kind"] == "DELEGATE"
	})).Return(nil).Twice()

	msg := map[string]string{"kind": "DELEGATE"}
	require.NoError(t, pub.Publish(ctx, "tier.requests", msg))
	require.NoError(t, pub.Publish(ctx, "tier.requests", msg))

	ch.AssertExpectations(t)
}

func TestPublisher_SurfacesBrokerErrors(t *testing.T) {
	ctx := context.Background()
	ch := new(mockChannel)
	pub := NewPublisher(ch, nil)

	ch.On("QueueDeclare", "tier.requests", true, false, false, false, amqp.Table(nil)).Return(errors.New("channel closed")).Once()
	assert.Error(t, pub.Publish(ctx, "tier.requests", struct{}{}))

	ch.On("QueueDeclare", "tier.requests", true, false, false, false, amqp.Table(nil)).Return(nil).Once()
	ch.On("PublishWithContext", ctx, "", "tier.requests", false, false, mock.Anything).Return(errors.New("connection reset")).Once()
	assert.Error(t, pub.Publish(ctx, "tier.requests", struct{}{}))

	ch.AssertExpectations(t)
}

func TestPublisher_RedialsAfterChannelClosed(t *testing.T) {
	ctx := context.Background()
	first, second := new(mockChannel), new(mockChannel)

	first.On("QueueDeclare", "tier.requests", true, false, false, false, amqp.Table(nil)).Return(nil).Once()
	first.On("PublishWithContext", ctx, "", "tier.requests", false, false, mock.Anything).Return(amqp.ErrClosed).Once()
	first.On("Close").Return(nil).Once()
	second.On("QueueDeclare", "tier.requests", true, false, false, false, amqp.Table(nil)).Return(nil).Once()
	second.On("PublishWithContext", ctx, "", "tier.requests", false, false, mock.Anything).Return(nil).Twice()

	channels := []*mockChannel{first, second}
	dials := 0
	pub := newRedialingPublisher(func() (*session, error) {
		ch := channels[dials]
		dials++
		return &session{ch: ch}, nil
	}, testLogger())

	require.NoError(t, pub.Publish(ctx, "tier.requests", map[string]string{"kind": "DELEGATE"}))
	require.NoError(t, pub.Publish(ctx, "tier.requests", map[string]string{"kind": "COMMIT"}))

	assert.Equal(t, 2, dials)
	first.AssertExpectations(t)
	second.AssertExpectations(t)
}

func TestPublisher_RedialsWhenBrokerClosesChannel(t *testing.T) {
	ctx := context.Background()
	first, second := new(mockChannel), new(mockChannel)
	closed := make(chan *amqp.Error, 1)

	first.On("QueueDeclare", "tier.requests", true, false, false, false, amqp.Table(nil)).Return(nil).Once()
	first.On("PublishWithContext", ctx, "", "tier.requests", false, false, mock.Anything).Return(nil).Once()
	first.On("Close").Return(nil).Once()
	second.On("QueueDeclare", "tier.requests", true, false, false, false, amqp.Table(nil)).Return(nil).Once()
	second.On("PublishWithContext", ctx, "", "tier.requests", false, false, mock.Anything).Return(nil).Once()

	sessions := []*session{{ch: first, closed: closed}, {ch: second}}
	dials := 0
	pub := newRedialingPublisher(func() (*session, error) {
		s := sessions[dials]
		dials++
		return s, nil
	}, testLogger())

	require.NoError(t, pub.Publish(ctx, "tier.requests", struct{}{}))
	closed <- &amqp.Error{Code: amqp.ChannelError, Reason: "channel closed by broker"}
	require.NoError(t, pub.Publish(ctx, "tier.requests", struct{}{}))

	assert.Equal(t, 2, dials)
	first.AssertExpectations(t)
	second.AssertExpectations(t)
}

func TestPublisher_DialFailureIsRetriedOnNextPublish(t *testing.T) {
	ctx := context.Background()
	ch := new(mockChannel)
	ch.On("QueueDeclare", "tier.requests", true, false, false, false, amqp.Table(nil)).Return(nil).Once()
	ch.On("PublishWithContext", ctx, "", "tier.requests", false, false, mock.Anything).Return(nil).Once()

	dials := 0
	pub := newRedialingPublisher(func() (*session, error) {
		dials++
		if dials == 1 {
			return nil, errors.New("rabbitmq: dial failed: connection refused")
		}
		return &session{ch: ch}, nil
	}, testLogger())

	assert.Error(t, pub.Publish(ctx, "tier.requests", struct{}{}))
	require.NoError(t, pub.Publish(ctx, "tier.requests", struct{}{}))

	assert.Equal(t, 2, dials)
	ch.AssertExpectations(t)
}

func TestDispatch(t *testing.T) {
	ctx := context.Background()
	fail := func(context.Context, []byte) error { return errors.New("boom") }

	tests := []struct {
		name         string
		handle       Handler
		redelivered  bool
		wantAck      bool
		wantRequeued bool
	}{
		{name: "success acks", handle: func(context.Context, []byte) error { return nil }, wantAck: true},
		{name: "first failure requeues", handle: fail, wantRequeued: true},
		{name: "second failure drops", handle: fail, redelivered: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ack := &fakeAcknowledger{}
			d := amqp.Delivery{Acknowledger: ack, Redelivered: tt.redelivered, Body: []byte(`{}`)}

			Dispatch(ctx, d, tt.handle, testLogger())

			assert.Equal(t, tt.wantAck, ack.acked)
			assert.Equal(t, !tt.wantAck, ack.nacked)
			assert.Equal(t, tt.wantRequeued, ack.requeued)
		})
	}
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, queue string, msg any) error {
	return m.Called(ctx, queue, msg).Error(0)
}

func TestNotifier(t *testing.T) {
	ctx := context.Background()
	pub := new(mockPublisher)
	notifier := NewNotifier(pub, domain.TierFast)

	event := domain.NewEvent(uuid.New(), domain.NewEventParams{Title: "Jazz Night", Capacity: 2})
	ticket := event.Issue(uuid.New(), time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC))

	pub.On("Publish", ctx, TicketEventsQueue, TicketEvent{
		Type:       "ticket.purchased",
		Tier:       "FAST",
		Event:      event.Address.String(),
		EventTitle: "Jazz Night",
		Ticket:     ticket.Address.String(),
		TicketID:   0,
		Buyer:      ticket.Buyer.String(),
		OccurredAt: "2026-10-16T09:00:00Z",
	}).Return(nil).Once()
	require.NoError(t, notifier.TicketPurchased(ctx, event, ticket))

	require.NoError(t, ticket.CheckIn(time.Date(2026, 11, 1, 19, 0, 0, 0, time.UTC)))
	pub.On("Publish", ctx, TicketEventsQueue, mock.MatchedBy(func(e TicketEvent) bool {
		return e.Type == "ticket.checked_in" && e.OccurredAt == "2026-11-01T19:00:00Z"
	})).Return(errors.New("broker down")).Once()
	assert.Error(t, notifier.TicketCheckedIn(ctx, ticket))

	pub.AssertExpectations(t)
}
