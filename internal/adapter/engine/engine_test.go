package engine

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/srgjo27/tiered_ticket/internal/core/domain"
	"github.com/srgjo27/tiered_ticket/internal/platform/clock"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, queue string, msg any) error {
	args := m.Called(ctx, queue, msg)
	return args.Error(0)
}

func TestEngine_RequestEnqueues(t *testing.T) {
	ctx := context.Background()
	tracker := NewLocationTracker(newMiniredisClient(t))
	publisher := new(mockPublisher)
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	eng := New(tracker, publisher, clock.NewFixed(now), nil)
	addr := domain.EventAddress(uuid.New(), "Jazz Night")

	publisher.On("Publish", ctx, RequestQueue, mock.MatchedBy(func(req Request) bool {
		return req.Kind == domain.RequestDelegate && req.Event == addr && req.RequestedAt.Equal(now) && req.ID != uuid.Nil
	})).Return(nil).Once()

	require.NoError(t, eng.RequestDelegate(ctx, addr))

	loc, err := eng.Location(ctx, addr)
	require.NoError(t, err)
	assert.Equal(t, domain.LocationDelegatingToFast, loc)
	publisher.AssertExpectations(t)
}

func TestEngine_RejectsInvalidTransitionWithoutPublishing(t *testing.T) {
	ctx := context.Background()
	publisher := new(mockPublisher)
	eng := New(NewLocationTracker(newMiniredisClient(t)), publisher, nil, nil)
	addr := domain.EventAddress(uuid.New(), "Jazz Night")

	for _, request := range []func(context.Context, domain.Address) error{
		eng.RequestCommit,
		eng.RequestUndelegate,
		eng.RequestCommitAndUndelegate,
	} {
		assert.ErrorIs(t, request(ctx, addr), domain.ErrInvalidTierTransition)
	}
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestEngine_PublishFailureRevertsLocation(t *testing.T) {
	ctx := context.Background()
	tracker := NewLocationTracker(newMiniredisClient(t))
	publisher := new(mockPublisher)
	eng := New(tracker, publisher, nil, nil)
	addr := domain.EventAddress(uuid.New(), "Jazz Night")

	publisher.On("Publish", ctx, RequestQueue, mock.Anything).Return(errors.New("broker down"))

	err := eng.RequestDelegate(ctx, addr)
	assert.ErrorIs(t, err, domain.ErrEngineUnavailable)

	loc, err := eng.Location(ctx, addr)
	require.NoError(t, err)
	assert.Equal(t, domain.LocationBase, loc)
}

func TestDecodeRequest(t *testing.T) {
	addr := domain.EventAddress(uuid.New(), "Jazz Night")
	body, err := json.Marshal(Request{ID: uuid.New(), Kind: domain.RequestCommit, Event: addr})
	require.NoError(t, err)

	req, err := DecodeRequest(body)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestCommit, req.Kind)
	assert.Equal(t, addr, req.Event)

	_, err = DecodeRequest([]byte(`{"kind":"TELEPORT","event":"` + addr.String() + `"}`))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = DecodeRequest([]byte(`{"kind":"COMMIT"}`))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = DecodeRequest([]byte(`not json`))
	assert.Error(t, err)
}
