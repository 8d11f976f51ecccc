package services_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/srgjo27/tiered_ticket/internal/adapter/repository/memory"
	"github.com/srgjo27/tiered_ticket/internal/core/domain"
	"github.com/srgjo27/tiered_ticket/internal/core/ports/mocks"
	"github.com/srgjo27/tiered_ticket/internal/core/services"
)

func newDelegation(t *testing.T) (*services.DelegationService, *mocks.TierEngine, uuid.UUID, domain.Address) {
	t.Helper()
	store := memory.NewStore()
	engine := mocks.NewTierEngine(t)
	organizer := uuid.New()
	event := domain.NewEvent(organizer, domain.NewEventParams{Title: "Summit", Capacity: 10})
	require.NoError(t, store.CreateEvent(context.Background(), event))
	return services.NewDelegationService(store, engine, nil), engine, organizer, event.Address
}

func TestDelegationService_ForwardsRequests(t *testing.T) {
	tests := []struct {
		method string
		call   func(*services.DelegationService, context.Context, domain.Address, uuid.UUID) error
	}{
		{"RequestDelegate", (*services.DelegationService).Delegate},
		{"RequestCommit", (*services.DelegationService).Commit},
		{"RequestUndelegate", (*services.DelegationService).Undelegate},
		{"RequestCommitAndUndelegate", (*services.DelegationService).CommitAndUndelegate},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			svc, engine, organizer, addr := newDelegation(t)
			engine.On(tt.method, mock.Anything, addr).Return(nil).Once()

			assert.NoError(t, tt.call(svc, context.Background(), addr, organizer))
		})
	}
}

func TestDelegationService_RequiresOrganizer(t *testing.T) {
	svc, engine, _, addr := newDelegation(t)

	err := svc.Delegate(context.Background(), addr, uuid.New())

	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	engine.AssertNotCalled(t, "RequestDelegate", mock.Anything, mock.Anything)
}

func TestDelegationService_UnknownEvent(t *testing.T) {
	svc, _, organizer, _ := newDelegation(t)

	err := svc.Commit(context.Background(), domain.EventAddress(organizer, "missing"), organizer)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDelegationService_EngineErrorsPassThrough(t *testing.T) {
	svc, engine, organizer, addr := newDelegation(t)
	engine.On("RequestUndelegate", mock.Anything, addr).
		Return(fmt.Errorf("%w: UNDELEGATE while BASE", domain.ErrInvalidTierTransition))

	err := svc.Undelegate(context.Background(), addr, organizer)

	assert.ErrorIs(t, err, domain.ErrInvalidTierTransition)
}

func TestDelegationService_NoEngine(t *testing.T) {
	store := memory.NewStore()
	organizer := uuid.New()
	event := domain.NewEvent(organizer, domain.NewEventParams{Title: "Local"})
	require.NoError(t, store.CreateEvent(context.Background(), event))
	svc := services.NewDelegationService(store, nil, nil)

	err := svc.Delegate(context.Background(), event.Address, organizer)
	assert.ErrorIs(t, err, domain.ErrEngineUnavailable)

	loc, err := svc.Location(context.Background(), event.Address)
	require.NoError(t, err)
	assert.Equal(t, string(domain.LocationBase), loc.Location)
	assert.False(t, loc.InTransition)
}

func TestDelegationService_Location(t *testing.T) {
	svc, engine, _, addr := newDelegation(t)
	engine.On("Location", mock.Anything, addr).Return(domain.LocationUndelegatingToBase, nil)

	loc, err := svc.Location(context.Background(), addr)

	require.NoError(t, err)
	assert.Equal(t, addr.String(), loc.Event)
	assert.Equal(t, string(domain.LocationUndelegatingToBase), loc.Location)
	assert.True(t, loc.InTransition)
}
