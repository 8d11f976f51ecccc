package domain_test

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/srgjo27/tiered_ticket/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventAddress_Deterministic(t *testing.T) {
	organizer := uuid.New()

	a := domain.EventAddress(organizer, "Launch Party")
	b := domain.EventAddress(organizer, "Launch Party")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, domain.EventAddress(organizer, "Launch Party 2"))
	assert.NotEqual(t, a, domain.EventAddress(uuid.New(), "Launch Party"))
}

func TestDerive_LengthPrefixedParts(t *testing.T) {
	a := domain.Derive(domain.EventTag, []byte("ab"), []byte("c"))
	b := domain.Derive(domain.EventTag, []byte("a"), []byte("bc"))

	assert.NotEqual(t, a, b)
}

func TestDerive_TagSeparatesFamilies(t *testing.T) {
	seed := []byte("same seed")

	assert.NotEqual(t, domain.Derive(domain.EventTag, seed), domain.Derive(domain.TicketTag, seed))
}

func TestTicketAddress_PerBuyer(t *testing.T) {
	event := domain.EventAddress(uuid.New(), "Concert")
	buyer := uuid.New()

	assert.Equal(t, domain.TicketAddress(event, buyer), domain.TicketAddress(event, buyer))
	assert.NotEqual(t, domain.TicketAddress(event, buyer), domain.TicketAddress(event, uuid.New()))
}

func TestParseAddress(t *testing.T) {
	addr := domain.EventAddress(uuid.New(), "Concert")

	parsed, err := domain.ParseAddress(addr.String())
	require.NoError(t, err)
	assert.Equal(t, addr, parsed)

	_, err = domain.ParseAddress("zz")
	assert.ErrorIs(t, err, domain.ErrInvalidAddress)

	_, err = domain.ParseAddress("abcd")
	assert.ErrorIs(t, err, domain.ErrInvalidAddress)
}

func TestNewEvent(t *testing.T) {
	organizer := uuid.New()
	event := domain.NewEvent(organizer, domain.NewEventParams{Title: "Concert", Price: 100, Capacity: 2})

	assert.Equal(t, domain.EventAddress(organizer, "Concert"), event.Address)
	assert.True(t, event.IsActive)
	assert.Zero(t, event.TicketsSold)
}

func TestEvent_IssueSequence(t *testing.T) {
	event := domain.NewEvent(uuid.New(), domain.NewEventParams{Title: "Concert", Price: 100, Capacity: 2})
	now := time.Unix(1700000000, 0).UTC()

	require.NoError(t, event.CheckSale())
	first := event.Issue(uuid.New(), now)
	require.NoError(t, event.CheckSale())
	second := event.Issue(uuid.New(), now)

	assert.Equal(t, uint32(0), first.TicketID)
	assert.Equal(t, uint32(1), second.TicketID)
	assert.Equal(t, uint32(2), event.TicketsSold)
	assert.ErrorIs(t, event.CheckSale(), domain.ErrEventSoldOut)
}

func TestEvent_CheckSaleOrder(t *testing.T) {
	event := domain.NewEvent(uuid.New(), domain.NewEventParams{Title: "Concert", Capacity: 0})
	event.IsActive = false

	assert.ErrorIs(t, event.CheckSale(), domain.ErrEventSoldOut)

	event.Capacity = 1
	assert.ErrorIs(t, event.CheckSale(), domain.ErrEventInactive)
}

func TestEvent_SetCapacity(t *testing.T) {
	organizer := uuid.New()
	event := domain.NewEvent(organizer, domain.NewEventParams{Title: "Concert", Capacity: 5})
	event.TicketsSold = 3

	for _, capacity := range []uint32{0, 1, 3, 10, math.MaxUint32} {
		assert.ErrorIs(t, event.SetCapacity(uuid.New(), capacity), domain.ErrUnauthorized)
	}
	assert.Equal(t, uint32(5), event.Capacity)

	require.NoError(t, event.SetCapacity(organizer, 1))
	assert.Equal(t, uint32(1), event.Capacity)
	assert.Equal(t, uint32(3), event.TicketsSold)
}

func TestEvent_Stats(t *testing.T) {
	event := domain.NewEvent(uuid.New(), domain.NewEventParams{Title: "Concert", Price: 100, Capacity: 10})
	event.TicketsSold = 7

	stats, err := event.Stats()
	require.NoError(t, err)
	assert.Equal(t, domain.EventStats{TicketsSold: 7, Capacity: 10, Revenue: 700, IsActive: true}, stats)

	event.Price = math.MaxUint64
	_, err = event.Stats()
	assert.ErrorIs(t, err, domain.ErrRevenueOverflow)

	event.TicketsSold = 1
	stats, err = event.Stats()
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), stats.Revenue)
}

func TestTicket_CheckInOnce(t *testing.T) {
	ticket := &domain.Ticket{}
	first := time.Unix(1700000000, 0).UTC()

	require.NoError(t, ticket.CheckIn(first))
	assert.Equal(t, domain.TicketCheckedIn, ticket.State())

	err := ticket.CheckIn(first.Add(time.Hour))
	assert.ErrorIs(t, err, domain.ErrTicketAlreadyUsed)
	require.NotNil(t, ticket.CheckInTime)
	assert.Equal(t, first, *ticket.CheckInTime)
}

func TestLocation_Request(t *testing.T) {
	tests := []struct {
		from    domain.Location
		kind    domain.RequestKind
		want    domain.Location
		wantErr bool
	}{
		{"", domain.RequestDelegate, domain.LocationDelegatingToFast, false},
		{domain.LocationBase, domain.RequestDelegate, domain.LocationDelegatingToFast, false},
		{domain.LocationFast, domain.RequestDelegate, domain.LocationFast, true},
		{domain.LocationFast, domain.RequestCommit, domain.LocationFast, false},
		{domain.LocationBase, domain.RequestCommit, domain.LocationBase, true},
		{domain.LocationFast, domain.RequestUndelegate, domain.LocationUndelegatingToBase, false},
		{domain.LocationFast, domain.RequestCommitAndUndelegate, domain.LocationUndelegatingToBase, false},
		{domain.LocationDelegatingToFast, domain.RequestCommit, domain.LocationDelegatingToFast, true},
		{domain.LocationUndelegatingToBase, domain.RequestUndelegate, domain.LocationUndelegatingToBase, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"/"+string(tt.kind), func(t *testing.T) {
			got, err := tt.from.Request(tt.kind)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidTierTransition)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLocation_CompleteAndAuthority(t *testing.T) {
	next, err := domain.LocationDelegatingToFast.Complete()
	require.NoError(t, err)
	assert.Equal(t, domain.LocationFast, next)

	next, err = domain.LocationUndelegatingToBase.Complete()
	require.NoError(t, err)
	assert.Equal(t, domain.LocationBase, next)

	_, err = domain.LocationFast.Complete()
	assert.ErrorIs(t, err, domain.ErrInvalidTierTransition)

	assert.True(t, domain.Location("").AuthoritativeOn(domain.TierBase))
	assert.False(t, domain.LocationBase.AuthoritativeOn(domain.TierFast))
	assert.True(t, domain.LocationFast.AuthoritativeOn(domain.TierFast))
	assert.False(t, domain.LocationDelegatingToFast.AuthoritativeOn(domain.TierBase))
	assert.False(t, domain.LocationDelegatingToFast.AuthoritativeOn(domain.TierFast))
	assert.True(t, domain.LocationUndelegatingToBase.InTransition())
}
