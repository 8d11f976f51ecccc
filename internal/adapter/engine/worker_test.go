package engine

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srgjo27/tiered_ticket/internal/adapter/repository/memory"
	"github.com/srgjo27/tiered_ticket/internal/core/domain"
	"github.com/srgjo27/tiered_ticket/internal/core/ports"
	"github.com/srgjo27/tiered_ticket/internal/core/services"
	"github.com/srgjo27/tiered_ticket/internal/platform/clock"
)

// inlinePublisher hands each request straight to the worker, standing in
// for the queue and its consumer.
type inlinePublisher struct {
	worker *Worker
}

func (p *inlinePublisher) Publish(ctx context.Context, _ string, msg any) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return p.worker.HandleMessage(ctx, body)
}

// staleOnce mutates the fast copy right before the first discard, the way
// a purchase that was already in flight would.
type staleOnce struct {
	ports.SnapshotStore
	mutate func()
	done   bool
}

func (s *staleOnce) Discard(ctx context.Context, snap *domain.EventSnapshot) error {
	if !s.done {
		s.done = true
		s.mutate()
	}
	return s.SnapshotStore.Discard(ctx, snap)
}

type tiers struct {
	base, fast *memory.Store
	baseLedger *services.LedgerService
	fastLedger *services.LedgerService
	delegation *services.DelegationService
	tracker    *LocationTracker
	worker     *Worker
	organizer  uuid.UUID
	event      domain.Address
}

func newTiers(t *testing.T) *tiers {
	t.Helper()
	ctx := context.Background()
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

	tr := &tiers{
		base:      memory.NewStore(),
		fast:      memory.NewStore(),
		tracker:   NewLocationTracker(newMiniredisClient(t)),
		organizer: uuid.New(),
	}
	tr.worker = NewWorker(tr.base, tr.fast, tr.tracker, nil)
	eng := New(tr.tracker, &inlinePublisher{worker: tr.worker}, clock.NewFixed(now), nil)

	baseCfg := services.DefaultLedgerConfig()
	tr.baseLedger = services.NewLedgerService(baseCfg, services.LedgerDeps{
		Store: tr.base, Payments: tr.base, Engine: eng, Clock: clock.NewFixed(now),
	})
	fastCfg := services.DefaultLedgerConfig()
	fastCfg.Tier = domain.TierFast
	tr.fastLedger = services.NewLedgerService(fastCfg, services.LedgerDeps{
		Store: tr.fast, Engine: eng, Clock: clock.NewFixed(now.Add(time.Minute)),
	})
	tr.delegation = services.NewDelegationService(tr.base, eng, nil)

	resp, err := tr.baseLedger.InitializeEvent(ctx, tr.organizer, services.InitializeEventRequest{
		Title:    "Jazz Night",
		Price:    0,
		Capacity: 10,
		StartsAt: now.Add(24 * time.Hour),
		EndsAt:   now.Add(27 * time.Hour),
	})
	require.NoError(t, err)
	tr.event, err = domain.ParseAddress(resp.Address)
	require.NoError(t, err)
	return tr
}

func (tr *tiers) location(t *testing.T) domain.Location {
	t.Helper()
	loc, err := tr.tracker.Get(context.Background(), tr.event)
	require.NoError(t, err)
	return loc
}

func TestWorker_DelegateCommitAndUndelegate(t *testing.T) {
	ctx := context.Background()
	tr := newTiers(t)

	_, err := tr.baseLedger.PurchaseTicket(ctx, tr.event, uuid.New(), tr.organizer)
	require.NoError(t, err)

	require.NoError(t, tr.delegation.Delegate(ctx, tr.event, tr.organizer))
	assert.Equal(t, domain.LocationFast, tr.location(t))

	_, err = tr.baseLedger.PurchaseTicket(ctx, tr.event, uuid.New(), tr.organizer)
	assert.ErrorIs(t, err, domain.ErrNotAuthoritative, "base is read-only while delegated")

	buyer := uuid.New()
	ticket, err := tr.fastLedger.PurchaseTicketAndCommit(ctx, tr.event, buyer)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), ticket.TicketID)

	stats, err := tr.baseLedger.GetEventStats(ctx, tr.event)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), stats.TicketsSold, "base copy is stale until commit")

	require.NoError(t, tr.delegation.CommitAndUndelegate(ctx, tr.event, tr.organizer))
	assert.Equal(t, domain.LocationBase, tr.location(t))

	stats, err = tr.baseLedger.GetEventStats(ctx, tr.event)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), stats.TicketsSold)
	got, err := tr.baseLedger.GetTicket(ctx, domain.TicketAddress(tr.event, buyer))
	require.NoError(t, err)
	assert.Equal(t, uint32(1), got.TicketID)

	_, err = tr.fast.GetEvent(ctx, tr.event)
	assert.ErrorIs(t, err, domain.ErrNotFound, "fast copy is dropped")

	_, err = tr.baseLedger.PurchaseTicket(ctx, tr.event, uuid.New(), tr.organizer)
	assert.NoError(t, err, "base is authoritative again")
}

func TestWorker_CommitKeepsDelegation(t *testing.T) {
	ctx := context.Background()
	tr := newTiers(t)

	require.NoError(t, tr.delegation.Delegate(ctx, tr.event, tr.organizer))
	_, err := tr.fastLedger.PurchaseTicketAndCommit(ctx, tr.event, uuid.New())
	require.NoError(t, err)

	require.NoError(t, tr.delegation.Commit(ctx, tr.event, tr.organizer))
	assert.Equal(t, domain.LocationFast, tr.location(t))

	stats, err := tr.baseLedger.GetEventStats(ctx, tr.event)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), stats.TicketsSold)

	_, err = tr.fastLedger.PurchaseTicketAndCommit(ctx, tr.event, uuid.New())
	assert.NoError(t, err, "fast stays authoritative after a plain commit")
}

func TestWorker_UndelegateDiscardsUncommittedChanges(t *testing.T) {
	ctx := context.Background()
	tr := newTiers(t)

	require.NoError(t, tr.delegation.Delegate(ctx, tr.event, tr.organizer))
	buyer := uuid.New()
	_, err := tr.fastLedger.PurchaseTicketAndCommit(ctx, tr.event, buyer)
	require.NoError(t, err)

	require.NoError(t, tr.delegation.Undelegate(ctx, tr.event, tr.organizer))
	assert.Equal(t, domain.LocationBase, tr.location(t))

	stats, err := tr.baseLedger.GetEventStats(ctx, tr.event)
	require.NoError(t, err)
	assert.Zero(t, stats.TicketsSold)
	_, err = tr.baseLedger.GetTicket(ctx, domain.TicketAddress(tr.event, buyer))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestWorker_RedeliveryIsIdempotent(t *testing.T) {
	ctx := context.Background()
	tr := newTiers(t)

	require.NoError(t, tr.delegation.Delegate(ctx, tr.event, tr.organizer))
	require.NoError(t, tr.worker.Handle(ctx, Request{ID: uuid.New(), Kind: domain.RequestDelegate, Event: tr.event}))
	assert.Equal(t, domain.LocationFast, tr.location(t))

	require.NoError(t, tr.delegation.CommitAndUndelegate(ctx, tr.event, tr.organizer))
	require.NoError(t, tr.worker.Handle(ctx, Request{ID: uuid.New(), Kind: domain.RequestCommitAndUndelegate, Event: tr.event}))
	assert.Equal(t, domain.LocationBase, tr.location(t))
}

func TestWorker_FinishesAfterCrashBetweenDiscardAndComplete(t *testing.T) {
	ctx := context.Background()
	tr := newTiers(t)

	require.NoError(t, tr.delegation.Delegate(ctx, tr.event, tr.organizer))
	_, _, err := tr.tracker.Request(ctx, tr.event, domain.RequestUndelegate)
	require.NoError(t, err)
	snap, err := tr.fast.Snapshot(ctx, tr.event)
	require.NoError(t, err)
	require.NoError(t, tr.fast.Discard(ctx, snap))

	require.NoError(t, tr.worker.Handle(ctx, Request{ID: uuid.New(), Kind: domain.RequestUndelegate, Event: tr.event}))
	assert.Equal(t, domain.LocationBase, tr.location(t))
}

func TestWorker_RetriesStaleDiscard(t *testing.T) {
	ctx := context.Background()
	tr := newTiers(t)
	require.NoError(t, tr.delegation.Delegate(ctx, tr.event, tr.organizer))

	late := uuid.New()
	fast := &staleOnce{SnapshotStore: tr.fast, mutate: func() {
		err := tr.fast.WithTx(ctx, func(txCtx context.Context) error {
			event, err := tr.fast.GetEventForUpdate(txCtx, tr.event)
			if err != nil {
				return err
			}
			if err := tr.fast.CreateTicket(txCtx, event.Issue(late, time.Now())); err != nil {
				return err
			}
			return tr.fast.UpdateEvent(txCtx, event)
		})
		require.NoError(t, err)
	}}
	worker := NewWorker(tr.base, fast, tr.tracker, nil)

	_, _, err := tr.tracker.Request(ctx, tr.event, domain.RequestCommitAndUndelegate)
	require.NoError(t, err)
	require.NoError(t, worker.Handle(ctx, Request{ID: uuid.New(), Kind: domain.RequestCommitAndUndelegate, Event: tr.event}))

	_, err = tr.base.GetTicket(ctx, domain.TicketAddress(tr.event, late))
	assert.NoError(t, err, "the in-flight sale reaches base")
	assert.Equal(t, domain.LocationBase, tr.location(t))
}

func TestWorker_RejectsRequestForWrongLocation(t *testing.T) {
	ctx := context.Background()
	tr := newTiers(t)

	err := tr.worker.Handle(ctx, Request{ID: uuid.New(), Kind: domain.RequestCommit, Event: tr.event})
	assert.ErrorIs(t, err, domain.ErrInvalidTierTransition)
}
