// Package engine is the tier engine: it tracks where each event is
// authoritative, accepts delegation requests onto a queue and moves event
// state between the base and fast stores as it works through them.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/srgjo27/tiered_ticket/internal/core/domain"
	"github.com/srgjo27/tiered_ticket/internal/platform/clock"
)

type Publisher interface {
	Publish(ctx context.Context, queue string, msg any) error
}

// Engine is the request side. It reserves the transition first so two
// requests cannot both be accepted, then enqueues the work; if the queue
// is unreachable the reservation is undone.
type Engine struct {
	tracker   *LocationTracker
	publisher Publisher
	clock     clock.Clock
	logger    *slog.Logger
}

func New(tracker *LocationTracker, publisher Publisher, clk clock.Clock, logger *slog.Logger) *Engine {
	if clk == nil {
		clk = clock.NewSystem()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{tracker: tracker, publisher: publisher, clock: clk, logger: logger}
}

func (e *Engine) RequestDelegate(ctx context.Context, addr domain.Address) error {
	return e.request(ctx, addr, domain.RequestDelegate)
}

func (e *Engine) RequestCommit(ctx context.Context, addr domain.Address) error {
	return e.request(ctx, addr, domain.RequestCommit)
}

func (e *Engine) RequestUndelegate(ctx context.Context, addr domain.Address) error {
	return e.request(ctx, addr, domain.RequestUndelegate)
}

func (e *Engine) RequestCommitAndUndelegate(ctx context.Context, addr domain.Address) error {
	return e.request(ctx, addr, domain.RequestCommitAndUndelegate)
}

func (e *Engine) Location(ctx context.Context, addr domain.Address) (domain.Location, error) {
	return e.tracker.Get(ctx, addr)
}

func (e *Engine) request(ctx context.Context, addr domain.Address, kind domain.RequestKind) error {
	from, to, err := e.tracker.Request(ctx, addr, kind)
	if err != nil {
		return err
	}

	req := Request{ID: uuid.New(), Kind: kind, Event: addr, RequestedAt: e.clock.Now()}
	if err := e.publisher.Publish(ctx, RequestQueue, req); err != nil {
		if from != to {
			if rerr := e.tracker.Revert(context.WithoutCancel(ctx), addr, to, from); rerr != nil {
				e.logger.Error("failed to revert location after publish failure", "event", addr.String(), "location", string(to), "error", rerr)
			}
		}
		return fmt.Errorf("%w: enqueue %s: %v", domain.ErrEngineUnavailable, kind, err)
	}

	e.logger.Info("tier request enqueued", "request_id", req.ID.String(), "kind", string(kind), "event", addr.String(), "location", string(to))
	return nil
}
