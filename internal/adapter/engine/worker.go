package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/srgjo27/tiered_ticket/internal/core/domain"
	"github.com/srgjo27/tiered_ticket/internal/core/ports"
)

const maxDiscardAttempts = 5

// Worker executes tier requests. Every step is safe to repeat, so a
// request redelivered after a crash finishes the job instead of failing.
type Worker struct {
	base    ports.SnapshotStore
	fast    ports.SnapshotStore
	tracker *LocationTracker
	logger  *slog.Logger
}

func NewWorker(base, fast ports.SnapshotStore, tracker *LocationTracker, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{base: base, fast: fast, tracker: tracker, logger: logger}
}

// HandleMessage decodes a queued request and runs it.
func (w *Worker) HandleMessage(ctx context.Context, body []byte) error {
	req, err := DecodeRequest(body)
	if err != nil {
		return err
	}
	return w.Handle(ctx, req)
}

func (w *Worker) Handle(ctx context.Context, req Request) error {
	logger := w.logger.With("request_id", req.ID.String(), "kind", string(req.Kind), "event", req.Event.String())

	loc, err := w.tracker.Get(ctx, req.Event)
	if err != nil {
		return err
	}

	switch req.Kind {
	case domain.RequestDelegate:
		if loc == domain.LocationFast {
			logger.Info("delegation already complete")
			return nil
		}
		if loc != domain.LocationDelegatingToFast {
			return unexpected(req, loc)
		}
		err = w.delegate(ctx, req.Event)
	case domain.RequestCommit:
		// An undelegation accepted after this commit is queued behind it,
		// so the fast copy is still there to write back.
		if loc != domain.LocationFast && loc != domain.LocationUndelegatingToBase {
			return unexpected(req, loc)
		}
		err = w.commit(ctx, req.Event)
	case domain.RequestUndelegate, domain.RequestCommitAndUndelegate:
		if loc == domain.LocationBase {
			logger.Info("undelegation already complete")
			return nil
		}
		if loc != domain.LocationUndelegatingToBase {
			return unexpected(req, loc)
		}
		err = w.undelegate(ctx, req.Event, req.Kind == domain.RequestCommitAndUndelegate)
	default:
		return fmt.Errorf("%w: unknown tier request %q", domain.ErrInvalidInput, req.Kind)
	}
	if err != nil {
		logger.Error("tier request failed", "error", err)
		return err
	}

	settled, err := w.tracker.Get(ctx, req.Event)
	if err != nil {
		return err
	}
	logger.Info("tier request complete", "location", string(settled))
	return nil
}

func (w *Worker) delegate(ctx context.Context, addr domain.Address) error {
	snap, err := w.base.Snapshot(ctx, addr)
	if err != nil {
		return fmt.Errorf("snapshot base: %w", err)
	}
	if err := w.fast.Restore(ctx, snap); err != nil {
		return fmt.Errorf("restore fast: %w", err)
	}
	_, err = w.tracker.Complete(ctx, addr)
	return err
}

func (w *Worker) commit(ctx context.Context, addr domain.Address) error {
	snap, err := w.fast.Snapshot(ctx, addr)
	if err != nil {
		return fmt.Errorf("snapshot fast: %w", err)
	}
	if err := w.base.Restore(ctx, snap); err != nil {
		return fmt.Errorf("restore base: %w", err)
	}
	return nil
}

// undelegate drops the fast copy, first writing it back to base when
// commit is set. A fast write that was already in flight when the
// transition began makes the discard fail as stale; the loop then starts
// over from a fresh snapshot so that write is not lost.
func (w *Worker) undelegate(ctx context.Context, addr domain.Address, commit bool) error {
	for attempt := 1; ; attempt++ {
		snap, err := w.fast.Snapshot(ctx, addr)
		if errors.Is(err, domain.ErrNotFound) {
			// Discarded on an earlier delivery.
			break
		}
		if err != nil {
			return fmt.Errorf("snapshot fast: %w", err)
		}
		if commit {
			if err := w.base.Restore(ctx, snap); err != nil {
				return fmt.Errorf("restore base: %w", err)
			}
		}

		err = w.fast.Discard(ctx, snap)
		if err == nil {
			break
		}
		if !errors.Is(err, domain.ErrSnapshotStale) || attempt >= maxDiscardAttempts {
			return fmt.Errorf("discard fast: %w", err)
		}
		w.logger.Warn("fast state changed during undelegation, retrying", "event", addr.String(), "attempt", attempt)
	}

	_, err := w.tracker.Complete(ctx, addr)
	return err
}

func unexpected(req Request, loc domain.Location) error {
	return fmt.Errorf("%w: %s request while %s", domain.ErrInvalidTierTransition, req.Kind, loc)
}
