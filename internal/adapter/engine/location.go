package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/srgjo27/tiered_ticket/internal/core/domain"
)

// LocationTracker keeps each event's tier location in redis. A missing
// key is BASE. Transitions are compare-and-set under WATCH.
type LocationTracker struct {
	client redis.UniversalClient
}

func NewLocationTracker(client redis.UniversalClient) *LocationTracker {
	return &LocationTracker{client: client}
}

func locationKey(addr domain.Address) string {
	return "tier:location:" + addr.String()
}

func (l *LocationTracker) Get(ctx context.Context, addr domain.Address) (domain.Location, error) {
	v, err := l.client.Get(ctx, locationKey(addr)).Result()
	if errors.Is(err, redis.Nil) {
		return domain.LocationBase, nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: read location: %v", domain.ErrEngineUnavailable, err)
	}
	return domain.Location(v), nil
}

// Request applies kind to the stored location and returns the location
// before and after.
func (l *LocationTracker) Request(ctx context.Context, addr domain.Address, kind domain.RequestKind) (from, to domain.Location, err error) {
	err = l.update(ctx, addr, func(current domain.Location) (domain.Location, error) {
		from = current
		to, err = current.Request(kind)
		return to, err
	})
	return from, to, err
}

// Complete settles an in-flight transition.
func (l *LocationTracker) Complete(ctx context.Context, addr domain.Address) (domain.Location, error) {
	var settled domain.Location
	err := l.update(ctx, addr, func(current domain.Location) (domain.Location, error) {
		var err error
		settled, err = current.Complete()
		return settled, err
	})
	return settled, err
}

// Revert moves the event back to from, but only while it is still at to.
func (l *LocationTracker) Revert(ctx context.Context, addr domain.Address, to, from domain.Location) error {
	return l.update(ctx, addr, func(current domain.Location) (domain.Location, error) {
		if current != to {
			return current, fmt.Errorf("%w: expected %s, found %s", domain.ErrInvalidTierTransition, to, current)
		}
		return from, nil
	})
}

func (l *LocationTracker) update(ctx context.Context, addr domain.Address, next func(domain.Location) (domain.Location, error)) error {
	key := locationKey(addr)
	const maxAttempts = 8

	for range maxAttempts {
		err := l.client.Watch(ctx, func(tx *redis.Tx) error {
			current := domain.LocationBase
			v, err := tx.Get(ctx, key).Result()
			switch {
			case errors.Is(err, redis.Nil):
			case err != nil:
				return fmt.Errorf("%w: read location: %v", domain.ErrEngineUnavailable, err)
			default:
				current = domain.Location(v)
			}

			to, err := next(current)
			if err != nil {
				return err
			}
			if to == current {
				return nil
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				if to == domain.LocationBase {
					pipe.Del(ctx, key)
				} else {
					pipe.Set(ctx, key, string(to), 0)
				}
				return nil
			})
			return err
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil && !errors.Is(err, domain.ErrInvalidTierTransition) && !errors.Is(err, domain.ErrEngineUnavailable) {
			return fmt.Errorf("%w: %v", domain.ErrEngineUnavailable, err)
		}
		return err
	}
	return fmt.Errorf("%w: location of %s is contended", domain.ErrEngineUnavailable, addr)
}
