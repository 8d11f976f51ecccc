package redisstore

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/redis/go-redis/v9"
)

// ErrTxContention is returned when a transaction lost the optimistic race
// on every attempt.
var ErrTxContention = errors.New("fast store: transaction contention")

const maxTxAttempts = 16

type txKey struct{}

// reader is satisfied by both the client and a WATCH transaction.
type reader interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	SMembers(ctx context.Context, key string) *redis.StringSliceCmd
}

// observed is what a transaction saw for a key the first time it read it.
type observed struct {
	set    bool
	exists bool
	value  string
}

type write struct {
	key     string
	value   []byte
	del     bool
	set     bool
	members []string
}

// txn buffers writes and records reads. Nothing reaches redis until
// commit, which re-reads every recorded key under WATCH and applies the
// buffered writes in one MULTI/EXEC only if nothing changed.
type txn struct {
	reads  map[string]observed
	writes []write
	// pending holds the latest buffered value per key so reads inside the
	// transaction see its own writes.
	pending    map[string]*write
	setPending map[string]map[string]bool
	setCleared map[string]bool
}

func newTxn() *txn {
	return &txn{
		reads:      map[string]observed{},
		pending:    map[string]*write{},
		setPending: map[string]map[string]bool{},
		setCleared: map[string]bool{},
	}
}

func txFromContext(ctx context.Context) *txn {
	t, _ := ctx.Value(txKey{}).(*txn)
	return t
}

// WithTx runs fn in an optimistic transaction and re-runs it from scratch
// when a concurrent writer got there first. fn must not have side effects
// outside the store.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}

	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		t := newTxn()
		if err := fn(context.WithValue(ctx, txKey{}, t)); err != nil {
			return err
		}
		err := t.commit(ctx, s.client)
		if errors.Is(err, redis.TxFailedErr) {
			s.logger.Debug("fast store transaction conflict, retrying", "attempt", attempt)
			continue
		}
		return err
	}
	return ErrTxContention
}

// run joins the transaction in ctx or wraps fn in a transaction of its own.
func (s *Store) run(ctx context.Context, fn func(t *txn) error) error {
	if t := txFromContext(ctx); t != nil {
		return fn(t)
	}
	return s.WithTx(ctx, func(ctx context.Context) error {
		return fn(txFromContext(ctx))
	})
}

func (t *txn) get(ctx context.Context, client reader, key string) ([]byte, bool, error) {
	if w, ok := t.pending[key]; ok {
		if w.del {
			return nil, false, nil
		}
		return w.value, true, nil
	}
	if r, ok := t.reads[key]; ok {
		return []byte(r.value), r.exists, nil
	}

	r, err := readString(ctx, client, key)
	if err != nil {
		return nil, false, err
	}
	t.reads[key] = r
	return []byte(r.value), r.exists, nil
}

func (t *txn) members(ctx context.Context, client reader, key string) ([]string, error) {
	var base []string
	if !t.setCleared[key] {
		r, ok := t.reads[key]
		if !ok {
			var err error
			r, err = readSet(ctx, client, key)
			if err != nil {
				return nil, err
			}
			t.reads[key] = r
		}
		if r.value != "" {
			base = strings.Split(r.value, "\n")
		}
	}
	for m := range t.setPending[key] {
		if !slices.Contains(base, m) {
			base = append(base, m)
		}
	}
	slices.Sort(base)
	return base, nil
}

func (t *txn) put(key string, value []byte) {
	w := write{key: key, value: value}
	t.writes = append(t.writes, w)
	t.pending[key] = &w
}

func (t *txn) del(key string) {
	w := write{key: key, del: true}
	t.writes = append(t.writes, w)
	t.pending[key] = &w
}

func (t *txn) sadd(key string, members ...string) {
	t.writes = append(t.writes, write{key: key, set: true, members: members})
	if t.setPending[key] == nil {
		t.setPending[key] = map[string]bool{}
	}
	for _, m := range members {
		t.setPending[key][m] = true
	}
}

func (t *txn) clearSet(key string) {
	t.writes = append(t.writes, write{key: key, set: true, del: true})
	t.setCleared[key] = true
	delete(t.setPending, key)
}

func (t *txn) commit(ctx context.Context, client redis.UniversalClient) error {
	keys := make([]string, 0, len(t.reads)+len(t.writes))
	for key := range t.reads {
		keys = append(keys, key)
	}
	for _, w := range t.writes {
		if _, ok := t.reads[w.key]; !ok {
			keys = append(keys, w.key)
		}
	}
	if len(keys) == 0 {
		return nil
	}
	slices.Sort(keys)
	keys = slices.Compact(keys)

	return client.Watch(ctx, func(tx *redis.Tx) error {
		for key, seen := range t.reads {
			var now observed
			var err error
			if seen.set {
				now, err = readSet(ctx, tx, key)
			} else {
				now, err = readString(ctx, tx, key)
			}
			if err != nil {
				return err
			}
			if now != seen {
				return redis.TxFailedErr
			}
		}
		if len(t.writes) == 0 {
			return nil
		}

		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, w := range t.writes {
				switch {
				case w.del:
					pipe.Del(ctx, w.key)
				case w.set:
					members := make([]any, len(w.members))
					for i, m := range w.members {
						members[i] = m
					}
					pipe.SAdd(ctx, w.key, members...)
				default:
					pipe.Set(ctx, w.key, w.value, 0)
				}
			}
			return nil
		})
		return err
	}, keys...)
}

func readString(ctx context.Context, client reader, key string) (observed, error) {
	value, err := client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return observed{}, nil
	}
	if err != nil {
		return observed{}, err
	}
	return observed{exists: true, value: value}, nil
}

// readSet records a set as its sorted members joined by newlines, which
// cannot occur in the hex addresses stored in it.
func readSet(ctx context.Context, client reader, key string) (observed, error) {
	members, err := client.SMembers(ctx, key).Result()
	if err != nil {
		return observed{}, err
	}
	slices.Sort(members)
	return observed{set: true, exists: len(members) > 0, value: strings.Join(members, "\n")}, nil
}
