package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Query describes a cacheable read: its key and how to fetch it.
type Query[T any] struct {
	Key   Key
	Fetch func(ctx context.Context) (T, error)
	// PollInterval is the default polling cadence for observers of the query.
	PollInterval time.Duration
}

// State is what a UI consumer renders for a read.
type State[T any] struct {
	Data       T
	HasData    bool
	Status     Status
	Err        error
	IsFetching bool
	UpdatedAt  time.Time
}

// IsLoading is true while the first fetch is running and nothing can be shown yet.
func (s State[T]) IsLoading() bool {
	return s.Status == StatusLoading && !s.HasData
}

// IsStale is true while a refetch runs behind previously fetched data.
func (s State[T]) IsStale() bool {
	return s.IsFetching && s.HasData
}

// Observer is a live subscription to one key. It keeps the entry alive,
// drives polling, and publishes every state change on Updates.
type Observer[T any] struct {
	store   *Store
	entry   *entry
	op      observeOptions
	updates chan State[T]
	cancel  context.CancelFunc

	// guarded by store.mu
	closed bool
}

// Observe subscribes to q. A fetch is issued unless fresh data is cached;
// concurrent fetches for the same key are shared. Callers must Close the
// observer when they stop rendering it.
func Observe[T any](s *Store, q Query[T], opts ...ObserveOption) *Observer[T] {
	op := observeOptions{pollInterval: q.PollInterval, refetchOnFocus: true}
	for _, opt := range opts {
		opt(&op)
	}

	sd := hydrate[T](s, q.Key)

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithCancel(s.ctx)
	o := &Observer[T]{
		store:   s,
		op:      op,
		updates: make(chan State[T], 1),
		cancel:  cancel,
	}
	if s.closed {
		o.entry = &entry{key: q.Key, status: StatusError, err: ErrStoreClosed}
		o.closeLocked()
		return o
	}

	e := s.acquireLocked(q.Key, true, sd)
	e.fetch = erase(q.Fetch)
	e.observers[o] = struct{}{}
	o.entry = e

	if s.isFreshLocked(e) {
		s.op.metrics.Hit(q.Key.Resource())
	} else {
		s.op.metrics.Miss(q.Key.Resource())
		s.startFetchLocked(e)
	}
	o.deliver(e)

	if op.pollInterval > 0 {
		go o.poll(ctx, op.pollInterval)
	}
	return o
}

// State returns the current state of the observed entry.
func (o *Observer[T]) State() State[T] {
	o.store.mu.Lock()
	defer o.store.mu.Unlock()
	return stateOf[T](o.entry)
}

// Updates delivers state changes. Only the latest undelivered state is
// kept; the channel is closed by Close.
func (o *Observer[T]) Updates() <-chan State[T] {
	return o.updates
}

// Key returns the observed key.
func (o *Observer[T]) Key() Key {
	return o.entry.key
}

// Refetch re-issues the read, joining a fetch already in flight.
func (o *Observer[T]) Refetch() {
	o.store.refetch(o.entry)
}

// Close unsubscribes. Polling stops and, once no observer is left, the
// entry starts its GC window.
func (o *Observer[T]) Close() {
	o.store.mu.Lock()
	defer o.store.mu.Unlock()
	if o.closed {
		return
	}
	o.closeLocked()
	delete(o.entry.observers, o)
	o.store.releaseLocked(o.entry)
}

func (o *Observer[T]) closeLocked() {
	if o.closed {
		return
	}
	o.closed = true
	o.cancel()
	close(o.updates)
}

func (o *Observer[T]) deliver(e *entry) {
	if o.closed {
		return
	}
	st := stateOf[T](e)
	select {
	case <-o.updates:
	default:
	}
	select {
	case o.updates <- st:
	default:
	}
}

func (o *Observer[T]) wantsFocusRefetch() bool {
	return o.op.refetchOnFocus
}

func (o *Observer[T]) poll(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			o.store.refetch(o.entry)
		}
	}
}

// Ensure returns data for q, fetching when nothing fresh is cached. The
// fetch is shared with any other reader of the same key, and its outcome is
// recorded on the entry as well as returned.
func Ensure[T any](ctx context.Context, s *Store, q Query[T]) (T, error) {
	var zero T
	sd := hydrate[T](s, q.Key)

	for {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return zero, ErrStoreClosed
		}
		e := s.acquireLocked(q.Key, false, sd)
		e.fetch = erase(q.Fetch)
		if s.isFreshLocked(e) {
			s.op.metrics.Hit(q.Key.Resource())
			v := e.data
			s.mu.Unlock()
			return cast[T](v)
		}
		s.op.metrics.Miss(q.Key.Resource())
		ch := s.startFetchLocked(e)
		s.mu.Unlock()

		select {
		case r := <-ch:
			if errors.Is(r.Err, errSuperseded) {
				sd = seed{}
				continue
			}
			if r.Err != nil {
				return zero, r.Err
			}
			return cast[T](r.Val)
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}

func stateOf[T any](e *entry) State[T] {
	st := State[T]{
		Status:     e.status,
		Err:        e.err,
		IsFetching: e.inflight != nil,
		UpdatedAt:  e.updatedAt,
	}
	if e.hasData {
		if v, ok := e.data.(T); ok {
			st.Data, st.HasData = v, true
		}
	}
	return st
}

func erase[T any](fn func(context.Context) (T, error)) fetchFunc {
	if fn == nil {
		return nil
	}
	return func(ctx context.Context) (any, error) {
		v, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		return v, nil
	}
}

func cast[T any](v any) (T, error) {
	t, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("query: cached value has type %T, want %T", v, zero)
	}
	return t, nil
}

// seed is last-known data read from the persistence tier.
type seed struct {
	value     any
	fetchedAt time.Time
	ok        bool
}

// hydrate loads last-known data for k from the persistence tier when the
// key is not held in memory yet. Copies older than the last Clear or the
// last invalidation of the resource are ignored.
func hydrate[T any](s *Store, k Key) seed {
	if s.op.persister == nil || s.has(k) {
		return seed{}
	}
	ctx, cancel := context.WithTimeout(s.ctx, persistTimeout)
	defer cancel()
	b, ok, err := s.op.persister.Get(ctx, persistKey(k))
	if err != nil || !ok {
		return seed{}
	}

	var p persisted
	var v T
	err = json.Unmarshal(b, &p)
	if err == nil {
		err = json.Unmarshal(p.Data, &v)
	}
	if err != nil {
		s.logger.WithField("key", k.String()).WithError(err).Debug("discarding unreadable persisted query value")
		return seed{}
	}

	s.mu.Lock()
	outdated := s.outdatedLocked(k, p.FetchedAt)
	s.mu.Unlock()
	if outdated {
		s.logger.WithField("key", k.String()).Debug("discarding outdated persisted query value")
		return seed{}
	}
	return seed{value: v, fetchedAt: p.FetchedAt, ok: true}
}
