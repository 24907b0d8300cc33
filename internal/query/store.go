package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/avatarctic/contract-admin/internal/core/domain/apierr"
	"github.com/avatarctic/contract-admin/internal/core/ports"
)

const persistTimeout = 2 * time.Second

var (
	// ErrStoreClosed is returned by reads issued after Store.Close.
	ErrStoreClosed = errors.New("query store is closed")

	errSuperseded = errors.New("fetch superseded by invalidation")
	errNoFetcher  = errors.New("query has no fetch function")
)

// Status is the fetch status of a cache entry.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

type fetchFunc func(ctx context.Context) (any, error)

// flight is one network fetch for an entry. Only the flight recorded on the
// entry may write its result back.
type flight struct {
	seq       uint64
	startedAt time.Time
	ctx       context.Context
	cancel    context.CancelFunc
}

type listener interface {
	deliver(e *entry)
	wantsFocusRefetch() bool
	closeLocked()
}

type entry struct {
	id         uint64
	key        Key
	status     Status
	data       any
	hasData    bool
	err        error
	updatedAt  time.Time
	errorAt    time.Time
	fetchCount int
	invalid    bool
	inflight   *flight
	fetch      fetchFunc
	observers  map[listener]struct{}

	// set while an idle entry is being moved back to the active set, so the
	// eviction callback can tell a revive from a reclaim
	reviving atomic.Bool
}

// EntryInfo is a read-only view of a cache entry.
type EntryInfo struct {
	Key        Key
	Status     Status
	HasData    bool
	Err        error
	UpdatedAt  time.Time
	ErrorAt    time.Time
	FetchCount int
	Invalid    bool
	IsFetching bool
	Observers  int
}

// Store is the process-wide keyed cache behind every resource read.
// Observed entries live in the active set; unobserved ones wait in an
// expiring LRU until they are observed again or reclaimed.
type Store struct {
	op     options
	logger *logrus.Logger

	mu      sync.Mutex
	active  map[Key]*entry
	idle    *expirable.LRU[Key, *entry]
	closed  bool
	nextID  uint64
	nextSeq uint64

	// persisted copies fetched before these cutoffs are never hydrated
	clearedAt     time.Time
	invalidatedAt map[string]time.Time

	group  singleflight.Group
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a Store.
func New(opts ...Option) *Store {
	op := options{
		gcTime:     DefaultGCTime,
		retry:      DefaultRetry,
		retryDelay: DefaultRetryDelay,
		metrics:    ports.NoopQueryMetrics{},
	}
	for _, opt := range opts {
		opt(&op)
	}

	logger := op.logger
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Store{
		op:     op,
		logger: logger,
		active: make(map[Key]*entry),
		ctx:    ctx,

		invalidatedAt: make(map[string]time.Time),
		cancel: cancel,
	}
	s.idle = expirable.NewLRU[Key, *entry](op.maxIdleEntries, s.onEvict, op.gcTime)
	return s
}

// Invalidate marks every entry selected by filters as outdated. In-flight
// fetches of those entries are abandoned, observed entries refetch at once
// and unobserved ones refetch on their next read. It returns the number of
// entries touched.
func (s *Store) Invalidate(filters ...Filter) int {
	if len(filters) == 0 {
		return 0
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return 0
	}
	now := time.Now()
	for _, f := range filters {
		s.invalidatedAt[f.resource] = now
	}
	var keys []Key
	for k, e := range s.active {
		if matchAny(filters, k) {
			s.invalidateLocked(e)
			keys = append(keys, k)
		}
	}
	for _, k := range s.idle.Keys() {
		if !matchAny(filters, k) {
			continue
		}
		if e, ok := s.idle.Peek(k); ok {
			s.invalidateLocked(e)
			keys = append(keys, k)
		}
	}
	s.mu.Unlock()

	touched := len(keys)
	var prefixes []string
	for _, f := range filters {
		if f.exact {
			keys = append(keys, f.key)
			continue
		}
		keys = append(keys, NewKey(f.resource))
		prefixes = append(prefixes, persistKey(NewKey(f.resource))+"?")
	}
	s.forget(keys)
	s.forgetPrefixes(prefixes)

	s.logger.WithFields(logrus.Fields{"filters": fmt.Sprint(filters), "entries": touched}).Debug("query cache invalidated")
	return touched
}

// Focus refetches every observed, stale entry whose observers did not opt
// out of refetch-on-focus. UI consumers call it when the application regains focus.
func (s *Store) Focus() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for _, e := range s.active {
		if s.isFreshLocked(e) || e.inflight != nil {
			continue
		}
		for o := range e.observers {
			if o.wantsFocusRefetch() {
				s.startFetchLocked(e)
				break
			}
		}
	}
}

// Clear drops every cached value, for example on logout or login. Observers
// stay attached and see their entry refetched from scratch.
func (s *Store) Clear() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.clearedAt = time.Now()
	keys := s.idle.Keys()
	s.idle.Purge()
	for k, e := range s.active {
		if e.inflight != nil {
			e.inflight.cancel()
			e.inflight = nil
		}
		e.data, e.hasData, e.err = nil, false, nil
		e.status = StatusIdle
		e.updatedAt = time.Time{}
		e.invalid = true
		if len(e.observers) > 0 {
			s.startFetchLocked(e)
		}
		keys = append(keys, k)
	}
	s.mu.Unlock()

	s.forget(keys)
	s.forgetPrefixes([]string{persistKeyPrefix})
	s.logger.WithField("entries", len(keys)).Info("query cache cleared")
}

// Inspect returns a view of the entry for k without affecting its lifetime.
func (s *Store) Inspect(k Key) (EntryInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.active[k]
	if !ok {
		e, ok = s.idle.Peek(k)
	}
	if !ok {
		return EntryInfo{}, false
	}
	return EntryInfo{
		Key:        e.key,
		Status:     e.status,
		HasData:    e.hasData,
		Err:        e.err,
		UpdatedAt:  e.updatedAt,
		ErrorAt:    e.errorAt,
		FetchCount: e.fetchCount,
		Invalid:    e.invalid,
		IsFetching: e.inflight != nil,
		Observers:  len(e.observers),
	}, true
}

// Len returns the number of entries held, observed or not.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active) + s.idle.Len()
}

// Close cancels every fetch and poller and closes every observer.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.cancel()
	for _, e := range s.active {
		for o := range e.observers {
			o.closeLocked()
		}
		e.observers = map[listener]struct{}{}
	}
	s.active = make(map[Key]*entry)
	s.idle.Purge()
}

func (s *Store) onEvict(k Key, e *entry) {
	if e.reviving.Load() {
		return
	}
	s.op.metrics.Evict(k.Resource())
	s.logger.WithField("key", k.String()).Debug("query entry reclaimed")
}

// acquireLocked returns the entry for k, creating it when absent. Observed
// entries are moved to the active set; unobserved reads renew the GC window.
func (s *Store) acquireLocked(k Key, observe bool, sd seed) *entry {
	if e, ok := s.active[k]; ok {
		return e
	}
	if e, ok := s.idle.Peek(k); ok {
		if observe {
			e.reviving.Store(true)
			s.idle.Remove(k)
			e.reviving.Store(false)
			s.active[k] = e
		} else {
			s.idle.Add(k, e)
		}
		return e
	}

	s.nextID++
	e := &entry{
		id:        s.nextID,
		key:       k,
		status:    StatusIdle,
		observers: make(map[listener]struct{}),
	}
	if sd.ok && !s.outdatedLocked(k, sd.fetchedAt) {
		// last-known data from the persistence tier; stale by construction
		e.data, e.hasData = sd.value, true
	}
	if observe {
		s.active[k] = e
	} else {
		s.idle.Add(k, e)
	}
	return e
}

func (s *Store) releaseLocked(e *entry) {
	if len(e.observers) > 0 || s.closed {
		return
	}
	if cur, ok := s.active[e.key]; ok && cur == e {
		delete(s.active, e.key)
		s.idle.Add(e.key, e)
	}
}

func (s *Store) isFreshLocked(e *entry) bool {
	if !e.hasData || e.invalid || e.status == StatusError || s.op.staleTime <= 0 {
		return false
	}
	return time.Since(e.updatedAt) < s.op.staleTime
}

// startFetchLocked issues a fetch for e, or joins the one already in flight.
func (s *Store) startFetchLocked(e *entry) <-chan singleflight.Result {
	if e.fetch == nil {
		ch := make(chan singleflight.Result, 1)
		ch <- singleflight.Result{Err: errNoFetcher}
		return ch
	}

	fl := e.inflight
	if fl == nil {
		s.nextSeq++
		ctx, cancel := context.WithCancel(s.ctx)
		fl = &flight{seq: s.nextSeq, startedAt: time.Now(), ctx: ctx, cancel: cancel}
		e.inflight = fl
		e.status = StatusLoading
		e.fetchCount++
		s.notifyLocked(e)
		s.logger.WithFields(logrus.Fields{"key": e.key.String(), "stale_data": e.hasData}).Debug("query fetch started")
	}

	fetch := e.fetch
	flightKey := fmt.Sprintf("%d/%d", e.id, fl.seq)
	return s.group.DoChan(flightKey, func() (any, error) {
		return s.run(e, fl, fetch)
	})
}

func (s *Store) run(e *entry, fl *flight, fetch fetchFunc) (any, error) {
	start := time.Now()
	resource := e.key.Resource()
	v, err := s.fetchWithRetry(fl.ctx, e.key, fetch)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrStoreClosed
	}
	if e.inflight != fl {
		s.mu.Unlock()
		s.op.metrics.Fetch(resource, "superseded", time.Since(start))
		return nil, errSuperseded
	}
	e.inflight = nil
	fl.cancel()

	now := time.Now()
	if err != nil {
		e.status = StatusError
		e.err = err
		e.errorAt = now
	} else {
		e.status = StatusSuccess
		e.data, e.hasData = v, true
		e.err = nil
		e.updatedAt = now
		e.invalid = false
	}
	s.notifyLocked(e)
	s.mu.Unlock()

	if err != nil {
		s.op.metrics.Fetch(resource, "error", time.Since(start))
		s.logger.WithFields(logrus.Fields{"key": e.key.String()}).WithError(err).Warn("query fetch failed")
		return nil, err
	}
	s.op.metrics.Fetch(resource, "success", time.Since(start))
	if s.op.persister != nil {
		s.persist(e.key, v, fl.startedAt)
	}
	return v, nil
}

func (s *Store) fetchWithRetry(ctx context.Context, k Key, fetch fetchFunc) (any, error) {
	for attempt := 0; ; attempt++ {
		v, err := fetch(ctx)
		if err == nil {
			return v, nil
		}
		if attempt >= s.op.retry || ctx.Err() != nil || !apierr.Retryable(err) {
			return nil, err
		}

		s.op.metrics.Retry(k.Resource())
		s.logger.WithFields(logrus.Fields{"key": k.String(), "attempt": attempt + 1}).WithError(err).Debug("retrying query fetch")

		t := time.NewTimer(s.op.retryDelay)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return nil, err
		}
	}
}

func (s *Store) refetch(e *entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || len(e.observers) == 0 {
		return
	}
	s.startFetchLocked(e)
}

func (s *Store) invalidateLocked(e *entry) {
	e.invalid = true
	if e.inflight != nil {
		e.inflight.cancel()
		e.inflight = nil
	}
	s.op.metrics.Invalidate(e.key.Resource())

	if len(e.observers) > 0 {
		s.startFetchLocked(e)
		return
	}
	if e.status == StatusLoading {
		if e.hasData {
			e.status = StatusSuccess
		} else {
			e.status = StatusIdle
		}
	}
}

func (s *Store) notifyLocked(e *entry) {
	for o := range e.observers {
		o.deliver(e)
	}
}

func (s *Store) has(k Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.active[k]; ok {
		return true
	}
	return s.idle.Contains(k)
}

const persistKeyPrefix = "query:"

func persistKey(k Key) string {
	return persistKeyPrefix + k.String()
}

// persisted is the stored form of a read result. FetchedAt is the start of
// the fetch that produced Data.
type persisted struct {
	FetchedAt time.Time       `json:"fetchedAt"`
	Data      json.RawMessage `json:"data"`
}

// outdatedLocked reports whether a copy of k fetched at fetchedAt predates
// the last Clear or the last invalidation of k's resource.
func (s *Store) outdatedLocked(k Key, fetchedAt time.Time) bool {
	if fetchedAt.IsZero() || fetchedAt.Before(s.clearedAt) {
		return true
	}
	return fetchedAt.Before(s.invalidatedAt[k.resource])
}

func (s *Store) persist(k Key, v any, fetchedAt time.Time) {
	data, err := json.Marshal(v)
	if err == nil {
		data, err = json.Marshal(persisted{FetchedAt: fetchedAt.UTC(), Data: data})
	}
	if err != nil {
		s.logger.WithField("key", k.String()).WithError(err).Debug("skip persisting query value")
		return
	}
	ctx, cancel := context.WithTimeout(s.ctx, persistTimeout)
	defer cancel()
	if err := s.op.persister.Set(ctx, persistKey(k), data, s.op.persistTTL); err != nil {
		s.logger.WithField("key", k.String()).WithError(err).Warn("failed to persist query value")
	}
}

func (s *Store) forget(keys []Key) {
	if s.op.persister == nil || len(keys) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(s.ctx, persistTimeout)
	defer cancel()
	for _, k := range keys {
		if err := s.op.persister.Delete(ctx, persistKey(k)); err != nil {
			s.logger.WithField("key", k.String()).WithError(err).Warn("failed to drop persisted query value")
		}
	}
}

// forgetPrefixes drops persisted copies by key prefix when the tier
// supports it. Copies it misses are still rejected by outdatedLocked.
func (s *Store) forgetPrefixes(prefixes []string) {
	pd, ok := s.op.persister.(ports.PrefixDeleter)
	if !ok || len(prefixes) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(s.ctx, persistTimeout)
	defer cancel()
	for _, p := range prefixes {
		if err := pd.DeletePrefix(ctx, p); err != nil {
			s.logger.WithField("prefix", p).WithError(err).Warn("failed to drop persisted query values")
		}
	}
}

func matchAny(filters []Filter, k Key) bool {
	for _, f := range filters {
		if f.Matches(k) {
			return true
		}
	}
	return false
}
