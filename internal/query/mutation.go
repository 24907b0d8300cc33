package query

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// MutationState is what a UI consumer renders for a write.
type MutationState[Out any] struct {
	IsPending bool
	Data      Out
	Err       error
}

// Mutation is a one-shot write. It is never cached; on success it
// invalidates the filters it declares, on failure it leaves the cache alone.
type Mutation[In, Out any] struct {
	store       *Store
	name        string
	fn          func(ctx context.Context, in In) (Out, error)
	validate    func(in In) error
	invalidates func(in In, out Out) []Filter

	mu      sync.Mutex
	pending int
	data    Out
	err     error
}

// NewMutation creates a write named name (used in logs) backed by fn.
func NewMutation[In, Out any](s *Store, name string, fn func(ctx context.Context, in In) (Out, error)) *Mutation[In, Out] {
	return &Mutation[In, Out]{store: s, name: name, fn: fn}
}

// WithValidate installs a client-side check. A failing check blocks the
// write from being issued.
func (m *Mutation[In, Out]) WithValidate(fn func(in In) error) *Mutation[In, Out] {
	m.validate = fn
	return m
}

// WithInvalidates declares the reads a successful write affects.
func (m *Mutation[In, Out]) WithInvalidates(fn func(in In, out Out) []Filter) *Mutation[In, Out] {
	m.invalidates = fn
	return m
}

// Mutate issues the write. Once issued the call runs to completion even if
// ctx is cancelled; ctx values are kept.
func (m *Mutation[In, Out]) Mutate(ctx context.Context, in In) (Out, error) {
	var zero Out
	if m.validate != nil {
		if err := m.validate(in); err != nil {
			m.settle(zero, err, false)
			return zero, err
		}
	}

	m.mu.Lock()
	m.pending++
	m.mu.Unlock()

	out, err := m.fn(context.WithoutCancel(ctx), in)
	if err != nil {
		m.settle(zero, err, true)
		m.store.logger.WithField("mutation", m.name).WithError(err).Warn("mutation failed")
		return zero, err
	}

	if m.invalidates != nil {
		if filters := m.invalidates(in, out); len(filters) > 0 {
			m.store.Invalidate(filters...)
		}
	}
	m.settle(out, nil, true)
	m.store.logger.WithFields(logrus.Fields{"mutation": m.name}).Debug("mutation succeeded")
	return out, nil
}

// State returns the outcome of the latest call.
func (m *Mutation[In, Out]) State() MutationState[Out] {
	m.mu.Lock()
	defer m.mu.Unlock()
	return MutationState[Out]{IsPending: m.pending > 0, Data: m.data, Err: m.err}
}

// Reset forgets the latest outcome.
func (m *Mutation[In, Out]) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	var zero Out
	m.data, m.err = zero, nil
}

func (m *Mutation[In, Out]) settle(out Out, err error, issued bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if issued {
		m.pending--
	}
	m.data, m.err = out, err
}
