package query

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/avatarctic/contract-admin/internal/core/ports"
)

const (
	DefaultGCTime     = 5 * time.Minute
	DefaultRetry      = 1
	DefaultRetryDelay = time.Second
)

// Option configures a Store.
type Option func(*options)

type options struct {
	staleTime      time.Duration
	gcTime         time.Duration
	retry          int
	retryDelay     time.Duration
	maxIdleEntries int
	logger         *logrus.Logger
	metrics        ports.QueryMetrics
	persister      ports.Cache
	persistTTL     time.Duration
}

// WithStaleTime sets how long fetched data counts as fresh. Fresh data is
// served without a refetch. The default of zero makes every read revalidate.
func WithStaleTime(d time.Duration) Option {
	return func(o *options) { o.staleTime = d }
}

// WithGCTime sets how long an unobserved entry is retained before it is reclaimed.
func WithGCTime(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.gcTime = d
		}
	}
}

// WithRetry sets the number of automatic retries of a failed read and the pause between them.
func WithRetry(n int, delay time.Duration) Option {
	return func(o *options) {
		if n >= 0 {
			o.retry = n
		}
		if delay >= 0 {
			o.retryDelay = delay
		}
	}
}

// WithMaxIdleEntries bounds the number of unobserved entries kept for reuse.
// Zero means unbounded.
func WithMaxIdleEntries(n int) Option {
	return func(o *options) { o.maxIdleEntries = n }
}

func WithLogger(logger *logrus.Logger) Option {
	return func(o *options) { o.logger = logger }
}

func WithMetrics(m ports.QueryMetrics) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithPersister mirrors successful reads into a second tier so that a fresh
// process can show last-known data while it revalidates.
func WithPersister(c ports.Cache, ttl time.Duration) Option {
	return func(o *options) {
		o.persister = c
		o.persistTTL = ttl
	}
}

// ObserveOption configures a single Observer.
type ObserveOption func(*observeOptions)

type observeOptions struct {
	pollInterval   time.Duration
	refetchOnFocus bool
}

// WithPollInterval re-issues the read every d while the observer is open.
// Zero disables polling, overriding the query's default.
func WithPollInterval(d time.Duration) ObserveOption {
	return func(o *observeOptions) { o.pollInterval = d }
}

// WithoutRefetchOnFocus opts the observer out of Store.Focus refetches.
func WithoutRefetchOnFocus() ObserveOption {
	return func(o *observeOptions) { o.refetchOnFocus = false }
}
