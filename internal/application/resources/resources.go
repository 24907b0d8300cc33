// Package resources binds every remote resource of the contract admin API
// to the query store: keyed, cached reads and invalidating writes.
package resources

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/avatarctic/contract-admin/internal/core/domain/apierr"
	"github.com/avatarctic/contract-admin/internal/core/ports"
	"github.com/avatarctic/contract-admin/internal/query"
)

// DefaultPollInterval is the refresh cadence of reads that change server
// side without a local write: notifications and pending approvals.
const DefaultPollInterval = 5 * time.Second

// Change pairs a resource id with its update payload.
type Change[T any] struct {
	ID   int
	Body T
}

// Resources is the full set of resource bindings sharing one API client and
// one query store.
type Resources struct {
	Users         *Users
	Departments   *Departments
	Contracts     *Contracts
	Notifications *Notifications
	Signatures    *Signatures
	Approvals     *Approvals
	Attachments   *Attachments
}

// Option configures New.
type Option func(*options)

type options struct {
	pollInterval time.Duration
}

// WithPollInterval overrides DefaultPollInterval. Zero disables polling.
func WithPollInterval(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.pollInterval = d
		}
	}
}

// New binds every resource to api and store.
func New(api ports.APIClient, store *query.Store, opts ...Option) *Resources {
	op := options{pollInterval: DefaultPollInterval}
	for _, opt := range opts {
		opt(&op)
	}
	return &Resources{
		Users:         NewUsers(api, store),
		Departments:   NewDepartments(api, store),
		Contracts:     NewContracts(api, store),
		Notifications: NewNotifications(api, store, op.pollInterval),
		Signatures:    NewSignatures(api, store),
		Approvals:     NewApprovals(api, store, op.pollInterval),
		Attachments:   NewAttachments(api, store),
	}
}

func decode[T any](resp *ports.Response, err error) (T, error) {
	var v T
	if err != nil {
		return v, err
	}
	if err := resp.Decode(&v); err != nil {
		return v, err
	}
	return v, nil
}

// getJSON issues a GET and decodes the body into T.
func getJSON[T any](ctx context.Context, api ports.APIClient, path string, q url.Values) (T, error) {
	var cfg *ports.RequestConfig
	if len(q) > 0 {
		cfg = &ports.RequestConfig{Query: q}
	}
	return decode[T](api.Get(ctx, path, cfg))
}

// invalid returns a fetch that fails with err without touching the network.
func invalid[T any](err error) func(context.Context) (T, error) {
	return func(context.Context) (T, error) {
		var zero T
		return zero, err
	}
}

func validatePage(page, limit int) error {
	if page < 1 {
		return apierr.Invalid("page", "must be a positive integer")
	}
	if limit < 1 {
		return apierr.Invalid("limit", "must be a positive integer")
	}
	return nil
}

func validateID(field string, id int) error {
	if id < 1 {
		return apierr.Invalid(field, "must be a positive integer")
	}
	return nil
}

func pageValues(page, limit int) url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	return q
}

func setOpt(q url.Values, name, value string) {
	if value != "" {
		q.Set(name, value)
	}
}

func setOptInt(q url.Values, name string, v *int) {
	if v != nil {
		q.Set(name, strconv.Itoa(*v))
	}
}

func itemPath(base string, id int, suffix ...string) string {
	p := fmt.Sprintf("%s/%d", base, id)
	for _, s := range suffix {
		p += "/" + s
	}
	return p
}
