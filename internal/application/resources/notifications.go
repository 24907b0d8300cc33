package resources

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/avatarctic/contract-admin/internal/core/domain/notification"
	"github.com/avatarctic/contract-admin/internal/core/ports"
	"github.com/avatarctic/contract-admin/internal/query"
)

const notificationsPath = "/notifications"

// Notifications binds the notification bell. Its reads poll, since new
// notifications are produced server side.
type Notifications struct {
	api          ports.APIClient
	store        *query.Store
	pollInterval time.Duration

	MarkRead    *query.Mutation[int, struct{}]
	MarkAllRead *query.Mutation[int, struct{}]
}

func NewNotifications(api ports.APIClient, store *query.Store, pollInterval time.Duration) *Notifications {
	n := &Notifications{api: api, store: store, pollInterval: pollInterval}

	n.MarkRead = query.NewMutation(store, "notifications.read", func(ctx context.Context, id int) (struct{}, error) {
		_, err := api.Patch(ctx, itemPath(notificationsPath, id, "read"), nil, nil)
		return struct{}{}, err
	}).WithValidate(func(id int) error { return validateID("id", id) }).
		WithInvalidates(invalidates[int, struct{}](ResourceNotifications))

	// the input is the user whose notifications are marked
	n.MarkAllRead = query.NewMutation(store, "notifications.read_all", func(ctx context.Context, userID int) (struct{}, error) {
		_, err := api.Patch(ctx, notificationsPath+"/read-all", map[string]int{"userId": userID}, nil)
		return struct{}{}, err
	}).WithValidate(func(userID int) error { return validateID("userId", userID) }).
		WithInvalidates(invalidates[int, struct{}](ResourceNotifications))

	return n
}

func (n *Notifications) ListKey(p notification.ListParams) query.Key {
	return query.NewKey(ResourceNotifications,
		query.P("userId", p.UserID),
		query.P("page", p.Page),
		query.P("limit", p.Limit),
	)
}

func (n *Notifications) ListQuery(p notification.ListParams) query.Query[notification.Page] {
	q := query.Query[notification.Page]{Key: n.ListKey(p), PollInterval: n.pollInterval}
	err := validateID("userId", p.UserID)
	if err == nil {
		err = validatePage(p.Page, p.Limit)
	}
	if err != nil {
		q.Fetch = invalid[notification.Page](err)
		return q
	}
	q.Fetch = func(ctx context.Context) (notification.Page, error) {
		v := pageValues(p.Page, p.Limit)
		v.Set("userId", strconv.Itoa(p.UserID))
		return getJSON[notification.Page](ctx, n.api, notificationsPath, v)
	}
	return q
}

func (n *Notifications) List(ctx context.Context, p notification.ListParams) (notification.Page, error) {
	return query.Ensure(ctx, n.store, n.ListQuery(p))
}

// Observe subscribes to a notification page, polling at the default cadence
// unless opts override it.
func (n *Notifications) Observe(p notification.ListParams, opts ...query.ObserveOption) *query.Observer[notification.Page] {
	return query.Observe(n.store, n.ListQuery(p), opts...)
}

func (n *Notifications) UnreadCountQuery(userID int) query.Query[notification.UnreadCount] {
	q := query.Query[notification.UnreadCount]{
		Key:          query.NewKey(ResourceNotifications, query.P("userId", userID), query.P("view", "unread_count")),
		PollInterval: n.pollInterval,
	}
	if err := validateID("userId", userID); err != nil {
		q.Fetch = invalid[notification.UnreadCount](err)
		return q
	}
	q.Fetch = func(ctx context.Context) (notification.UnreadCount, error) {
		return getJSON[notification.UnreadCount](ctx, n.api, notificationsPath+"/unread-count", url.Values{"userId": {strconv.Itoa(userID)}})
	}
	return q
}

func (n *Notifications) UnreadCount(ctx context.Context, userID int) (notification.UnreadCount, error) {
	return query.Ensure(ctx, n.store, n.UnreadCountQuery(userID))
}
