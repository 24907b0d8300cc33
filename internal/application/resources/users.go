package resources

import (
	"context"
	"strings"

	"github.com/avatarctic/contract-admin/internal/core/domain/apierr"
	"github.com/avatarctic/contract-admin/internal/core/domain/user"
	"github.com/avatarctic/contract-admin/internal/core/ports"
	"github.com/avatarctic/contract-admin/internal/query"
)

const usersPath = "/users"

// Users binds the employee table. Writes invalidate users and departments,
// since membership counts and member lists depend on users.
type Users struct {
	api   ports.APIClient
	store *query.Store

	Create *query.Mutation[user.CreateUserRequest, user.User]
	Update *query.Mutation[Change[user.UpdateUserRequest], user.User]
	Delete *query.Mutation[int, struct{}]
}

func NewUsers(api ports.APIClient, store *query.Store) *Users {
	u := &Users{api: api, store: store}

	u.Create = query.NewMutation(store, "users.create", func(ctx context.Context, in user.CreateUserRequest) (user.User, error) {
		return decode[user.User](api.Post(ctx, usersPath, in, nil))
	}).WithValidate(validateCreateUser).
		WithInvalidates(invalidates[user.CreateUserRequest, user.User](ResourceUsers, ResourceDepartments))

	u.Update = query.NewMutation(store, "users.update", func(ctx context.Context, in Change[user.UpdateUserRequest]) (user.User, error) {
		return decode[user.User](api.Put(ctx, itemPath(usersPath, in.ID), in.Body, nil))
	}).WithValidate(func(in Change[user.UpdateUserRequest]) error {
		if err := validateID("id", in.ID); err != nil {
			return err
		}
		if in.Body.Role != nil && !in.Body.Role.IsValid() {
			return apierr.Invalid("role", "is not a known role")
		}
		return nil
	}).WithInvalidates(invalidates[Change[user.UpdateUserRequest], user.User](ResourceUsers, ResourceDepartments))

	u.Delete = query.NewMutation(store, "users.delete", func(ctx context.Context, id int) (struct{}, error) {
		_, err := api.Delete(ctx, itemPath(usersPath, id), nil)
		return struct{}{}, err
	}).WithValidate(func(id int) error { return validateID("id", id) }).
		WithInvalidates(invalidates[int, struct{}](ResourceUsers, ResourceDepartments))

	return u
}

// ListKey is the cache identity of a user table page.
func (u *Users) ListKey(p user.ListParams) query.Key {
	return query.NewKey(ResourceUsers,
		query.P("page", p.Page),
		query.P("limit", p.Limit),
		query.Opt("search", p.Search),
		query.Opt("departmentId", p.DepartmentID),
	)
}

// ListQuery reads a page of users. Invalid pagination fails without a request.
func (u *Users) ListQuery(p user.ListParams) query.Query[user.Page] {
	q := query.Query[user.Page]{Key: u.ListKey(p)}
	if err := validatePage(p.Page, p.Limit); err != nil {
		q.Fetch = invalid[user.Page](err)
		return q
	}
	q.Fetch = func(ctx context.Context) (user.Page, error) {
		v := pageValues(p.Page, p.Limit)
		setOpt(v, "search", p.Search)
		setOptInt(v, "departmentId", p.DepartmentID)
		return getJSON[user.Page](ctx, u.api, usersPath, v)
	}
	return q
}

func (u *Users) List(ctx context.Context, p user.ListParams) (user.Page, error) {
	return query.Ensure(ctx, u.store, u.ListQuery(p))
}

func (u *Users) GetQuery(id int) query.Query[user.User] {
	q := query.Query[user.User]{Key: query.NewKey(ResourceUsers, query.P("id", id))}
	if err := validateID("id", id); err != nil {
		q.Fetch = invalid[user.User](err)
		return q
	}
	q.Fetch = func(ctx context.Context) (user.User, error) {
		return getJSON[user.User](ctx, u.api, itemPath(usersPath, id), nil)
	}
	return q
}

func (u *Users) Get(ctx context.Context, id int) (user.User, error) {
	return query.Ensure(ctx, u.store, u.GetQuery(id))
}

func validateCreateUser(in user.CreateUserRequest) error {
	if strings.TrimSpace(in.Email) == "" {
		return apierr.Invalid("email", "is required")
	}
	if strings.TrimSpace(in.FullName) == "" {
		return apierr.Invalid("fullName", "is required")
	}
	if !in.Role.IsValid() {
		return apierr.Invalid("role", "is not a known role")
	}
	return nil
}
