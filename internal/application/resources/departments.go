package resources

import (
	"context"
	"strings"

	"github.com/avatarctic/contract-admin/internal/core/domain/apierr"
	"github.com/avatarctic/contract-admin/internal/core/domain/department"
	"github.com/avatarctic/contract-admin/internal/core/domain/user"
	"github.com/avatarctic/contract-admin/internal/core/ports"
	"github.com/avatarctic/contract-admin/internal/query"
)

const departmentsPath = "/departments"

// Departments binds department management. Writes invalidate departments
// and users, because user lists are filtered by department.
type Departments struct {
	api   ports.APIClient
	store *query.Store

	Create *query.Mutation[department.CreateDepartmentRequest, department.Department]
	Update *query.Mutation[Change[department.UpdateDepartmentRequest], department.Department]
	Delete *query.Mutation[int, struct{}]
}

func NewDepartments(api ports.APIClient, store *query.Store) *Departments {
	d := &Departments{api: api, store: store}

	d.Create = query.NewMutation(store, "departments.create", func(ctx context.Context, in department.CreateDepartmentRequest) (department.Department, error) {
		return decode[department.Department](api.Post(ctx, departmentsPath, in, nil))
	}).WithValidate(func(in department.CreateDepartmentRequest) error {
		if strings.TrimSpace(in.Name) == "" {
			return apierr.Invalid("name", "is required")
		}
		return nil
	}).WithInvalidates(invalidates[department.CreateDepartmentRequest, department.Department](ResourceDepartments, ResourceUsers))

	d.Update = query.NewMutation(store, "departments.update", func(ctx context.Context, in Change[department.UpdateDepartmentRequest]) (department.Department, error) {
		return decode[department.Department](api.Put(ctx, itemPath(departmentsPath, in.ID), in.Body, nil))
	}).WithValidate(func(in Change[department.UpdateDepartmentRequest]) error {
		if err := validateID("id", in.ID); err != nil {
			return err
		}
		if in.Body.Name != nil && strings.TrimSpace(*in.Body.Name) == "" {
			return apierr.Invalid("name", "must not be empty")
		}
		return nil
	}).WithInvalidates(invalidates[Change[department.UpdateDepartmentRequest], department.Department](ResourceDepartments, ResourceUsers))

	d.Delete = query.NewMutation(store, "departments.delete", func(ctx context.Context, id int) (struct{}, error) {
		_, err := api.Delete(ctx, itemPath(departmentsPath, id), nil)
		return struct{}{}, err
	}).WithValidate(func(id int) error { return validateID("id", id) }).
		WithInvalidates(invalidates[int, struct{}](ResourceDepartments, ResourceUsers))

	return d
}

func (d *Departments) ListKey(p department.ListParams) query.Key {
	return query.NewKey(ResourceDepartments,
		query.P("page", p.Page),
		query.P("limit", p.Limit),
		query.Opt("search", p.Search),
	)
}

func (d *Departments) ListQuery(p department.ListParams) query.Query[department.Page] {
	q := query.Query[department.Page]{Key: d.ListKey(p)}
	if err := validatePage(p.Page, p.Limit); err != nil {
		q.Fetch = invalid[department.Page](err)
		return q
	}
	q.Fetch = func(ctx context.Context) (department.Page, error) {
		v := pageValues(p.Page, p.Limit)
		setOpt(v, "search", p.Search)
		return getJSON[department.Page](ctx, d.api, departmentsPath, v)
	}
	return q
}

func (d *Departments) List(ctx context.Context, p department.ListParams) (department.Page, error) {
	return query.Ensure(ctx, d.store, d.ListQuery(p))
}

func (d *Departments) GetQuery(id int) query.Query[department.Department] {
	q := query.Query[department.Department]{Key: query.NewKey(ResourceDepartments, query.P("id", id))}
	if err := validateID("id", id); err != nil {
		q.Fetch = invalid[department.Department](err)
		return q
	}
	q.Fetch = func(ctx context.Context) (department.Department, error) {
		return getJSON[department.Department](ctx, d.api, itemPath(departmentsPath, id), nil)
	}
	return q
}

func (d *Departments) Get(ctx context.Context, id int) (department.Department, error) {
	return query.Ensure(ctx, d.store, d.GetQuery(id))
}

// MembersQuery reads the users of one department.
func (d *Departments) MembersQuery(id int) query.Query[[]user.User] {
	q := query.Query[[]user.User]{Key: query.NewKey(ResourceDepartments, query.P("id", id), query.P("view", "members"))}
	if err := validateID("id", id); err != nil {
		q.Fetch = invalid[[]user.User](err)
		return q
	}
	q.Fetch = func(ctx context.Context) ([]user.User, error) {
		return getJSON[[]user.User](ctx, d.api, itemPath(departmentsPath, id, "users"), nil)
	}
	return q
}

func (d *Departments) Members(ctx context.Context, id int) ([]user.User, error) {
	return query.Ensure(ctx, d.store, d.MembersQuery(id))
}
