package resources

import (
	"context"
	"strings"

	"github.com/avatarctic/contract-admin/internal/core/domain/apierr"
	"github.com/avatarctic/contract-admin/internal/core/domain/contract"
	"github.com/avatarctic/contract-admin/internal/core/ports"
	"github.com/avatarctic/contract-admin/internal/query"
)

const contractsPath = "/contracts"

// Contracts binds the contract table and detail view. Writes invalidate
// contracts and approval flows, which are created and cancelled with them.
type Contracts struct {
	api   ports.APIClient
	store *query.Store

	Create *query.Mutation[contract.CreateContractRequest, contract.Contract]
	Update *query.Mutation[Change[contract.UpdateContractRequest], contract.Contract]
	Delete *query.Mutation[int, struct{}]
}

func NewContracts(api ports.APIClient, store *query.Store) *Contracts {
	c := &Contracts{api: api, store: store}

	c.Create = query.NewMutation(store, "contracts.create", func(ctx context.Context, in contract.CreateContractRequest) (contract.Contract, error) {
		return decode[contract.Contract](api.Post(ctx, contractsPath, in, nil))
	}).WithValidate(func(in contract.CreateContractRequest) error {
		if strings.TrimSpace(in.Title) == "" {
			return apierr.Invalid("title", "is required")
		}
		return validateID("employeeId", in.EmployeeID)
	}).WithInvalidates(invalidates[contract.CreateContractRequest, contract.Contract](ResourceContracts, ResourceApprovalFlows))

	c.Update = query.NewMutation(store, "contracts.update", func(ctx context.Context, in Change[contract.UpdateContractRequest]) (contract.Contract, error) {
		return decode[contract.Contract](api.Put(ctx, itemPath(contractsPath, in.ID), in.Body, nil))
	}).WithValidate(func(in Change[contract.UpdateContractRequest]) error {
		if err := validateID("id", in.ID); err != nil {
			return err
		}
		if in.Body.Status != nil && !in.Body.Status.IsValid() {
			return apierr.Invalid("status", "is not a known contract status")
		}
		return nil
	}).WithInvalidates(invalidates[Change[contract.UpdateContractRequest], contract.Contract](ResourceContracts, ResourceApprovalFlows))

	c.Delete = query.NewMutation(store, "contracts.delete", func(ctx context.Context, id int) (struct{}, error) {
		_, err := api.Delete(ctx, itemPath(contractsPath, id), nil)
		return struct{}{}, err
	}).WithValidate(func(id int) error { return validateID("id", id) }).
		WithInvalidates(invalidates[int, struct{}](ResourceContracts, ResourceApprovalFlows))

	return c
}

func (c *Contracts) ListKey(p contract.ListParams) query.Key {
	return query.NewKey(ResourceContracts,
		query.P("page", p.Page),
		query.P("limit", p.Limit),
		query.Opt("status", string(p.Status)),
		query.Opt("search", p.Search),
		query.Opt("departmentId", p.DepartmentID),
	)
}

func (c *Contracts) ListQuery(p contract.ListParams) query.Query[contract.Page] {
	q := query.Query[contract.Page]{Key: c.ListKey(p)}
	err := validatePage(p.Page, p.Limit)
	if err == nil && p.Status != "" && !p.Status.IsValid() {
		err = apierr.Invalid("status", "is not a known contract status")
	}
	if err != nil {
		q.Fetch = invalid[contract.Page](err)
		return q
	}
	q.Fetch = func(ctx context.Context) (contract.Page, error) {
		v := pageValues(p.Page, p.Limit)
		setOpt(v, "status", string(p.Status))
		setOpt(v, "search", p.Search)
		setOptInt(v, "departmentId", p.DepartmentID)
		return getJSON[contract.Page](ctx, c.api, contractsPath, v)
	}
	return q
}

func (c *Contracts) List(ctx context.Context, p contract.ListParams) (contract.Page, error) {
	return query.Ensure(ctx, c.store, c.ListQuery(p))
}

func (c *Contracts) GetQuery(id int) query.Query[contract.Contract] {
	q := query.Query[contract.Contract]{Key: query.NewKey(ResourceContracts, query.P("id", id))}
	if err := validateID("id", id); err != nil {
		q.Fetch = invalid[contract.Contract](err)
		return q
	}
	q.Fetch = func(ctx context.Context) (contract.Contract, error) {
		return getJSON[contract.Contract](ctx, c.api, itemPath(contractsPath, id), nil)
	}
	return q
}

func (c *Contracts) Get(ctx context.Context, id int) (contract.Contract, error) {
	return query.Ensure(ctx, c.store, c.GetQuery(id))
}

// PDFURL is the address the viewer loads the contract document from. No
// request is made.
func (c *Contracts) PDFURL(id int) string {
	return c.api.AssetURL(itemPath(contractsPath, id, "pdf"))
}
