package resources

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/avatarctic/contract-admin/internal/core/domain/apierr"
	"github.com/avatarctic/contract-admin/internal/core/domain/approval"
	"github.com/avatarctic/contract-admin/internal/core/ports"
	"github.com/avatarctic/contract-admin/internal/query"
)

const approvalFlowsPath = "/approval-flows"

// Approvals binds contract approval flows. The pending queue polls because
// other approvers move contracts into it.
type Approvals struct {
	api          ports.APIClient
	store        *query.Store
	pollInterval time.Duration

	Approve *query.Mutation[int, approval.Step]
	Reject  *query.Mutation[Change[approval.RejectRequest], approval.Step]
}

func NewApprovals(api ports.APIClient, store *query.Store, pollInterval time.Duration) *Approvals {
	a := &Approvals{api: api, store: store, pollInterval: pollInterval}

	a.Approve = query.NewMutation(store, "approvals.approve", func(ctx context.Context, id int) (approval.Step, error) {
		return decode[approval.Step](api.Post(ctx, itemPath(approvalFlowsPath, id, "approve"), nil, nil))
	}).WithValidate(func(id int) error { return validateID("id", id) }).
		WithInvalidates(invalidates[int, approval.Step](ResourceApprovalFlows, ResourceContracts, ResourceNotifications))

	a.Reject = query.NewMutation(store, "approvals.reject", func(ctx context.Context, in Change[approval.RejectRequest]) (approval.Step, error) {
		return decode[approval.Step](api.Post(ctx, itemPath(approvalFlowsPath, in.ID, "reject"), in.Body, nil))
	}).WithValidate(func(in Change[approval.RejectRequest]) error {
		if err := validateID("id", in.ID); err != nil {
			return err
		}
		if strings.TrimSpace(in.Body.Reason) == "" {
			return apierr.Invalid("reason", "is required")
		}
		return nil
	}).WithInvalidates(invalidates[Change[approval.RejectRequest], approval.Step](ResourceApprovalFlows, ResourceContracts, ResourceNotifications))

	return a
}

func (a *Approvals) ByContractQuery(contractID int) query.Query[[]approval.Step] {
	q := query.Query[[]approval.Step]{Key: query.NewKey(ResourceApprovalFlows, query.P("contractId", contractID))}
	if err := validateID("contractId", contractID); err != nil {
		q.Fetch = invalid[[]approval.Step](err)
		return q
	}
	q.Fetch = func(ctx context.Context) ([]approval.Step, error) {
		return getJSON[[]approval.Step](ctx, a.api, itemPath(approvalFlowsPath+"/contract", contractID), nil)
	}
	return q
}

func (a *Approvals) ByContract(ctx context.Context, contractID int) ([]approval.Step, error) {
	return query.Ensure(ctx, a.store, a.ByContractQuery(contractID))
}

func (a *Approvals) PendingKey(p approval.PendingParams) query.Key {
	return query.NewKey(ResourceApprovalFlows,
		query.P("approverId", p.ApproverID),
		query.P("page", p.Page),
		query.P("limit", p.Limit),
	)
}

// PendingQuery reads the approver's queue.
func (a *Approvals) PendingQuery(p approval.PendingParams) query.Query[approval.Page] {
	q := query.Query[approval.Page]{Key: a.PendingKey(p), PollInterval: a.pollInterval}
	err := validateID("approverId", p.ApproverID)
	if err == nil {
		err = validatePage(p.Page, p.Limit)
	}
	if err != nil {
		q.Fetch = invalid[approval.Page](err)
		return q
	}
	q.Fetch = func(ctx context.Context) (approval.Page, error) {
		v := pageValues(p.Page, p.Limit)
		v.Set("approverId", strconv.Itoa(p.ApproverID))
		return getJSON[approval.Page](ctx, a.api, approvalFlowsPath+"/pending", v)
	}
	return q
}

func (a *Approvals) Pending(ctx context.Context, p approval.PendingParams) (approval.Page, error) {
	return query.Ensure(ctx, a.store, a.PendingQuery(p))
}

// ObservePending subscribes to the approver's queue, polling at the default
// cadence unless opts override it.
func (a *Approvals) ObservePending(p approval.PendingParams, opts ...query.ObserveOption) *query.Observer[approval.Page] {
	return query.Observe(a.store, a.PendingQuery(p), opts...)
}
