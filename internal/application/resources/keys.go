package resources

import "github.com/avatarctic/contract-admin/internal/query"

// Resource names used as the first component of every query key.
const (
	ResourceUsers         = "users"
	ResourceDepartments   = "departments"
	ResourceContracts     = "contracts"
	ResourceNotifications = "notifications"
	ResourceSignatures    = "signatures"
	ResourceApprovalFlows = "approval_flows"
	ResourceAttachments   = "attachments"
)

// every selects all keys of each resource. Writes invalidate whole
// resources: refetching too much is acceptable, showing stale data is not.
func every(resources ...string) []query.Filter {
	filters := make([]query.Filter, 0, len(resources))
	for _, r := range resources {
		filters = append(filters, query.Match(r))
	}
	return filters
}

// invalidates adapts a fixed filter set to a mutation's invalidation hook.
func invalidates[In, Out any](resources ...string) func(In, Out) []query.Filter {
	filters := every(resources...)
	return func(In, Out) []query.Filter { return filters }
}
