package approval

import "time"

// Step is one approver's position in a contract's approval flow.
type Step struct {
	ID         int        `json:"id"`
	ContractID int        `json:"contractId"`
	ApproverID int        `json:"approverId"`
	StepOrder  int        `json:"stepOrder"`
	Status     Status     `json:"status"`
	Reason     string     `json:"reason,omitempty"`
	DecidedAt  *time.Time `json:"decidedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

type PendingParams struct {
	ApproverID int
	Page       int
	Limit      int
}

type Page struct {
	Items []Step `json:"items"`
	Total int    `json:"total"`
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
}

type RejectRequest struct {
	Reason string `json:"reason"`
}
