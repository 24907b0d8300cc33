package contract

import (
	"time"
)

type Contract struct {
	ID           int        `json:"id"`
	Code         string     `json:"code"`
	Title        string     `json:"title"`
	Type         string     `json:"type"`
	EmployeeID   int        `json:"employeeId"`
	DepartmentID *int       `json:"departmentId,omitempty"`
	Status       Status     `json:"status"`
	FilePath     string     `json:"filePath,omitempty"`
	StartDate    time.Time  `json:"startDate"`
	EndDate      *time.Time `json:"endDate,omitempty"`
	Salary       float64    `json:"salary,omitempty"`
	CreatedBy    int        `json:"createdBy"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

type Status string

const (
	StatusDraft     Status = "draft"
	StatusPending   Status = "pending_approval"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusSigned    Status = "signed"
	StatusCancelled Status = "cancelled"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusApproved, StatusRejected, StatusSigned, StatusCancelled:
		return true
	}
	return false
}

// IsSignable is true once every approver has approved.
func (c *Contract) IsSignable() bool {
	return c.Status == StatusApproved
}

type ListParams struct {
	Page         int
	Limit        int
	Status       Status
	Search       string
	DepartmentID *int
}

type Page struct {
	Items []Contract `json:"items"`
	Total int        `json:"total"`
	Page  int        `json:"page"`
	Limit int        `json:"limit"`
}

// CreateContractRequest represents the request to create a contract
type CreateContractRequest struct {
	Title        string     `json:"title"`
	Type         string     `json:"type"`
	EmployeeID   int        `json:"employeeId"`
	DepartmentID *int       `json:"departmentId,omitempty"`
	StartDate    time.Time  `json:"startDate"`
	EndDate      *time.Time `json:"endDate,omitempty"`
	Salary       float64    `json:"salary,omitempty"`
	ApproverIDs  []int      `json:"approverIds,omitempty"`
}

// UpdateContractRequest represents the request to update a contract
type UpdateContractRequest struct {
	Title     *string    `json:"title,omitempty"`
	Type      *string    `json:"type,omitempty"`
	Status    *Status    `json:"status,omitempty"`
	StartDate *time.Time `json:"startDate,omitempty"`
	EndDate   *time.Time `json:"endDate,omitempty"`
	Salary    *float64   `json:"salary,omitempty"`
}
