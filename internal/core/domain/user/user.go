package user

import (
	"time"
)

type User struct {
	ID           int        `json:"id"`
	Email        string     `json:"email"`
	FullName     string     `json:"fullName"`
	Phone        string     `json:"phone,omitempty"`
	Position     string     `json:"position,omitempty"`
	Role         UserRole   `json:"role"`
	DepartmentID *int       `json:"departmentId,omitempty"`
	IsActive     bool       `json:"isActive"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

type UserRole string

const (
	RoleAdmin    UserRole = "admin"
	RoleManager  UserRole = "manager"
	RoleEmployee UserRole = "employee"
)

func (r UserRole) String() string {
	return string(r)
}

func (r UserRole) IsValid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleEmployee:
		return true
	default:
		return false
	}
}

// ListParams selects a page of users. Search and DepartmentID are optional filters.
type ListParams struct {
	Page         int
	Limit        int
	Search       string
	DepartmentID *int
}

// Page is one page of the user table.
type Page struct {
	Items []User `json:"items"`
	Total int    `json:"total"`
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
}

// CreateUserRequest represents the request to create a new user
type CreateUserRequest struct {
	Email        string   `json:"email"`
	Password     string   `json:"password"`
	FullName     string   `json:"fullName"`
	Phone        string   `json:"phone,omitempty"`
	Position     string   `json:"position,omitempty"`
	Role         UserRole `json:"role"`
	DepartmentID *int     `json:"departmentId,omitempty"`
}

// UpdateUserRequest represents the request to update a user
type UpdateUserRequest struct {
	FullName     *string   `json:"fullName,omitempty"`
	Phone        *string   `json:"phone,omitempty"`
	Position     *string   `json:"position,omitempty"`
	Role         *UserRole `json:"role,omitempty"`
	DepartmentID *int      `json:"departmentId,omitempty"`
	IsActive     *bool     `json:"isActive,omitempty"`
}
