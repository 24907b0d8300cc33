package notification

import "time"

type Notification struct {
	ID         int       `json:"id"`
	UserID     int       `json:"userId"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	Type       string    `json:"type"`
	ContractID *int      `json:"contractId,omitempty"`
	IsRead     bool      `json:"isRead"`
	CreatedAt  time.Time `json:"createdAt"`
}

type ListParams struct {
	UserID int
	Page   int
	Limit  int
}

type Page struct {
	Items []Notification `json:"items"`
	Total int            `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

type UnreadCount struct {
	Count int `json:"count"`
}
