package session

import (
	"time"

	"github.com/avatarctic/contract-admin/internal/core/domain/user"
)

// Session is the persisted record of the signed-in user.
type Session struct {
	User       user.User  `json:"user"`
	Token      string     `json:"token,omitempty"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
	LoggedInAt time.Time  `json:"loggedInAt"`
}

// IsExpired reports whether the session token carried an expiry that has passed.
func (s *Session) IsExpired(now time.Time) bool {
	return s.ExpiresAt != nil && now.After(*s.ExpiresAt)
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is what the API returns on a successful login.
type LoginResponse struct {
	User        user.User `json:"user"`
	AccessToken string    `json:"accessToken,omitempty"`
}
