package identity

import (
	"time"

	"github.com/orgdir/backend/internal/domain/identity"
)

// LoginInput contains the credentials of a login attempt. Username carries
// the email address.
type LoginInput struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

// LoginResult is the bearer token issued on a successful login
type LoginResult struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"-"`
}

// LogoutInput identifies the token being revoked
type LogoutInput struct {
	UserID   int64
	TokenJTI string
	TTL      time.Duration
}

// RegisterRequest is the payload of a self-registration
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email,max=320"`
	Password string `json:"password" binding:"required"`
}

// UpdateMeRequest is a partial update of the caller's own account
type UpdateMeRequest struct {
	Email    *string `json:"email" binding:"omitempty,email,max=320"`
	Password *string `json:"password"`
}

// UpdateUserRequest is a partial update performed by a superuser
type UpdateUserRequest struct {
	Email       *string `json:"email" binding:"omitempty,email,max=320"`
	Password    *string `json:"password"`
	IsActive    *bool   `json:"is_active"`
	IsSuperuser *bool   `json:"is_superuser"`
	IsVerified  *bool   `json:"is_verified"`
}

// UserDTO is the public representation of a user
type UserDTO struct {
	ID          int64  `json:"id"`
	Email       string `json:"email"`
	IsActive    bool   `json:"is_active"`
	IsSuperuser bool   `json:"is_superuser"`
	IsVerified  bool   `json:"is_verified"`
}

// ToUserDTO converts a domain User to UserDTO
func ToUserDTO(u *identity.User) *UserDTO {
	return &UserDTO{
		ID:          u.ID,
		Email:       u.Email,
		IsActive:    u.IsActive,
		IsSuperuser: u.IsSuperuser,
		IsVerified:  u.IsVerified,
	}
}
