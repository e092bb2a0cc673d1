// Package identity holds user accounts and the password policy that guards them.
package identity

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/orgdir/backend/internal/domain/shared"
)

// Password cost for bcrypt
const bcryptCost = 12

// bcrypt ignores input beyond 72 bytes.
const maxPasswordBytes = 72

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// User errors
var (
	ErrUserAlreadyExists = shared.NewDomainError("REGISTER_USER_ALREADY_EXISTS", "User with this email already exists")
	ErrBadCredentials    = shared.NewDomainError("LOGIN_BAD_CREDENTIALS", "Invalid email or password")
	ErrUserInactive      = shared.NewDomainError("USER_INACTIVE", "User is inactive")
)

// User is an account that can obtain access tokens.
type User struct {
	shared.BaseEntity
	Email          string
	HashedPassword string
	IsActive       bool
	IsSuperuser    bool
	IsVerified     bool
}

// UserPatch holds the optional fields of a partial user update. The flag
// fields are only honoured for superuser-driven updates.
type UserPatch struct {
	Email       *string
	Password    *string
	IsActive    *bool
	IsSuperuser *bool
	IsVerified  *bool
}

// PasswordPolicy validates new passwords.
type PasswordPolicy struct {
	MinLength int
}

// Validate checks length and that the password does not embed the email.
func (p PasswordPolicy) Validate(password, email string) error {
	if len([]rune(password)) < p.MinLength {
		return shared.NewDomainError("INVALID_PASSWORD",
			fmt.Sprintf("Пароль должен содержать минимум %d символа", p.MinLength))
	}
	if len(password) > maxPasswordBytes {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot exceed 72 bytes")
	}
	if email != "" && strings.Contains(password, email) {
		return shared.NewDomainError("INVALID_PASSWORD", "Пароль не должен быть похож на email")
	}
	return nil
}

// NewUser creates an active, non-superuser account with a hashed password.
func NewUser(email, password string, policy PasswordPolicy) (*User, error) {
	email = NormalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := policy.Validate(password, email); err != nil {
		return nil, err
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}

	return &User{
		Email:          email,
		HashedPassword: hash,
		IsActive:       true,
	}, nil
}

// NewSuperuser creates an active, verified superuser.
func NewSuperuser(email, password string, policy PasswordPolicy) (*User, error) {
	u, err := NewUser(email, password, policy)
	if err != nil {
		return nil, err
	}
	u.IsSuperuser = true
	u.IsVerified = true
	return u, nil
}

// Apply merges the patch. Privilege flags are applied only when privileged is true.
func (u *User) Apply(p UserPatch, policy PasswordPolicy, privileged bool) error {
	email := u.Email
	if p.Email != nil {
		email = NormalizeEmail(*p.Email)
		if err := validateEmail(email); err != nil {
			return err
		}
	}

	hash := u.HashedPassword
	if p.Password != nil {
		if err := policy.Validate(*p.Password, email); err != nil {
			return err
		}
		h, err := hashPassword(*p.Password)
		if err != nil {
			return shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
		}
		hash = h
	}

	u.Email = email
	u.HashedPassword = hash
	if privileged {
		if p.IsActive != nil {
			u.IsActive = *p.IsActive
		}
		if p.IsSuperuser != nil {
			u.IsSuperuser = *p.IsSuperuser
		}
		if p.IsVerified != nil {
			u.IsVerified = *p.IsVerified
		}
	}
	u.Touch()
	return nil
}

// VerifyPassword checks if the provided password matches the stored hash
func (u *User) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.HashedPassword), []byte(password)) == nil
}

// CanLogin reports whether the user is allowed to obtain tokens.
func (u *User) CanLogin() bool {
	return u.IsActive
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if len(email) > 320 {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot exceed 320 characters")
	}
	if !emailRegex.MatchString(email) {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
