package models

import (
	"github.com/orgdir/backend/internal/domain/identity"
)

// UserModel is the persistence model for the User domain entity.
type UserModel struct {
	BaseModel
	Email          string `gorm:"type:varchar(320);not null;uniqueIndex"`
	HashedPassword string `gorm:"type:varchar(1024);not null"`
	IsActive       bool   `gorm:"not null"`
	IsSuperuser    bool   `gorm:"not null"`
	IsVerified     bool   `gorm:"not null"`
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User entity.
func (m *UserModel) ToDomain() *identity.User {
	return &identity.User{
		BaseEntity:     m.BaseModel.ToDomain(),
		Email:          m.Email,
		HashedPassword: m.HashedPassword,
		IsActive:       m.IsActive,
		IsSuperuser:    m.IsSuperuser,
		IsVerified:     m.IsVerified,
	}
}

// FromDomain populates the persistence model from a domain User entity.
func (m *UserModel) FromDomain(u *identity.User) {
	m.FromDomainBaseEntity(u.BaseEntity)
	m.Email = u.Email
	m.HashedPassword = u.HashedPassword
	m.IsActive = u.IsActive
	m.IsSuperuser = u.IsSuperuser
	m.IsVerified = u.IsVerified
}

// UserModelFromDomain creates a new persistence model from a domain User entity.
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{}
	m.FromDomain(u)
	return m
}
