package models

import (
	"time"

	"github.com/memberportal/backend/internal/domain/identity"
)

// UserModel is the persistence model for identity.User
type UserModel struct {
	TenantAggregateModel
	Email        string              `gorm:"type:varchar(254);not null;index"`
	Username     string              `gorm:"type:varchar(32);not null;index"`
	PasswordHash string              `gorm:"type:varchar(100);not null"`
	FullName     string              `gorm:"type:varchar(120)"`
	Phone        string              `gorm:"type:varchar(30)"`
	Role         identity.Role       `gorm:"type:varchar(20);not null;default:'MEMBER'"`
	Status       identity.UserStatus `gorm:"type:varchar(20);not null;default:'ACTIVE'"`
	LastLoginAt  *time.Time
}

func (UserModel) TableName() string {
	return "users"
}

func (m *UserModel) ToDomain() *identity.User {
	return &identity.User{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		Email:               m.Email,
		Username:            m.Username,
		PasswordHash:        m.PasswordHash,
		FullName:            m.FullName,
		Phone:               m.Phone,
		Role:                m.Role,
		Status:              m.Status,
		LastLoginAt:         m.LastLoginAt,
	}
}

func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{
		Email:        u.Email,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		FullName:     u.FullName,
		Phone:        u.Phone,
		Role:         u.Role,
		Status:       u.Status,
		LastLoginAt:  u.LastLoginAt,
	}
	m.FromDomainTenantAggregateRoot(u.TenantAggregateRoot)
	return m
}
