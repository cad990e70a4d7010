package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/memberportal/backend/internal/domain/claim"
)

// WarrantyClaimModel is the persistence model for claim.WarrantyClaim
type WarrantyClaimModel struct {
	TenantAggregateModel
	OrderID    uuid.UUID         `gorm:"type:uuid;not null;index"`
	UserID     uuid.UUID         `gorm:"type:uuid;not null;index"`
	Reason     string            `gorm:"type:text;not null"`
	Evidence   StringList        `gorm:"type:jsonb"`
	Status     claim.Status      `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	Resolution *claim.Resolution `gorm:"type:varchar(20)"`
	AdminNote  string            `gorm:"type:text"`
	ResolvedBy *uuid.UUID        `gorm:"type:uuid"`
	ResolvedAt *time.Time
}

func (WarrantyClaimModel) TableName() string {
	return "warranty_claims"
}

func (m *WarrantyClaimModel) ToDomain() *claim.WarrantyClaim {
	evidence := []string(m.Evidence)
	if evidence == nil {
		evidence = []string{}
	}
	return &claim.WarrantyClaim{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		OrderID:             m.OrderID,
		UserID:              m.UserID,
		Reason:              m.Reason,
		Evidence:            evidence,
		Status:              m.Status,
		Resolution:          m.Resolution,
		AdminNote:           m.AdminNote,
		ResolvedBy:          m.ResolvedBy,
		ResolvedAt:          m.ResolvedAt,
	}
}

func WarrantyClaimModelFromDomain(c *claim.WarrantyClaim) *WarrantyClaimModel {
	m := &WarrantyClaimModel{
		OrderID:    c.OrderID,
		UserID:     c.UserID,
		Reason:     c.Reason,
		Evidence:   StringList(c.Evidence),
		Status:     c.Status,
		Resolution: c.Resolution,
		AdminNote:  c.AdminNote,
		ResolvedBy: c.ResolvedBy,
		ResolvedAt: c.ResolvedAt,
	}
	m.FromDomainTenantAggregateRoot(c.TenantAggregateRoot)
	return m
}
