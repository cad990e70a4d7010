package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/memberportal/backend/internal/domain/audit"
)

// AuditLogModel is the persistence model for audit.Log
type AuditLogModel struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	TenantID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	ActorID      *uuid.UUID `gorm:"type:uuid;index"`
	Action       string     `gorm:"type:varchar(50);not null;index"`
	ResourceType string     `gorm:"type:varchar(50);not null"`
	ResourceID   string     `gorm:"type:varchar(100);index"`
	Metadata     JSONMap    `gorm:"type:jsonb"`
	IP           string     `gorm:"type:varchar(45)"`
	UserAgent    string     `gorm:"type:varchar(500)"`
	CreatedAt    time.Time  `gorm:"not null;index"`
}

func (AuditLogModel) TableName() string {
	return "audit_logs"
}

func (m *AuditLogModel) ToDomain() *audit.Log {
	return &audit.Log{
		ID:           m.ID,
		TenantID:     m.TenantID,
		ActorID:      m.ActorID,
		Action:       m.Action,
		ResourceType: m.ResourceType,
		ResourceID:   m.ResourceID,
		Metadata:     map[string]any(m.Metadata),
		IP:           m.IP,
		UserAgent:    m.UserAgent,
		CreatedAt:    m.CreatedAt,
	}
}

func AuditLogModelFromDomain(l *audit.Log) *AuditLogModel {
	return &AuditLogModel{
		ID:           l.ID,
		TenantID:     l.TenantID,
		ActorID:      l.ActorID,
		Action:       l.Action,
		ResourceType: l.ResourceType,
		ResourceID:   l.ResourceID,
		Metadata:     JSONMap(l.Metadata),
		IP:           l.IP,
		UserAgent:    l.UserAgent,
		CreatedAt:    l.CreatedAt,
	}
}

// All returns every model in migration order
func All() []any {
	return []any{
		&UserModel{},
		&WalletModel{},
		&WalletTransactionModel{},
		&ProductModel{},
		&StockItemModel{},
		&OrderModel{},
		&TopUpModel{},
		&WarrantyClaimModel{},
		&TutorialModel{},
		&AuditLogModel{},
	}
}
