package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/memberportal/backend/internal/domain/order"
	"github.com/shopspring/decimal"
)

// OrderModel is the persistence model for order.Order
type OrderModel struct {
	TenantAggregateModel
	OrderNumber       string          `gorm:"type:varchar(30);not null;uniqueIndex"`
	UserID            uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	StockItemID       uuid.UUID       `gorm:"type:uuid;not null"`
	ProductName       string          `gorm:"type:varchar(200);not null"`
	Price             decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	WarrantyExpiresAt time.Time       `gorm:"not null"`
	Status            order.Status    `gorm:"type:varchar(20);not null;default:'COMPLETED';index"`
	ReplacementCount  int             `gorm:"not null;default:0"`
	RefundedAt        *time.Time
}

func (OrderModel) TableName() string {
	return "orders"
}

func (m *OrderModel) ToDomain() *order.Order {
	return &order.Order{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		OrderNumber:         m.OrderNumber,
		UserID:              m.UserID,
		ProductID:           m.ProductID,
		StockItemID:         m.StockItemID,
		ProductName:         m.ProductName,
		Price:               m.Price,
		WarrantyExpiresAt:   m.WarrantyExpiresAt,
		Status:              m.Status,
		ReplacementCount:    m.ReplacementCount,
		RefundedAt:          m.RefundedAt,
	}
}

func OrderModelFromDomain(o *order.Order) *OrderModel {
	m := &OrderModel{
		OrderNumber:       o.OrderNumber,
		UserID:            o.UserID,
		ProductID:         o.ProductID,
		StockItemID:       o.StockItemID,
		ProductName:       o.ProductName,
		Price:             o.Price,
		WarrantyExpiresAt: o.WarrantyExpiresAt,
		Status:            o.Status,
		ReplacementCount:  o.ReplacementCount,
		RefundedAt:        o.RefundedAt,
	}
	m.FromDomainTenantAggregateRoot(o.TenantAggregateRoot)
	return m
}
