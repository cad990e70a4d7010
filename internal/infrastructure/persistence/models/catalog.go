package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/memberportal/backend/internal/domain/catalog"
	"github.com/memberportal/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ProductModel is the persistence model for catalog.Product
type ProductModel struct {
	TenantAggregateModel
	Name         string                `gorm:"type:varchar(200);not null"`
	Slug         string                `gorm:"type:varchar(220);not null;index"`
	Category     string                `gorm:"type:varchar(50);not null;index"`
	Description  string                `gorm:"type:text"`
	Price        decimal.Decimal       `gorm:"type:decimal(18,2);not null"`
	WarrantyDays int                   `gorm:"not null;default:0"`
	Status       catalog.ProductStatus `gorm:"type:varchar(20);not null;default:'ACTIVE'"`
}

func (ProductModel) TableName() string {
	return "products"
}

func (m *ProductModel) ToDomain() *catalog.Product {
	return &catalog.Product{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		Name:                m.Name,
		Slug:                m.Slug,
		Category:            m.Category,
		Description:         m.Description,
		Price:               m.Price,
		WarrantyDays:        m.WarrantyDays,
		Status:              m.Status,
	}
}

func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{
		Name:         p.Name,
		Slug:         p.Slug,
		Category:     p.Category,
		Description:  p.Description,
		Price:        p.Price,
		WarrantyDays: p.WarrantyDays,
		Status:       p.Status,
	}
	m.FromDomainTenantAggregateRoot(p.TenantAggregateRoot)
	return m
}

// StockItemModel is the persistence model for catalog.StockItem.
// Credential holds the sealed secret; it is never stored in plaintext.
type StockItemModel struct {
	BaseModel
	TenantID    uuid.UUID           `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID           `gorm:"type:uuid;not null;index;uniqueIndex:idx_stock_product_fingerprint,priority:1"`
	Credential  []byte              `gorm:"not null"`
	Fingerprint string              `gorm:"type:varchar(64);not null;uniqueIndex:idx_stock_product_fingerprint,priority:2"`
	Status      catalog.StockStatus `gorm:"type:varchar(20);not null;default:'AVAILABLE';index"`
	OrderID     *uuid.UUID          `gorm:"type:uuid"`
	SoldAt      *time.Time
}

func (StockItemModel) TableName() string {
	return "stock_items"
}

func (m *StockItemModel) ToDomain() *catalog.StockItem {
	return &catalog.StockItem{
		BaseEntity:  shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		TenantID:    m.TenantID,
		ProductID:   m.ProductID,
		Credential:  m.Credential,
		Fingerprint: m.Fingerprint,
		Status:      m.Status,
		OrderID:     m.OrderID,
		SoldAt:      m.SoldAt,
	}
}

func StockItemModelFromDomain(s *catalog.StockItem) *StockItemModel {
	m := &StockItemModel{
		TenantID:    s.TenantID,
		ProductID:   s.ProductID,
		Credential:  s.Credential,
		Fingerprint: s.Fingerprint,
		Status:      s.Status,
		OrderID:     s.OrderID,
		SoldAt:      s.SoldAt,
	}
	m.FromDomainBaseEntity(s.BaseEntity)
	return m
}
