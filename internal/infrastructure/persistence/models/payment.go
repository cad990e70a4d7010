package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/memberportal/backend/internal/domain/payment"
	"github.com/shopspring/decimal"
)

// TopUpModel is the persistence model for payment.TopUp
type TopUpModel struct {
	TenantAggregateModel
	UserID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	MerchantRef    string          `gorm:"type:varchar(40);not null;uniqueIndex"`
	Reference      string          `gorm:"type:varchar(60);index"`
	Method         string          `gorm:"type:varchar(30);not null"`
	Amount         decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	CustomerFee    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	AmountReceived decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	CheckoutURL    string          `gorm:"type:varchar(500)"`
	PayCode        string          `gorm:"type:varchar(100)"`
	Status         payment.Status  `gorm:"type:varchar(20);not null;default:'UNPAID';index"`
	ExpiresAt      time.Time       `gorm:"not null;index"`
	PaidAt         *time.Time
}

func (TopUpModel) TableName() string {
	return "topups"
}

func (m *TopUpModel) ToDomain() *payment.TopUp {
	return &payment.TopUp{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		UserID:              m.UserID,
		MerchantRef:         m.MerchantRef,
		Reference:           m.Reference,
		Method:              m.Method,
		Amount:              m.Amount,
		CustomerFee:         m.CustomerFee,
		AmountReceived:      m.AmountReceived,
		CheckoutURL:         m.CheckoutURL,
		PayCode:             m.PayCode,
		Status:              m.Status,
		ExpiresAt:           m.ExpiresAt,
		PaidAt:              m.PaidAt,
	}
}

func TopUpModelFromDomain(t *payment.TopUp) *TopUpModel {
	m := &TopUpModel{
		UserID:         t.UserID,
		MerchantRef:    t.MerchantRef,
		Reference:      t.Reference,
		Method:         t.Method,
		Amount:         t.Amount,
		CustomerFee:    t.CustomerFee,
		AmountReceived: t.AmountReceived,
		CheckoutURL:    t.CheckoutURL,
		PayCode:        t.PayCode,
		Status:         t.Status,
		ExpiresAt:      t.ExpiresAt,
		PaidAt:         t.PaidAt,
	}
	m.FromDomainTenantAggregateRoot(t.TenantAggregateRoot)
	return m
}
