package models

import (
	"github.com/google/uuid"
	"github.com/memberportal/backend/internal/domain/shared"
	"github.com/memberportal/backend/internal/domain/wallet"
	"github.com/shopspring/decimal"
)

// WalletModel is the persistence model for wallet.Wallet
type WalletModel struct {
	TenantAggregateModel
	UserID  uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	Balance decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
}

func (WalletModel) TableName() string {
	return "wallets"
}

func (m *WalletModel) ToDomain() *wallet.Wallet {
	return &wallet.Wallet{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		UserID:              m.UserID,
		Balance:             m.Balance,
	}
}

func WalletModelFromDomain(w *wallet.Wallet) *WalletModel {
	m := &WalletModel{
		UserID:  w.UserID,
		Balance: w.Balance,
	}
	m.FromDomainTenantAggregateRoot(w.TenantAggregateRoot)
	return m
}

// WalletTransactionModel is the persistence model for wallet.Transaction.
// Rows are insert-only.
type WalletTransactionModel struct {
	BaseModel
	TenantID      uuid.UUID              `gorm:"type:uuid;not null;index"`
	WalletID      uuid.UUID              `gorm:"type:uuid;not null;index"`
	UserID        uuid.UUID              `gorm:"type:uuid;not null;index"`
	Type          wallet.TransactionType `gorm:"type:varchar(20);not null"`
	Amount        decimal.Decimal        `gorm:"type:decimal(18,2);not null"`
	BalanceBefore decimal.Decimal        `gorm:"type:decimal(18,2);not null"`
	BalanceAfter  decimal.Decimal        `gorm:"type:decimal(18,2);not null"`
	SourceType    wallet.SourceType      `gorm:"type:varchar(20);not null"`
	SourceID      *uuid.UUID             `gorm:"type:uuid;index"`
	Reference     string                 `gorm:"type:varchar(100)"`
	Remark        string                 `gorm:"type:varchar(500)"`
	OperatorID    *uuid.UUID             `gorm:"type:uuid"`
}

func (WalletTransactionModel) TableName() string {
	return "wallet_transactions"
}

func (m *WalletTransactionModel) ToDomain() *wallet.Transaction {
	return &wallet.Transaction{
		BaseEntity:    shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		TenantID:      m.TenantID,
		WalletID:      m.WalletID,
		UserID:        m.UserID,
		Type:          m.Type,
		Amount:        m.Amount,
		BalanceBefore: m.BalanceBefore,
		BalanceAfter:  m.BalanceAfter,
		SourceType:    m.SourceType,
		SourceID:      m.SourceID,
		Reference:     m.Reference,
		Remark:        m.Remark,
		OperatorID:    m.OperatorID,
	}
}

func WalletTransactionModelFromDomain(t *wallet.Transaction) *WalletTransactionModel {
	m := &WalletTransactionModel{
		TenantID:      t.TenantID,
		WalletID:      t.WalletID,
		UserID:        t.UserID,
		Type:          t.Type,
		Amount:        t.Amount,
		BalanceBefore: t.BalanceBefore,
		BalanceAfter:  t.BalanceAfter,
		SourceType:    t.SourceType,
		SourceID:      t.SourceID,
		Reference:     t.Reference,
		Remark:        t.Remark,
		OperatorID:    t.OperatorID,
	}
	m.FromDomainBaseEntity(t.BaseEntity)
	return m
}
