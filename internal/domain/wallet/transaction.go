package wallet

import (
	"time"

	"github.com/google/uuid"
	"github.com/memberportal/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// TransactionType is the kind of wallet movement
type TransactionType string

const (
	// TransactionTypeTopUp credits money paid through the payment gateway
	TransactionTypeTopUp TransactionType = "TOPUP"
	// TransactionTypePurchase debits the price of an order
	TransactionTypePurchase TransactionType = "PURCHASE"
	// TransactionTypeRefund credits money back from an approved claim
	TransactionTypeRefund TransactionType = "REFUND"
	// TransactionTypeAdjustment is a manual correction by an admin, either direction
	TransactionTypeAdjustment TransactionType = "ADJUSTMENT"
)

func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeTopUp, TransactionTypePurchase, TransactionTypeRefund, TransactionTypeAdjustment:
		return true
	}
	return false
}

// SourceType names the document that caused a wallet movement
type SourceType string

const (
	SourceTypeTopUp  SourceType = "TOPUP"
	SourceTypeOrder  SourceType = "ORDER"
	SourceTypeClaim  SourceType = "CLAIM"
	SourceTypeManual SourceType = "MANUAL"
)

func (s SourceType) IsValid() bool {
	switch s {
	case SourceTypeTopUp, SourceTypeOrder, SourceTypeClaim, SourceTypeManual:
		return true
	}
	return false
}

// Source identifies what caused a wallet movement
type Source struct {
	Type      SourceType
	ID        *uuid.UUID
	Reference string
}

// Transaction is an immutable wallet ledger line.
// Amount is always positive; BalanceAfter-BalanceBefore carries the direction.
type Transaction struct {
	shared.BaseEntity
	TenantID      uuid.UUID
	WalletID      uuid.UUID
	UserID        uuid.UUID
	Type          TransactionType
	Amount        decimal.Decimal
	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal
	SourceType    SourceType
	SourceID      *uuid.UUID
	Reference     string
	Remark        string
	OperatorID    *uuid.UUID
}

func newTransaction(w *Wallet, txType TransactionType, amount, before, after decimal.Decimal, src Source) (*Transaction, error) {
	if !txType.IsValid() {
		return nil, shared.NewDomainError("INVALID_TRANSACTION_TYPE", "Invalid wallet transaction type")
	}
	if !src.Type.IsValid() {
		return nil, shared.NewDomainError("INVALID_SOURCE_TYPE", "Invalid wallet transaction source")
	}
	return &Transaction{
		BaseEntity:    shared.NewBaseEntity(),
		TenantID:      w.TenantID,
		WalletID:      w.ID,
		UserID:        w.UserID,
		Type:          txType,
		Amount:        amount,
		BalanceBefore: before,
		BalanceAfter:  after,
		SourceType:    src.Type,
		SourceID:      src.ID,
		Reference:     src.Reference,
	}, nil
}

// WithRemark sets the remark
func (t *Transaction) WithRemark(remark string) *Transaction {
	t.Remark = remark
	return t
}

// WithOperator records who performed a manual operation
func (t *Transaction) WithOperator(operatorID uuid.UUID) *Transaction {
	t.OperatorID = &operatorID
	return t
}

// SignedAmount is positive for credits and negative for debits
func (t *Transaction) SignedAmount() decimal.Decimal {
	return t.BalanceAfter.Sub(t.BalanceBefore)
}

// IsCredit reports whether the transaction increased the balance
func (t *Transaction) IsCredit() bool {
	return t.BalanceAfter.GreaterThan(t.BalanceBefore)
}

// OccurredAt returns the creation time
func (t *Transaction) OccurredAt() time.Time {
	return t.CreatedAt
}
