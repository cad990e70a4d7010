package wallet

import (
	"github.com/google/uuid"
	"github.com/memberportal/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Wallet holds the prepaid balance of one user. The balance never goes negative.
type Wallet struct {
	shared.TenantAggregateRoot
	UserID  uuid.UUID
	Balance decimal.Decimal
}

// NewWallet creates an empty wallet for a user
func NewWallet(tenantID, userID uuid.UUID) (*Wallet, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	return &Wallet{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		UserID:              userID,
		Balance:             decimal.Zero,
	}, nil
}

var errFractionalAmount = shared.NewDomainError("INVALID_AMOUNT", "Amount must be a whole rupiah value")

func checkAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Amount must be positive")
	}
	if !shared.IsWholeAmount(amount) {
		return errFractionalAmount
	}
	return nil
}

// Credit adds money and returns the ledger line describing it
func (w *Wallet) Credit(txType TransactionType, amount decimal.Decimal, src Source) (*Transaction, error) {
	if err := checkAmount(amount); err != nil {
		return nil, err
	}
	if txType == TransactionTypePurchase {
		return nil, shared.NewDomainError("INVALID_TRANSACTION_TYPE", "A purchase cannot credit a wallet")
	}
	before := w.Balance
	after := before.Add(amount)
	tx, err := newTransaction(w, txType, amount, before, after, src)
	if err != nil {
		return nil, err
	}
	w.Balance = after
	w.IncrementVersion()
	return tx, nil
}

// Debit removes money and returns the ledger line describing it
func (w *Wallet) Debit(txType TransactionType, amount decimal.Decimal, src Source) (*Transaction, error) {
	if err := checkAmount(amount); err != nil {
		return nil, err
	}
	if txType == TransactionTypeTopUp || txType == TransactionTypeRefund {
		return nil, shared.NewDomainError("INVALID_TRANSACTION_TYPE", "Top-ups and refunds cannot debit a wallet")
	}
	if !w.CanAfford(amount) {
		return nil, shared.ErrInsufficientBalance
	}
	before := w.Balance
	after := before.Sub(amount)
	tx, err := newTransaction(w, txType, amount, before, after, src)
	if err != nil {
		return nil, err
	}
	w.Balance = after
	w.IncrementVersion()
	return tx, nil
}

// Adjust applies a signed manual correction
func (w *Wallet) Adjust(delta decimal.Decimal, operatorID uuid.UUID, remark string) (*Transaction, error) {
	if delta.IsZero() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Adjustment cannot be zero")
	}
	src := Source{Type: SourceTypeManual}
	var (
		tx  *Transaction
		err error
	)
	if delta.IsPositive() {
		tx, err = w.Credit(TransactionTypeAdjustment, delta, src)
	} else {
		tx, err = w.Debit(TransactionTypeAdjustment, delta.Neg(), src)
	}
	if err != nil {
		return nil, err
	}
	return tx.WithOperator(operatorID).WithRemark(remark), nil
}

// CanAfford reports whether amount can be debited
func (w *Wallet) CanAfford(amount decimal.Decimal) bool {
	return w.Balance.GreaterThanOrEqual(amount)
}
