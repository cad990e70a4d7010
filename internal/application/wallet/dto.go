package wallet

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/memberportal/backend/internal/domain/wallet"
)

// WalletResponse is the balance view of a wallet
type WalletResponse struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"user_id"`
	Balance   decimal.Decimal `json:"balance"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func ToWalletResponse(w *wallet.Wallet) WalletResponse {
	return WalletResponse{
		ID:        w.ID,
		UserID:    w.UserID,
		Balance:   w.Balance,
		UpdatedAt: w.UpdatedAt,
	}
}

// TransactionResponse is one ledger line
type TransactionResponse struct {
	ID            uuid.UUID       `json:"id"`
	Type          string          `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	SignedAmount  decimal.Decimal `json:"signed_amount"`
	BalanceBefore decimal.Decimal `json:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	SourceType    string          `json:"source_type"`
	SourceID      *uuid.UUID      `json:"source_id,omitempty"`
	Reference     string          `json:"reference,omitempty"`
	Remark        string          `json:"remark,omitempty"`
	OperatorID    *uuid.UUID      `json:"operator_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

func ToTransactionResponse(t *wallet.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:            t.ID,
		Type:          string(t.Type),
		Amount:        t.Amount,
		SignedAmount:  t.SignedAmount(),
		BalanceBefore: t.BalanceBefore,
		BalanceAfter:  t.BalanceAfter,
		SourceType:    string(t.SourceType),
		SourceID:      t.SourceID,
		Reference:     t.Reference,
		Remark:        t.Remark,
		OperatorID:    t.OperatorID,
		CreatedAt:     t.CreatedAt,
	}
}

// ListTransactionsInput narrows a ledger listing
type ListTransactionsInput struct {
	Type     string
	Page     int
	PageSize int
}

// AdjustInput is a manual balance correction. Amount is signed.
type AdjustInput struct {
	UserID uuid.UUID
	Amount decimal.Decimal
	Remark string
}

// AdjustResult is the wallet after an adjustment and the ledger line written
type AdjustResult struct {
	Wallet      WalletResponse      `json:"wallet"`
	Transaction TransactionResponse `json:"transaction"`
}
