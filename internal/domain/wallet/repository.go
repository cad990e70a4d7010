package wallet

import (
	"context"

	"github.com/google/uuid"
	"github.com/memberportal/backend/internal/domain/shared"
)

// WalletRepository persists wallets
type WalletRepository interface {
	Create(ctx context.Context, w *Wallet) error
	// Update persists the wallet with an optimistic version check.
	// Returns shared.ErrConcurrencyConflict if someone else saved first.
	Update(ctx context.Context, w *Wallet) error
	FindByUser(ctx context.Context, tenantID, userID uuid.UUID) (*Wallet, error)
}

// TransactionRepository stores ledger lines
type TransactionRepository interface {
	Create(ctx context.Context, tx *Transaction) error
	// FindByUser lists one user's ledger; filter "type" narrows by TransactionType
	FindByUser(ctx context.Context, tenantID, userID uuid.UUID, filter shared.Filter) ([]Transaction, int64, error)
}
