// Package unitofwork defines the transaction boundary shared by the
// application services that move money or stock.
package unitofwork

import (
	"context"

	"github.com/memberportal/backend/internal/domain/catalog"
	"github.com/memberportal/backend/internal/domain/claim"
	"github.com/memberportal/backend/internal/domain/identity"
	"github.com/memberportal/backend/internal/domain/order"
	"github.com/memberportal/backend/internal/domain/payment"
	"github.com/memberportal/backend/internal/domain/wallet"
)

// TransactionScope provides transaction boundary management.
// All repositories handed to fn share one database transaction.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides repositories bound to the current transaction.
//
// Aggregates saved through Update are version checked. A conflict surfaces as
// shared.ErrConcurrencyConflict and rolls the whole unit back, so callers can
// retry the complete operation.
type TransactionalRepositories interface {
	UserRepo() identity.UserRepository
	WalletRepo() wallet.WalletRepository
	WalletTxRepo() wallet.TransactionRepository
	StockRepo() catalog.StockRepository
	OrderRepo() order.Repository
	TopUpRepo() payment.TopUpRepository
	ClaimRepo() claim.Repository
}
