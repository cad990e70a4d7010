package persistence

import (
	"context"

	"github.com/memberportal/backend/internal/application/unitofwork"
	"github.com/memberportal/backend/internal/domain/catalog"
	"github.com/memberportal/backend/internal/domain/claim"
	"github.com/memberportal/backend/internal/domain/identity"
	"github.com/memberportal/backend/internal/domain/order"
	"github.com/memberportal/backend/internal/domain/payment"
	"github.com/memberportal/backend/internal/domain/wallet"
	"gorm.io/gorm"
)

// GormTransactionScope implements unitofwork.TransactionScope using GORM transactions
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn within a database transaction.
// If fn returns an error, the transaction is rolled back.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos unitofwork.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// gormTransactionalRepositories hands out repositories bound to one transaction
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

func (r *gormTransactionalRepositories) UserRepo() identity.UserRepository {
	return NewGormUserRepository(r.tx)
}

func (r *gormTransactionalRepositories) WalletRepo() wallet.WalletRepository {
	return NewGormWalletRepository(r.tx)
}

func (r *gormTransactionalRepositories) WalletTxRepo() wallet.TransactionRepository {
	return NewGormWalletTransactionRepository(r.tx)
}

func (r *gormTransactionalRepositories) StockRepo() catalog.StockRepository {
	return NewGormStockRepository(r.tx)
}

func (r *gormTransactionalRepositories) OrderRepo() order.Repository {
	return NewGormOrderRepository(r.tx)
}

func (r *gormTransactionalRepositories) TopUpRepo() payment.TopUpRepository {
	return NewGormTopUpRepository(r.tx)
}

func (r *gormTransactionalRepositories) ClaimRepo() claim.Repository {
	return NewGormClaimRepository(r.tx)
}

var (
	_ unitofwork.TransactionScope          = (*GormTransactionScope)(nil)
	_ unitofwork.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
)
