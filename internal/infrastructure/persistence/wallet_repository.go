package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/memberportal/backend/internal/domain/shared"
	"github.com/memberportal/backend/internal/domain/wallet"
	"github.com/memberportal/backend/internal/infrastructure/persistence/models"
	"github.com/memberportal/backend/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
)

// GormWalletRepository implements wallet.WalletRepository using GORM
type GormWalletRepository struct {
	db *gorm.DB
}

// NewGormWalletRepository creates a new GormWalletRepository
func NewGormWalletRepository(db *gorm.DB) *GormWalletRepository {
	return &GormWalletRepository{db: db}
}

// Create inserts a wallet. A second wallet for the same user yields shared.ErrAlreadyExists.
func (r *GormWalletRepository) Create(ctx context.Context, w *wallet.Wallet) error {
	return translateError(r.db.WithContext(ctx).Create(models.WalletModelFromDomain(w)).Error)
}

// Update saves the balance with an optimistic version check
func (r *GormWalletRepository) Update(ctx context.Context, w *wallet.Wallet) error {
	return updateVersioned(ctx, r.db, models.WalletModelFromDomain(w), w.ID, w.Version)
}

// FindByUser returns the wallet of a user
func (r *GormWalletRepository) FindByUser(ctx context.Context, tenantID, userID uuid.UUID) (*wallet.Wallet, error) {
	var model models.WalletModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.TenantScope(tenantID)).
		Where("user_id = ?", userID).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// GormWalletTransactionRepository implements wallet.TransactionRepository using GORM
type GormWalletTransactionRepository struct {
	db *gorm.DB
}

// NewGormWalletTransactionRepository creates a new GormWalletTransactionRepository
func NewGormWalletTransactionRepository(db *gorm.DB) *GormWalletTransactionRepository {
	return &GormWalletTransactionRepository{db: db}
}

// Create appends a ledger line
func (r *GormWalletTransactionRepository) Create(ctx context.Context, tx *wallet.Transaction) error {
	return translateError(r.db.WithContext(ctx).Create(models.WalletTransactionModelFromDomain(tx)).Error)
}

// FindByUser lists a user's ledger, newest first by default
func (r *GormWalletTransactionRepository) FindByUser(ctx context.Context, tenantID, userID uuid.UUID, filter shared.Filter) ([]wallet.Transaction, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.WalletTransactionModel{}).
		Scopes(tenant.TenantScope(tenantID)).
		Where("user_id = ?", userID)
	if v, ok := filterValue(filter, "type"); ok {
		query = query.Where("type = ?", v)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.WalletTransactionModel
	if err := applyPage(query, filter, WalletTransactionSortFields, "created_at").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]wallet.Transaction, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, total, nil
}

var (
	_ wallet.WalletRepository      = (*GormWalletRepository)(nil)
	_ wallet.TransactionRepository = (*GormWalletTransactionRepository)(nil)
)
