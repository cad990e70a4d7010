package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/memberportal/backend/internal/domain/catalog"
	"github.com/memberportal/backend/internal/domain/shared"
	"github.com/memberportal/backend/internal/infrastructure/persistence/models"
	"github.com/memberportal/backend/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
)

// claimAttempts bounds how often ClaimAvailable retries after losing a race for an item
const claimAttempts = 5

// GormStockRepository implements catalog.StockRepository using GORM
type GormStockRepository struct {
	db *gorm.DB
}

// NewGormStockRepository creates a new GormStockRepository
func NewGormStockRepository(db *gorm.DB) *GormStockRepository {
	return &GormStockRepository{db: db}
}

// CreateBatch inserts items in chunks of 100
func (r *GormStockRepository) CreateBatch(ctx context.Context, items []*catalog.StockItem) error {
	if len(items) == 0 {
		return nil
	}
	rows := make([]*models.StockItemModel, len(items))
	for i, item := range items {
		rows[i] = models.StockItemModelFromDomain(item)
	}
	return translateError(r.db.WithContext(ctx).CreateInBatches(rows, 100).Error)
}

func (r *GormStockRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*catalog.StockItem, error) {
	var model models.StockItemModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.TenantScope(tenantID)).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

func (r *GormStockRepository) FindByProduct(ctx context.Context, tenantID, productID uuid.UUID, filter shared.Filter) ([]catalog.StockItem, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.StockItemModel{}).
		Scopes(tenant.TenantScope(tenantID)).
		Where("product_id = ?", productID)
	if v, ok := filterValue(filter, "status"); ok {
		query = query.Where("status = ?", v)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.StockItemModel
	if err := applyPage(query, filter, StockItemSortFields, "created_at").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	items := make([]catalog.StockItem, len(rows))
	for i := range rows {
		items[i] = *rows[i].ToDomain()
	}
	return items, total, nil
}

func (r *GormStockRepository) ExistingFingerprints(ctx context.Context, tenantID, productID uuid.UUID, fingerprints []string) (map[string]bool, error) {
	existing := make(map[string]bool)
	if len(fingerprints) == 0 {
		return existing, nil
	}
	var found []string
	if err := r.db.WithContext(ctx).
		Model(&models.StockItemModel{}).
		Scopes(tenant.TenantScope(tenantID)).
		Where("product_id = ? AND fingerprint IN ?", productID, fingerprints).
		Pluck("fingerprint", &found).Error; err != nil {
		return nil, err
	}
	for _, fp := range found {
		existing[fp] = true
	}
	return existing, nil
}

// ClaimAvailable picks the oldest AVAILABLE item and flips it to SOLD with a
// conditional update, so two buyers can never receive the same item.
func (r *GormStockRepository) ClaimAvailable(ctx context.Context, tenantID, productID, orderID uuid.UUID, at time.Time) (*catalog.StockItem, error) {
	for range claimAttempts {
		var model models.StockItemModel
		err := r.db.WithContext(ctx).
			Scopes(tenant.TenantScope(tenantID)).
			Where("product_id = ? AND status = ?", productID, catalog.StockStatusAvailable).
			Order("created_at ASC").
			First(&model).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrOutOfStock
		}
		if err != nil {
			return nil, err
		}

		result := r.db.WithContext(ctx).
			Model(&models.StockItemModel{}).
			Where("id = ? AND status = ?", model.ID, catalog.StockStatusAvailable).
			Updates(map[string]any{
				"status":     catalog.StockStatusSold,
				"order_id":   orderID,
				"sold_at":    at,
				"updated_at": at,
			})
		if result.Error != nil {
			return nil, result.Error
		}
		if result.RowsAffected == 1 {
			item := model.ToDomain()
			if err := item.MarkSold(orderID, at); err != nil {
				return nil, err
			}
			return item, nil
		}
	}
	return nil, shared.ErrConcurrencyConflict
}

// Revoke moves an AVAILABLE item to REVOKED
func (r *GormStockRepository) Revoke(ctx context.Context, item *catalog.StockItem) error {
	result := r.db.WithContext(ctx).
		Model(&models.StockItemModel{}).
		Scopes(tenant.TenantScope(item.TenantID)).
		Where("id = ? AND status = ?", item.ID, catalog.StockStatusAvailable).
		Updates(map[string]any{
			"status":     catalog.StockStatusRevoked,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := r.FindByIDForTenant(ctx, item.TenantID, item.ID); err != nil {
			return err
		}
		return shared.ErrInvalidState
	}
	item.Status = catalog.StockStatusRevoked
	return nil
}

func (r *GormStockRepository) CountAvailable(ctx context.Context, tenantID uuid.UUID, productIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	counts := make(map[uuid.UUID]int64, len(productIDs))
	if len(productIDs) == 0 {
		return counts, nil
	}
	var rows []struct {
		ProductID uuid.UUID
		Count     int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.StockItemModel{}).
		Select("product_id, COUNT(*) AS count").
		Scopes(tenant.TenantScope(tenantID)).
		Where("status = ? AND product_id IN ?", catalog.StockStatusAvailable, productIDs).
		Group("product_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.ProductID] = row.Count
	}
	return counts, nil
}

func (r *GormStockRepository) CountByStatus(ctx context.Context, tenantID uuid.UUID, productID *uuid.UUID, status catalog.StockStatus) (int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.StockItemModel{}).
		Scopes(tenant.TenantScope(tenantID)).
		Where("status = ?", status)
	if productID != nil {
		query = query.Where("product_id = ?", *productID)
	}
	var count int64
	err := query.Count(&count).Error
	return count, err
}

var _ catalog.StockRepository = (*GormStockRepository)(nil)
