package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/memberportal/backend/internal/domain/order"
	"github.com/memberportal/backend/internal/domain/shared"
	"github.com/memberportal/backend/internal/infrastructure/persistence/models"
	"github.com/memberportal/backend/internal/infrastructure/persistence/tenant"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormOrderRepository implements order.Repository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func (r *GormOrderRepository) Create(ctx context.Context, o *order.Order) error {
	return translateError(r.db.WithContext(ctx).Create(models.OrderModelFromDomain(o)).Error)
}

func (r *GormOrderRepository) Update(ctx context.Context, o *order.Order) error {
	return updateVersioned(ctx, r.db, models.OrderModelFromDomain(o), o.ID, o.Version)
}

func (r *GormOrderRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*order.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.TenantScope(tenantID)).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

func (r *GormOrderRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]order.Order, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Scopes(tenant.TenantScope(tenantID))

	if v, ok := filterValue(filter, "user_id"); ok {
		query = query.Where("user_id = ?", v)
	}
	if v, ok := filterValue(filter, "product_id"); ok {
		query = query.Where("product_id = ?", v)
	}
	if v, ok := filterValue(filter, "status"); ok {
		query = query.Where("status = ?", v)
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("(LOWER(order_number) LIKE ? OR LOWER(product_name) LIKE ?)", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.OrderModel
	if err := applyPage(query, filter, OrderSortFields, "created_at").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	orders := make([]order.Order, len(rows))
	for i := range rows {
		orders[i] = *rows[i].ToDomain()
	}
	return orders, total, nil
}

// CountSoldForProduct counts orders ever placed for a product, refunded ones included
func (r *GormOrderRepository) CountSoldForProduct(ctx context.Context, tenantID, productID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Scopes(tenant.TenantScope(tenantID)).
		Where("product_id = ?", productID).
		Count(&count).Error
	return count, err
}

func (r *GormOrderRepository) SalesSince(ctx context.Context, tenantID uuid.UUID, since time.Time) (int64, decimal.Decimal, error) {
	var row struct {
		Count   int64
		Revenue decimal.NullDecimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Select("COUNT(*) AS count, SUM(price) AS revenue").
		Scopes(tenant.TenantScope(tenantID)).
		Where("status = ? AND created_at >= ?", order.StatusCompleted, since).
		Scan(&row).Error; err != nil {
		return 0, decimal.Zero, err
	}
	if !row.Revenue.Valid {
		return row.Count, decimal.Zero, nil
	}
	return row.Count, row.Revenue.Decimal, nil
}

var _ order.Repository = (*GormOrderRepository)(nil)
