package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/memberportal/backend/internal/domain/claim"
	"github.com/memberportal/backend/internal/domain/shared"
	"github.com/memberportal/backend/internal/infrastructure/persistence/models"
	"github.com/memberportal/backend/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
)

// GormClaimRepository implements claim.Repository using GORM
type GormClaimRepository struct {
	db *gorm.DB
}

// NewGormClaimRepository creates a new GormClaimRepository
func NewGormClaimRepository(db *gorm.DB) *GormClaimRepository {
	return &GormClaimRepository{db: db}
}

func (r *GormClaimRepository) Create(ctx context.Context, c *claim.WarrantyClaim) error {
	return translateError(r.db.WithContext(ctx).Create(models.WarrantyClaimModelFromDomain(c)).Error)
}

func (r *GormClaimRepository) Update(ctx context.Context, c *claim.WarrantyClaim) error {
	return updateVersioned(ctx, r.db, models.WarrantyClaimModelFromDomain(c), c.ID, c.Version)
}

func (r *GormClaimRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*claim.WarrantyClaim, error) {
	var model models.WarrantyClaimModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.TenantScope(tenantID)).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

func (r *GormClaimRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]claim.WarrantyClaim, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.WarrantyClaimModel{}).
		Scopes(tenant.TenantScope(tenantID))

	if v, ok := filterValue(filter, "user_id"); ok {
		query = query.Where("user_id = ?", v)
	}
	if v, ok := filterValue(filter, "order_id"); ok {
		query = query.Where("order_id = ?", v)
	}
	if v, ok := filterValue(filter, "status"); ok {
		query = query.Where("status = ?", v)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.WarrantyClaimModel
	if err := applyPage(query, filter, ClaimSortFields, "created_at").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	claims := make([]claim.WarrantyClaim, len(rows))
	for i := range rows {
		claims[i] = *rows[i].ToDomain()
	}
	return claims, total, nil
}

func (r *GormClaimRepository) HasPendingForOrder(ctx context.Context, tenantID, orderID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.WarrantyClaimModel{}).
		Scopes(tenant.TenantScope(tenantID)).
		Where("order_id = ? AND status = ?", orderID, claim.StatusPending).
		Count(&count).Error
	return count > 0, err
}

func (r *GormClaimRepository) CountByStatus(ctx context.Context, tenantID uuid.UUID, status claim.Status) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.WarrantyClaimModel{}).
		Scopes(tenant.TenantScope(tenantID)).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}

var _ claim.Repository = (*GormClaimRepository)(nil)
