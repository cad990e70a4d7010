package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/memberportal/backend/internal/domain/payment"
	"github.com/memberportal/backend/internal/domain/shared"
	"github.com/memberportal/backend/internal/infrastructure/persistence/models"
	"github.com/memberportal/backend/internal/infrastructure/persistence/tenant"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormTopUpRepository implements payment.TopUpRepository using GORM
type GormTopUpRepository struct {
	db *gorm.DB
}

// NewGormTopUpRepository creates a new GormTopUpRepository
func NewGormTopUpRepository(db *gorm.DB) *GormTopUpRepository {
	return &GormTopUpRepository{db: db}
}

func (r *GormTopUpRepository) Create(ctx context.Context, t *payment.TopUp) error {
	return translateError(r.db.WithContext(ctx).Create(models.TopUpModelFromDomain(t)).Error)
}

func (r *GormTopUpRepository) Update(ctx context.Context, t *payment.TopUp) error {
	return updateVersioned(ctx, r.db, models.TopUpModelFromDomain(t), t.ID, t.Version)
}

func (r *GormTopUpRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*payment.TopUp, error) {
	var model models.TopUpModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.TenantScope(tenantID)).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByMerchantRef looks a top-up up across tenants. Gateway callbacks carry no tenant.
func (r *GormTopUpRepository) FindByMerchantRef(ctx context.Context, merchantRef string) (*payment.TopUp, error) {
	merchantRef = strings.TrimSpace(merchantRef)
	if merchantRef == "" {
		return nil, shared.ErrNotFound
	}
	var model models.TopUpModel
	if err := r.db.WithContext(ctx).
		Where("merchant_ref = ?", merchantRef).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

func (r *GormTopUpRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]payment.TopUp, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.TopUpModel{}).
		Scopes(tenant.TenantScope(tenantID))

	if v, ok := filterValue(filter, "user_id"); ok {
		query = query.Where("user_id = ?", v)
	}
	if v, ok := filterValue(filter, "status"); ok {
		query = query.Where("status = ?", v)
	}
	if v, ok := filterValue(filter, "method"); ok {
		query = query.Where("method = ?", v)
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("(LOWER(merchant_ref) LIKE ? OR LOWER(reference) LIKE ?)", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.TopUpModel
	if err := applyPage(query, filter, TopUpSortFields, "created_at").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	topUps := make([]payment.TopUp, len(rows))
	for i := range rows {
		topUps[i] = *rows[i].ToDomain()
	}
	return topUps, total, nil
}

// FindStale returns UNPAID top-ups of all tenants whose expiry passed, oldest first
func (r *GormTopUpRepository) FindStale(ctx context.Context, before time.Time, limit int) ([]payment.TopUp, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []models.TopUpModel
	if err := r.db.WithContext(ctx).
		Where("status = ? AND expires_at < ?", payment.StatusUnpaid, before).
		Order("expires_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	topUps := make([]payment.TopUp, len(rows))
	for i := range rows {
		topUps[i] = *rows[i].ToDomain()
	}
	return topUps, nil
}

func (r *GormTopUpRepository) PaidVolumeSince(ctx context.Context, tenantID uuid.UUID, since time.Time) (decimal.Decimal, error) {
	var row struct {
		Volume decimal.NullDecimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.TopUpModel{}).
		Select("SUM(amount) AS volume").
		Scopes(tenant.TenantScope(tenantID)).
		Where("status = ? AND paid_at >= ?", payment.StatusPaid, since).
		Scan(&row).Error; err != nil {
		return decimal.Zero, err
	}
	if !row.Volume.Valid {
		return decimal.Zero, nil
	}
	return row.Volume.Decimal, nil
}

var _ payment.TopUpRepository = (*GormTopUpRepository)(nil)
