package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/memberportal/backend/internal/domain/shared"
	"github.com/memberportal/backend/internal/domain/tutorial"
	"github.com/memberportal/backend/internal/infrastructure/persistence/models"
	"github.com/memberportal/backend/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
)

// GormTutorialRepository implements tutorial.Repository using GORM
type GormTutorialRepository struct {
	db *gorm.DB
}

// NewGormTutorialRepository creates a new GormTutorialRepository
func NewGormTutorialRepository(db *gorm.DB) *GormTutorialRepository {
	return &GormTutorialRepository{db: db}
}

func (r *GormTutorialRepository) Create(ctx context.Context, t *tutorial.Tutorial) error {
	return translateError(r.db.WithContext(ctx).Create(models.TutorialModelFromDomain(t)).Error)
}

func (r *GormTutorialRepository) Update(ctx context.Context, t *tutorial.Tutorial) error {
	return updateVersioned(ctx, r.db, models.TutorialModelFromDomain(t), t.ID, t.Version)
}

func (r *GormTutorialRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Scopes(tenant.TenantScope(tenantID)).
		Where("id = ?", id).
		Delete(&models.TutorialModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormTutorialRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*tutorial.Tutorial, error) {
	var model models.TutorialModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.TenantScope(tenantID)).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

func (r *GormTutorialRepository) FindBySlug(ctx context.Context, tenantID uuid.UUID, slug string) (*tutorial.Tutorial, error) {
	var model models.TutorialModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.TenantScope(tenantID)).
		Where("slug = ?", slug).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

func (r *GormTutorialRepository) ExistsBySlug(ctx context.Context, tenantID uuid.UUID, slug string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.TutorialModel{}).
		Scopes(tenant.TenantScope(tenantID)).
		Where("slug = ?", slug).
		Count(&count).Error
	return count > 0, err
}

// FindAllForTenant lists tutorials ordered by sort_order unless told otherwise
func (r *GormTutorialRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]tutorial.Tutorial, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.TutorialModel{}).
		Scopes(tenant.TenantScope(tenantID))

	if v, ok := filterValue(filter, "category"); ok {
		query = query.Where("category = ?", v)
	}
	if v, ok := filterValue(filter, "published"); ok {
		query = query.Where("published = ?", v)
	}
	if filter.Search != "" {
		query = query.Where("LOWER(title) LIKE ?", likePattern(filter.Search))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.OrderBy == "" {
		filter.OrderBy = "sort_order"
		filter.OrderDir = "asc"
	}
	var rows []models.TutorialModel
	if err := applyPage(query, filter, TutorialSortFields, "sort_order").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	tutorials := make([]tutorial.Tutorial, len(rows))
	for i := range rows {
		tutorials[i] = *rows[i].ToDomain()
	}
	return tutorials, total, nil
}

var _ tutorial.Repository = (*GormTutorialRepository)(nil)
