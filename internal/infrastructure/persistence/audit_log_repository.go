package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/memberportal/backend/internal/domain/audit"
	"github.com/memberportal/backend/internal/domain/shared"
	"github.com/memberportal/backend/internal/infrastructure/persistence/models"
	"github.com/memberportal/backend/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
)

// GormAuditLogRepository implements audit.Repository using GORM
type GormAuditLogRepository struct {
	db *gorm.DB
}

// NewGormAuditLogRepository creates a new GormAuditLogRepository
func NewGormAuditLogRepository(db *gorm.DB) *GormAuditLogRepository {
	return &GormAuditLogRepository{db: db}
}

func (r *GormAuditLogRepository) Create(ctx context.Context, l *audit.Log) error {
	return translateError(r.db.WithContext(ctx).Create(models.AuditLogModelFromDomain(l)).Error)
}

func (r *GormAuditLogRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, q audit.Query, filter shared.Filter) ([]audit.Log, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.AuditLogModel{}).
		Scopes(tenant.TenantScope(tenantID))

	if q.ActorID != nil {
		query = query.Where("actor_id = ?", *q.ActorID)
	}
	if q.Action != "" {
		query = query.Where("action = ?", q.Action)
	}
	if q.ResourceType != "" {
		query = query.Where("resource_type = ?", q.ResourceType)
	}
	if q.ResourceID != "" {
		query = query.Where("resource_id = ?", q.ResourceID)
	}
	if q.From != nil {
		query = query.Where("created_at >= ?", *q.From)
	}
	if q.To != nil {
		query = query.Where("created_at <= ?", *q.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.AuditLogModel
	if err := applyPage(query, filter, AuditLogSortFields, "created_at").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	logs := make([]audit.Log, len(rows))
	for i := range rows {
		logs[i] = *rows[i].ToDomain()
	}
	return logs, total, nil
}

var _ audit.Repository = (*GormAuditLogRepository)(nil)
