package telemetry

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormStockCounter implements StockCounter with one grouped query over stock_items
type GormStockCounter struct {
	db *gorm.DB
}

func NewGormStockCounter(db *gorm.DB) *GormStockCounter {
	return &GormStockCounter{db: db}
}

func (p *GormStockCounter) AvailableByTenant(ctx context.Context) (map[uuid.UUID]int64, error) {
	var rows []struct {
		TenantID  uuid.UUID
		Available int64
	}
	err := p.db.WithContext(ctx).
		Table("stock_items").
		Select("tenant_id, COUNT(*) AS available").
		Where("status = ?", "AVAILABLE").
		Group("tenant_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]int64, len(rows))
	for _, r := range rows {
		out[r.TenantID] = r.Available
	}
	return out, nil
}
