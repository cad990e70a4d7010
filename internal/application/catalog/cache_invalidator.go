package catalog

import (
	"context"

	"github.com/memberportal/backend/internal/domain/claim"
	"github.com/memberportal/backend/internal/domain/order"
	"github.com/memberportal/backend/internal/domain/shared"
)

// CacheInvalidator drops cached catalog pages whenever stock leaves the shelf
// outside the admin screens: a purchase or a replacement.
type CacheInvalidator struct {
	service *Service
}

func NewCacheInvalidator(service *Service) *CacheInvalidator {
	return &CacheInvalidator{service: service}
}

func (h *CacheInvalidator) EventTypes() []string {
	return []string{order.EventTypeOrderPlaced, claim.EventTypeClaimResolved}
}

func (h *CacheInvalidator) Handle(ctx context.Context, event shared.DomainEvent) error {
	h.service.Invalidate(ctx, event.TenantID())
	return nil
}
