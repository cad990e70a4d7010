package claim

import (
	"github.com/google/uuid"
	"github.com/memberportal/backend/internal/domain/shared"
)

const (
	AggregateTypeClaim = "WarrantyClaim"

	EventTypeClaimResolved = "ClaimResolved"
)

// ClaimResolvedEvent is published when an admin approves or rejects a claim
type ClaimResolvedEvent struct {
	shared.BaseDomainEvent
	OrderID    uuid.UUID  `json:"order_id"`
	UserID     uuid.UUID  `json:"user_id"`
	Status     Status     `json:"status"`
	Resolution string     `json:"resolution,omitempty"`
	ResolvedBy *uuid.UUID `json:"resolved_by,omitempty"`
}

func NewClaimResolvedEvent(c *WarrantyClaim) *ClaimResolvedEvent {
	e := &ClaimResolvedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeClaimResolved, AggregateTypeClaim, c.ID, c.TenantID),
		OrderID:         c.OrderID,
		UserID:          c.UserID,
		Status:          c.Status,
		ResolvedBy:      c.ResolvedBy,
	}
	if c.Resolution != nil {
		e.Resolution = string(*c.Resolution)
	}
	return e
}
