package audit

import (
	"context"

	"go.uber.org/zap"

	"github.com/memberportal/backend/internal/domain/audit"
	"github.com/memberportal/backend/internal/domain/claim"
	"github.com/memberportal/backend/internal/domain/order"
	"github.com/memberportal/backend/internal/domain/payment"
	"github.com/memberportal/backend/internal/domain/shared"
)

// EventHandler writes audit records for the money and stock movements that
// happen outside the admin back-office.
type EventHandler struct {
	recorder Recorder
	logger   *zap.Logger
}

func NewEventHandler(recorder Recorder, logger *zap.Logger) *EventHandler {
	return &EventHandler{recorder: recorder, logger: logger}
}

func (h *EventHandler) EventTypes() []string {
	return []string{payment.EventTypeTopUpPaid, order.EventTypeOrderPlaced, claim.EventTypeClaimResolved}
}

func (h *EventHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	entry, ok := entryFor(event)
	if !ok {
		h.logger.Debug("Ignoring event without audit mapping", zap.String("event_type", event.EventType()))
		return nil
	}
	return h.recorder.Record(ctx, entry)
}

func entryFor(event shared.DomainEvent) (audit.Entry, bool) {
	switch e := event.(type) {
	case *payment.TopUpPaidEvent:
		return audit.Entry{
			TenantID:     e.TenantID(),
			ActorID:      &e.UserID,
			Action:       audit.ActionTopUpPaid,
			ResourceType: "topup",
			ResourceID:   e.AggregateID().String(),
			Metadata: map[string]any{
				"merchant_ref": e.MerchantRef,
				"reference":    e.Reference,
				"method":       e.Method,
				"amount":       e.Amount.String(),
			},
		}, true
	case *order.OrderPlacedEvent:
		return audit.Entry{
			TenantID:     e.TenantID(),
			ActorID:      &e.UserID,
			Action:       audit.ActionOrderPlaced,
			ResourceType: "order",
			ResourceID:   e.AggregateID().String(),
			Metadata: map[string]any{
				"order_number": e.OrderNumber,
				"product_id":   e.ProductID.String(),
				"product_name": e.ProductName,
				"price":        e.Price.String(),
			},
		}, true
	case *claim.ClaimResolvedEvent:
		metadata := map[string]any{
			"order_id": e.OrderID.String(),
			"user_id":  e.UserID.String(),
			"status":   string(e.Status),
		}
		if e.Resolution != "" {
			metadata["resolution"] = e.Resolution
		}
		return audit.Entry{
			TenantID:     e.TenantID(),
			ActorID:      e.ResolvedBy,
			Action:       audit.ActionClaimResolved,
			ResourceType: "claim",
			ResourceID:   e.AggregateID().String(),
			Metadata:     metadata,
		}, true
	}
	return audit.Entry{}, false
}

var _ shared.EventHandler = (*EventHandler)(nil)
