package order

import (
	"github.com/google/uuid"
	"github.com/memberportal/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

const (
	AggregateTypeOrder = "Order"

	EventTypeOrderPlaced = "OrderPlaced"
)

// OrderPlacedEvent is published after a successful purchase
type OrderPlacedEvent struct {
	shared.BaseDomainEvent
	OrderNumber string          `json:"order_number"`
	UserID      uuid.UUID       `json:"user_id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Price       decimal.Decimal `json:"price"`
}

func NewOrderPlacedEvent(o *Order) *OrderPlacedEvent {
	return &OrderPlacedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderPlaced, AggregateTypeOrder, o.ID, o.TenantID),
		OrderNumber:     o.OrderNumber,
		UserID:          o.UserID,
		ProductID:       o.ProductID,
		ProductName:     o.ProductName,
		Price:           o.Price,
	}
}
