package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/memberportal/backend/internal/domain/catalog"
	"github.com/memberportal/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Status of an order
type Status string

const (
	StatusCompleted Status = "COMPLETED"
	StatusRefunded  Status = "REFUNDED"
)

func (s Status) IsValid() bool {
	return s == StatusCompleted || s == StatusRefunded
}

// Order is the purchase of one stock item paid from the wallet.
// Product name, price and warranty are snapshots taken at purchase time.
type Order struct {
	shared.TenantAggregateRoot
	OrderNumber       string
	UserID            uuid.UUID
	ProductID         uuid.UUID
	StockItemID       uuid.UUID
	ProductName       string
	Price             decimal.Decimal
	WarrantyExpiresAt time.Time
	Status            Status
	ReplacementCount  int
	RefundedAt        *time.Time
}

// NewOrder snapshots the product into a COMPLETED order for the given stock item
func NewOrder(userID uuid.UUID, product *catalog.Product, stockItemID uuid.UUID, now time.Time) (*Order, error) {
	return NewOrderWithID(uuid.New(), userID, product, stockItemID, now)
}

// NewOrderWithID is NewOrder for an ID chosen up front, so stock can be
// claimed for the order before the order row exists.
func NewOrderWithID(id, userID uuid.UUID, product *catalog.Product, stockItemID uuid.UUID, now time.Time) (*Order, error) {
	if id == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ORDER", "Order ID cannot be empty")
	}
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	if product == nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product cannot be empty")
	}
	if stockItemID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_STOCK", "Stock item cannot be empty")
	}
	o := &Order{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(product.TenantID),
		UserID:              userID,
		ProductID:           product.ID,
		StockItemID:         stockItemID,
		ProductName:         product.Name,
		Price:               product.Price,
		WarrantyExpiresAt:   now.AddDate(0, 0, product.WarrantyDays),
		Status:              StatusCompleted,
	}
	o.ID = id
	o.CreatedAt = now
	o.UpdatedAt = now
	o.OrderNumber = NumberFor(o.ID, now)
	o.AddDomainEvent(NewOrderPlacedEvent(o))
	return o, nil
}

// NumberFor builds the human readable order number ORD-<yyyymmdd>-<first 8 hex of id>
func NumberFor(id uuid.UUID, at time.Time) string {
	return "ORD-" + at.Format("20060102") + "-" + id.String()[:8]
}

// IsOwnedBy reports whether userID placed the order
func (o *Order) IsOwnedBy(userID uuid.UUID) bool {
	return o.UserID == userID
}

// IsUnderWarranty reports whether a claim may still be filed at now
func (o *Order) IsUnderWarranty(now time.Time) bool {
	return !now.After(o.WarrantyExpiresAt)
}

// ReplaceStock re-points the order to a replacement stock item
func (o *Order) ReplaceStock(stockItemID uuid.UUID) error {
	if o.Status != StatusCompleted {
		return shared.NewDomainError("INVALID_STATE", "Only completed orders can be replaced")
	}
	if stockItemID == uuid.Nil || stockItemID == o.StockItemID {
		return shared.NewDomainError("INVALID_STOCK", "Replacement stock item is invalid")
	}
	o.StockItemID = stockItemID
	o.ReplacementCount++
	o.IncrementVersion()
	return nil
}

// MarkRefunded closes the order after a refund
func (o *Order) MarkRefunded(at time.Time) error {
	if o.Status != StatusCompleted {
		return shared.NewDomainError("INVALID_STATE", "Only completed orders can be refunded")
	}
	o.Status = StatusRefunded
	o.RefundedAt = &at
	o.IncrementVersion()
	return nil
}
