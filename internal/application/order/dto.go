package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/memberportal/backend/internal/domain/order"
)

// ListOrdersInput narrows an order listing. UserID and ProductID are admin filters.
type ListOrdersInput struct {
	UserID    *uuid.UUID
	ProductID *uuid.UUID
	Status    string
	Page      int
	PageSize  int
}

// OrderResponse is an order without its credential
type OrderResponse struct {
	ID                uuid.UUID       `json:"id"`
	OrderNumber       string          `json:"order_number"`
	UserID            uuid.UUID       `json:"user_id"`
	ProductID         uuid.UUID       `json:"product_id"`
	ProductName       string          `json:"product_name"`
	Price             decimal.Decimal `json:"price"`
	Status            string          `json:"status"`
	WarrantyExpiresAt time.Time       `json:"warranty_expires_at"`
	UnderWarranty     bool            `json:"under_warranty"`
	ReplacementCount  int             `json:"replacement_count"`
	RefundedAt        *time.Time      `json:"refunded_at,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
}

func ToOrderResponse(o *order.Order, now time.Time) OrderResponse {
	return OrderResponse{
		ID:                o.ID,
		OrderNumber:       o.OrderNumber,
		UserID:            o.UserID,
		ProductID:         o.ProductID,
		ProductName:       o.ProductName,
		Price:             o.Price,
		Status:            string(o.Status),
		WarrantyExpiresAt: o.WarrantyExpiresAt,
		UnderWarranty:     o.Status == order.StatusCompleted && o.IsUnderWarranty(now),
		ReplacementCount:  o.ReplacementCount,
		RefundedAt:        o.RefundedAt,
		CreatedAt:         o.CreatedAt,
	}
}

// OrderDetailResponse adds the delivered credential, shown to the buyer only
type OrderDetailResponse struct {
	OrderResponse
	Credential string `json:"credential,omitempty"`
}

// PurchaseResult is a completed purchase and the balance left
type PurchaseResult struct {
	Order   OrderDetailResponse `json:"order"`
	Balance decimal.Decimal     `json:"balance"`
}
