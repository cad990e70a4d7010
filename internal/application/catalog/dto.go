package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/memberportal/backend/internal/domain/catalog"
)

// ListProductsInput narrows a product listing. Status is honoured by the admin listing only.
type ListProductsInput struct {
	Category string
	Search   string
	Status   string
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
}

// ProductInput holds the editable product fields
type ProductInput struct {
	Name         string
	Category     string
	Description  string
	Price        decimal.Decimal
	WarrantyDays int
}

func (in ProductInput) details() catalog.ProductDetails {
	return catalog.ProductDetails{
		Name:         in.Name,
		Category:     in.Category,
		Description:  in.Description,
		Price:        in.Price,
		WarrantyDays: in.WarrantyDays,
	}
}

// ProductResponse is a product with its available stock
type ProductResponse struct {
	ID             uuid.UUID       `json:"id"`
	Name           string          `json:"name"`
	Slug           string          `json:"slug"`
	Category       string          `json:"category"`
	Description    string          `json:"description"`
	Price          decimal.Decimal `json:"price"`
	WarrantyDays   int             `json:"warranty_days"`
	Status         string          `json:"status"`
	AvailableStock int64           `json:"available_stock"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func ToProductResponse(p *catalog.Product, available int64) ProductResponse {
	return ProductResponse{
		ID:             p.ID,
		Name:           p.Name,
		Slug:           p.Slug,
		Category:       p.Category,
		Description:    p.Description,
		Price:          p.Price,
		WarrantyDays:   p.WarrantyDays,
		Status:         string(p.Status),
		AvailableStock: available,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

// ListStockInput narrows a stock listing
type ListStockInput struct {
	Status   string
	Page     int
	PageSize int
}

// StockItemResponse describes a stock item without its credential
type StockItemResponse struct {
	ID        uuid.UUID  `json:"id"`
	ProductID uuid.UUID  `json:"product_id"`
	Status    string     `json:"status"`
	OrderID   *uuid.UUID `json:"order_id,omitempty"`
	SoldAt    *time.Time `json:"sold_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func ToStockItemResponse(s *catalog.StockItem) StockItemResponse {
	return StockItemResponse{
		ID:        s.ID,
		ProductID: s.ProductID,
		Status:    string(s.Status),
		OrderID:   s.OrderID,
		SoldAt:    s.SoldAt,
		CreatedAt: s.CreatedAt,
	}
}

// AddStockResult counts what a bulk stock upload did
type AddStockResult struct {
	Added      int `json:"added"`
	Duplicates int `json:"duplicates"`
	Blank      int `json:"blank"`
}
