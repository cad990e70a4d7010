package catalog

import (
	"strings"

	"github.com/google/uuid"
	"github.com/memberportal/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// MaxWarrantyDays caps the warranty period of a product
const MaxWarrantyDays = 365

// ProductStatus controls marketplace visibility
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "ACTIVE"
	ProductStatusInactive ProductStatus = "INACTIVE"
)

func (s ProductStatus) IsValid() bool {
	return s == ProductStatusActive || s == ProductStatusInactive
}

// Product is a kind of digital account sold in the marketplace
type Product struct {
	shared.TenantAggregateRoot
	Name         string
	Slug         string
	Category     string
	Description  string
	Price        decimal.Decimal
	WarrantyDays int
	Status       ProductStatus
}

// ProductDetails holds the editable attributes of a product
type ProductDetails struct {
	Name         string
	Category     string
	Description  string
	Price        decimal.Decimal
	WarrantyDays int
}

func (d ProductDetails) validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if len(d.Name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot exceed 200 characters")
	}
	if strings.TrimSpace(d.Category) == "" {
		return shared.NewDomainError("INVALID_CATEGORY", "Product category cannot be empty")
	}
	if !d.Price.IsPositive() {
		return shared.NewDomainError("INVALID_PRICE", "Product price must be positive")
	}
	if !shared.IsWholeAmount(d.Price) {
		return shared.NewDomainError("INVALID_AMOUNT", "Product price must be a whole rupiah value")
	}
	if d.WarrantyDays < 0 || d.WarrantyDays > MaxWarrantyDays {
		return shared.NewDomainError("INVALID_WARRANTY", "Warranty days must be between 0 and 365")
	}
	return nil
}

// NewProduct creates an ACTIVE product. The slug is supplied by the caller.
func NewProduct(tenantID uuid.UUID, slug string, details ProductDetails) (*Product, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if slug == "" {
		return nil, shared.NewDomainError("INVALID_SLUG", "Product slug cannot be empty")
	}
	if err := details.validate(); err != nil {
		return nil, err
	}
	p := &Product{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Slug:                slug,
		Status:              ProductStatusActive,
	}
	p.apply(details)
	return p, nil
}

func (p *Product) apply(d ProductDetails) {
	p.Name = strings.TrimSpace(d.Name)
	p.Category = strings.ToLower(strings.TrimSpace(d.Category))
	p.Description = d.Description
	p.Price = d.Price
	p.WarrantyDays = d.WarrantyDays
}

// Update replaces the editable attributes
func (p *Product) Update(details ProductDetails) error {
	if err := details.validate(); err != nil {
		return err
	}
	p.apply(details)
	p.IncrementVersion()
	return nil
}

// SetStatus activates or deactivates the product
func (p *Product) SetStatus(status ProductStatus) error {
	if !status.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", "Invalid product status")
	}
	if p.Status == status {
		return nil
	}
	p.Status = status
	p.IncrementVersion()
	return nil
}

func (p *Product) IsActive() bool {
	return p.Status == ProductStatusActive
}
