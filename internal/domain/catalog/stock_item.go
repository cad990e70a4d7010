package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/memberportal/backend/internal/domain/shared"
)

// StockStatus is the lifecycle of a single sellable account
type StockStatus string

const (
	StockStatusAvailable StockStatus = "AVAILABLE"
	StockStatusSold      StockStatus = "SOLD"
	StockStatusRevoked   StockStatus = "REVOKED"
)

func (s StockStatus) IsValid() bool {
	switch s {
	case StockStatusAvailable, StockStatusSold, StockStatusRevoked:
		return true
	}
	return false
}

// CredentialSealer encrypts account credentials at rest
type CredentialSealer interface {
	Seal(plaintext string) ([]byte, error)
	Open(sealed []byte) (string, error)
}

// StockItem is one account credential belonging to a product
type StockItem struct {
	shared.BaseEntity
	TenantID   uuid.UUID
	ProductID  uuid.UUID
	Credential []byte
	// Fingerprint is a keyed digest of the plaintext, used to drop duplicates
	Fingerprint string
	Status      StockStatus
	OrderID     *uuid.UUID
	SoldAt      *time.Time
}

// NewStockItem creates an AVAILABLE item from an already sealed credential
func NewStockItem(tenantID, productID uuid.UUID, sealed []byte, fingerprint string) (*StockItem, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if len(sealed) == 0 {
		return nil, shared.NewDomainError("INVALID_CREDENTIAL", "Credential cannot be empty")
	}
	return &StockItem{
		BaseEntity:  shared.NewBaseEntity(),
		TenantID:    tenantID,
		ProductID:   productID,
		Credential:  sealed,
		Fingerprint: fingerprint,
		Status:      StockStatusAvailable,
	}, nil
}

// Revoke withdraws an unsold item
func (s *StockItem) Revoke() error {
	if s.Status != StockStatusAvailable {
		return shared.NewDomainError("INVALID_STATE", "Only available stock can be revoked")
	}
	s.Status = StockStatusRevoked
	s.Touch()
	return nil
}

// MarkSold assigns the item to an order
func (s *StockItem) MarkSold(orderID uuid.UUID, at time.Time) error {
	if s.Status != StockStatusAvailable {
		return shared.ErrOutOfStock
	}
	s.Status = StockStatusSold
	s.OrderID = &orderID
	s.SoldAt = &at
	s.Touch()
	return nil
}

func (s *StockItem) IsAvailable() bool {
	return s.Status == StockStatusAvailable
}
