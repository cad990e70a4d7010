package claim

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/memberportal/backend/internal/domain/shared"
)

// MaxEvidence limits the number of evidence files attached to one claim
const MaxEvidence = 5

// Status of a warranty claim
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Resolution of an approved claim
type Resolution string

const (
	ResolutionReplacement Resolution = "REPLACEMENT"
	ResolutionRefund      Resolution = "REFUND"
)

func (r Resolution) IsValid() bool {
	return r == ResolutionReplacement || r == ResolutionRefund
}

var (
	ErrWarrantyExpired = shared.NewDomainError("WARRANTY_EXPIRED", "The warranty period of this order has ended")
	ErrClaimPending    = shared.NewDomainError("CLAIM_PENDING", "A claim for this order is already pending")
	ErrClaimResolved   = shared.NewDomainError("CLAIM_RESOLVED", "Claim is already resolved")
)

// WarrantyClaim is a member's request to fix a broken purchased account
type WarrantyClaim struct {
	shared.TenantAggregateRoot
	OrderID    uuid.UUID
	UserID     uuid.UUID
	Reason     string
	Evidence   []string
	Status     Status
	Resolution *Resolution
	AdminNote  string
	ResolvedBy *uuid.UUID
	ResolvedAt *time.Time
}

// NewWarrantyClaim creates a PENDING claim. Order preconditions are checked by the caller.
func NewWarrantyClaim(tenantID, orderID, userID uuid.UUID, reason string, evidence []string) (*WarrantyClaim, error) {
	if tenantID == uuid.Nil || orderID == uuid.Nil || userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CLAIM", "Tenant, order and user are required")
	}
	reason = strings.TrimSpace(reason)
	if len(reason) < 10 {
		return nil, shared.NewDomainError("INVALID_REASON", "Reason must be at least 10 characters")
	}
	if len(reason) > 2000 {
		return nil, shared.NewDomainError("INVALID_REASON", "Reason cannot exceed 2000 characters")
	}
	if len(evidence) > MaxEvidence {
		return nil, shared.NewDomainError("INVALID_EVIDENCE", "Too many evidence files")
	}
	c := &WarrantyClaim{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		OrderID:             orderID,
		UserID:              userID,
		Reason:              reason,
		Evidence:            append([]string(nil), evidence...),
		Status:              StatusPending,
	}
	return c, nil
}

// Approve resolves the claim with a replacement or a refund
func (c *WarrantyClaim) Approve(resolution Resolution, note string, adminID uuid.UUID, at time.Time) error {
	if !resolution.IsValid() {
		return shared.NewDomainError("INVALID_RESOLUTION", "Resolution must be REPLACEMENT or REFUND")
	}
	if err := c.resolve(StatusApproved, note, adminID, at); err != nil {
		return err
	}
	c.Resolution = &resolution
	c.AddDomainEvent(NewClaimResolvedEvent(c))
	return nil
}

// Reject closes the claim without compensation
func (c *WarrantyClaim) Reject(note string, adminID uuid.UUID, at time.Time) error {
	if strings.TrimSpace(note) == "" {
		return shared.NewDomainError("INVALID_NOTE", "A note is required when rejecting a claim")
	}
	if err := c.resolve(StatusRejected, note, adminID, at); err != nil {
		return err
	}
	c.AddDomainEvent(NewClaimResolvedEvent(c))
	return nil
}

func (c *WarrantyClaim) resolve(status Status, note string, adminID uuid.UUID, at time.Time) error {
	if c.Status != StatusPending {
		return ErrClaimResolved
	}
	c.Status = status
	c.AdminNote = strings.TrimSpace(note)
	c.ResolvedBy = &adminID
	c.ResolvedAt = &at
	c.IncrementVersion()
	return nil
}

func (c *WarrantyClaim) IsOwnedBy(userID uuid.UUID) bool {
	return c.UserID == userID
}
