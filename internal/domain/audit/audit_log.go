package audit

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/memberportal/backend/internal/domain/shared"
)

// Actions recorded by the admin back-office and event handlers
const (
	ActionUserSuspend     = "user.suspend"
	ActionUserActivate    = "user.activate"
	ActionUserSetRole     = "user.set_role"
	ActionWalletAdjust    = "wallet.adjust"
	ActionProductCreate   = "product.create"
	ActionProductUpdate   = "product.update"
	ActionProductStatus   = "product.set_status"
	ActionProductDelete   = "product.delete"
	ActionStockAdd        = "stock.add"
	ActionStockRevoke     = "stock.revoke"
	ActionClaimApprove    = "claim.approve"
	ActionClaimReject     = "claim.reject"
	ActionClaimResolved   = "claim.resolved"
	ActionTutorialCreate  = "tutorial.create"
	ActionTutorialUpdate  = "tutorial.update"
	ActionTutorialPublish = "tutorial.set_published"
	ActionTutorialDelete  = "tutorial.delete"
	ActionTopUpPaid       = "topup.paid"
	ActionOrderPlaced     = "order.placed"
)

// Log is an append-only record of who did what to which resource
type Log struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	ActorID      *uuid.UUID
	Action       string
	ResourceType string
	ResourceID   string
	Metadata     map[string]any
	IP           string
	UserAgent    string
	CreatedAt    time.Time
}

// Entry is the input for a new audit record
type Entry struct {
	TenantID     uuid.UUID
	ActorID      *uuid.UUID
	Action       string
	ResourceType string
	ResourceID   string
	Metadata     map[string]any
	IP           string
	UserAgent    string
}

// NewLog validates an entry and stamps it
func NewLog(e Entry) (*Log, error) {
	if e.TenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	action := strings.TrimSpace(e.Action)
	if action == "" {
		return nil, shared.NewDomainError("INVALID_ACTION", "Audit action cannot be empty")
	}
	if e.ResourceType == "" {
		return nil, shared.NewDomainError("INVALID_RESOURCE", "Audit resource type cannot be empty")
	}
	userAgent := e.UserAgent
	if len(userAgent) > 500 {
		userAgent = userAgent[:500]
	}
	return &Log{
		ID:           uuid.New(),
		TenantID:     e.TenantID,
		ActorID:      e.ActorID,
		Action:       action,
		ResourceType: e.ResourceType,
		ResourceID:   e.ResourceID,
		Metadata:     e.Metadata,
		IP:           e.IP,
		UserAgent:    userAgent,
		CreatedAt:    time.Now(),
	}, nil
}
