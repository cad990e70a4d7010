package claim

import (
	"time"

	"github.com/google/uuid"

	"github.com/memberportal/backend/internal/domain/claim"
)

// SubmitInput files a claim against one order
type SubmitInput struct {
	OrderID  uuid.UUID
	Reason   string
	Evidence []string
}

// PresignInput asks for an evidence upload slot
type PresignInput struct {
	Filename    string
	ContentType string
}

// PresignResponse is where the client PUTs the evidence file, and the key to submit
type PresignResponse struct {
	Key         string    `json:"key"`
	UploadURL   string    `json:"upload_url"`
	ContentType string    `json:"content_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// ListClaimsInput narrows a claim listing. UserID and OrderID are admin filters.
type ListClaimsInput struct {
	UserID   *uuid.UUID
	OrderID  *uuid.UUID
	Status   string
	Page     int
	PageSize int
}

// ApproveInput resolves a claim
type ApproveInput struct {
	Resolution string
	Note       string
}

// EvidenceResponse is one evidence file, with a download URL when available
type EvidenceResponse struct {
	Key       string     `json:"key"`
	URL       string     `json:"url,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// ClaimResponse describes a claim
type ClaimResponse struct {
	ID         uuid.UUID          `json:"id"`
	OrderID    uuid.UUID          `json:"order_id"`
	UserID     uuid.UUID          `json:"user_id"`
	Reason     string             `json:"reason"`
	Evidence   []EvidenceResponse `json:"evidence"`
	Status     string             `json:"status"`
	Resolution string             `json:"resolution,omitempty"`
	AdminNote  string             `json:"admin_note,omitempty"`
	ResolvedBy *uuid.UUID         `json:"resolved_by,omitempty"`
	ResolvedAt *time.Time         `json:"resolved_at,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
}

func ToClaimResponse(c *claim.WarrantyClaim) ClaimResponse {
	evidence := make([]EvidenceResponse, len(c.Evidence))
	for i, key := range c.Evidence {
		evidence[i] = EvidenceResponse{Key: key}
	}
	resp := ClaimResponse{
		ID:         c.ID,
		OrderID:    c.OrderID,
		UserID:     c.UserID,
		Reason:     c.Reason,
		Evidence:   evidence,
		Status:     string(c.Status),
		AdminNote:  c.AdminNote,
		ResolvedBy: c.ResolvedBy,
		ResolvedAt: c.ResolvedAt,
		CreatedAt:  c.CreatedAt,
	}
	if c.Resolution != nil {
		resp.Resolution = string(*c.Resolution)
	}
	return resp
}
