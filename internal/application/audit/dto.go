package audit

import (
	"time"

	"github.com/google/uuid"

	"github.com/memberportal/backend/internal/domain/audit"
)

// ListInput narrows an audit log listing
type ListInput struct {
	ActorID      *uuid.UUID
	Action       string
	ResourceType string
	ResourceID   string
	From         *time.Time
	To           *time.Time
	Page         int
	PageSize     int
}

// LogResponse is one audit record
type LogResponse struct {
	ID           uuid.UUID      `json:"id"`
	ActorID      *uuid.UUID     `json:"actor_id,omitempty"`
	Action       string         `json:"action"`
	ResourceType string         `json:"resource_type"`
	ResourceID   string         `json:"resource_id,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	IP           string         `json:"ip,omitempty"`
	UserAgent    string         `json:"user_agent,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

func ToLogResponse(l *audit.Log) LogResponse {
	return LogResponse{
		ID:           l.ID,
		ActorID:      l.ActorID,
		Action:       l.Action,
		ResourceType: l.ResourceType,
		ResourceID:   l.ResourceID,
		Metadata:     l.Metadata,
		IP:           l.IP,
		UserAgent:    l.UserAgent,
		CreatedAt:    l.CreatedAt,
	}
}
