// Package audit records and lists the append-only audit trail.
package audit

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/memberportal/backend/internal/domain/audit"
	"github.com/memberportal/backend/internal/domain/shared"
)

// Recorder is what other services use to write audit records
type Recorder interface {
	Record(ctx context.Context, entry audit.Entry) error
}

// Service writes and reads audit logs
type Service struct {
	repo   audit.Repository
	logger *zap.Logger
}

func NewService(repo audit.Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Record appends an entry. IP and user agent are taken from ctx when the
// entry leaves them empty.
func (s *Service) Record(ctx context.Context, entry audit.Entry) error {
	if info, ok := RequestInfoFrom(ctx); ok {
		if entry.IP == "" {
			entry.IP = info.IP
		}
		if entry.UserAgent == "" {
			entry.UserAgent = info.UserAgent
		}
	}
	l, err := audit.NewLog(entry)
	if err != nil {
		return err
	}
	if err := s.repo.Create(ctx, l); err != nil {
		s.logger.Error("Failed to write audit log",
			zap.String("action", entry.Action),
			zap.String("resource_type", entry.ResourceType),
			zap.String("resource_id", entry.ResourceID),
			zap.Error(err))
		return err
	}
	return nil
}

// List returns audit records of a tenant, newest first
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, in ListInput) (*shared.Paginated[LogResponse], error) {
	filter := shared.Filter{Page: in.Page, PageSize: in.PageSize, OrderBy: "created_at", OrderDir: "desc"}.Normalize()
	q := audit.Query{
		ActorID:      in.ActorID,
		Action:       in.Action,
		ResourceType: in.ResourceType,
		ResourceID:   in.ResourceID,
		From:         in.From,
		To:           in.To,
	}
	logs, total, err := s.repo.FindAllForTenant(ctx, tenantID, q, filter)
	if err != nil {
		return nil, err
	}
	items := make([]LogResponse, len(logs))
	for i := range logs {
		items[i] = ToLogResponse(&logs[i])
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// RecordQuietly writes an entry through r and only logs a failure.
// Admin actions have already happened when they are audited.
func RecordQuietly(ctx context.Context, r Recorder, logger *zap.Logger, entry audit.Entry) {
	if r == nil {
		return
	}
	if err := r.Record(ctx, entry); err != nil {
		logger.Warn("Audit record dropped", zap.String("action", entry.Action), zap.Error(err))
	}
}
