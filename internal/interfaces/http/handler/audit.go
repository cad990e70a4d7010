package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/memberportal/backend/internal/application/audit"
	"github.com/memberportal/backend/internal/interfaces/http/dto"
)

// AuditHandler serves the audit trail
type AuditHandler struct {
	BaseHandler
	auditService *audit.Service
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(auditService *audit.Service) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// ListAuditLogsQuery filters audit records. From and To are RFC 3339 timestamps.
type ListAuditLogsQuery struct {
	dto.PageQuery
	ActorID      string     `form:"actor_id" binding:"omitempty,uuid"`
	Action       string     `form:"action" binding:"omitempty,max=64"`
	ResourceType string     `form:"resource_type" binding:"omitempty,max=64"`
	ResourceID   string     `form:"resource_id" binding:"omitempty,max=64"`
	From         *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To           *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
}

// List godoc
// @Summary      List audit records
// @Tags         admin-audit
// @Produce      json
// @Param        actor_id      query string false "Actor user ID"
// @Param        action        query string false "Action, e.g. wallet.adjust"
// @Param        resource_type query string false "Resource type"
// @Param        from          query string false "RFC 3339 lower bound"
// @Param        to            query string false "RFC 3339 upper bound"
// @Success      200 {object} dto.Response{data=[]audit.LogResponse,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /admin/audit-logs [get]
func (h *AuditHandler) List(c *gin.Context) {
	var q ListAuditLogsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	if q.From != nil && q.To != nil && q.To.Before(*q.From) {
		h.BadRequest(c, "to must not be before from")
		return
	}
	page, err := h.auditService.List(c.Request.Context(), tenantID(c), audit.ListInput{
		ActorID:      optionalUUID(q.ActorID),
		Action:       q.Action,
		ResourceType: q.ResourceType,
		ResourceID:   q.ResourceID,
		From:         q.From,
		To:           q.To,
		Page:         q.Page,
		PageSize:     q.PageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, page)
}
