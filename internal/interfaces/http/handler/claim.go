package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/memberportal/backend/internal/application/claim"
	"github.com/memberportal/backend/internal/interfaces/http/dto"
)

// ClaimHandler serves warranty claims
type ClaimHandler struct {
	BaseHandler
	claimService *claim.Service
}

// NewClaimHandler creates a new claim handler
func NewClaimHandler(claimService *claim.Service) *ClaimHandler {
	return &ClaimHandler{claimService: claimService}
}

// PresignEvidenceRequest asks for an evidence upload URL
type PresignEvidenceRequest struct {
	Filename    string `json:"filename" binding:"required,max=255"`
	ContentType string `json:"content_type" binding:"required,max=100"`
}

// SubmitClaimRequest files a claim against a delivered order
type SubmitClaimRequest struct {
	OrderID  string   `json:"order_id" binding:"required,uuid"`
	Reason   string   `json:"reason" binding:"required,min=10,max=2000"`
	Evidence []string `json:"evidence" binding:"omitempty,max=5,dive,required,max=512"`
}

// ListClaimsQuery filters a claim listing. UserID is honoured on the admin listing only.
type ListClaimsQuery struct {
	dto.PageQuery
	UserID  string `form:"user_id" binding:"omitempty,uuid"`
	OrderID string `form:"order_id" binding:"omitempty,uuid"`
	Status  string `form:"status" binding:"omitempty,oneof=PENDING APPROVED REJECTED"`
}

func (q ListClaimsQuery) input() claim.ListClaimsInput {
	return claim.ListClaimsInput{
		UserID:   optionalUUID(q.UserID),
		OrderID:  optionalUUID(q.OrderID),
		Status:   q.Status,
		Page:     q.Page,
		PageSize: q.PageSize,
	}
}

// ApproveClaimRequest resolves a pending claim
type ApproveClaimRequest struct {
	Resolution string `json:"resolution" binding:"required,oneof=REPLACEMENT REFUND"`
	Note       string `json:"note" binding:"max=2000"`
}

// RejectClaimRequest declines a pending claim
type RejectClaimRequest struct {
	Note string `json:"note" binding:"required,max=2000"`
}

// PresignEvidence godoc
// @Summary      Evidence upload URL
// @Description  Returns a short-lived PUT URL and the key to reference when submitting
// @Tags         claims
// @Accept       json
// @Produce      json
// @Param        request body PresignEvidenceRequest true "File"
// @Success      200 {object} dto.Response{data=claim.PresignResponse}
// @Security     BearerAuth
// @Router       /claims/evidence-url [post]
func (h *ClaimHandler) PresignEvidence(c *gin.Context) {
	var req PresignEvidenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	resp, err := h.claimService.PresignEvidenceUpload(c.Request.Context(), tenantID(c), userID(c), claim.PresignInput{
		Filename:    req.Filename,
		ContentType: req.ContentType,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Submit godoc
// @Summary      Submit a warranty claim
// @Tags         claims
// @Accept       json
// @Produce      json
// @Param        request body SubmitClaimRequest true "Claim"
// @Success      201 {object} dto.Response{data=claim.ClaimResponse}
// @Failure      409 {object} dto.Response "A claim is already pending for the order"
// @Failure      422 {object} dto.Response "Warranty expired"
// @Security     BearerAuth
// @Router       /claims [post]
func (h *ClaimHandler) Submit(c *gin.Context) {
	var req SubmitClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	resp, err := h.claimService.Submit(c.Request.Context(), tenantID(c), userID(c), claim.SubmitInput{
		OrderID:  uuid.MustParse(req.OrderID),
		Reason:   req.Reason,
		Evidence: req.Evidence,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// ListMine lists the caller's claims
func (h *ClaimHandler) ListMine(c *gin.Context) {
	var q ListClaimsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	page, err := h.claimService.ListMyClaims(c.Request.Context(), tenantID(c), userID(c), q.input())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, page)
}

// GetMine returns one of the caller's claims
func (h *ClaimHandler) GetMine(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.claimService.GetMyClaim(c.Request.Context(), tenantID(c), userID(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// AdminList lists all claims in the tenant
func (h *ClaimHandler) AdminList(c *gin.Context) {
	var q ListClaimsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	page, err := h.claimService.ListClaims(c.Request.Context(), tenantID(c), q.input())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, page)
}

// AdminGet returns any claim
func (h *ClaimHandler) AdminGet(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.claimService.GetClaim(c.Request.Context(), tenantID(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Approve godoc
// @Summary      Approve a claim
// @Description  REPLACEMENT delivers a fresh credential, REFUND credits the order price back
// @Tags         admin-claims
// @Accept       json
// @Produce      json
// @Param        id      path string              true "Claim ID"
// @Param        request body ApproveClaimRequest true "Resolution"
// @Success      200 {object} dto.Response{data=claim.ClaimResponse}
// @Security     BearerAuth
// @Router       /admin/claims/{id}/approve [post]
func (h *ClaimHandler) Approve(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req ApproveClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	resp, err := h.claimService.Approve(c.Request.Context(), tenantID(c), userID(c), id, claim.ApproveInput{
		Resolution: req.Resolution,
		Note:       req.Note,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Reject declines a pending claim with a note
func (h *ClaimHandler) Reject(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req RejectClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	resp, err := h.claimService.Reject(c.Request.Context(), tenantID(c), userID(c), id, req.Note)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
