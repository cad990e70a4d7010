package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/memberportal/backend/internal/application/payment"
	"github.com/memberportal/backend/internal/interfaces/http/dto"
)

// Headers set by Tripay on callback requests
const (
	CallbackSignatureHeader = "X-Callback-Signature"
	CallbackEventHeader     = "X-Callback-Event"
)

// PaymentHandler serves top-ups and the gateway callback
type PaymentHandler struct {
	BaseHandler
	paymentService *payment.Service
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService *payment.Service) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// FeeQuery asks for a fee quote
type FeeQuery struct {
	Amount int64  `form:"amount" binding:"required,min=1"`
	Method string `form:"method" binding:"omitempty,max=32"`
}

// CreateTopUpRequest opens a top-up through a payment channel
type CreateTopUpRequest struct {
	Amount int64  `json:"amount" binding:"required,min=1"`
	Method string `json:"method" binding:"required,max=32"`
}

// ListTopUpsQuery filters a top-up listing. UserID is honoured on the admin listing only.
type ListTopUpsQuery struct {
	dto.PageQuery
	UserID string `form:"user_id" binding:"omitempty,uuid"`
	Status string `form:"status" binding:"omitempty,oneof=UNPAID PAID EXPIRED FAILED REFUNDED"`
	Method string `form:"method" binding:"omitempty,max=32"`
}

func (q ListTopUpsQuery) input() payment.ListTopUpsInput {
	return payment.ListTopUpsInput{
		UserID:   optionalUUID(q.UserID),
		Status:   q.Status,
		Method:   q.Method,
		Page:     q.Page,
		PageSize: q.PageSize,
	}
}

// Channels godoc
// @Summary      Active payment channels
// @Tags         payments
// @Produce      json
// @Success      200 {object} dto.Response
// @Failure      503 {object} dto.Response "Gateway temporarily unavailable"
// @Security     BearerAuth
// @Router       /payments/channels [get]
func (h *PaymentHandler) Channels(c *gin.Context) {
	channels, err := h.paymentService.ListChannels(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, channels)
}

// RefreshChannels drops the cached channel list and returns a fresh one
func (h *PaymentHandler) RefreshChannels(c *gin.Context) {
	channels, err := h.paymentService.RefreshChannels(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, channels)
}

// Fee quotes the gateway fee for an amount
func (h *PaymentHandler) Fee(c *gin.Context) {
	var q FeeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	fees, err := h.paymentService.CalculateFee(c.Request.Context(), q.Amount, q.Method)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, fees)
}

// CreateTopUp godoc
// @Summary      Create a top-up
// @Description  Opens a Tripay transaction and returns its checkout details
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        request body CreateTopUpRequest true "Top-up"
// @Success      201 {object} dto.Response{data=payment.CheckoutResponse}
// @Failure      502 {object} dto.Response "Gateway rejected the request"
// @Failure      503 {object} dto.Response "Gateway temporarily unavailable"
// @Security     BearerAuth
// @Router       /topups [post]
func (h *PaymentHandler) CreateTopUp(c *gin.Context) {
	var req CreateTopUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	result, err := h.paymentService.CreateTopUp(c.Request.Context(), tenantID(c), userID(c), payment.CreateTopUpInput{
		Amount: req.Amount,
		Method: req.Method,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// ListMine lists the caller's top-ups
func (h *PaymentHandler) ListMine(c *gin.Context) {
	var q ListTopUpsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	page, err := h.paymentService.ListMyTopUps(c.Request.Context(), tenantID(c), userID(c), q.input())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, page)
}

// GetMine returns one of the caller's top-ups
func (h *PaymentHandler) GetMine(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	t, err := h.paymentService.GetMyTopUp(c.Request.Context(), tenantID(c), userID(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, t)
}

// Sync asks the gateway for the current status of an unpaid top-up
func (h *PaymentHandler) Sync(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	t, err := h.paymentService.SyncTopUp(c.Request.Context(), tenantID(c), userID(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, t)
}

// AdminList lists all top-ups in the tenant
func (h *PaymentHandler) AdminList(c *gin.Context) {
	var q ListTopUpsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	page, err := h.paymentService.ListTopUps(c.Request.Context(), tenantID(c), q.input())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, page)
}

// Callback godoc
// @Summary      Tripay payment callback
// @Description  Signature is an HMAC-SHA256 of the raw body with the private key
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        X-Callback-Signature header string true "HMAC signature"
// @Param        X-Callback-Event     header string true "payment_status"
// @Success      200 {object} map[string]bool
// @Failure      401 {object} dto.Response "Invalid signature"
// @Router       /payments/tripay/callback [post]
func (h *PaymentHandler) Callback(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.BadRequest(c, "Unable to read request body")
		return
	}
	err = h.paymentService.HandleCallback(c.Request.Context(), payment.CallbackInput{
		Body:      body,
		Signature: c.GetHeader(CallbackSignatureHeader),
		Event:     c.GetHeader(CallbackEventHeader),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
