package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/memberportal/backend/internal/application/order"
	"github.com/memberportal/backend/internal/interfaces/http/dto"
)

// OrderHandler serves purchases and order history
type OrderHandler struct {
	BaseHandler
	orderService *order.Service
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService *order.Service) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// PurchaseRequest buys one unit of a product from the wallet balance
type PurchaseRequest struct {
	ProductID string `json:"product_id" binding:"required,uuid"`
}

// ListOrdersQuery filters an order listing. UserID is honoured on the admin listing only.
type ListOrdersQuery struct {
	dto.PageQuery
	UserID    string `form:"user_id" binding:"omitempty,uuid"`
	ProductID string `form:"product_id" binding:"omitempty,uuid"`
	Status    string `form:"status" binding:"omitempty,oneof=COMPLETED REFUNDED"`
}

func (q ListOrdersQuery) input() order.ListOrdersInput {
	return order.ListOrdersInput{
		UserID:    optionalUUID(q.UserID),
		ProductID: optionalUUID(q.ProductID),
		Status:    q.Status,
		Page:      q.Page,
		PageSize:  q.PageSize,
	}
}

// Purchase godoc
// @Summary      Purchase a product
// @Description  Debits the wallet and delivers one stock credential atomically
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        request body PurchaseRequest true "Product"
// @Success      201 {object} dto.Response{data=order.PurchaseResult}
// @Failure      422 {object} dto.Response "Out of stock or insufficient balance"
// @Security     BearerAuth
// @Router       /orders [post]
func (h *OrderHandler) Purchase(c *gin.Context) {
	var req PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	result, err := h.orderService.Purchase(c.Request.Context(), tenantID(c), userID(c), uuid.MustParse(req.ProductID))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// ListMine lists the caller's orders
func (h *OrderHandler) ListMine(c *gin.Context) {
	var q ListOrdersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	page, err := h.orderService.ListMyOrders(c.Request.Context(), tenantID(c), userID(c), q.input())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, page)
}

// GetMine godoc
// @Summary      Get one of my orders
// @Description  Includes the delivered credential
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID"
// @Success      200 {object} dto.Response{data=order.OrderDetailResponse}
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /orders/{id} [get]
func (h *OrderHandler) GetMine(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	o, err := h.orderService.GetMyOrder(c.Request.Context(), tenantID(c), userID(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, o)
}

// AdminList lists all orders in the tenant
func (h *OrderHandler) AdminList(c *gin.Context) {
	var q ListOrdersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	page, err := h.orderService.ListOrders(c.Request.Context(), tenantID(c), q.input())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, page)
}

// AdminGet returns any order, without its credential
func (h *OrderHandler) AdminGet(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	o, err := h.orderService.GetOrder(c.Request.Context(), tenantID(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, o)
}
