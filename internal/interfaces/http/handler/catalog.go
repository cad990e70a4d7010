package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	catalogapp "github.com/memberportal/backend/internal/application/catalog"
	"github.com/memberportal/backend/internal/domain/catalog"
	"github.com/memberportal/backend/internal/interfaces/http/dto"
)

// CatalogHandler serves products and their stock
type CatalogHandler struct {
	BaseHandler
	catalogService *catalogapp.Service
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalogService *catalogapp.Service) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// ListProductsQuery filters a product listing
type ListProductsQuery struct {
	dto.PageQuery
	Category string `form:"category" binding:"omitempty,max=100"`
	Search   string `form:"search" binding:"omitempty,max=100"`
	Status   string `form:"status" binding:"omitempty,oneof=ACTIVE INACTIVE"`
	OrderBy  string `form:"order_by" binding:"omitempty,oneof=name category price warranty_days created_at updated_at"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc ASC DESC"`
}

func (q ListProductsQuery) input() catalogapp.ListProductsInput {
	return catalogapp.ListProductsInput{
		Category: q.Category,
		Search:   q.Search,
		Status:   q.Status,
		Page:     q.Page,
		PageSize: q.PageSize,
		OrderBy:  q.OrderBy,
		OrderDir: q.OrderDir,
	}
}

// ProductRequest creates or replaces a product's editable fields
type ProductRequest struct {
	Name         string          `json:"name" binding:"required,min=1,max=200"`
	Category     string          `json:"category" binding:"required,max=100"`
	Description  string          `json:"description" binding:"max=5000"`
	Price        decimal.Decimal `json:"price"`
	WarrantyDays int             `json:"warranty_days" binding:"min=0,max=365"`
}

func (r ProductRequest) input() catalogapp.ProductInput {
	return catalogapp.ProductInput{
		Name:         r.Name,
		Category:     r.Category,
		Description:  r.Description,
		Price:        r.Price,
		WarrantyDays: r.WarrantyDays,
	}
}

// SetProductStatusRequest activates or deactivates a product
type SetProductStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=ACTIVE INACTIVE"`
}

// AddStockRequest uploads credentials, one per item
type AddStockRequest struct {
	Credentials []string `json:"credentials" binding:"required,min=1,max=1000,dive,max=2000"`
}

// ListStockQuery filters a stock listing
type ListStockQuery struct {
	dto.PageQuery
	Status string `form:"status" binding:"omitempty,oneof=AVAILABLE SOLD REVOKED"`
}

// List godoc
// @Summary      List active products
// @Tags         catalog
// @Produce      json
// @Param        category query string false "Category"
// @Param        search   query string false "Name search"
// @Success      200 {object} dto.Response{data=[]catalogapp.ProductResponse,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /catalog/products [get]
func (h *CatalogHandler) List(c *gin.Context) {
	var q ListProductsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	page, err := h.catalogService.ListProducts(c.Request.Context(), tenantID(c), q.input())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, page)
}

// Get godoc
// @Summary      Get an active product
// @Tags         catalog
// @Produce      json
// @Param        id path string true "Product ID"
// @Success      200 {object} dto.Response{data=catalogapp.ProductResponse}
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /catalog/products/{id} [get]
func (h *CatalogHandler) Get(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	p, err := h.catalogService.GetProduct(c.Request.Context(), tenantID(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, p)
}

// AdminList lists products in any status
func (h *CatalogHandler) AdminList(c *gin.Context) {
	var q ListProductsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	page, err := h.catalogService.ListAllProducts(c.Request.Context(), tenantID(c), q.input())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, page)
}

// AdminGet returns a product in any status
func (h *CatalogHandler) AdminGet(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	p, err := h.catalogService.GetProductAdmin(c.Request.Context(), tenantID(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, p)
}

// Create godoc
// @Summary      Create a product
// @Tags         admin-catalog
// @Accept       json
// @Produce      json
// @Param        request body ProductRequest true "Product"
// @Success      201 {object} dto.Response{data=catalogapp.ProductResponse}
// @Security     BearerAuth
// @Router       /admin/products [post]
func (h *CatalogHandler) Create(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	p, err := h.catalogService.CreateProduct(c.Request.Context(), tenantID(c), userID(c), req.input())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, p)
}

// Update replaces a product's editable fields
func (h *CatalogHandler) Update(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	p, err := h.catalogService.UpdateProduct(c.Request.Context(), tenantID(c), userID(c), id, req.input())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, p)
}

// SetStatus activates or deactivates a product
func (h *CatalogHandler) SetStatus(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req SetProductStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	p, err := h.catalogService.SetProductStatus(c.Request.Context(), tenantID(c), userID(c), id, catalog.ProductStatus(req.Status))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, p)
}

// Delete removes a product that has never sold
func (h *CatalogHandler) Delete(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	if err := h.catalogService.DeleteProduct(c.Request.Context(), tenantID(c), userID(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// AddStock godoc
// @Summary      Upload stock credentials
// @Description  Blank and duplicate lines are skipped and reported back
// @Tags         admin-catalog
// @Accept       json
// @Produce      json
// @Param        id      path string          true "Product ID"
// @Param        request body AddStockRequest true "Credentials"
// @Success      201 {object} dto.Response{data=catalogapp.AddStockResult}
// @Security     BearerAuth
// @Router       /admin/products/{id}/stock [post]
func (h *CatalogHandler) AddStock(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req AddStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	result, err := h.catalogService.AddStock(c.Request.Context(), tenantID(c), userID(c), id, req.Credentials)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// ListStock lists a product's stock items without credentials
func (h *CatalogHandler) ListStock(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var q ListStockQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	page, err := h.catalogService.ListStock(c.Request.Context(), tenantID(c), id, catalogapp.ListStockInput{
		Status:   q.Status,
		Page:     q.Page,
		PageSize: q.PageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, page)
}

// RevokeStock withdraws an unsold stock item
func (h *CatalogHandler) RevokeStock(c *gin.Context) {
	id, ok := h.ParamUUID(c, "itemId")
	if !ok {
		return
	}
	item, err := h.catalogService.RevokeStock(c.Request.Context(), tenantID(c), userID(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}
