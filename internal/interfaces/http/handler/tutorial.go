package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/memberportal/backend/internal/application/tutorial"
	"github.com/memberportal/backend/internal/interfaces/http/dto"
)

// TutorialHandler serves tutorials
type TutorialHandler struct {
	BaseHandler
	tutorialService *tutorial.Service
}

// NewTutorialHandler creates a new tutorial handler
func NewTutorialHandler(tutorialService *tutorial.Service) *TutorialHandler {
	return &TutorialHandler{tutorialService: tutorialService}
}

// ListTutorialsQuery filters a tutorial listing. Published is honoured on the admin listing only.
type ListTutorialsQuery struct {
	dto.PageQuery
	Category  string `form:"category" binding:"omitempty,max=100"`
	Search    string `form:"search" binding:"omitempty,max=100"`
	Published *bool  `form:"published"`
}

func (q ListTutorialsQuery) input() tutorial.ListTutorialsInput {
	return tutorial.ListTutorialsInput{
		Category:  q.Category,
		Search:    q.Search,
		Published: q.Published,
		Page:      q.Page,
		PageSize:  q.PageSize,
	}
}

// TutorialRequest creates or replaces a tutorial
type TutorialRequest struct {
	Title     string `json:"title" binding:"required,max=200"`
	Category  string `json:"category" binding:"max=100"`
	Content   string `json:"content" binding:"required"`
	SortOrder int    `json:"sort_order"`
}

func (r TutorialRequest) input() tutorial.TutorialInput {
	return tutorial.TutorialInput{
		Title:     r.Title,
		Category:  r.Category,
		Content:   r.Content,
		SortOrder: r.SortOrder,
	}
}

// SetPublishedRequest publishes or unpublishes a tutorial
type SetPublishedRequest struct {
	Published *bool `json:"published" binding:"required"`
}

// List godoc
// @Summary      List published tutorials
// @Tags         tutorials
// @Produce      json
// @Param        category query string false "Category"
// @Success      200 {object} dto.Response{data=[]tutorial.TutorialResponse,meta=dto.Meta}
// @Router       /tutorials [get]
func (h *TutorialHandler) List(c *gin.Context) {
	var q ListTutorialsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	page, err := h.tutorialService.ListPublished(c.Request.Context(), tenantID(c), q.input())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, page)
}

// GetBySlug returns a published tutorial
func (h *TutorialHandler) GetBySlug(c *gin.Context) {
	t, err := h.tutorialService.GetBySlug(c.Request.Context(), tenantID(c), c.Param("slug"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, t)
}

// AdminList lists drafts and published tutorials
func (h *TutorialHandler) AdminList(c *gin.Context) {
	var q ListTutorialsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	page, err := h.tutorialService.ListAll(c.Request.Context(), tenantID(c), q.input())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, page)
}

// AdminGet returns a tutorial by ID
func (h *TutorialHandler) AdminGet(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	t, err := h.tutorialService.Get(c.Request.Context(), tenantID(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, t)
}

// Create adds an unpublished tutorial
func (h *TutorialHandler) Create(c *gin.Context) {
	var req TutorialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	t, err := h.tutorialService.Create(c.Request.Context(), tenantID(c), userID(c), req.input())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, t)
}

// Update replaces a tutorial's fields; a new title re-derives the slug
func (h *TutorialHandler) Update(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req TutorialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	t, err := h.tutorialService.Update(c.Request.Context(), tenantID(c), userID(c), id, req.input())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, t)
}

// SetPublished toggles publication
func (h *TutorialHandler) SetPublished(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req SetPublishedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	t, err := h.tutorialService.SetPublished(c.Request.Context(), tenantID(c), userID(c), id, *req.Published)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, t)
}

// Delete removes a tutorial
func (h *TutorialHandler) Delete(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	if err := h.tutorialService.Delete(c.Request.Context(), tenantID(c), userID(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
