package handler

import (
	"github.com/CsAbdulelah/fundy-chatgpt/internal/kyc/service"
	"github.com/gin-gonic/gin"
)

// TemplateHandler KYC 表单模板
type TemplateHandler struct {
	svc *service.TemplateService
}

func NewTemplateHandler(svc *service.TemplateService) *TemplateHandler {
	return &TemplateHandler{svc: svc}
}

// DefaultSchema GET /templates/default-schema
func (h *TemplateHandler) DefaultSchema(c *gin.Context) {
	Success(c, h.svc.DefaultSchema())
}

// List GET /templates?team_id=&template_type=
func (h *TemplateHandler) List(c *gin.Context) {
	teamID := c.Query("team_id")
	if teamID == "" {
		BadRequest(c, "team_id is required")
		return
	}
	templates, err := h.svc.List(c.Request.Context(), teamID, c.Query("template_type"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"items": templates})
}

// Get GET /templates/:id
func (h *TemplateHandler) Get(c *gin.Context) {
	tpl, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, tpl)
}

// Create POST /templates
func (h *TemplateHandler) Create(c *gin.Context) {
	var req service.CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	tpl, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, tpl)
}

// Update PATCH /templates/:id
func (h *TemplateHandler) Update(c *gin.Context) {
	var req service.UpdateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	tpl, err := h.svc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, tpl)
}
