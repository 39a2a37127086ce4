package handler

import (
	"github.com/CsAbdulelah/fundy-chatgpt/internal/kyc/service"
	"github.com/gin-gonic/gin"
)

// ApprovalHandler 审批链定义与审批操作
type ApprovalHandler struct {
	svc *service.ChainService
}

func NewApprovalHandler(svc *service.ChainService) *ApprovalHandler {
	return &ApprovalHandler{svc: svc}
}

// Create POST /approval-chains
func (h *ApprovalHandler) Create(c *gin.Context) {
	var req service.CreateChainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	chain, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, chain)
}

// List GET /approval-chains?template_id=
func (h *ApprovalHandler) List(c *gin.Context) {
	templateID := c.Query("template_id")
	if templateID == "" {
		BadRequest(c, "template_id is required")
		return
	}
	chains, err := h.svc.ListByTemplate(c.Request.Context(), templateID)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, chains)
}

// Get GET /approval-chains/:id
func (h *ApprovalHandler) Get(c *gin.Context) {
	chain, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, chain)
}

// Update PATCH /approval-chains/:id
func (h *ApprovalHandler) Update(c *gin.Context) {
	var req service.UpdateChainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	chain, err := h.svc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, chain)
}

// Start POST /approval-chains/:id/start，:id 为提交 ID
func (h *ApprovalHandler) Start(c *gin.Context) {
	var req service.StartChainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	sub, err := h.svc.Start(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, sub)
}

// Act POST /approval-chains/:id/action，:id 为提交 ID
func (h *ApprovalHandler) Act(c *gin.Context) {
	var req service.ActRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	sub, err := h.svc.Act(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, sub)
}
