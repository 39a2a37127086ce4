package handler

import (
	"github.com/CsAbdulelah/fundy-chatgpt/internal/kyc/service"
	"github.com/gin-gonic/gin"
)

// ReviewHandler 单人审核
type ReviewHandler struct {
	svc *service.ReviewService
}

func NewReviewHandler(svc *service.ReviewService) *ReviewHandler {
	return &ReviewHandler{svc: svc}
}

// Reject POST /submissions/:id/reject
func (h *ReviewHandler) Reject(c *gin.Context) {
	var req service.RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	sub, err := h.svc.Reject(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, sub)
}

// Approve POST /submissions/:id/approve
func (h *ReviewHandler) Approve(c *gin.Context) {
	sub, err := h.svc.Approve(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, sub)
}

// ResolveComment POST /submissions/:id/comments/:commentId/resolve
func (h *ReviewHandler) ResolveComment(c *gin.Context) {
	comment, err := h.svc.ResolveComment(c.Request.Context(), c.Param("id"), c.Param("commentId"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, comment)
}
