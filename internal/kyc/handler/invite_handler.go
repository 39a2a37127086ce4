package handler

import (
	"github.com/CsAbdulelah/fundy-chatgpt/internal/kyc/service"
	"github.com/gin-gonic/gin"
)

// InviteHandler LP 邀请
type InviteHandler struct {
	svc *service.InviteService
}

func NewInviteHandler(svc *service.InviteService) *InviteHandler {
	return &InviteHandler{svc: svc}
}

// List GET /invites?team_id=
func (h *InviteHandler) List(c *gin.Context) {
	teamID := c.Query("team_id")
	if teamID == "" {
		BadRequest(c, "team_id is required")
		return
	}
	invites, err := h.svc.List(c.Request.Context(), teamID)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"items": invites})
}

// Create POST /invites
func (h *InviteHandler) Create(c *gin.Context) {
	var req service.CreateInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	invite, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, invite)
}

// Resolve GET /invites/resolve?token=
func (h *InviteHandler) Resolve(c *gin.Context) {
	invite, err := h.svc.Resolve(c.Request.Context(), c.Query("token"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, invite)
}
