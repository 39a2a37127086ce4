package handler

import (
	"github.com/CsAbdulelah/fundy-chatgpt/internal/kyc/service"
	"github.com/gin-gonic/gin"
)

// TeamHandler GP 团队
type TeamHandler struct {
	svc *service.TeamService
}

func NewTeamHandler(svc *service.TeamService) *TeamHandler {
	return &TeamHandler{svc: svc}
}

// List GET /teams
func (h *TeamHandler) List(c *gin.Context) {
	teams, err := h.svc.List(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"items": teams})
}

// Get GET /teams/:id
func (h *TeamHandler) Get(c *gin.Context) {
	team, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, team)
}

// Create POST /teams
func (h *TeamHandler) Create(c *gin.Context) {
	var req service.CreateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	team, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, team)
}

// Update PATCH /teams/:id
func (h *TeamHandler) Update(c *gin.Context) {
	var req service.UpdateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	team, err := h.svc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, team)
}
