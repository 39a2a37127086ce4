package handler

import (
	"net/http"

	"github.com/CsAbdulelah/fundy-chatgpt/internal/kyc/apperr"
	"github.com/CsAbdulelah/fundy-chatgpt/internal/kyc/service"
	"github.com/CsAbdulelah/fundy-chatgpt/internal/kyc/sse"
	"github.com/gin-gonic/gin"
)

// Handlers 处理器集合
type Handlers struct {
	User       *UserHandler
	Team       *TeamHandler
	Template   *TemplateHandler
	Invite     *InviteHandler
	Submission *SubmissionHandler
	Review     *ReviewHandler
	Approval   *ApprovalHandler
	Branding   *BrandingHandler
	SSE        *SSEHandler
}

// NewHandlers 创建处理器集合
func NewHandlers(svc *service.Services, hub *sse.Hub) *Handlers {
	return &Handlers{
		User:       NewUserHandler(svc.User),
		Team:       NewTeamHandler(svc.Team),
		Template:   NewTemplateHandler(svc.Template),
		Invite:     NewInviteHandler(svc.Invite),
		Submission: NewSubmissionHandler(svc.Submission, svc.PDF, svc.Export),
		Review:     NewReviewHandler(svc.Review),
		Approval:   NewApprovalHandler(svc.Chain),
		Branding:   NewBrandingHandler(svc.Branding),
		SSE:        NewSSEHandler(hub),
	}
}

// RegisterRoutes 注册 /api/v1 下的全部路由
func (h *Handlers) RegisterRoutes(api *gin.RouterGroup) {
	users := api.Group("/users")
	{
		users.GET("", h.User.List)
		users.POST("", h.User.Create)
	}

	teams := api.Group("/teams")
	{
		teams.GET("", h.Team.List)
		teams.POST("", h.Team.Create)
		teams.GET("/:id", h.Team.Get)
		teams.PATCH("/:id", h.Team.Update)
	}

	templates := api.Group("/templates")
	{
		templates.GET("/default-schema", h.Template.DefaultSchema)
		templates.GET("", h.Template.List)
		templates.POST("", h.Template.Create)
		templates.GET("/:id", h.Template.Get)
		templates.PATCH("/:id", h.Template.Update)
	}

	invites := api.Group("/invites")
	{
		invites.GET("", h.Invite.List)
		invites.POST("", h.Invite.Create)
		invites.GET("/resolve", h.Invite.Resolve)
	}

	submissions := api.Group("/submissions")
	{
		submissions.GET("", h.Submission.List)
		submissions.POST("", h.Submission.Create)
		submissions.GET("/export", h.Submission.Export)
		submissions.GET("/:id", h.Submission.Get)
		submissions.PATCH("/:id", h.Submission.Update)
		submissions.POST("/:id/submit", h.Submission.Submit)
		submissions.POST("/:id/resubmit", h.Submission.Resubmit)
		submissions.GET("/:id/pdf", h.Submission.PDF)
		submissions.POST("/:id/reject", h.Review.Reject)
		submissions.POST("/:id/approve", h.Review.Approve)
		submissions.POST("/:id/comments/:commentId/resolve", h.Review.ResolveComment)
	}

	// /:id 在 start/action 下是提交 ID，其余为审批链 ID
	chains := api.Group("/approval-chains")
	{
		chains.GET("", h.Approval.List)
		chains.POST("", h.Approval.Create)
		chains.GET("/:id", h.Approval.Get)
		chains.PATCH("/:id", h.Approval.Update)
		chains.POST("/:id/start", h.Approval.Start)
		chains.POST("/:id/action", h.Approval.Act)
	}

	api.POST("/branding/upload", h.Branding.Upload)
	api.GET("/events", h.SSE.Stream)
}

// Response 通用响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Created 创建成功响应
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

// BadRequest 参数错误响应
func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

// NotFound 资源不存在响应
func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

// Conflict 状态冲突响应
func Conflict(c *gin.Context, message string) {
	Error(c, 40900, message)
}

// InternalError 服务器错误响应
func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// Fail 按错误类别输出响应
func Fail(c *gin.Context, err error) {
	c.Error(err)
	msg := apperr.MessageOf(err)
	switch apperr.CodeOf(err) {
	case apperr.CodeValidation:
		BadRequest(c, msg)
	case apperr.CodeNotFound:
		NotFound(c, msg)
	case apperr.CodeConflict:
		Conflict(c, msg)
	default:
		InternalError(c, msg)
	}
}
