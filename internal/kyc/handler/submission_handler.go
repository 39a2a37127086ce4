package handler

import (
	"net/http"

	"github.com/CsAbdulelah/fundy-chatgpt/internal/kyc/repository"
	"github.com/CsAbdulelah/fundy-chatgpt/internal/kyc/service"
	"github.com/gin-gonic/gin"
)

// SubmissionHandler LP 提交、PDF 和导出
type SubmissionHandler struct {
	svc    *service.SubmissionService
	pdf    *service.PDFService
	export *service.ExportService
}

func NewSubmissionHandler(svc *service.SubmissionService, pdf *service.PDFService, export *service.ExportService) *SubmissionHandler {
	return &SubmissionHandler{svc: svc, pdf: pdf, export: export}
}

// List GET /submissions?template_id=&investor_user_id=
func (h *SubmissionHandler) List(c *gin.Context) {
	subs, err := h.svc.List(c.Request.Context(), repository.SubmissionFilter{
		TemplateID:     c.Query("template_id"),
		InvestorUserID: c.Query("investor_user_id"),
	})
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"items": subs})
}

// Get GET /submissions/:id
func (h *SubmissionHandler) Get(c *gin.Context) {
	sub, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, sub)
}

// Create POST /submissions
func (h *SubmissionHandler) Create(c *gin.Context) {
	var req service.CreateSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	sub, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, sub)
}

// Update PATCH /submissions/:id
func (h *SubmissionHandler) Update(c *gin.Context) {
	var req service.UpdateSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	sub, err := h.svc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, sub)
}

// Submit POST /submissions/:id/submit
func (h *SubmissionHandler) Submit(c *gin.Context) {
	var req service.SubmitRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			BadRequest(c, err.Error())
			return
		}
	}
	sub, err := h.svc.Submit(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, sub)
}

// Resubmit POST /submissions/:id/resubmit
func (h *SubmissionHandler) Resubmit(c *gin.Context) {
	sub, err := h.svc.Resubmit(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, sub)
}

// PDF GET /submissions/:id/pdf?language=
func (h *SubmissionHandler) PDF(c *gin.Context) {
	out, err := h.pdf.Render(c.Request.Context(), c.Param("id"), c.Query("language"))
	if err != nil {
		Fail(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=\""+out.FileName+"\"")
	c.Data(http.StatusOK, "application/pdf", out.Content)
}

// Export GET /submissions/export?template_id=
func (h *SubmissionHandler) Export(c *gin.Context) {
	f, filename, err := h.export.Export(c.Request.Context(), c.Query("template_id"))
	if err != nil {
		Fail(c, err)
		return
	}
	defer f.Close()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Header("Content-Transfer-Encoding", "binary")

	if err := f.Write(c.Writer); err != nil {
		InternalError(c, "write excel: "+err.Error())
	}
}
