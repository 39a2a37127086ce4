package handler

import (
	"github.com/CsAbdulelah/fundy-chatgpt/internal/kyc/service"
	"github.com/gin-gonic/gin"
)

// BrandingHandler 品牌素材上传
type BrandingHandler struct {
	svc *service.BrandingService
}

func NewBrandingHandler(svc *service.BrandingService) *BrandingHandler {
	return &BrandingHandler{svc: svc}
}

// Upload POST /branding/upload (multipart: file, type)
func (h *BrandingHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "file is required")
		return
	}
	assetType := c.PostForm("type")
	if assetType == "" {
		BadRequest(c, "type is required")
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		InternalError(c, "read upload: "+err.Error())
		return
	}
	defer src.Close()

	res, err := h.svc.Upload(c.Request.Context(), assetType, fileHeader.Filename, fileHeader.Size, fileHeader.Header.Get("Content-Type"), src)
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, res)
}
