package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/CsAbdulelah/fundy-chatgpt/internal/config"
	"github.com/CsAbdulelah/fundy-chatgpt/internal/kyc/apperr"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

// 品牌素材类型
const (
	BrandingTypeLogo = "logo"
	BrandingTypeFont = "font"
)

var brandingExtensions = map[string][]string{
	BrandingTypeLogo: {".png", ".jpg", ".jpeg", ".svg", ".webp"},
	BrandingTypeFont: {".ttf", ".otf", ".woff", ".woff2"},
}

// BrandingUpload 上传结果
type BrandingUpload struct {
	Path string `json:"path"`
	Type string `json:"type"`
}

// BrandingService Logo/字体上传
type BrandingService struct {
	cfg         config.BrandingConfig
	minioClient *minio.Client
	bucketName  string
}

func NewBrandingService(cfg config.BrandingConfig, minioClient *minio.Client, bucketName string) *BrandingService {
	return &BrandingService{cfg: cfg, minioClient: minioClient, bucketName: bucketName}
}

// Upload 保存素材到 MinIO，未配置时写入本地目录
func (s *BrandingService) Upload(ctx context.Context, assetType, fileName string, size int64, contentType string, reader io.Reader) (*BrandingUpload, error) {
	allowed, ok := brandingExtensions[assetType]
	if !ok {
		return nil, apperr.Validation("type must be logo or font")
	}
	ext := strings.ToLower(filepath.Ext(fileName))
	if !containsString(allowed, ext) {
		return nil, apperr.Validation("unsupported %s file extension %q", assetType, ext)
	}
	if s.cfg.MaxSize > 0 && size > s.cfg.MaxSize {
		return nil, apperr.Validation("file exceeds %d bytes", s.cfg.MaxSize)
	}

	objectName := fmt.Sprintf("branding/%s/%s%s", assetType, uuid.New().String(), ext)

	if s.minioClient != nil {
		_, err := s.minioClient.PutObject(ctx, s.bucketName, objectName, reader, size, minio.PutObjectOptions{
			ContentType: contentType,
		})
		if err != nil {
			return nil, fmt.Errorf("upload branding asset: %w", err)
		}
		return &BrandingUpload{Path: objectName, Type: assetType}, nil
	}

	path, err := s.saveLocal(objectName, reader)
	if err != nil {
		return nil, err
	}
	return &BrandingUpload{Path: path, Type: assetType}, nil
}

func (s *BrandingService) saveLocal(objectName string, reader io.Reader) (string, error) {
	rel := strings.TrimPrefix(objectName, "branding/")
	path := filepath.Join(s.cfg.UploadDir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create branding file: %w", err)
	}
	defer f.Close()

	src := reader
	if s.cfg.MaxSize > 0 {
		src = io.LimitReader(reader, s.cfg.MaxSize+1)
	}
	n, err := io.Copy(f, src)
	if err != nil {
		return "", fmt.Errorf("write branding file: %w", err)
	}
	if s.cfg.MaxSize > 0 && n > s.cfg.MaxSize {
		f.Close()
		os.Remove(path)
		return "", apperr.Validation("file exceeds %d bytes", s.cfg.MaxSize)
	}
	return path, nil
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
