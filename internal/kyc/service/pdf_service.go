package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/CsAbdulelah/fundy-chatgpt/internal/config"
	"github.com/CsAbdulelah/fundy-chatgpt/internal/kyc/apperr"
	"github.com/CsAbdulelah/fundy-chatgpt/internal/kyc/entity"
	"github.com/CsAbdulelah/fundy-chatgpt/internal/kyc/repository"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// CommandRunner 执行外部渲染进程，返回合并后的输出
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// PDFPayload 传给渲染脚本的 JSON
type PDFPayload struct {
	SubmissionID string                 `json:"submission_id"`
	InvestorName string                 `json:"investor_name"`
	TemplateName string                 `json:"template_name"`
	GeneratedAt  string                 `json:"generated_at"`
	Schema       entity.Value           `json:"schema"`
	Data         entity.FormData        `json:"data"`
	Language     string                 `json:"language"`
	Branding     map[string]interface{} `json:"branding"`
}

// RenderedPDF 渲染结果
type RenderedPDF struct {
	FileName string
	Content  []byte
}

// PDFService 调用外部脚本把提交渲染成 PDF
type PDFService struct {
	repo        *repository.SubmissionRepository
	cfg         config.PDFConfig
	minioClient *minio.Client
	bucketName  string
	logger      *zap.Logger
	run         CommandRunner
	now         func() time.Time
}

func NewPDFService(repo *repository.SubmissionRepository, cfg config.PDFConfig, minioClient *minio.Client, bucketName string, logger *zap.Logger) *PDFService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PDFService{
		repo:        repo,
		cfg:         cfg,
		minioClient: minioClient,
		bucketName:  bucketName,
		logger:      logger,
		run:         execRunner,
		now:         time.Now,
	}
}

// WithRunner 替换渲染进程（测试用）
func (s *PDFService) WithRunner(run CommandRunner) *PDFService {
	s.run = run
	return s
}

// Render 渲染提交；language 为空时按品牌/模板/全局默认依次回退
func (s *PDFService) Render(ctx context.Context, submissionID, language string) (*RenderedPDF, error) {
	sub, err := s.repo.FindForRender(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if sub.Template == nil {
		return nil, apperr.NotFound("template", sub.TemplateID)
	}

	payload := s.BuildPayload(sub, language)
	content, err := s.RenderPayload(ctx, payload)
	if err != nil {
		return nil, err
	}

	fileName := fmt.Sprintf("submission-%s.pdf", sub.ID)
	s.archive(ctx, "pdfs/"+fileName, content)

	return &RenderedPDF{FileName: fileName, Content: content}, nil
}

// BuildPayload 组装渲染数据：团队品牌被模板品牌覆盖
func (s *PDFService) BuildPayload(sub *entity.Submission, language string) *PDFPayload {
	tpl := sub.Template
	branding := map[string]interface{}{}
	if tpl.Team != nil {
		for k, v := range tpl.Team.Branding {
			branding[k] = v
		}
	}
	for k, v := range tpl.Branding {
		branding[k] = v
	}

	lang := s.resolveLanguage(language, branding, tpl.DefaultLanguage)

	templateName := tpl.Name
	if lang == "ar" && tpl.NameAr != "" {
		templateName = tpl.NameAr
	}
	investorName := "Investor"
	if sub.Investor != nil && sub.Investor.Name != "" {
		investorName = sub.Investor.Name
	}
	data := sub.Data
	if data == nil {
		data = entity.FormData{}
	}

	return &PDFPayload{
		SubmissionID: sub.ID,
		InvestorName: investorName,
		TemplateName: templateName,
		GeneratedAt:  s.now().UTC().Format(time.RFC3339),
		Schema:       tpl.Schema,
		Data:         data,
		Language:     lang,
		Branding:     branding,
	}
}

func (s *PDFService) resolveLanguage(override string, branding map[string]interface{}, templateLanguage string) string {
	candidates := []string{override}
	if v, ok := branding["pdf_language"].(string); ok {
		candidates = append(candidates, v)
	}
	candidates = append(candidates, templateLanguage, s.cfg.DefaultLanguage)
	for _, c := range candidates {
		if lang := NormalizeLanguage(c, ""); lang != "" {
			return lang
		}
	}
	return "ar"
}

// RenderPayload 写入临时 JSON，执行 python 脚本并读取生成的 PDF
func (s *PDFService) RenderPayload(ctx context.Context, payload *PDFPayload) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, apperr.Internal(err, "encode pdf payload")
	}

	dir, err := os.MkdirTemp(s.cfg.WorkDir, "kyc-pdf-")
	if err != nil {
		return nil, apperr.Internal(err, "create pdf work dir")
	}
	defer os.RemoveAll(dir)

	jsonPath := filepath.Join(dir, "payload.json")
	pdfPath := filepath.Join(dir, "submission.pdf")
	if err := os.WriteFile(jsonPath, raw, 0o600); err != nil {
		return nil, apperr.Internal(err, "write pdf payload")
	}

	timeout := s.cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := s.run(runCtx, s.cfg.Python, s.cfg.Script, jsonPath, pdfPath)
	if err != nil {
		s.logger.Error("PDF renderer failed",
			zap.String("submission_id", payload.SubmissionID),
			zap.String("output", strings.TrimSpace(string(out))),
			zap.Error(err),
		)
		if runCtx.Err() == context.DeadlineExceeded {
			return nil, apperr.Internal(err, "PDF renderer timed out")
		}
		return nil, apperr.Internal(err, "PDF renderer failed")
	}

	content, err := os.ReadFile(pdfPath)
	if err != nil {
		return nil, apperr.Internal(err, "PDF renderer produced no output")
	}
	return content, nil
}

func (s *PDFService) archive(ctx context.Context, objectName string, content []byte) {
	if s.minioClient == nil {
		return
	}
	_, err := s.minioClient.PutObject(ctx, s.bucketName, objectName, bytes.NewReader(content), int64(len(content)), minio.PutObjectOptions{
		ContentType: "application/pdf",
	})
	if err != nil {
		s.logger.Warn("Archive rendered pdf failed", zap.String("object", objectName), zap.Error(err))
	}
}
