package service

import (
	"time"

	"github.com/CsAbdulelah/fundy-chatgpt/internal/config"
	"github.com/CsAbdulelah/fundy-chatgpt/internal/kyc/engine"
	"github.com/CsAbdulelah/fundy-chatgpt/internal/kyc/repository"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// Services 服务集合
type Services struct {
	User       *UserService
	Team       *TeamService
	Bootstrap  *BootstrapService
	Template   *TemplateService
	Invite     *InviteService
	Submission *SubmissionService
	Review     *ReviewService
	Chain      *ChainService
	PDF        *PDFService
	Branding   *BrandingService
	Export     *ExportService
}

// NewServices 创建服务集合
func NewServices(repos *repository.Repositories, cfg *config.Config, logger *zap.Logger, publisher engine.Publisher) *Services {
	if logger == nil {
		logger = zap.NewNop()
	}

	// 初始化MinIO客户端，未配置时使用本地存储
	minioClient := NewMinIOClient(cfg.MinIO, logger)

	eng := engine.New(repos.Approval,
		engine.WithLogger(logger.Named("engine")),
		engine.WithPublisher(publisher),
	)

	return &Services{
		User:       NewUserService(repos.User),
		Team:       NewTeamService(repos.Team, repos.User),
		Bootstrap:  NewBootstrapService(repos.Team, logger),
		Template:   NewTemplateService(repos.Template, repos.Team, repos.User),
		Invite:     NewInviteService(repos.Invite, repos.Team, repos.Template, repos.User, cfg.JWT),
		Submission: NewSubmissionService(repos.Submission, repos.Template, repos.User),
		Review:     NewReviewService(repos.Submission, repos.User, publisher, logger),
		Chain:      NewChainService(repos.Chain, repos.Team, repos.Template, repos.User, eng),
		PDF:        NewPDFService(repos.Submission, cfg.PDF, minioClient, cfg.MinIO.Bucket, logger),
		Branding:   NewBrandingService(cfg.Branding, minioClient, cfg.MinIO.Bucket),
		Export:     NewExportService(repos.Submission),
	}
}

// NewMinIOClient 根据配置创建客户端，失败时返回 nil
func NewMinIOClient(cfg config.MinIOConfig, logger *zap.Logger) *minio.Client {
	if cfg.Endpoint == "" {
		return nil
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		logger.Warn("MinIO client init failed, falling back to local storage", zap.Error(err))
		return nil
	}
	return client
}

func newID() string {
	return uuid.New().String()
}

func nowPtr() *time.Time {
	now := time.Now()
	return &now
}
