package service

import (
	"context"
	"fmt"

	"github.com/CsAbdulelah/fundy-chatgpt/internal/kyc/apperr"
	"github.com/CsAbdulelah/fundy-chatgpt/internal/kyc/engine"
	"github.com/CsAbdulelah/fundy-chatgpt/internal/kyc/entity"
	"github.com/CsAbdulelah/fundy-chatgpt/internal/kyc/repository"
)

// ChainService 审批链定义，以及启动/审批（委托给审批引擎）
type ChainService struct {
	repo         *repository.ChainRepository
	teamRepo     *repository.TeamRepository
	templateRepo *repository.TemplateRepository
	userRepo     *repository.UserRepository
	engine       *engine.Engine
}

func NewChainService(repo *repository.ChainRepository, teamRepo *repository.TeamRepository, templateRepo *repository.TemplateRepository, userRepo *repository.UserRepository, eng *engine.Engine) *ChainService {
	return &ChainService{
		repo:         repo,
		teamRepo:     teamRepo,
		templateRepo: templateRepo,
		userRepo:     userRepo,
		engine:       eng,
	}
}

// StepInput 审批步骤，按数组顺序排列
type StepInput struct {
	ApproverUserID string `json:"approver_user_id" binding:"required"`
}

// CreateChainRequest 创建审批链请求
type CreateChainRequest struct {
	TeamID     string      `json:"team_id" binding:"required"`
	TemplateID string      `json:"template_id" binding:"required"`
	Name       string      `json:"name" binding:"required"`
	Steps      []StepInput `json:"steps" binding:"required,min=1,dive"`
}

// UpdateChainRequest 更新审批链请求，steps 存在时整体替换
type UpdateChainRequest struct {
	Name     *string      `json:"name"`
	IsActive *bool        `json:"is_active"`
	Steps    *[]StepInput `json:"steps"`
}

// StartChainRequest 在提交上启动审批链
type StartChainRequest struct {
	ChainID string `json:"chain_id" binding:"required"`
}

// ActRequest 审批动作请求
type ActRequest struct {
	StepID  string `json:"step_id" binding:"required"`
	ActorID string `json:"actor_id" binding:"required"`
	Action  string `json:"action" binding:"required,oneof=approve reject"`
	Comment string `json:"comment"`
}

func (s *ChainService) Get(ctx context.Context, id string) (*entity.ApprovalChain, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *ChainService) ListByTemplate(ctx context.Context, templateID string) ([]entity.ApprovalChain, error) {
	return s.repo.ListByTemplate(ctx, templateID)
}

func (s *ChainService) Create(ctx context.Context, req *CreateChainRequest) (*entity.ApprovalChain, error) {
	if _, err := s.teamRepo.FindByID(ctx, req.TeamID); err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.Validation("team_id references unknown team %s", req.TeamID)
		}
		return nil, err
	}
	tpl, err := s.templateRepo.FindByID(ctx, req.TemplateID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.Validation("template_id references unknown template %s", req.TemplateID)
		}
		return nil, err
	}
	if tpl.TeamID != req.TeamID {
		return nil, apperr.Validation("template %s does not belong to team %s", tpl.ID, req.TeamID)
	}

	chain := &entity.ApprovalChain{
		ID:         newID(),
		TeamID:     req.TeamID,
		TemplateID: req.TemplateID,
		Name:       req.Name,
		IsActive:   true,
	}
	steps, err := s.buildSteps(ctx, chain.ID, req.Steps)
	if err != nil {
		return nil, err
	}
	chain.Steps = steps

	if err := s.repo.Create(ctx, chain); err != nil {
		return nil, fmt.Errorf("create approval chain: %w", err)
	}
	return s.repo.FindByID(ctx, chain.ID)
}

// Update 修改名称/启用状态；传入 steps 时删除旧步骤并按新顺序重建
func (s *ChainService) Update(ctx context.Context, id string, req *UpdateChainRequest) (*entity.ApprovalChain, error) {
	fields := map[string]interface{}{}
	if req.Name != nil {
		if *req.Name == "" {
			return nil, apperr.Validation("name cannot be empty")
		}
		fields["name"] = *req.Name
	}
	if req.IsActive != nil {
		fields["is_active"] = *req.IsActive
	}

	var steps []entity.ApprovalStep
	if req.Steps != nil {
		var err error
		if steps, err = s.buildSteps(ctx, id, *req.Steps); err != nil {
			return nil, err
		}
	}
	return s.repo.Replace(ctx, id, fields, steps)
}

// Start 在提交上实例化审批链，已有进度会被清空
func (s *ChainService) Start(ctx context.Context, submissionID string, req *StartChainRequest) (*entity.Submission, error) {
	return s.engine.StartChain(ctx, submissionID, req.ChainID)
}

// Act 审批人对某一步通过或驳回
func (s *ChainService) Act(ctx context.Context, submissionID string, req *ActRequest) (*entity.Submission, error) {
	if err := requireUsers(ctx, s.userRepo, "actor_id", req.ActorID); err != nil {
		return nil, err
	}
	return s.engine.ActOnStep(ctx, submissionID, engine.ActRequest{
		StepID:  req.StepID,
		ActorID: req.ActorID,
		Action:  req.Action,
		Comment: req.Comment,
	})
}

// buildSteps 校验审批人并生成 order_index = 位置+1 的步骤
func (s *ChainService) buildSteps(ctx context.Context, chainID string, inputs []StepInput) ([]entity.ApprovalStep, error) {
	if len(inputs) == 0 {
		return nil, apperr.Validation("steps must contain at least one approver")
	}
	ids := make([]string, len(inputs))
	for i, in := range inputs {
		if in.ApproverUserID == "" {
			return nil, apperr.Validation("steps[%d].approver_user_id is required", i)
		}
		ids[i] = in.ApproverUserID
	}
	if err := requireUsers(ctx, s.userRepo, "steps.approver_user_id", ids...); err != nil {
		return nil, err
	}

	steps := make([]entity.ApprovalStep, len(inputs))
	for i, in := range inputs {
		steps[i] = entity.ApprovalStep{
			ID:             newID(),
			ChainID:        chainID,
			OrderIndex:     i + 1,
			ApproverUserID: in.ApproverUserID,
		}
	}
	return steps, nil
}
