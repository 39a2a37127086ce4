package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/CsAbdulelah/fundy-chatgpt/internal/config"
	"github.com/CsAbdulelah/fundy-chatgpt/internal/kyc/apperr"
	"github.com/CsAbdulelah/fundy-chatgpt/internal/kyc/entity"
	"github.com/CsAbdulelah/fundy-chatgpt/internal/kyc/repository"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/datatypes"
)

// InviteService 邀请服务
type InviteService struct {
	repo         *repository.InviteRepository
	teamRepo     *repository.TeamRepository
	templateRepo *repository.TemplateRepository
	userRepo     *repository.UserRepository
	jwtCfg       config.JWTConfig
	now          func() time.Time
}

func NewInviteService(repo *repository.InviteRepository, teamRepo *repository.TeamRepository, templateRepo *repository.TemplateRepository, userRepo *repository.UserRepository, jwtCfg config.JWTConfig) *InviteService {
	return &InviteService{
		repo:         repo,
		teamRepo:     teamRepo,
		templateRepo: templateRepo,
		userRepo:     userRepo,
		jwtCfg:       jwtCfg,
		now:          time.Now,
	}
}

// CreateInviteRequest 创建邀请请求
type CreateInviteRequest struct {
	TeamID         string                 `json:"team_id" binding:"required"`
	TemplateID     string                 `json:"template_id" binding:"required"`
	InvestorUserID string                 `json:"investor_user_id" binding:"required"`
	InvitedBy      string                 `json:"invited_by" binding:"required"`
	Status         string                 `json:"status"`
	Metadata       map[string]interface{} `json:"metadata"`
}

// InviteWithToken 邀请及签名链接 token
type InviteWithToken struct {
	*entity.Invite
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// InviteClaims 邀请链接中的声明
type InviteClaims struct {
	InviteID       string `json:"iid"`
	TeamID         string `json:"tid"`
	TemplateID     string `json:"tpl"`
	InvestorUserID string `json:"inv"`
	jwt.RegisteredClaims
}

func (s *InviteService) List(ctx context.Context, teamID string) ([]entity.Invite, error) {
	if teamID == "" {
		return nil, apperr.Validation("team_id is required")
	}
	return s.repo.ListByTeam(ctx, teamID)
}

func (s *InviteService) Create(ctx context.Context, req *CreateInviteRequest) (*InviteWithToken, error) {
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
	if err := requireUsers(ctx, s.userRepo, "investor_user_id/invited_by", req.InvestorUserID, req.InvitedBy); err != nil {
		return nil, err
	}

	invite := &entity.Invite{
		ID:             newID(),
		TeamID:         req.TeamID,
		TemplateID:     req.TemplateID,
		InvestorUserID: req.InvestorUserID,
		InvitedBy:      req.InvitedBy,
		Status:         req.Status,
		Metadata:       datatypes.JSONMap(req.Metadata),
	}
	if invite.Status == "" {
		invite.Status = entity.InviteStatusInvited
	}
	if err := s.repo.Create(ctx, invite); err != nil {
		return nil, fmt.Errorf("create invite: %w", err)
	}

	token, expiresAt, err := s.IssueToken(invite)
	if err != nil {
		return nil, err
	}
	full, err := s.repo.FindByID(ctx, invite.ID)
	if err != nil {
		return nil, err
	}
	return &InviteWithToken{Invite: full, Token: token, ExpiresAt: expiresAt}, nil
}

// IssueToken 签发邀请链接 token（HS256）
func (s *InviteService) IssueToken(invite *entity.Invite) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.jwtCfg.InviteTokenExpire)
	claims := InviteClaims{
		InviteID:       invite.ID,
		TeamID:         invite.TeamID,
		TemplateID:     invite.TemplateID,
		InvestorUserID: invite.InvestorUserID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.jwtCfg.Issuer,
			Subject:   invite.InvestorUserID,
			ID:        invite.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwtCfg.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign invite token: %w", err)
	}
	return token, expiresAt, nil
}

// ParseToken 校验签名、签发方和有效期
func (s *InviteService) ParseToken(tokenString string) (*InviteClaims, error) {
	claims := &InviteClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.jwtCfg.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.jwtCfg.Issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.Validation("invite token expired")
		}
		return nil, apperr.Validation("invalid invite token")
	}
	return claims, nil
}

// Resolve 通过 token 找到邀请
func (s *InviteService) Resolve(ctx context.Context, tokenString string) (*entity.Invite, error) {
	if tokenString == "" {
		return nil, apperr.Validation("token is required")
	}
	claims, err := s.ParseToken(tokenString)
	if err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, claims.InviteID)
}
