package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/CsAbdulelah/fundy-chatgpt/internal/kyc/apperr"
	"github.com/CsAbdulelah/fundy-chatgpt/internal/kyc/entity"
	"github.com/CsAbdulelah/fundy-chatgpt/internal/kyc/repository"
)

// UserService 用户服务
type UserService struct {
	repo *repository.UserRepository
}

func NewUserService(repo *repository.UserRepository) *UserService {
	return &UserService{repo: repo}
}

// CreateUserRequest 创建用户请求
type CreateUserRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
}

func (s *UserService) Create(ctx context.Context, req *CreateUserRequest) (*entity.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, apperr.Conflict("email already registered")
	} else if !apperr.IsNotFound(err) {
		return nil, err
	}

	user := &entity.User{ID: newID(), Name: strings.TrimSpace(req.Name), Email: email}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context) ([]entity.User, error) {
	return s.repo.List(ctx)
}

// requireUsers 校验用户存在，否则返回 validation 错误
func requireUsers(ctx context.Context, repo *repository.UserRepository, field string, ids ...string) error {
	missing, err := repo.MissingIDs(ctx, ids)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return apperr.Validation("%s references unknown user(s): %s", field, strings.Join(missing, ", "))
	}
	return nil
}
