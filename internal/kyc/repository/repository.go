package repository

import (
	"errors"

	"github.com/CsAbdulelah/fundy-chatgpt/internal/kyc/apperr"
	"gorm.io/gorm"
)

// Repositories 仓库集合
type Repositories struct {
	User       *UserRepository
	Team       *TeamRepository
	Template   *TemplateRepository
	Invite     *InviteRepository
	Submission *SubmissionRepository
	Chain      *ChainRepository
	Approval   *ApprovalStore
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:       NewUserRepository(db),
		Team:       NewTeamRepository(db),
		Template:   NewTemplateRepository(db),
		Invite:     NewInviteRepository(db),
		Submission: NewSubmissionRepository(db),
		Chain:      NewChainRepository(db),
		Approval:   NewApprovalStore(db),
	}
}

// notFound 把 gorm.ErrRecordNotFound 转成 apperr
func notFound(err error, kind, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(kind, id)
	}
	return err
}
