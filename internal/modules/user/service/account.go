package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"anoa.com/gamingcommunity/internal/entity"
	search "anoa.com/gamingcommunity/internal/modules/search/service"
	"anoa.com/gamingcommunity/internal/modules/user/dto"
	"anoa.com/gamingcommunity/internal/modules/user/repository"
	"anoa.com/gamingcommunity/pkg/apperror"
	"anoa.com/gamingcommunity/pkg/sanitize"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const msgEmailInUse = "Email is already in use"

// AccountService covers the signed-in user's own account.
type AccountService interface {
	Me(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error)
	Update(ctx context.Context, userID uuid.UUID, req dto.UpdateUserRequest) (*dto.UserResponse, error)
	Delete(ctx context.Context, userID uuid.UUID) error
}

type accountService struct {
	repo    repository.UserRepository
	indexer search.Indexer
}

// NewAccountService builds the account service. indexer may be nil; when set,
// blogs removed with an account are dropped from search.
func NewAccountService(repo repository.UserRepository, indexer search.Indexer) AccountService {
	return &accountService{repo: repo, indexer: indexer}
}

func (s *accountService) Me(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	res := dto.NewUserResponse(user)
	return &res, nil
}

func (s *accountService) Update(ctx context.Context, userID uuid.UUID, req dto.UpdateUserRequest) (*dto.UserResponse, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Username != nil {
		username, err := cleanUsername(*req.Username)
		if err != nil {
			return nil, err
		}
		if username != user.Username {
			if err := s.ensureFree(ctx, s.repo.FindByUsername, username, user.ID, msgUsernameTaken); err != nil {
				return nil, err
			}
			user.Username = username
		}
	}

	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		if email != user.Email {
			if err := s.ensureFree(ctx, s.repo.FindByEmail, email, user.ID, msgEmailInUse); err != nil {
				return nil, err
			}
			user.Email = email
		}
	}

	if req.ProfilePicture != nil {
		user.ProfilePicture = strings.TrimSpace(*req.ProfilePicture)
	}
	if req.Bio != nil {
		user.Bio = sanitize.Text(*req.Bio)
	}

	if err := s.repo.Update(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.Conflict(s.duplicateMessage(ctx, user))
		}
		return nil, fmt.Errorf("update user: %w", err)
	}

	res := dto.NewUserResponse(user)
	return &res, nil
}

func (s *accountService) Delete(ctx context.Context, userID uuid.UUID) error {
	blogIDs, err := s.repo.Delete(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("User not found")
		}
		return fmt.Errorf("delete user: %w", err)
	}

	if s.indexer != nil {
		for _, id := range blogIDs {
			if err := s.indexer.Delete(ctx, search.KindBlogs, id.String()); err != nil {
				zap.L().Warn("search delete failed", zap.String("blog_id", id.String()), zap.Error(err))
			}
		}
	}
	return nil
}

func (s *accountService) load(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("User not found")
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

// duplicateMessage names the column a failed update collided on.
func (s *accountService) duplicateMessage(ctx context.Context, user *entity.User) string {
	if other, err := s.repo.FindByEmail(ctx, user.Email); err == nil && other.ID != user.ID {
		return msgEmailInUse
	}
	return msgUsernameTaken
}

type finder func(ctx context.Context, value string) (*entity.User, error)

func (s *accountService) ensureFree(ctx context.Context, find finder, value string, self uuid.UUID, conflictMsg string) error {
	other, err := find(ctx, value)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("uniqueness check: %w", err)
	}
	if other.ID != self {
		return apperror.Conflict(conflictMsg)
	}
	return nil
}
