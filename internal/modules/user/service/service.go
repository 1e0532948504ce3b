package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"anoa.com/gamingcommunity/internal/entity"
	"anoa.com/gamingcommunity/internal/modules/user/dto"
	"anoa.com/gamingcommunity/internal/modules/user/repository"
	"anoa.com/gamingcommunity/pkg/apperror"
	"anoa.com/gamingcommunity/pkg/token"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	msgUserExists         = "User already exists"
	msgUsernameTaken      = "Username is already taken"
	msgInvalidCredentials = "Invalid email or password"
	msgTokenInvalid       = "Token is not valid"

	minUsernameLen = 3
	maxUsernameLen = 50
)

// AuthService registers accounts, checks credentials and turns bearer tokens
// back into users.
type AuthService interface {
	Register(ctx context.Context, req dto.RegisterRequest) (*entity.User, error)
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	Verify(ctx context.Context, tokenString string) (*entity.User, error)
}

type authService struct {
	repo       repository.UserRepository
	tokens     *token.Manager
	bcryptCost int
}

func NewAuthService(repo repository.UserRepository, tokens *token.Manager) AuthService {
	return &authService{
		repo:       repo,
		tokens:     tokens,
		bcryptCost: bcrypt.DefaultCost,
	}
}

// NewAuthServiceWithCost is NewAuthService with a custom bcrypt cost.
func NewAuthServiceWithCost(repo repository.UserRepository, tokens *token.Manager, cost int) AuthService {
	s := NewAuthService(repo, tokens).(*authService)
	s.bcryptCost = cost
	return s
}

func (s *authService) Register(ctx context.Context, req dto.RegisterRequest) (*entity.User, error) {
	email := normalizeEmail(req.Email)
	username, err := cleanUsername(req.Username)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, apperror.Conflict(msgUserExists)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	if _, err := s.repo.FindByUsername(ctx, username); err == nil {
		return nil, apperror.Conflict(msgUsernameTaken)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("lookup username: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &entity.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		// lost a race against a concurrent signup
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.Conflict(s.duplicateMessage(ctx, email))
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.repo.FindByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Unauthorized(msgInvalidCredentials)
		}
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperror.Unauthorized(msgInvalidCredentials)
	}

	signed, expiresAt, err := s.tokens.Issue(user.ID.String())
	if err != nil {
		return nil, err
	}

	return &dto.LoginResponse{
		Token:     signed,
		ExpiresAt: expiresAt,
		User:      dto.NewUserResponse(user),
	}, nil
}

func (s *authService) Verify(ctx context.Context, tokenString string) (*entity.User, error) {
	subject, err := s.tokens.Parse(tokenString)
	if err != nil {
		if errors.Is(err, token.ErrExpired) {
			return nil, apperror.Unauthorized("Token has expired")
		}
		return nil, apperror.Unauthorized(msgTokenInvalid)
	}

	id, err := uuid.Parse(subject)
	if err != nil {
		return nil, apperror.Unauthorized(msgTokenInvalid)
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Unauthorized(msgTokenInvalid)
		}
		return nil, fmt.Errorf("load token subject: %w", err)
	}
	return user, nil
}

// duplicateMessage names the column a failed insert collided on.
func (s *authService) duplicateMessage(ctx context.Context, email string) string {
	if _, err := s.repo.FindByEmail(ctx, email); errors.Is(err, gorm.ErrRecordNotFound) {
		return msgUsernameTaken
	}
	return msgUserExists
}

// cleanUsername trims before checking length so padding cannot satisfy it.
func cleanUsername(raw string) (string, error) {
	username := strings.TrimSpace(raw)
	switch n := utf8.RuneCountInString(username); {
	case n < minUsernameLen:
		return "", apperror.Validation(fmt.Sprintf("username must be at least %d characters", minUsernameLen))
	case n > maxUsernameLen:
		return "", apperror.Validation(fmt.Sprintf("username must be at most %d characters", maxUsernameLen))
	}
	return username, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
