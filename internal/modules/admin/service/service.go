package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"anoa.com/gamingcommunity/internal/modules/admin/dto"
	userdto "anoa.com/gamingcommunity/internal/modules/user/dto"
	userrepo "anoa.com/gamingcommunity/internal/modules/user/repository"
	"anoa.com/gamingcommunity/internal/scheduler"
	"anoa.com/gamingcommunity/pkg/apperror"
	"anoa.com/gamingcommunity/pkg/cache"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const StatsCacheKey = "admin:stats"

type Counter interface {
	Count(ctx context.Context) (int64, error)
}

type Deleter interface {
	Delete(ctx context.Context, id uuid.UUID) error
}

type DeleterFunc func(ctx context.Context, id uuid.UUID) error

func (f DeleterFunc) Delete(ctx context.Context, id uuid.UUID) error { return f(ctx, id) }

// JobRunner is satisfied by *scheduler.Scheduler.
type JobRunner interface {
	Jobs() []string
	RunByName(ctx context.Context, name string) error
}

type AdminService interface {
	Stats(ctx context.Context) (*dto.Stats, error)
	Users(ctx context.Context) ([]userdto.UserResponse, error)
	SetAdmin(ctx context.Context, id uuid.UUID, isAdmin bool) (*userdto.UserResponse, error)
	DeleteGame(ctx context.Context, id uuid.UUID) error
	DeleteBlog(ctx context.Context, id uuid.UUID) error
	DeleteCommunity(ctx context.Context, id uuid.UUID) error
	Jobs(ctx context.Context) ([]string, error)
	RunJob(ctx context.Context, name string) error
}

// Config groups the admin service collaborators. Cache and Jobs may be nil.
type Config struct {
	Users       userrepo.UserRepository
	Games       Counter
	Blogs       Counter
	Communities Counter

	GameDeleter      Deleter
	BlogDeleter      Deleter
	CommunityDeleter Deleter

	Cache    cache.Cache
	CacheTTL time.Duration

	Jobs JobRunner
}

type adminService struct {
	cfg Config
}

func NewAdminService(cfg Config) AdminService {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Minute
	}
	return &adminService{cfg: cfg}
}

func (s *adminService) Stats(ctx context.Context) (*dto.Stats, error) {
	if s.cfg.Cache != nil {
		var cached dto.Stats
		err := s.cfg.Cache.GetJSON(ctx, StatsCacheKey, &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			zap.L().Warn("stats cache read failed", zap.Error(err))
		}
	}

	var stats dto.Stats
	counts := []struct {
		name string
		c    Counter
		dst  *int64
	}{
		{"users", s.cfg.Users, &stats.Users},
		{"games", s.cfg.Games, &stats.Games},
		{"blogs", s.cfg.Blogs, &stats.Blogs},
		{"communities", s.cfg.Communities, &stats.Communities},
	}
	for _, cnt := range counts {
		n, err := cnt.c.Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", cnt.name, err)
		}
		*cnt.dst = n
	}

	if s.cfg.Cache != nil {
		if err := s.cfg.Cache.SetJSON(ctx, StatsCacheKey, stats, s.cfg.CacheTTL); err != nil {
			zap.L().Warn("stats cache write failed", zap.Error(err))
		}
	}
	return &stats, nil
}

func (s *adminService) Users(ctx context.Context) ([]userdto.UserResponse, error) {
	users, err := s.cfg.Users.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return userdto.NewUserResponses(users), nil
}

func (s *adminService) SetAdmin(ctx context.Context, id uuid.UUID, isAdmin bool) (*userdto.UserResponse, error) {
	user, err := s.cfg.Users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("User not found")
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	if err := s.cfg.Users.SetAdmin(ctx, id, isAdmin); err != nil {
		return nil, fmt.Errorf("set admin: %w", err)
	}
	user.IsAdmin = isAdmin

	res := userdto.NewUserResponse(user)
	return &res, nil
}

func (s *adminService) DeleteGame(ctx context.Context, id uuid.UUID) error {
	return s.delete(ctx, s.cfg.GameDeleter, id)
}

func (s *adminService) DeleteBlog(ctx context.Context, id uuid.UUID) error {
	return s.delete(ctx, s.cfg.BlogDeleter, id)
}

func (s *adminService) DeleteCommunity(ctx context.Context, id uuid.UUID) error {
	return s.delete(ctx, s.cfg.CommunityDeleter, id)
}

func (s *adminService) delete(ctx context.Context, d Deleter, id uuid.UUID) error {
	if err := d.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateStats(ctx)
	return nil
}

func (s *adminService) invalidateStats(ctx context.Context) {
	if s.cfg.Cache == nil {
		return
	}
	if err := s.cfg.Cache.Delete(ctx, StatsCacheKey); err != nil {
		zap.L().Warn("stats cache invalidation failed", zap.Error(err))
	}
}

func (s *adminService) Jobs(context.Context) ([]string, error) {
	if s.cfg.Jobs == nil {
		return nil, apperror.Unavailable("Background jobs are unavailable")
	}
	names := s.cfg.Jobs.Jobs()
	if names == nil {
		names = []string{}
	}
	return names, nil
}

func (s *adminService) RunJob(ctx context.Context, name string) error {
	if s.cfg.Jobs == nil {
		return apperror.Unavailable("Background jobs are unavailable")
	}
	if err := s.cfg.Jobs.RunByName(ctx, name); err != nil {
		if errors.Is(err, scheduler.ErrJobNotFound) {
			return apperror.NotFound("Job not found")
		}
		return fmt.Errorf("run job %s: %w", name, err)
	}
	zap.L().Info("job run by admin", zap.String("job", name))
	return nil
}
