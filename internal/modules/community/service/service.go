package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"anoa.com/gamingcommunity/internal/entity"
	"anoa.com/gamingcommunity/internal/modules/community/dto"
	"anoa.com/gamingcommunity/internal/modules/community/repository"
	gamerepo "anoa.com/gamingcommunity/internal/modules/game/repository"
	search "anoa.com/gamingcommunity/internal/modules/search/service"
	"anoa.com/gamingcommunity/pkg/apperror"
	"anoa.com/gamingcommunity/pkg/sanitize"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	msgCommunityNotFound = "Community not found"
	msgNameTaken         = "Community name already exists"
	msgAlreadyMember     = "You are already a member of this community"
	msgNotMember         = "You are not a member of this community"
)

type CommunityService interface {
	List(ctx context.Context) ([]dto.CommunityResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.CommunityResponse, error)
	Create(ctx context.Context, creatorID uuid.UUID, req dto.CreateCommunityRequest) (*dto.CommunityResponse, error)
	Join(ctx context.Context, id, userID uuid.UUID) error
	Leave(ctx context.Context, id, userID uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type communityService struct {
	repo    repository.CommunityRepository
	games   gamerepo.GameRepository
	indexer search.Indexer
}

// NewCommunityService wires the community service. indexer may be nil.
func NewCommunityService(repo repository.CommunityRepository, games gamerepo.GameRepository, indexer search.Indexer) CommunityService {
	return &communityService{repo: repo, games: games, indexer: indexer}
}

func (s *communityService) List(ctx context.Context) ([]dto.CommunityResponse, error) {
	communities, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list communities: %w", err)
	}

	res := make([]dto.CommunityResponse, 0, len(communities))
	for _, c := range communities {
		res = append(res, dto.NewCommunityListItem(c))
	}
	return res, nil
}

func (s *communityService) Get(ctx context.Context, id uuid.UUID) (*dto.CommunityResponse, error) {
	community, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	res := dto.NewCommunityDetail(community)
	return &res, nil
}

func (s *communityService) Create(ctx context.Context, creatorID uuid.UUID, req dto.CreateCommunityRequest) (*dto.CommunityResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperror.Validation("name is required")
	}

	if _, err := s.repo.FindByName(ctx, name); err == nil {
		return nil, apperror.Conflict(msgNameTaken)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check community name: %w", err)
	}

	gameID, err := uuid.Parse(req.Game)
	if err != nil {
		return nil, apperror.NotFound("Game not found")
	}
	game, err := s.games.FindByID(ctx, gameID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Game not found")
		}
		return nil, fmt.Errorf("load game: %w", err)
	}

	community := &entity.Community{
		Name:        name,
		Description: sanitize.Text(req.Description),
		ImageURL:    strings.TrimSpace(req.ImageURL),
		GameID:      &game.ID,
		Tags:        cleanTags(req.Tags),
	}
	if err := s.repo.Create(ctx, community, creatorID); err != nil {
		// a concurrent create may win the unique index
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.Conflict(msgNameTaken)
		}
		return nil, fmt.Errorf("create community: %w", err)
	}

	created, err := s.load(ctx, community.ID)
	if err != nil {
		return nil, err
	}
	s.index(ctx, created)

	res := dto.NewCommunityDetail(created)
	return &res, nil
}

func (s *communityService) Join(ctx context.Context, id, userID uuid.UUID) error {
	if err := s.ensureExists(ctx, id); err != nil {
		return err
	}

	member, err := s.repo.IsMember(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("check membership: %w", err)
	}
	if member {
		return apperror.Conflict(msgAlreadyMember)
	}

	if err := s.repo.AddMember(ctx, id, userID); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperror.Conflict(msgAlreadyMember)
		}
		return fmt.Errorf("join community: %w", err)
	}
	s.reindex(ctx, id)
	return nil
}

func (s *communityService) Leave(ctx context.Context, id, userID uuid.UUID) error {
	if err := s.ensureExists(ctx, id); err != nil {
		return err
	}

	removed, err := s.repo.RemoveMember(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("leave community: %w", err)
	}
	if !removed {
		return apperror.Validation(msgNotMember)
	}
	s.reindex(ctx, id)
	return nil
}

func (s *communityService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound(msgCommunityNotFound)
		}
		return fmt.Errorf("delete community: %w", err)
	}

	if s.indexer != nil {
		if err := s.indexer.Delete(ctx, search.KindCommunities, id.String()); err != nil {
			zap.L().Warn("search delete failed", zap.String("community_id", id.String()), zap.Error(err))
		}
	}
	return nil
}

func (s *communityService) load(ctx context.Context, id uuid.UUID) (*entity.Community, error) {
	community, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound(msgCommunityNotFound)
		}
		return nil, fmt.Errorf("load community: %w", err)
	}
	return community, nil
}

func (s *communityService) ensureExists(ctx context.Context, id uuid.UUID) error {
	ok, err := s.repo.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("load community: %w", err)
	}
	if !ok {
		return apperror.NotFound(msgCommunityNotFound)
	}
	return nil
}

// reindex refreshes the member count in the search index.
func (s *communityService) reindex(ctx context.Context, id uuid.UUID) {
	if s.indexer == nil {
		return
	}
	community, err := s.repo.FindByID(ctx, id)
	if err != nil {
		zap.L().Warn("search reindex load failed", zap.String("community_id", id.String()), zap.Error(err))
		return
	}
	s.index(ctx, community)
}

func (s *communityService) index(ctx context.Context, community *entity.Community) {
	if s.indexer == nil {
		return
	}
	if err := s.indexer.IndexCommunities(ctx, community); err != nil {
		zap.L().Warn("search index failed", zap.String("community_id", community.ID.String()), zap.Error(err))
	}
}

func cleanTags(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, t := range in {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
