package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"anoa.com/gamingcommunity/internal/entity"
	"anoa.com/gamingcommunity/internal/modules/game/dto"
	"anoa.com/gamingcommunity/internal/modules/game/repository"
	search "anoa.com/gamingcommunity/internal/modules/search/service"
	"anoa.com/gamingcommunity/pkg/apperror"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const msgGameNotFound = "Game not found"

type GameService interface {
	List(ctx context.Context, q dto.ListGamesQuery) ([]dto.GameResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.GameResponse, error)
	Create(ctx context.Context, req dto.CreateGameRequest) (*dto.GameResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateGameRequest) (*dto.GameResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type gameService struct {
	repo    repository.GameRepository
	indexer search.Indexer
}

// NewGameService builds the catalog service. indexer may be nil.
func NewGameService(repo repository.GameRepository, indexer search.Indexer) GameService {
	return &gameService{repo: repo, indexer: indexer}
}

func (s *gameService) List(ctx context.Context, q dto.ListGamesQuery) ([]dto.GameResponse, error) {
	games, err := s.repo.FindAll(ctx, repository.Filter{Search: q.Search, Genre: q.Genre})
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}

	if p := strings.TrimSpace(q.Platform); p != "" {
		filtered := games[:0]
		for _, g := range games {
			if g.HasPlatform(p) {
				filtered = append(filtered, g)
			}
		}
		games = filtered
	}

	return dto.NewGameResponses(games), nil
}

func (s *gameService) Get(ctx context.Context, id uuid.UUID) (*dto.GameResponse, error) {
	game, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	res := dto.NewGameResponse(game)
	return &res, nil
}

func (s *gameService) Create(ctx context.Context, req dto.CreateGameRequest) (*dto.GameResponse, error) {
	game := &entity.Game{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		ImageURL:    strings.TrimSpace(req.ImageURL),
		Genre:       strings.TrimSpace(req.Genre),
		Platform:    cleanList(req.Platform),
		ReleaseDate: req.ReleaseDate.Time,
	}
	if req.Rating != nil {
		game.Rating = *req.Rating
	}
	if err := validateGame(game); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, game); err != nil {
		return nil, fmt.Errorf("create game: %w", err)
	}
	s.index(ctx, game)

	res := dto.NewGameResponse(game)
	return &res, nil
}

func (s *gameService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateGameRequest) (*dto.GameResponse, error) {
	game, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		game.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		game.Description = *req.Description
	}
	if req.ImageURL != nil {
		game.ImageURL = strings.TrimSpace(*req.ImageURL)
	}
	if req.Genre != nil {
		game.Genre = strings.TrimSpace(*req.Genre)
	}
	if req.Platform != nil {
		game.Platform = cleanList(*req.Platform)
	}
	if req.ReleaseDate != nil && !req.ReleaseDate.IsZero() {
		game.ReleaseDate = req.ReleaseDate.Time
	}
	if req.Rating != nil {
		game.Rating = *req.Rating
	}
	if err := validateGame(game); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, game); err != nil {
		return nil, fmt.Errorf("update game: %w", err)
	}
	s.index(ctx, game)

	res := dto.NewGameResponse(game)
	return &res, nil
}

func (s *gameService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound(msgGameNotFound)
		}
		return fmt.Errorf("delete game: %w", err)
	}

	if s.indexer != nil {
		if err := s.indexer.Delete(ctx, search.KindGames, id.String()); err != nil {
			zap.L().Warn("search delete failed", zap.String("game_id", id.String()), zap.Error(err))
		}
	}
	return nil
}

func (s *gameService) load(ctx context.Context, id uuid.UUID) (*entity.Game, error) {
	game, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound(msgGameNotFound)
		}
		return nil, fmt.Errorf("load game: %w", err)
	}
	return game, nil
}

func (s *gameService) index(ctx context.Context, game *entity.Game) {
	if s.indexer == nil {
		return
	}
	if err := s.indexer.IndexGames(ctx, game); err != nil {
		zap.L().Warn("search index failed", zap.String("game_id", game.ID.String()), zap.Error(err))
	}
}

// validateGame runs after trimming; binding only sees the raw input.
func validateGame(g *entity.Game) error {
	switch {
	case g.Title == "":
		return apperror.Validation("title is required")
	case strings.TrimSpace(g.Description) == "":
		return apperror.Validation("description is required")
	case g.ImageURL == "":
		return apperror.Validation("imageUrl is required")
	case g.Genre == "":
		return apperror.Validation("genre is required")
	case len(g.Platform) == 0:
		return apperror.Validation("platform must have at least 1 item(s)")
	}
	return nil
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}
