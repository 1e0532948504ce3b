package repository

import (
	"context"
	"strings"

	"anoa.com/gamingcommunity/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Filter struct {
	Search string
	Genre  string
}

type GameRepository interface {
	Create(ctx context.Context, game *entity.Game) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Game, error)
	FindAll(ctx context.Context, filter Filter) ([]*entity.Game, error)
	Update(ctx context.Context, game *entity.Game) error
	// Delete removes the game and clears it from every community that
	// referenced it, in one transaction.
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)
}

type gameRepository struct {
	db *gorm.DB
}

func NewGameRepository(db *gorm.DB) GameRepository {
	return &gameRepository{db: db}
}

func (r *gameRepository) Create(ctx context.Context, game *entity.Game) error {
	return r.db.WithContext(ctx).Create(game).Error
}

func (r *gameRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Game, error) {
	var game entity.Game
	if err := r.db.WithContext(ctx).First(&game, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &game, nil
}

func (r *gameRepository) FindAll(ctx context.Context, filter Filter) ([]*entity.Game, error) {
	var games []*entity.Game
	query := r.db.WithContext(ctx)

	if s := strings.ToLower(strings.TrimSpace(filter.Search)); s != "" {
		like := "%" + s + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}
	if g := strings.TrimSpace(filter.Genre); g != "" {
		query = query.Where("LOWER(genre) = ?", strings.ToLower(g))
	}

	if err := query.Order("created_at DESC").Find(&games).Error; err != nil {
		return nil, err
	}
	return games, nil
}

func (r *gameRepository) Update(ctx context.Context, game *entity.Game) error {
	return r.db.WithContext(ctx).Save(game).Error
}

func (r *gameRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&entity.Community{}).
			Where("game_id = ?", id).
			Update("game_id", nil).Error; err != nil {
			return err
		}

		res := tx.Delete(&entity.Game{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *gameRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.Game{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
