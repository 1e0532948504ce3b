package repository

import (
	"context"

	"anoa.com/gamingcommunity/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CommunityRepository interface {
	// Create stores the community and makes creatorID its first member.
	Create(ctx context.Context, community *entity.Community, creatorID uuid.UUID) error
	FindAll(ctx context.Context) ([]*entity.Community, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Community, error)
	FindByName(ctx context.Context, name string) (*entity.Community, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	IsMember(ctx context.Context, communityID, userID uuid.UUID) (bool, error)
	AddMember(ctx context.Context, communityID, userID uuid.UUID) error
	// RemoveMember reports whether a membership was removed.
	RemoveMember(ctx context.Context, communityID, userID uuid.UUID) (bool, error)
	// Delete removes the community and its membership records.
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)
}

type communityRepository struct {
	db *gorm.DB
}

func NewCommunityRepository(db *gorm.DB) CommunityRepository {
	return &communityRepository{db: db}
}

func (r *communityRepository) Create(ctx context.Context, community *entity.Community, creatorID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Game", "Members").Create(community).Error; err != nil {
			return err
		}
		member := entity.CommunityMember{CommunityID: community.ID, UserID: creatorID}
		if err := tx.Omit("User").Create(&member).Error; err != nil {
			return err
		}
		return nil
	})
}

func (r *communityRepository) FindAll(ctx context.Context) ([]*entity.Community, error) {
	var communities []*entity.Community
	if err := r.db.WithContext(ctx).
		Preload("Game").
		Preload("Members").
		Order("created_at DESC").
		Find(&communities).Error; err != nil {
		return nil, err
	}
	return communities, nil
}

func (r *communityRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Community, error) {
	var community entity.Community
	if err := r.db.WithContext(ctx).
		Preload("Game").
		Preload("Members", func(db *gorm.DB) *gorm.DB {
			return db.Order("joined_at ASC")
		}).
		Preload("Members.User").
		First(&community, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &community, nil
}

func (r *communityRepository) FindByName(ctx context.Context, name string) (*entity.Community, error) {
	var community entity.Community
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&community).Error; err != nil {
		return nil, err
	}
	return &community, nil
}

func (r *communityRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.Community{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *communityRepository) IsMember(ctx context.Context, communityID, userID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entity.CommunityMember{}).
		Where("community_id = ? AND user_id = ?", communityID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *communityRepository) AddMember(ctx context.Context, communityID, userID uuid.UUID) error {
	member := entity.CommunityMember{CommunityID: communityID, UserID: userID}
	return r.db.WithContext(ctx).Omit("User").Create(&member).Error
}

func (r *communityRepository) RemoveMember(ctx context.Context, communityID, userID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("community_id = ? AND user_id = ?", communityID, userID).
		Delete(&entity.CommunityMember{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *communityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("community_id = ?", id).Delete(&entity.CommunityMember{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&entity.Community{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *communityRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.Community{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
