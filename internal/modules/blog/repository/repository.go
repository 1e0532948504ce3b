package repository

import (
	"context"

	"anoa.com/gamingcommunity/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BlogRepository interface {
	Create(ctx context.Context, blog *entity.Blog) error
	FindAll(ctx context.Context) ([]*entity.Blog, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Blog, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	Update(ctx context.Context, blog *entity.Blog) error
	// Delete removes the blog and its comments.
	Delete(ctx context.Context, id uuid.UUID) error
	AddComment(ctx context.Context, comment *entity.BlogComment) error
	// IncrementLikes bumps the counter in place and returns the new value.
	IncrementLikes(ctx context.Context, id uuid.UUID) (int, error)
	Count(ctx context.Context) (int64, error)
}

type blogRepository struct {
	db *gorm.DB
}

func NewBlogRepository(db *gorm.DB) BlogRepository {
	return &blogRepository{db: db}
}

func (r *blogRepository) withRelations(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Author").
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Comments.User")
}

func (r *blogRepository) Create(ctx context.Context, blog *entity.Blog) error {
	return r.db.WithContext(ctx).Omit("Author", "Comments").Create(blog).Error
}

func (r *blogRepository) FindAll(ctx context.Context) ([]*entity.Blog, error) {
	var blogs []*entity.Blog
	if err := r.withRelations(ctx).Order("publish_date DESC").Find(&blogs).Error; err != nil {
		return nil, err
	}
	return blogs, nil
}

func (r *blogRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Blog, error) {
	var blog entity.Blog
	if err := r.withRelations(ctx).First(&blog, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &blog, nil
}

func (r *blogRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.Blog{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *blogRepository) Update(ctx context.Context, blog *entity.Blog) error {
	return r.db.WithContext(ctx).
		Model(blog).
		Select("Title", "Content", "ImageURL", "Tags").
		Updates(blog).Error
}

func (r *blogRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("blog_id = ?", id).Delete(&entity.BlogComment{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&entity.Blog{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *blogRepository) AddComment(ctx context.Context, comment *entity.BlogComment) error {
	if err := r.db.WithContext(ctx).Omit("User").Create(comment).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Preload("User").First(comment, "id = ?", comment.ID).Error
}

func (r *blogRepository) IncrementLikes(ctx context.Context, id uuid.UUID) (int, error) {
	var likes int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&entity.Blog{}).
			Where("id = ?", id).
			UpdateColumn("likes", gorm.Expr("likes + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Model(&entity.Blog{}).Select("likes").Where("id = ?", id).Row().Scan(&likes)
	})
	return likes, err
}

func (r *blogRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.Blog{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
