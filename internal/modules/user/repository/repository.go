package repository

import (
	"context"

	"anoa.com/gamingcommunity/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByUsername(ctx context.Context, username string) (*entity.User, error)
	Update(ctx context.Context, user *entity.User) error
	SetAdmin(ctx context.Context, id uuid.UUID, isAdmin bool) error
	FindAll(ctx context.Context) ([]*entity.User, error)
	// Delete removes the user with their memberships, comments and blogs,
	// returning the ids of the removed blogs.
	Delete(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error)
	Count(ctx context.Context) (int64, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.User{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var user entity.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	var user entity.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	var user entity.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, user *entity.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

// SetAdmin does not report missing rows; mysql counts only changed rows.
func (r *userRepository) SetAdmin(ctx context.Context, id uuid.UUID, isAdmin bool) error {
	return r.db.WithContext(ctx).Model(&entity.User{}).Where("id = ?", id).Update("is_admin", isAdmin).Error
}

func (r *userRepository) FindAll(ctx context.Context) ([]*entity.User, error) {
	var users []*entity.User
	if err := r.db.WithContext(ctx).Order("joined_date DESC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// Delete removes the account together with its memberships, its comments and
// its blogs (and their comments).
func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	var blogIDs []uuid.UUID
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&entity.Blog{}).Where("author_id = ?", id).Pluck("id", &blogIDs).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&entity.CommunityMember{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&entity.BlogComment{}).Error; err != nil {
			return err
		}
		ownBlogs := tx.Model(&entity.Blog{}).Select("id").Where("author_id = ?", id)
		if err := tx.Where("blog_id IN (?)", ownBlogs).Delete(&entity.BlogComment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("author_id = ?", id).Delete(&entity.Blog{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&entity.User{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return blogIDs, nil
}
