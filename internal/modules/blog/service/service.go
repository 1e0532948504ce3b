package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"anoa.com/gamingcommunity/internal/entity"
	activity "anoa.com/gamingcommunity/internal/modules/activity/service"
	"anoa.com/gamingcommunity/internal/modules/blog/dto"
	"anoa.com/gamingcommunity/internal/modules/blog/repository"
	search "anoa.com/gamingcommunity/internal/modules/search/service"
	"anoa.com/gamingcommunity/pkg/apperror"
	"anoa.com/gamingcommunity/pkg/sanitize"
	"anoa.com/gamingcommunity/pkg/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const msgBlogNotFound = "Blog not found"

type BlogService interface {
	List(ctx context.Context) ([]dto.BlogResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.BlogResponse, error)
	Create(ctx context.Context, authorID uuid.UUID, req dto.CreateBlogRequest) (*dto.BlogResponse, error)
	// Update and Delete are restricted to the author.
	Update(ctx context.Context, id, callerID uuid.UUID, req dto.UpdateBlogRequest) (*dto.BlogResponse, error)
	Delete(ctx context.Context, id, callerID uuid.UUID) error
	// AdminDelete skips the ownership check.
	AdminDelete(ctx context.Context, id uuid.UUID) error
	Comment(ctx context.Context, id, userID uuid.UUID, req dto.CommentRequest) (*dto.CommentResponse, error)
	Like(ctx context.Context, id uuid.UUID) (*dto.LikeResponse, error)
}

// Deps are the optional collaborators of the blog service; any of them may
// be nil.
type Deps struct {
	Indexer   search.Indexer
	Publisher activity.Publisher
	Images    storage.ImageStorage
}

type blogService struct {
	repo repository.BlogRepository
	deps Deps
}

func NewBlogService(repo repository.BlogRepository, deps Deps) BlogService {
	return &blogService{repo: repo, deps: deps}
}

func (s *blogService) List(ctx context.Context) ([]dto.BlogResponse, error) {
	blogs, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list blogs: %w", err)
	}
	return dto.NewBlogResponses(blogs), nil
}

func (s *blogService) Get(ctx context.Context, id uuid.UUID) (*dto.BlogResponse, error) {
	blog, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	res := dto.NewBlogResponse(blog)
	return &res, nil
}

func (s *blogService) Create(ctx context.Context, authorID uuid.UUID, req dto.CreateBlogRequest) (*dto.BlogResponse, error) {
	blog := &entity.Blog{
		Title:    strings.TrimSpace(req.Title),
		Content:  sanitize.UGC(req.Content),
		ImageURL: strings.TrimSpace(req.ImageURL),
		AuthorID: authorID,
		Tags:     cleanTags(req.Tags),
	}
	if blog.Title == "" {
		return nil, apperror.Validation("title is required")
	}
	if blog.Content == "" {
		return nil, apperror.Validation("content is required")
	}

	if err := s.repo.Create(ctx, blog); err != nil {
		return nil, fmt.Errorf("create blog: %w", err)
	}

	created, err := s.load(ctx, blog.ID)
	if err != nil {
		return nil, err
	}
	s.index(ctx, created)

	res := dto.NewBlogResponse(created)
	return &res, nil
}

func (s *blogService) Update(ctx context.Context, id, callerID uuid.UUID, req dto.UpdateBlogRequest) (*dto.BlogResponse, error) {
	blog, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if blog.AuthorID != callerID {
		return nil, apperror.Forbidden("You are not authorized to update this blog")
	}

	if req.Title != nil {
		if t := strings.TrimSpace(*req.Title); t != "" {
			blog.Title = t
		}
	}
	if req.Content != nil {
		if c := sanitize.UGC(*req.Content); c != "" {
			blog.Content = c
		}
	}
	if req.ImageURL != nil {
		blog.ImageURL = strings.TrimSpace(*req.ImageURL)
	}
	// absent or null keeps the current tags; an empty list clears them
	if req.Tags != nil {
		blog.Tags = cleanTags(*req.Tags)
	}

	if err := s.repo.Update(ctx, blog); err != nil {
		return nil, fmt.Errorf("update blog: %w", err)
	}
	s.index(ctx, blog)

	res := dto.NewBlogResponse(blog)
	return &res, nil
}

func (s *blogService) Delete(ctx context.Context, id, callerID uuid.UUID) error {
	blog, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if blog.AuthorID != callerID {
		return apperror.Forbidden("You are not authorized to delete this blog")
	}
	return s.remove(ctx, blog)
}

func (s *blogService) AdminDelete(ctx context.Context, id uuid.UUID) error {
	blog, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	return s.remove(ctx, blog)
}

func (s *blogService) Comment(ctx context.Context, id, userID uuid.UUID, req dto.CommentRequest) (*dto.CommentResponse, error) {
	text := sanitize.UGC(req.Text)
	if text == "" {
		return nil, apperror.Validation("text is required")
	}

	if err := s.ensureExists(ctx, id); err != nil {
		return nil, err
	}

	comment := &entity.BlogComment{BlogID: id, UserID: userID, Text: text}
	if err := s.repo.AddComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("add comment: %w", err)
	}

	res := dto.NewCommentResponse(*comment)
	s.publish(ctx, activity.Event{Type: activity.EventComment, BlogID: id.String(), Comment: res})
	return &res, nil
}

func (s *blogService) Like(ctx context.Context, id uuid.UUID) (*dto.LikeResponse, error) {
	likes, err := s.repo.IncrementLikes(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound(msgBlogNotFound)
		}
		return nil, fmt.Errorf("like blog: %w", err)
	}

	s.publish(ctx, activity.Event{Type: activity.EventLike, BlogID: id.String(), Likes: &likes})
	return &dto.LikeResponse{Likes: likes}, nil
}

func (s *blogService) remove(ctx context.Context, blog *entity.Blog) error {
	if err := s.repo.Delete(ctx, blog.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound(msgBlogNotFound)
		}
		return fmt.Errorf("delete blog: %w", err)
	}

	if s.deps.Indexer != nil {
		if err := s.deps.Indexer.Delete(ctx, search.KindBlogs, blog.ID.String()); err != nil {
			zap.L().Warn("search delete failed", zap.String("blog_id", blog.ID.String()), zap.Error(err))
		}
	}
	if s.deps.Images != nil && s.deps.Images.Owns(blog.ImageURL) {
		if err := s.deps.Images.DeleteImage(ctx, blog.ImageURL); err != nil {
			zap.L().Warn("blog image cleanup failed", zap.String("blog_id", blog.ID.String()), zap.Error(err))
		}
	}
	return nil
}

func (s *blogService) load(ctx context.Context, id uuid.UUID) (*entity.Blog, error) {
	blog, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound(msgBlogNotFound)
		}
		return nil, fmt.Errorf("load blog: %w", err)
	}
	return blog, nil
}

func (s *blogService) ensureExists(ctx context.Context, id uuid.UUID) error {
	ok, err := s.repo.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("load blog: %w", err)
	}
	if !ok {
		return apperror.NotFound(msgBlogNotFound)
	}
	return nil
}

func (s *blogService) index(ctx context.Context, blog *entity.Blog) {
	if s.deps.Indexer == nil {
		return
	}
	if err := s.deps.Indexer.IndexBlogs(ctx, blog); err != nil {
		zap.L().Warn("search index failed", zap.String("blog_id", blog.ID.String()), zap.Error(err))
	}
}

func (s *blogService) publish(ctx context.Context, event activity.Event) {
	if s.deps.Publisher == nil {
		return
	}
	if err := s.deps.Publisher.Publish(ctx, event); err != nil {
		zap.L().Warn("activity publish failed", zap.String("blog_id", event.BlogID), zap.Error(err))
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
