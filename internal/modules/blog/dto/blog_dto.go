package dto

import (
	"time"

	"anoa.com/gamingcommunity/internal/entity"
	"github.com/google/uuid"
)

type CreateBlogRequest struct {
	Title    string   `json:"title" binding:"required,max=200"`
	Content  string   `json:"content" binding:"required"`
	ImageURL string   `json:"imageUrl" binding:"required,max=2048"`
	Tags     []string `json:"tags" binding:"omitempty,max=20,dive,max=40"`
}

// UpdateBlogRequest leaves nil fields untouched.
type UpdateBlogRequest struct {
	Title    *string   `json:"title" binding:"omitempty,min=1,max=200"`
	Content  *string   `json:"content" binding:"omitempty,min=1"`
	ImageURL *string   `json:"imageUrl" binding:"omitempty,max=2048"`
	Tags     *[]string `json:"tags" binding:"omitempty,max=20,dive,max=40"`
}

type CommentRequest struct {
	Text string `json:"text" binding:"required,max=2000"`
}

type AuthorSummary struct {
	ID             uuid.UUID `json:"id"`
	Username       string    `json:"username"`
	ProfilePicture string    `json:"profilePicture"`
}

type CommentResponse struct {
	ID        uuid.UUID     `json:"id"`
	User      AuthorSummary `json:"user"`
	Text      string        `json:"text"`
	CreatedAt time.Time     `json:"createdAt"`
}

type BlogResponse struct {
	ID          uuid.UUID         `json:"id"`
	Title       string            `json:"title"`
	Content     string            `json:"content"`
	ImageURL    string            `json:"imageUrl"`
	Author      AuthorSummary     `json:"author"`
	Tags        []string          `json:"tags"`
	Likes       int               `json:"likes"`
	Comments    []CommentResponse `json:"comments"`
	PublishDate time.Time         `json:"publishDate"`
}

type LikeResponse struct {
	Likes int `json:"likes"`
}

func NewAuthorSummary(u entity.User) AuthorSummary {
	return AuthorSummary{ID: u.ID, Username: u.Username, ProfilePicture: u.ProfilePicture}
}

func NewCommentResponse(c entity.BlogComment) CommentResponse {
	return CommentResponse{
		ID:        c.ID,
		User:      NewAuthorSummary(c.User),
		Text:      c.Text,
		CreatedAt: c.CreatedAt,
	}
}

func NewBlogResponse(b *entity.Blog) BlogResponse {
	tags := []string(b.Tags)
	if tags == nil {
		tags = []string{}
	}
	comments := make([]CommentResponse, 0, len(b.Comments))
	for _, c := range b.Comments {
		comments = append(comments, NewCommentResponse(c))
	}
	return BlogResponse{
		ID:          b.ID,
		Title:       b.Title,
		Content:     b.Content,
		ImageURL:    b.ImageURL,
		Author:      NewAuthorSummary(b.Author),
		Tags:        tags,
		Likes:       b.Likes,
		Comments:    comments,
		PublishDate: b.PublishDate,
	}
}

func NewBlogResponses(blogs []*entity.Blog) []BlogResponse {
	res := make([]BlogResponse, 0, len(blogs))
	for _, b := range blogs {
		res = append(res, NewBlogResponse(b))
	}
	return res
}
