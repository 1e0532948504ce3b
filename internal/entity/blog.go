package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Blog struct {
	ID          uuid.UUID                   `gorm:"type:char(36);primaryKey" json:"id"`
	Title       string                      `gorm:"size:200;not null" json:"title"`
	Content     string                      `gorm:"type:text;not null" json:"content"`
	ImageURL    string                      `gorm:"type:text;not null" json:"imageUrl"`
	AuthorID    uuid.UUID                   `gorm:"type:char(36);not null;index" json:"authorId"`
	Author      User                        `gorm:"constraint:OnDelete:CASCADE" json:"author"`
	Tags        datatypes.JSONSlice[string] `json:"tags"`
	Likes       int                         `gorm:"not null;default:0" json:"likes"`
	Comments    []BlogComment               `gorm:"constraint:OnDelete:CASCADE" json:"comments"`
	PublishDate time.Time                   `gorm:"autoCreateTime;index" json:"publishDate"`
	UpdatedAt   time.Time                   `gorm:"autoUpdateTime" json:"-"`
}

func (b *Blog) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

type BlogComment struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	BlogID    uuid.UUID `gorm:"type:char(36);not null;index" json:"blogId"`
	UserID    uuid.UUID `gorm:"type:char(36);not null;index" json:"userId"`
	User      User      `gorm:"constraint:OnDelete:CASCADE" json:"user"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"createdAt"`
}

func (c *BlogComment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
