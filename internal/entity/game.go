package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	MinRating = 0.0
	MaxRating = 5.0
)

type Game struct {
	ID          uuid.UUID                   `gorm:"type:char(36);primaryKey" json:"id"`
	Title       string                      `gorm:"size:200;not null;index" json:"title"`
	Description string                      `gorm:"type:text;not null" json:"description"`
	ImageURL    string                      `gorm:"type:text;not null" json:"imageUrl"`
	Genre       string                      `gorm:"size:100;not null;index" json:"genre"`
	Platform    datatypes.JSONSlice[string] `json:"platform"`
	ReleaseDate time.Time                   `gorm:"not null" json:"releaseDate"`
	Rating      float64                     `gorm:"not null;default:0" json:"rating"`
	CreatedAt   time.Time                   `gorm:"autoCreateTime;index" json:"createdAt"`
	UpdatedAt   time.Time                   `gorm:"autoUpdateTime" json:"-"`
}

func (g *Game) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

// BeforeSave keeps the stored rating inside [MinRating, MaxRating].
func (g *Game) BeforeSave(tx *gorm.DB) error {
	g.Rating = ClampRating(g.Rating)
	return nil
}

func ClampRating(r float64) float64 {
	if r < MinRating {
		return MinRating
	}
	if r > MaxRating {
		return MaxRating
	}
	return r
}

// HasPlatform reports whether p is one of the game's platforms, ignoring case.
func (g *Game) HasPlatform(p string) bool {
	for _, v := range g.Platform {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(p)) {
			return true
		}
	}
	return false
}
