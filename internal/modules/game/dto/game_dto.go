package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"anoa.com/gamingcommunity/internal/entity"
	"github.com/google/uuid"
)

// Date accepts either a calendar date ("2023-05-12") or an RFC 3339 timestamp.
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339, time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("invalid date %q", s)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Time)
}

type CreateGameRequest struct {
	Title       string   `json:"title" binding:"required,max=200"`
	Description string   `json:"description" binding:"required"`
	ImageURL    string   `json:"imageUrl" binding:"required"`
	Genre       string   `json:"genre" binding:"required,max=100"`
	Platform    []string `json:"platform" binding:"required,min=1,dive,required"`
	ReleaseDate *Date    `json:"releaseDate" binding:"required"`
	Rating      *float64 `json:"rating" binding:"omitempty,gte=0,lte=5"`
}

type UpdateGameRequest struct {
	Title       *string   `json:"title" binding:"omitempty,min=1,max=200"`
	Description *string   `json:"description" binding:"omitempty,min=1"`
	ImageURL    *string   `json:"imageUrl" binding:"omitempty,min=1"`
	Genre       *string   `json:"genre" binding:"omitempty,min=1,max=100"`
	Platform    *[]string `json:"platform" binding:"omitempty,min=1,dive,required"`
	ReleaseDate *Date     `json:"releaseDate"`
	Rating      *float64  `json:"rating" binding:"omitempty,gte=0,lte=5"`
}

type ListGamesQuery struct {
	Search   string `form:"search"`
	Genre    string `form:"genre"`
	Platform string `form:"platform"`
}

type GameResponse struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ImageURL    string    `json:"imageUrl"`
	Genre       string    `json:"genre"`
	Platform    []string  `json:"platform"`
	ReleaseDate time.Time `json:"releaseDate"`
	Rating      float64   `json:"rating"`
	CreatedAt   time.Time `json:"createdAt"`
}

func NewGameResponse(g *entity.Game) GameResponse {
	platform := []string(g.Platform)
	if platform == nil {
		platform = []string{}
	}
	return GameResponse{
		ID:          g.ID,
		Title:       g.Title,
		Description: g.Description,
		ImageURL:    g.ImageURL,
		Genre:       g.Genre,
		Platform:    platform,
		ReleaseDate: g.ReleaseDate,
		Rating:      g.Rating,
		CreatedAt:   g.CreatedAt,
	}
}

func NewGameResponses(games []*entity.Game) []GameResponse {
	out := make([]GameResponse, 0, len(games))
	for _, g := range games {
		out = append(out, NewGameResponse(g))
	}
	return out
}
