package dto

import (
	"time"

	"anoa.com/gamingcommunity/internal/entity"
	"github.com/google/uuid"
)

type CreateCommunityRequest struct {
	Name        string   `json:"name" binding:"required,max=100"`
	Description string   `json:"description" binding:"required"`
	ImageURL    string   `json:"imageUrl" binding:"required"`
	Game        string   `json:"game" binding:"required,uuid"`
	Tags        []string `json:"tags" binding:"omitempty,max=20,dive,max=40"`
}

type GameSummary struct {
	ID       uuid.UUID `json:"id"`
	Title    string    `json:"title"`
	ImageURL string    `json:"imageUrl,omitempty"`
}

type MemberSummary struct {
	ID             uuid.UUID `json:"id"`
	Username       string    `json:"username"`
	ProfilePicture string    `json:"profilePicture"`
}

type CommunityResponse struct {
	ID          uuid.UUID        `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	ImageURL    string           `json:"imageUrl"`
	Game        *GameSummary     `json:"game"`
	MemberCount int              `json:"memberCount"`
	Members     *[]MemberSummary `json:"members,omitempty"`
	Tags        []string         `json:"tags"`
	CreatedAt   time.Time        `json:"createdAt"`
}

// NewCommunityListItem is the list projection: game title only, no member
// details.
func NewCommunityListItem(c *entity.Community) CommunityResponse {
	res := base(c)
	if c.Game != nil {
		res.Game = &GameSummary{ID: c.Game.ID, Title: c.Game.Title}
	}
	return res
}

// NewCommunityDetail adds the game image and the member list.
func NewCommunityDetail(c *entity.Community) CommunityResponse {
	res := base(c)
	if c.Game != nil {
		res.Game = &GameSummary{ID: c.Game.ID, Title: c.Game.Title, ImageURL: c.Game.ImageURL}
	}
	members := make([]MemberSummary, 0, len(c.Members))
	for _, m := range c.Members {
		members = append(members, MemberSummary{
			ID:             m.UserID,
			Username:       m.User.Username,
			ProfilePicture: m.User.ProfilePicture,
		})
	}
	res.Members = &members
	return res
}

func base(c *entity.Community) CommunityResponse {
	tags := []string(c.Tags)
	if tags == nil {
		tags = []string{}
	}
	return CommunityResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		ImageURL:    c.ImageURL,
		MemberCount: len(c.Members),
		Tags:        tags,
		CreatedAt:   c.CreatedAt,
	}
}
