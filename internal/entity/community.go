package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Community struct {
	ID          uuid.UUID                   `gorm:"type:char(36);primaryKey" json:"id"`
	Name        string                      `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Description string                      `gorm:"type:text;not null" json:"description"`
	ImageURL    string                      `gorm:"type:text;not null" json:"imageUrl"`
	GameID      *uuid.UUID                  `gorm:"type:char(36);index" json:"gameId"`
	Game        *Game                       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"game,omitempty"`
	Tags        datatypes.JSONSlice[string] `json:"tags"`
	Members     []CommunityMember           `gorm:"constraint:OnDelete:CASCADE" json:"members,omitempty"`
	CreatedAt   time.Time                   `gorm:"autoCreateTime;index" json:"createdAt"`
}

func (c *Community) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// CommunityMember is one (community, user) membership. The composite key
// makes a user a member at most once.
type CommunityMember struct {
	CommunityID uuid.UUID `gorm:"type:char(36);primaryKey" json:"communityId"`
	UserID      uuid.UUID `gorm:"type:char(36);primaryKey;index" json:"userId"`
	User        User      `gorm:"constraint:OnDelete:CASCADE" json:"user"`
	JoinedAt    time.Time `gorm:"autoCreateTime" json:"joinedAt"`
}
