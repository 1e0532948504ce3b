package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID             uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	Username       string    `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Email          string    `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash   string    `gorm:"size:255;not null" json:"-"`
	IsAdmin        bool      `gorm:"not null;default:false" json:"isAdmin"`
	ProfilePicture string    `gorm:"type:text" json:"profilePicture"`
	Bio            string    `gorm:"type:text" json:"bio"`
	JoinedDate     time.Time `gorm:"autoCreateTime" json:"joinedDate"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
