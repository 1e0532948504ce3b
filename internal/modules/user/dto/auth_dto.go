package dto

import (
	"time"

	"anoa.com/gamingcommunity/internal/entity"
	"github.com/google/uuid"
)

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UpdateUserRequest only touches the fields that are present.
type UpdateUserRequest struct {
	Username       *string `json:"username" binding:"omitempty,min=3,max=50"`
	Email          *string `json:"email" binding:"omitempty,email"`
	ProfilePicture *string `json:"profilePicture" binding:"omitempty,max=2048"`
	Bio            *string `json:"bio" binding:"omitempty,max=500"`
}

// UserResponse is the public profile projection. It never carries the
// password hash.
type UserResponse struct {
	ID             uuid.UUID `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	ProfilePicture string    `json:"profilePicture"`
	Bio            string    `json:"bio"`
	JoinedDate     time.Time `json:"joinedDate"`
	IsAdmin        bool      `json:"isAdmin"`
}

type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      UserResponse `json:"user"`
}

type UserEnvelope struct {
	Message string       `json:"message,omitempty"`
	User    UserResponse `json:"user"`
}

func NewUserResponse(u *entity.User) UserResponse {
	return UserResponse{
		ID:             u.ID,
		Username:       u.Username,
		Email:          u.Email,
		ProfilePicture: u.ProfilePicture,
		Bio:            u.Bio,
		JoinedDate:     u.JoinedDate,
		IsAdmin:        u.IsAdmin,
	}
}

func NewUserResponses(users []*entity.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, NewUserResponse(u))
	}
	return out
}
