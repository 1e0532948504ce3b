package dto

import userdto "anoa.com/gamingcommunity/internal/modules/user/dto"

type Stats struct {
	Users       int64 `json:"users"`
	Games       int64 `json:"games"`
	Blogs       int64 `json:"blogs"`
	Communities int64 `json:"communities"`
}

type StatsResponse struct {
	Stats Stats `json:"stats"`
}

// SetAdminRequest uses a pointer so an absent field fails "required" while
// false is still accepted.
type SetAdminRequest struct {
	IsAdmin *bool `json:"isAdmin" binding:"required"`
}

type AdminUserEnvelope struct {
	Message string               `json:"message"`
	User    userdto.UserResponse `json:"user"`
}

type JobsResponse struct {
	Jobs []string `json:"jobs"`
}
