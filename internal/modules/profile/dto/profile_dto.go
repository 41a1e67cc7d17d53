package dto

import (
	"time"

	"anoa.com/donorhub/internal/entity"
	commonDto "anoa.com/donorhub/pkg/dto"
)

// UpdateProfileInput is bound from multipart form or JSON; nil fields are left unchanged.
type UpdateProfileInput struct {
	Username     *string `json:"username" form:"username" binding:"omitempty,min=3,max=50"`
	Password     *string `json:"password" form:"password" binding:"omitempty,min=8,max=72"`
	FullName     *string `json:"full_name" form:"full_name" binding:"omitempty,max=100"`
	Organization *string `json:"organization" form:"organization" binding:"omitempty,max=120"`
	Bio          *string `json:"bio" form:"bio" binding:"omitempty,max=2000"`
}

// ProfileResponse is returned for the authenticated donor.
type ProfileResponse struct {
	User     *entity.User         `json:"user"`
	Profile  *entity.Profile      `json:"profile"`
	Rank     commonDto.RankStatus `json:"rank"`
	Complete bool                 `json:"complete"`
}

// PublicProfileResponse is what other donors see.
type PublicProfileResponse struct {
	Username     string               `json:"username"`
	Role         string               `json:"role"`
	AvatarURL    *string              `json:"avatar_url,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
	FullName     string               `json:"full_name"`
	Organization *string              `json:"organization,omitempty"`
	Bio          *string              `json:"bio,omitempty"`
	Rank         commonDto.RankStatus `json:"rank"`
}
