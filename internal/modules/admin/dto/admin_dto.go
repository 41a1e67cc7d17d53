package dto

import "anoa.com/donorhub/internal/entity"

type CreateUserInput struct {
	Username     string  `json:"username" form:"username" binding:"required,min=3,max=50"`
	Email        string  `json:"email" form:"email" binding:"required,email"`
	Password     string  `json:"password" form:"password" binding:"required,min=8,max=72"`
	Role         string  `json:"role" form:"role" binding:"required"`
	FullName     string  `json:"full_name" form:"full_name" binding:"required,max=100"`
	Organization *string `json:"organization" form:"organization" binding:"omitempty,max=120"`
	Bio          *string `json:"bio" form:"bio"`
}

type UpdateAdminUserInput struct {
	Username     string  `json:"username" form:"username" binding:"omitempty,min=3,max=50"`
	Email        string  `json:"email" form:"email" binding:"omitempty,email"`
	Password     string  `json:"password" form:"password" binding:"omitempty,min=8,max=72"`
	Role         string  `json:"role" form:"role"`
	FullName     string  `json:"full_name" form:"full_name" binding:"omitempty,max=100"`
	Organization *string `json:"organization" form:"organization" binding:"omitempty,max=120"`
	Bio          *string `json:"bio" form:"bio"`
}

type AdminUserResponse struct {
	User    *entity.User    `json:"user"`
	Role    *entity.Role    `json:"role"`
	Profile *entity.Profile `json:"profile"`
}

type DonorSearchQuery struct {
	Q     string `form:"q" binding:"required,max=100"`
	Limit int    `form:"limit" binding:"omitempty,min=1,max=50"`
}
