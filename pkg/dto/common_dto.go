package dto

import "io"

type AuthorResponse struct {
	Username  string  `json:"username"`
	AvatarURL *string `json:"avatar_url"`
}

type PaginationQuery struct {
	Page  int `form:"page" binding:"omitempty,min=1"`
	Limit int `form:"limit" binding:"omitempty,min=1,max=50"`
}

// Normalize fills defaults for zero values.
func (q *PaginationQuery) Normalize() {
	if q.Page == 0 {
		q.Page = 1
	}
	if q.Limit == 0 {
		q.Limit = 10
	}
}

func (q PaginationQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

type PaginationMeta struct {
	CurrentPage int   `json:"current_page"`
	TotalPages  int   `json:"total_pages"`
	TotalItems  int64 `json:"total_items"`
	Limit       int   `json:"limit"`
}

func NewPaginationMeta(q PaginationQuery, total int64) PaginationMeta {
	pages := 0
	if q.Limit > 0 {
		pages = int((total + int64(q.Limit) - 1) / int64(q.Limit))
	}
	return PaginationMeta{
		CurrentPage: q.Page,
		TotalPages:  pages,
		TotalItems:  total,
		Limit:       q.Limit,
	}
}

// RankStatus is the rank block embedded in profile and leaderboard responses.
type RankStatus struct {
	RankName     string  `json:"rank_name"`
	Level        int     `json:"level"`
	Pips         int     `json:"pips"`
	NextRank     string  `json:"next_rank"`
	XP           int64   `json:"xp"`
	TargetXP     int64   `json:"target_xp"`
	Progress     float64 `json:"progress"` // Percentage
	IsOverridden bool    `json:"is_overridden"`
	Title        string  `json:"title"`
	WeeklyXP     int64   `json:"weekly_xp"`
	WeeklyLabel  string  `json:"weekly_label"`
}

type UploadFile struct {
	Reader   io.Reader
	FileName string
}
