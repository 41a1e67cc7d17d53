package dto

import commonDto "anoa.com/donorhub/pkg/dto"

// LeaderboardEntry is one row of the board. Position is 1-based.
type LeaderboardEntry struct {
	Username  string               `json:"username"`
	AvatarURL *string              `json:"avatar_url,omitempty"`
	Role      string               `json:"role"`
	Position  int                  `json:"position"`
	PeriodXP  int64                `json:"period_xp"`
	Rank      commonDto.RankStatus `json:"rank"`
}

type LeaderboardQuery struct {
	Timeframe string `form:"timeframe" binding:"omitempty,oneof=all_time monthly weekly"`
	Limit     int    `form:"limit"`
}
