package dto

import (
	"anoa.com/donorhub/internal/entity"
)

type CreateGameRequest struct {
	Name string `json:"name" binding:"required,max=100"`
}

type JoinGameRequest struct {
	ShipName string `json:"ship_name" binding:"required,max=60"`
}

type SubmitMoveRequest struct {
	Kind     string `json:"kind" binding:"required,oneof=maneuver attack defend"`
	TargetID string `json:"target_id" binding:"omitempty,uuid"`
	Note     string `json:"note" binding:"max=1000"`
}

type ResolveMoveRequest struct {
	Damage int `json:"damage" binding:"gte=0,max=1000"`
}

type GameResponse struct {
	entity.Game
	Moves []entity.GameMove `json:"moves"` // current turn only
}
