package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GameStatus string

const (
	GameLobby    GameStatus = "lobby"
	GameActive   GameStatus = "active"
	GameFinished GameStatus = "finished"
)

type MoveKind string

const (
	MoveManeuver MoveKind = "maneuver"
	MoveAttack   MoveKind = "attack"
	MoveDefend   MoveKind = "defend"
)

type MoveStatus string

const (
	MovePending  MoveStatus = "pending"
	MoveResolved MoveStatus = "resolved"
	MoveSkipped  MoveStatus = "skipped"
)

const DefaultHull = 100

type Game struct {
	ID        uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string       `gorm:"size:100;not null" json:"name"`
	GMID      uuid.UUID    `gorm:"type:uuid;not null;index" json:"gm_id"`
	Status    GameStatus   `gorm:"size:20;not null;default:lobby" json:"status"`
	Turn      int          `gorm:"not null;default:0" json:"turn"`
	WinnerID  *uuid.UUID   `gorm:"type:uuid" json:"winner_id,omitempty"`
	Players   []GamePlayer `gorm:"constraint:OnDelete:CASCADE" json:"players,omitempty"`
	CreatedAt time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

func (g *Game) BeforeCreate(tx *gorm.DB) (err error) {
	if g.ID == uuid.Nil {
		g.ID, err = uuid.NewV7()
	}
	return
}

type GamePlayer struct {
	GameID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"game_id"`
	UserID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	ShipName    string    `gorm:"size:60;not null" json:"ship_name"`
	Hull        int       `gorm:"not null" json:"hull"`
	IsDestroyed bool      `gorm:"not null;default:false" json:"is_destroyed"`
	JoinedAt    time.Time `gorm:"autoCreateTime" json:"joined_at"`
}

type GameMove struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	GameID    uuid.UUID  `gorm:"type:uuid;not null;index:idx_move_turn,priority:1" json:"game_id"`
	Turn      int        `gorm:"not null;index:idx_move_turn,priority:2" json:"turn"`
	PlayerID  uuid.UUID  `gorm:"type:uuid;not null;index:idx_move_turn,priority:3" json:"player_id"`
	Kind      MoveKind   `gorm:"size:20;not null" json:"kind"`
	TargetID  *uuid.UUID `gorm:"type:uuid" json:"target_id,omitempty"`
	Note      string     `gorm:"type:text" json:"note"`
	Status    MoveStatus `gorm:"size:20;not null;default:pending" json:"status"`
	Damage    int        `gorm:"not null;default:0" json:"damage"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (m *GameMove) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == uuid.Nil {
		m.ID, err = uuid.NewV7()
	}
	return
}
