package repository

import (
	"context"

	"anoa.com/donorhub/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GameRepository interface {
	// Atomic runs fn inside one transaction; the repository passed to fn is bound to it.
	Atomic(ctx context.Context, fn func(repo GameRepository) error) error
	Create(ctx context.Context, game *entity.Game) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Game, error)
	// LockByID is FindByID with SELECT ... FOR UPDATE on the game row.
	LockByID(ctx context.Context, id uuid.UUID) (*entity.Game, error)
	UpdateGame(ctx context.Context, game *entity.Game) error
	AddPlayer(ctx context.Context, player *entity.GamePlayer) error
	UpdatePlayer(ctx context.Context, player *entity.GamePlayer) error
	CreateMove(ctx context.Context, move *entity.GameMove) error
	FindMove(ctx context.Context, gameID, moveID uuid.UUID) (*entity.GameMove, error)
	UpdateMove(ctx context.Context, move *entity.GameMove) error
	FindMovesByTurn(ctx context.Context, gameID uuid.UUID, turn int) ([]entity.GameMove, error)
	SkipPending(ctx context.Context, gameID uuid.UUID, turn int) (int64, error)
}

type gameRepository struct {
	db *gorm.DB
}

func NewGameRepository(db *gorm.DB) GameRepository {
	return &gameRepository{db: db}
}

func (r *gameRepository) Atomic(ctx context.Context, fn func(repo GameRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gameRepository{db: tx})
	})
}

func (r *gameRepository) Create(ctx context.Context, game *entity.Game) error {
	return r.db.WithContext(ctx).Omit("Players").Create(game).Error
}

func (r *gameRepository) find(ctx context.Context, id uuid.UUID, lock bool) (*entity.Game, error) {
	q := r.db.WithContext(ctx)
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var game entity.Game
	if err := q.First(&game, "id = ?", id).Error; err != nil {
		return nil, err
	}

	if err := r.db.WithContext(ctx).
		Where("game_id = ?", id).
		Order("joined_at ASC").
		Find(&game.Players).Error; err != nil {
		return nil, err
	}
	return &game, nil
}

func (r *gameRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Game, error) {
	return r.find(ctx, id, false)
}

func (r *gameRepository) LockByID(ctx context.Context, id uuid.UUID) (*entity.Game, error) {
	return r.find(ctx, id, true)
}

func (r *gameRepository) UpdateGame(ctx context.Context, game *entity.Game) error {
	return r.db.WithContext(ctx).Model(game).
		Select("Status", "Turn", "WinnerID").
		Updates(game).Error
}

func (r *gameRepository) AddPlayer(ctx context.Context, player *entity.GamePlayer) error {
	return r.db.WithContext(ctx).Create(player).Error
}

func (r *gameRepository) UpdatePlayer(ctx context.Context, player *entity.GamePlayer) error {
	return r.db.WithContext(ctx).Model(&entity.GamePlayer{}).
		Where("game_id = ? AND user_id = ?", player.GameID, player.UserID).
		Updates(map[string]interface{}{
			"hull":         player.Hull,
			"is_destroyed": player.IsDestroyed,
		}).Error
}

func (r *gameRepository) CreateMove(ctx context.Context, move *entity.GameMove) error {
	return r.db.WithContext(ctx).Create(move).Error
}

func (r *gameRepository) FindMove(ctx context.Context, gameID, moveID uuid.UUID) (*entity.GameMove, error) {
	var move entity.GameMove
	if err := r.db.WithContext(ctx).
		Where("game_id = ? AND id = ?", gameID, moveID).
		First(&move).Error; err != nil {
		return nil, err
	}
	return &move, nil
}

func (r *gameRepository) UpdateMove(ctx context.Context, move *entity.GameMove) error {
	return r.db.WithContext(ctx).Model(move).
		Select("Status", "Damage").
		Updates(move).Error
}

func (r *gameRepository) FindMovesByTurn(ctx context.Context, gameID uuid.UUID, turn int) ([]entity.GameMove, error) {
	var moves []entity.GameMove
	err := r.db.WithContext(ctx).
		Where("game_id = ? AND turn = ?", gameID, turn).
		Order("created_at ASC").
		Find(&moves).Error
	return moves, err
}

func (r *gameRepository) SkipPending(ctx context.Context, gameID uuid.UUID, turn int) (int64, error) {
	res := r.db.WithContext(ctx).Model(&entity.GameMove{}).
		Where("game_id = ? AND turn = ? AND status = ?", gameID, turn, entity.MovePending).
		Update("status", entity.MoveSkipped)
	return res.RowsAffected, res.Error
}
