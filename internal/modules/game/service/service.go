package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"anoa.com/donorhub/internal/entity"
	gameDto "anoa.com/donorhub/internal/modules/game/dto"
	gameRepo "anoa.com/donorhub/internal/modules/game/repository"
	"anoa.com/donorhub/internal/realtime"
	"anoa.com/donorhub/pkg/apperror"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	EventGameCreated   = "game_created"
	EventPlayerJoined  = "player_joined"
	EventGameStarted   = "game_started"
	EventMoveSubmitted = "move_submitted"
	EventMoveResolved  = "move_resolved"
	EventShipDestroyed = "ship_destroyed"
	EventTurnEnded     = "turn_ended"
	EventGameFinished  = "game_finished"
)

// Event is what subscribers of a game channel receive.
type Event struct {
	Type   string      `json:"type"`
	GameID uuid.UUID   `json:"game_id"`
	Turn   int         `json:"turn"`
	Data   interface{} `json:"data,omitempty"`
}

type GameService interface {
	CreateGame(ctx context.Context, gmID uuid.UUID, req gameDto.CreateGameRequest) (*entity.Game, error)
	GetGame(ctx context.Context, gameID uuid.UUID) (*gameDto.GameResponse, error)
	JoinGame(ctx context.Context, gameID, userID uuid.UUID, req gameDto.JoinGameRequest) (*entity.GamePlayer, error)
	StartGame(ctx context.Context, gameID, actorID uuid.UUID) (*entity.Game, error)
	SubmitMove(ctx context.Context, gameID, playerID uuid.UUID, req gameDto.SubmitMoveRequest) (*entity.GameMove, error)
	ResolveMove(ctx context.Context, gameID, moveID, actorID uuid.UUID, req gameDto.ResolveMoveRequest) (*entity.GameMove, error)
	EndTurn(ctx context.Context, gameID, actorID uuid.UUID) (*entity.Game, error)
}

type Publisher interface {
	Publish(ctx context.Context, channel string, v any) error
}

type Notifier interface {
	CreateNotification(ctx context.Context, notification *entity.Notification) error
}

type gameService struct {
	repo      gameRepo.GameRepository
	publisher Publisher
	notifier  Notifier
	sanitizer *bluemonday.Policy
	log       *zap.Logger
}

func NewGameService(repo gameRepo.GameRepository, publisher Publisher, notifier Notifier, log *zap.Logger) GameService {
	return &gameService{
		repo:      repo,
		publisher: publisher,
		notifier:  notifier,
		sanitizer: bluemonday.StrictPolicy(),
		log:       log,
	}
}

func (s *gameService) CreateGame(ctx context.Context, gmID uuid.UUID, req gameDto.CreateGameRequest) (*entity.Game, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperror.Invalid("name is required")
	}

	game := &entity.Game{
		Name:   name,
		GMID:   gmID,
		Status: entity.GameLobby,
	}
	if err := s.repo.Create(ctx, game); err != nil {
		return nil, err
	}

	s.publish(ctx, game, EventGameCreated, nil)
	return game, nil
}

func (s *gameService) GetGame(ctx context.Context, gameID uuid.UUID) (*gameDto.GameResponse, error) {
	game, err := s.load(ctx, s.repo.FindByID, gameID)
	if err != nil {
		return nil, err
	}

	moves, err := s.repo.FindMovesByTurn(ctx, gameID, game.Turn)
	if err != nil {
		return nil, err
	}
	if moves == nil {
		moves = []entity.GameMove{}
	}

	return &gameDto.GameResponse{Game: *game, Moves: moves}, nil
}

func (s *gameService) JoinGame(ctx context.Context, gameID, userID uuid.UUID, req gameDto.JoinGameRequest) (*entity.GamePlayer, error) {
	shipName := strings.TrimSpace(s.sanitizer.Sanitize(req.ShipName))
	if shipName == "" {
		return nil, apperror.Invalid("ship_name is required")
	}

	var (
		game   *entity.Game
		player *entity.GamePlayer
	)
	err := s.repo.Atomic(ctx, func(repo gameRepo.GameRepository) error {
		var err error
		game, err = s.load(ctx, repo.LockByID, gameID)
		if err != nil {
			return err
		}
		if err := canJoin(game, userID); err != nil {
			return err
		}

		player = &entity.GamePlayer{
			GameID:   gameID,
			UserID:   userID,
			ShipName: shipName,
			Hull:     entity.DefaultHull,
		}
		return repo.AddPlayer(ctx, player)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, game, EventPlayerJoined, player)
	return player, nil
}

func (s *gameService) StartGame(ctx context.Context, gameID, actorID uuid.UUID) (*entity.Game, error) {
	var game *entity.Game
	err := s.repo.Atomic(ctx, func(repo gameRepo.GameRepository) error {
		var err error
		game, err = s.load(ctx, repo.LockByID, gameID)
		if err != nil {
			return err
		}
		if err := canStart(game, actorID); err != nil {
			return err
		}

		game.Status = entity.GameActive
		game.Turn = 1
		return repo.UpdateGame(ctx, game)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, game, EventGameStarted, game.Players)
	s.notifyTurn(ctx, game)
	return game, nil
}

func (s *gameService) SubmitMove(ctx context.Context, gameID, playerID uuid.UUID, req gameDto.SubmitMoveRequest) (*entity.GameMove, error) {
	var target *uuid.UUID
	if req.TargetID != "" {
		id, err := uuid.Parse(req.TargetID)
		if err != nil {
			return nil, apperror.Invalid("invalid target_id")
		}
		target = &id
	}

	var (
		game *entity.Game
		move *entity.GameMove
	)
	err := s.repo.Atomic(ctx, func(repo gameRepo.GameRepository) error {
		var err error
		game, err = s.load(ctx, repo.LockByID, gameID)
		if err != nil {
			return err
		}

		kind := entity.MoveKind(req.Kind)
		moveTarget, err := validateMove(game, playerID, kind, target)
		if err != nil {
			return err
		}

		moves, err := repo.FindMovesByTurn(ctx, gameID, game.Turn)
		if err != nil {
			return err
		}
		for _, m := range moves {
			if m.PlayerID == playerID {
				return apperror.Conflict("move already submitted this turn")
			}
		}

		move = &entity.GameMove{
			GameID:   gameID,
			Turn:     game.Turn,
			PlayerID: playerID,
			Kind:     kind,
			TargetID: moveTarget,
			Note:     strings.TrimSpace(s.sanitizer.Sanitize(req.Note)),
			Status:   entity.MovePending,
		}
		return repo.CreateMove(ctx, move)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, game, EventMoveSubmitted, move)
	return move, nil
}

func (s *gameService) ResolveMove(ctx context.Context, gameID, moveID, actorID uuid.UUID, req gameDto.ResolveMoveRequest) (*entity.GameMove, error) {
	if req.Damage < 0 {
		return nil, apperror.Invalid("damage cannot be negative")
	}

	var (
		game      *entity.Game
		move      *entity.GameMove
		destroyed *entity.GamePlayer
	)
	err := s.repo.Atomic(ctx, func(repo gameRepo.GameRepository) error {
		var err error
		game, err = s.load(ctx, repo.LockByID, gameID)
		if err != nil {
			return err
		}
		if err := requireGM(game, actorID); err != nil {
			return err
		}
		if err := requireStatus(game, entity.GameActive); err != nil {
			return err
		}

		move, err = repo.FindMove(ctx, gameID, moveID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("move not found")
			}
			return err
		}
		if move.Turn != game.Turn || move.Status != entity.MovePending {
			return apperror.Conflict("move is no longer pending")
		}
		if req.Damage > 0 && (move.Kind != entity.MoveAttack || move.TargetID == nil) {
			return apperror.Invalid("only attacks can deal damage")
		}

		if req.Damage > 0 {
			target := findPlayer(game, *move.TargetID)
			if target == nil {
				return apperror.Invalid("target is no longer in this game")
			}
			if applyDamage(target, req.Damage) {
				destroyed = target
			}
			if err := repo.UpdatePlayer(ctx, target); err != nil {
				return err
			}
		}

		move.Status = entity.MoveResolved
		move.Damage = req.Damage
		return repo.UpdateMove(ctx, move)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, game, EventMoveResolved, move)
	if destroyed != nil {
		s.publish(ctx, game, EventShipDestroyed, destroyed)
	}
	return move, nil
}

func (s *gameService) EndTurn(ctx context.Context, gameID, actorID uuid.UUID) (*entity.Game, error) {
	var (
		game    *entity.Game
		skipped int64
	)
	err := s.repo.Atomic(ctx, func(repo gameRepo.GameRepository) error {
		var err error
		game, err = s.load(ctx, repo.LockByID, gameID)
		if err != nil {
			return err
		}
		if err := requireGM(game, actorID); err != nil {
			return err
		}
		if err := requireStatus(game, entity.GameActive); err != nil {
			return err
		}

		skipped, err = repo.SkipPending(ctx, gameID, game.Turn)
		if err != nil {
			return err
		}

		if finished, winnerID := winner(game); finished {
			game.Status = entity.GameFinished
			game.WinnerID = winnerID
		} else {
			game.Turn++
		}
		return repo.UpdateGame(ctx, game)
	})
	if err != nil {
		return nil, err
	}

	if game.Status == entity.GameFinished {
		s.publish(ctx, game, EventGameFinished, map[string]interface{}{"winner_id": game.WinnerID, "skipped": skipped})
		s.log.Info("game finished", zap.String("game_id", game.ID.String()), zap.Int("turns", game.Turn))
		return game, nil
	}

	s.publish(ctx, game, EventTurnEnded, map[string]interface{}{"skipped": skipped})
	s.notifyTurn(ctx, game)
	return game, nil
}

func (s *gameService) load(ctx context.Context, find func(context.Context, uuid.UUID) (*entity.Game, error), id uuid.UUID) (*entity.Game, error) {
	game, err := find(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("game not found")
		}
		return nil, err
	}
	return game, nil
}

func (s *gameService) publish(ctx context.Context, game *entity.Game, eventType string, data interface{}) {
	if s.publisher == nil {
		return
	}
	event := Event{Type: eventType, GameID: game.ID, Turn: game.Turn, Data: data}
	if err := s.publisher.Publish(ctx, realtime.GameChannel(game.ID), event); err != nil {
		s.log.Warn("failed to publish game event",
			zap.String("game_id", game.ID.String()),
			zap.String("type", eventType),
			zap.Error(err))
	}
}

// notifyTurn tells every surviving commander that a new turn is open.
func (s *gameService) notifyTurn(ctx context.Context, game *entity.Game) {
	if s.notifier == nil {
		return
	}
	for _, p := range alivePlayers(game) {
		notification := &entity.Notification{
			UserID:     p.UserID,
			ActorID:    game.GMID,
			EntityID:   game.ID,
			EntityType: "game",
			Type:       entity.NotificationGameTurn,
			Message:    fmt.Sprintf("Turn %d of %s is open for orders", game.Turn, game.Name),
		}
		if err := s.notifier.CreateNotification(ctx, notification); err != nil {
			s.log.Warn("failed to notify player", zap.String("user_id", p.UserID.String()), zap.Error(err))
		}
	}
}
