package service

import (
	"anoa.com/donorhub/internal/entity"
	"anoa.com/donorhub/pkg/apperror"
	"github.com/google/uuid"
)

const (
	MaxPlayers = 8
	MinPlayers = 2
)

func requireGM(game *entity.Game, actorID uuid.UUID) error {
	if game.GMID != actorID {
		return apperror.Forbidden("only the game master can do this")
	}
	return nil
}

func requireStatus(game *entity.Game, status entity.GameStatus) error {
	if game.Status != status {
		return apperror.Conflict("game is " + string(game.Status))
	}
	return nil
}

func findPlayer(game *entity.Game, userID uuid.UUID) *entity.GamePlayer {
	for i := range game.Players {
		if game.Players[i].UserID == userID {
			return &game.Players[i]
		}
	}
	return nil
}

func alivePlayers(game *entity.Game) []entity.GamePlayer {
	var alive []entity.GamePlayer
	for _, p := range game.Players {
		if !p.IsDestroyed {
			alive = append(alive, p)
		}
	}
	return alive
}

func canJoin(game *entity.Game, userID uuid.UUID) error {
	if err := requireStatus(game, entity.GameLobby); err != nil {
		return err
	}
	if game.GMID == userID {
		return apperror.Invalid("the game master cannot command a ship")
	}
	if findPlayer(game, userID) != nil {
		return apperror.Conflict("already joined this game")
	}
	if len(game.Players) >= MaxPlayers {
		return apperror.Conflict("game is full")
	}
	return nil
}

func canStart(game *entity.Game, actorID uuid.UUID) error {
	if err := requireGM(game, actorID); err != nil {
		return err
	}
	if err := requireStatus(game, entity.GameLobby); err != nil {
		return err
	}
	if len(game.Players) < MinPlayers {
		return apperror.Invalid("at least two ships are needed to start")
	}
	return nil
}

// validateMove checks a move for the current turn; target is only kept for attacks.
func validateMove(game *entity.Game, playerID uuid.UUID, kind entity.MoveKind, target *uuid.UUID) (*uuid.UUID, error) {
	if err := requireStatus(game, entity.GameActive); err != nil {
		return nil, err
	}

	player := findPlayer(game, playerID)
	if player == nil {
		return nil, apperror.Forbidden("not a player in this game")
	}
	if player.IsDestroyed {
		return nil, apperror.Invalid("your ship has been destroyed")
	}

	switch kind {
	case entity.MoveAttack:
		if target == nil {
			return nil, apperror.Invalid("attack needs a target")
		}
		if *target == playerID {
			return nil, apperror.Invalid("cannot target your own ship")
		}
		t := findPlayer(game, *target)
		if t == nil || t.IsDestroyed {
			return nil, apperror.Invalid("target is not an active ship in this game")
		}
		return target, nil
	case entity.MoveManeuver, entity.MoveDefend:
		return nil, nil
	default:
		return nil, apperror.Invalid("unknown move kind")
	}
}

// applyDamage lowers hull and reports whether the ship was destroyed by it.
func applyDamage(player *entity.GamePlayer, damage int) bool {
	if damage <= 0 || player.IsDestroyed {
		return false
	}
	player.Hull -= damage
	if player.Hull <= 0 {
		player.Hull = 0
		player.IsDestroyed = true
		return true
	}
	return false
}

// winner returns the outcome once at most one ship survives.
func winner(game *entity.Game) (finished bool, winnerID *uuid.UUID) {
	alive := alivePlayers(game)
	switch len(alive) {
	case 0:
		return true, nil
	case 1:
		id := alive[0].UserID
		return true, &id
	default:
		return false, nil
	}
}
