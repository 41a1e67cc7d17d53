package http

import (
	"net/http"

	gameDto "anoa.com/donorhub/internal/modules/game/dto"
	gameService "anoa.com/donorhub/internal/modules/game/service"
	"anoa.com/donorhub/internal/realtime"
	"anoa.com/donorhub/pkg/response"
	"anoa.com/donorhub/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type GameHandler struct {
	service gameService.GameService
	broker  *realtime.Broker
}

func NewGameHandler(service gameService.GameService, broker *realtime.Broker) *GameHandler {
	return &GameHandler{service: service, broker: broker}
}

func parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + param})
		return uuid.Nil, false
	}
	return id, true
}

func (h *GameHandler) CreateGame(c *gin.Context) {
	var req gameDto.CreateGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	game, err := h.service.CreateGame(c.Request.Context(), userID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": game})
}

func (h *GameHandler) GetGame(c *gin.Context) {
	gameID, ok := parseID(c, "id")
	if !ok {
		return
	}

	game, err := h.service.GetGame(c.Request.Context(), gameID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": game})
}

func (h *GameHandler) JoinGame(c *gin.Context) {
	gameID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req gameDto.JoinGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	player, err := h.service.JoinGame(c.Request.Context(), gameID, userID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": player})
}

func (h *GameHandler) StartGame(c *gin.Context) {
	gameID, ok := parseID(c, "id")
	if !ok {
		return
	}

	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	game, err := h.service.StartGame(c.Request.Context(), gameID, userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": game})
}

func (h *GameHandler) SubmitMove(c *gin.Context) {
	gameID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req gameDto.SubmitMoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	move, err := h.service.SubmitMove(c.Request.Context(), gameID, userID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": move})
}

func (h *GameHandler) ResolveMove(c *gin.Context) {
	gameID, ok := parseID(c, "id")
	if !ok {
		return
	}
	moveID, ok := parseID(c, "move_id")
	if !ok {
		return
	}

	var req gameDto.ResolveMoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	move, err := h.service.ResolveMove(c.Request.Context(), gameID, moveID, userID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": move})
}

func (h *GameHandler) EndTurn(c *gin.Context) {
	gameID, ok := parseID(c, "id")
	if !ok {
		return
	}

	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	game, err := h.service.EndTurn(c.Request.Context(), gameID, userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": game})
}

// HandleWebSocket streams game events; the game must exist.
func (h *GameHandler) HandleWebSocket(c *gin.Context) {
	gameID, ok := parseID(c, "id")
	if !ok {
		return
	}

	if _, err := h.service.GetGame(c.Request.Context(), gameID); err != nil {
		response.ResponseError(c, err)
		return
	}

	h.broker.Stream(c, realtime.GameChannel(gameID))
}
