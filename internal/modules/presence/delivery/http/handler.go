package http

import (
	"context"
	"net/http"
	"time"

	"anoa.com/donorhub/internal/entity"
	presenceDto "anoa.com/donorhub/internal/modules/presence/dto"
	presenceService "anoa.com/donorhub/internal/modules/presence/service"
	commonDto "anoa.com/donorhub/pkg/dto"
	"anoa.com/donorhub/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type UserLookup interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.User, error)
}

type PresenceHandler struct {
	tracker *presenceService.Tracker
	users   UserLookup
	window  time.Duration
}

func NewPresenceHandler(tracker *presenceService.Tracker, users UserLookup, window time.Duration) *PresenceHandler {
	return &PresenceHandler{tracker: tracker, users: users, window: window}
}

func (h *PresenceHandler) Heartbeat(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if err := h.tracker.Heartbeat(c.Request.Context(), userID); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *PresenceHandler) Online(c *gin.Context) {
	ids, err := h.tracker.Online(c.Request.Context(), h.window)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	users, err := h.users.FindByIDs(c.Request.Context(), ids)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	byID := make(map[uuid.UUID]entity.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	res := presenceDto.OnlineResponse{Users: make([]commonDto.AuthorResponse, 0, len(ids))}
	for _, id := range ids {
		u, ok := byID[id]
		if !ok {
			continue
		}
		res.Users = append(res.Users, commonDto.AuthorResponse{Username: u.Username, AvatarURL: u.AvatarURL})
	}
	res.Count = len(res.Users)

	c.JSON(http.StatusOK, gin.H{"data": res})
}
