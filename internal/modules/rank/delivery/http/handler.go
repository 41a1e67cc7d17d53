package http

import (
	"net/http"

	rankService "anoa.com/donorhub/internal/modules/rank/service"
	"anoa.com/donorhub/pkg/response"
	"github.com/gin-gonic/gin"
)

type RankHandler struct {
	service rankService.RankService
}

func NewRankHandler(service rankService.RankService) *RankHandler {
	return &RankHandler{service: service}
}

func (h *RankHandler) GetThresholds(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.service.Thresholds()})
}

func (h *RankHandler) GetMyRank(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	status, err := h.service.GetRank(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": status})
}

func (h *RankHandler) GetRankByUsername(c *gin.Context) {
	status, err := h.service.GetRankByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": status})
}
