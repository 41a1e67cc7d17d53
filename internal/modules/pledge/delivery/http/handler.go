package http

import (
	"net/http"

	pledgeDto "anoa.com/donorhub/internal/modules/pledge/dto"
	pledgeService "anoa.com/donorhub/internal/modules/pledge/service"
	commonDto "anoa.com/donorhub/pkg/dto"
	"anoa.com/donorhub/pkg/response"
	"anoa.com/donorhub/pkg/validator"
	"github.com/gin-gonic/gin"
)

type PledgeHandler struct {
	service pledgeService.PledgeService
}

func NewPledgeHandler(service pledgeService.PledgeService) *PledgeHandler {
	return &PledgeHandler{service: service}
}

func (h *PledgeHandler) CreatePledge(c *gin.Context) {
	var req pledgeDto.CreatePledgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	res, err := h.service.CreatePledge(c.Request.Context(), userID, c.Param("slug"), req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": res})
}

func (h *PledgeHandler) ListMyPledges(c *gin.Context) {
	var q commonDto.PaginationQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	res, err := h.service.ListMyPledges(c.Request.Context(), userID, q)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *PledgeHandler) ListCampaignPledges(c *gin.Context) {
	var q commonDto.PaginationQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	res, err := h.service.ListCampaignPledges(c.Request.Context(), c.Param("slug"), q)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}
