package http

import (
	"net/http"

	analyticsDto "anoa.com/donorhub/internal/modules/analytics/dto"
	analyticsService "anoa.com/donorhub/internal/modules/analytics/service"
	"anoa.com/donorhub/pkg/response"
	"anoa.com/donorhub/pkg/validator"
	"github.com/gin-gonic/gin"
)

type AnalyticsHandler struct {
	service analyticsService.AnalyticsService
}

func NewAnalyticsHandler(service analyticsService.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{service: service}
}

func (h *AnalyticsHandler) GetSummary(c *gin.Context) {
	var q analyticsDto.SummaryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	summary, err := h.service.Summary(c.Request.Context(), q.Days)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": summary})
}
