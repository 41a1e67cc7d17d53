package http

import (
	"net/http"

	campaignDto "anoa.com/donorhub/internal/modules/campaign/dto"
	campaignService "anoa.com/donorhub/internal/modules/campaign/service"
	commonDto "anoa.com/donorhub/pkg/dto"
	"anoa.com/donorhub/pkg/response"
	"anoa.com/donorhub/pkg/validator"
	"github.com/gin-gonic/gin"
)

type CampaignHandler struct {
	service campaignService.CampaignService
}

func NewCampaignHandler(service campaignService.CampaignService) *CampaignHandler {
	return &CampaignHandler{service: service}
}

func (h *CampaignHandler) CreateCampaign(c *gin.Context) {
	var req campaignDto.CreateCampaignRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var cover *commonDto.UploadFile
	if fileHeader, err := c.FormFile("cover"); err == nil && fileHeader != nil {
		file, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read cover image"})
			return
		}
		defer file.Close()

		cover = &commonDto.UploadFile{
			Reader:   file,
			FileName: fileHeader.Filename,
		}
	}

	res, err := h.service.CreateCampaign(c.Request.Context(), userID, req, cover)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": res})
}

func (h *CampaignHandler) ListCampaigns(c *gin.Context) {
	var filter campaignDto.CampaignFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	res, err := h.service.ListCampaigns(c.Request.Context(), filter)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": res})
}

func (h *CampaignHandler) GetCampaign(c *gin.Context) {
	res, err := h.service.GetCampaign(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": res})
}

func (h *CampaignHandler) CloseCampaign(c *gin.Context) {
	res, err := h.service.CloseCampaign(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "campaign closed", "data": res})
}
