package handler

import (
	"errors"
	"net/http"

	upload "anoa.com/gamingcommunity/internal/modules/upload/service"
	"anoa.com/gamingcommunity/pkg/apperror"
	"anoa.com/gamingcommunity/pkg/response"
	"github.com/gin-gonic/gin"
)

type UploadHandler struct {
	service upload.UploadService
}

func NewUploadHandler(service upload.UploadService) *UploadHandler {
	return &UploadHandler{service: service}
}

func (h *UploadHandler) UploadImage(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	// leave headroom for the multipart envelope
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, upload.MaxImageSize+1<<20)

	file, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.ResponseError(c, apperror.Validation("image must be at most 5MB"))
			return
		}
		response.ResponseError(c, apperror.Validation("image is required"))
		return
	}

	res, err := h.service.UploadImage(c.Request.Context(), userID, file)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, res)
}
