package handler

import (
	"net/http"

	"anoa.com/gamingcommunity/internal/modules/community/dto"
	community "anoa.com/gamingcommunity/internal/modules/community/service"
	"anoa.com/gamingcommunity/pkg/apperror"
	"anoa.com/gamingcommunity/pkg/response"
	"anoa.com/gamingcommunity/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CommunityHandler struct {
	service community.CommunityService
}

func NewCommunityHandler(service community.CommunityService) *CommunityHandler {
	return &CommunityHandler{service: service}
}

func (h *CommunityHandler) GetCommunities(c *gin.Context) {
	communities, err := h.service.List(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, communities)
}

func (h *CommunityHandler) GetCommunity(c *gin.Context) {
	id, ok := communityID(c)
	if !ok {
		return
	}

	res, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *CommunityHandler) CreateCommunity(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req dto.CreateCommunityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ResponseError(c, apperror.Validation(validator.FormatValidationError(err)))
		return
	}

	res, err := h.service.Create(c.Request.Context(), userID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, res)
}

func (h *CommunityHandler) JoinCommunity(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	id, ok := communityID(c)
	if !ok {
		return
	}

	if err := h.service.Join(c.Request.Context(), id, userID); err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Message(c, http.StatusOK, "Successfully joined the community")
}

func (h *CommunityHandler) LeaveCommunity(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	id, ok := communityID(c)
	if !ok {
		return
	}

	if err := h.service.Leave(c.Request.Context(), id, userID); err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Message(c, http.StatusOK, "Successfully left the community")
}

func communityID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.NotFound("Community not found"))
		return uuid.Nil, false
	}
	return id, true
}
