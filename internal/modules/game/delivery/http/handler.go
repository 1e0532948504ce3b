package handler

import (
	"net/http"

	"anoa.com/gamingcommunity/internal/modules/game/dto"
	game "anoa.com/gamingcommunity/internal/modules/game/service"
	"anoa.com/gamingcommunity/pkg/apperror"
	"anoa.com/gamingcommunity/pkg/response"
	"anoa.com/gamingcommunity/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type GameHandler struct {
	service game.GameService
}

func NewGameHandler(service game.GameService) *GameHandler {
	return &GameHandler{service: service}
}

func (h *GameHandler) GetGames(c *gin.Context) {
	var q dto.ListGamesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.ResponseError(c, apperror.Validation(validator.FormatValidationError(err)))
		return
	}

	games, err := h.service.List(c.Request.Context(), q)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, games)
}

func (h *GameHandler) GetGame(c *gin.Context) {
	id, ok := gameID(c)
	if !ok {
		return
	}

	g, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, g)
}

func (h *GameHandler) CreateGame(c *gin.Context) {
	var req dto.CreateGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ResponseError(c, apperror.Validation(validator.FormatValidationError(err)))
		return
	}

	g, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, g)
}

func (h *GameHandler) UpdateGame(c *gin.Context) {
	id, ok := gameID(c)
	if !ok {
		return
	}

	var req dto.UpdateGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ResponseError(c, apperror.Validation(validator.FormatValidationError(err)))
		return
	}

	g, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, g)
}

func (h *GameHandler) DeleteGame(c *gin.Context) {
	id, ok := gameID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Message(c, http.StatusOK, "Game deleted successfully")
}

// gameID writes a 404 and reports false when :id is not a valid id.
func gameID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.NotFound("Game not found"))
		return uuid.Nil, false
	}
	return id, true
}
