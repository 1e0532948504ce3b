package handler

import (
	"net/http"

	"anoa.com/gamingcommunity/internal/modules/user/dto"
	user "anoa.com/gamingcommunity/internal/modules/user/service"
	"anoa.com/gamingcommunity/pkg/apperror"
	"anoa.com/gamingcommunity/pkg/response"
	"anoa.com/gamingcommunity/pkg/validator"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	auth     user.AuthService
	accounts user.AccountService
}

func NewAuthHandler(auth user.AuthService, accounts user.AccountService) *AuthHandler {
	return &AuthHandler{auth: auth, accounts: accounts}
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ResponseError(c, apperror.Validation(validator.FormatValidationError(err)))
		return
	}

	if _, err := h.auth.Register(c.Request.Context(), req); err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Message(c, http.StatusCreated, "User registered successfully")
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ResponseError(c, apperror.Validation(validator.FormatValidationError(err)))
		return
	}

	res, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *AuthHandler) GetUser(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	res, err := h.accounts.Me(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.UserEnvelope{User: *res})
}

func (h *AuthHandler) UpdateUser(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ResponseError(c, apperror.Validation(validator.FormatValidationError(err)))
		return
	}

	res, err := h.accounts.Update(c.Request.Context(), userID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.UserEnvelope{Message: "User updated successfully", User: *res})
}

func (h *AuthHandler) DeleteUser(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if err := h.accounts.Delete(c.Request.Context(), userID); err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Message(c, http.StatusOK, "User deleted successfully")
}
