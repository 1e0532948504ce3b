package handler

import (
	"net/http"

	"anoa.com/gamingcommunity/internal/modules/admin/dto"
	admin "anoa.com/gamingcommunity/internal/modules/admin/service"
	"anoa.com/gamingcommunity/pkg/apperror"
	"anoa.com/gamingcommunity/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AdminHandler struct {
	service admin.AdminService
}

func NewAdminHandler(service admin.AdminService) *AdminHandler {
	return &AdminHandler{service: service}
}

func (h *AdminHandler) GetStats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.StatsResponse{Stats: *stats})
}

func (h *AdminHandler) GetUsers(c *gin.Context) {
	users, err := h.service.Users(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, users)
}

func (h *AdminHandler) SetUserAdmin(c *gin.Context) {
	id, ok := pathID(c, "User not found")
	if !ok {
		return
	}

	var req dto.SetAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ResponseError(c, apperror.Validation("isAdmin field must be a boolean"))
		return
	}

	user, err := h.service.SetAdmin(c.Request.Context(), id, *req.IsAdmin)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.AdminUserEnvelope{Message: "User admin status updated", User: *user})
}

func (h *AdminHandler) DeleteGame(c *gin.Context) {
	id, ok := pathID(c, "Game not found")
	if !ok {
		return
	}
	if err := h.service.DeleteGame(c.Request.Context(), id); err != nil {
		response.ResponseError(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Game deleted successfully")
}

func (h *AdminHandler) DeleteBlog(c *gin.Context) {
	id, ok := pathID(c, "Blog not found")
	if !ok {
		return
	}
	if err := h.service.DeleteBlog(c.Request.Context(), id); err != nil {
		response.ResponseError(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Blog deleted successfully")
}

func (h *AdminHandler) DeleteCommunity(c *gin.Context) {
	id, ok := pathID(c, "Community not found")
	if !ok {
		return
	}
	if err := h.service.DeleteCommunity(c.Request.Context(), id); err != nil {
		response.ResponseError(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Community deleted successfully")
}

func (h *AdminHandler) GetJobs(c *gin.Context) {
	jobs, err := h.service.Jobs(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.JobsResponse{Jobs: jobs})
}

// RunJob blocks until the job finishes.
func (h *AdminHandler) RunJob(c *gin.Context) {
	if err := h.service.RunJob(c.Request.Context(), c.Param("name")); err != nil {
		response.ResponseError(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Job completed")
}

func pathID(c *gin.Context, notFound string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.NotFound(notFound))
		return uuid.Nil, false
	}
	return id, true
}
