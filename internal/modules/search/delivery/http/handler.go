package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	search "anoa.com/gamingcommunity/internal/modules/search/service"
	"anoa.com/gamingcommunity/pkg/apperror"
	"anoa.com/gamingcommunity/pkg/response"
	"github.com/gin-gonic/gin"
)

type searchQuery struct {
	Q     string `form:"q"`
	Type  string `form:"type"`
	Limit int64  `form:"limit" binding:"omitempty,min=1,max=50"`
}

type searchResponse struct {
	Query string            `json:"query"`
	Type  search.Kind       `json:"type"`
	Hits  []json.RawMessage `json:"hits"`
}

type SearchHandler struct {
	searcher search.Searcher
}

// NewSearchHandler accepts a nil searcher; every request then answers 503.
func NewSearchHandler(searcher search.Searcher) *SearchHandler {
	return &SearchHandler{searcher: searcher}
}

func (h *SearchHandler) Search(c *gin.Context) {
	if h.searcher == nil {
		response.ResponseError(c, apperror.Unavailable("Search is unavailable"))
		return
	}

	var q searchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.ResponseError(c, apperror.Validation("limit must be between 1 and 50"))
		return
	}

	kind, ok := search.ParseKind(q.Type)
	if !ok {
		response.ResponseError(c, apperror.Validation("type must be one of: games, communities, blogs"))
		return
	}
	if q.Limit == 0 {
		q.Limit = 20
	}

	hits, err := h.searcher.Search(c.Request.Context(), strings.TrimSpace(q.Q), kind, q.Limit)
	if err != nil {
		response.ResponseError(c, apperror.New(http.StatusServiceUnavailable, "Search is unavailable", err))
		return
	}
	if hits == nil {
		hits = []json.RawMessage{}
	}

	c.JSON(http.StatusOK, searchResponse{Query: q.Q, Type: kind, Hits: hits})
}
