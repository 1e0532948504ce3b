package handler

import (
	"context"
	"net/http"
	"time"

	activity "anoa.com/gamingcommunity/internal/modules/activity/service"
	"anoa.com/gamingcommunity/pkg/apperror"
	"anoa.com/gamingcommunity/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeWait = 10 * time.Second

// BlogChecker reports whether a blog exists.
type BlogChecker interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

type LiveHandler struct {
	subscriber activity.Subscriber
	blogs      BlogChecker
	upgrader   websocket.Upgrader
}

// NewLiveHandler serves blog activity streams. subscriber may be nil, in
// which case every stream request is answered with 503.
func NewLiveHandler(subscriber activity.Subscriber, blogs BlogChecker, checkOrigin func(r *http.Request) bool) *LiveHandler {
	return &LiveHandler{
		subscriber: subscriber,
		blogs:      blogs,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

func (h *LiveHandler) BlogActivity(c *gin.Context) {
	if h.subscriber == nil {
		response.ResponseError(c, apperror.Unavailable("Live updates are unavailable"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, apperror.NotFound("Blog not found"))
		return
	}
	ok, err := h.blogs.Exists(c.Request.Context(), id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	if !ok {
		response.ResponseError(c, apperror.NotFound("Blog not found"))
		return
	}

	sub, err := h.subscriber.Subscribe(c.Request.Context(), id.String())
	if err != nil {
		response.ResponseError(c, apperror.Unavailable("Live updates are unavailable"))
		zap.L().Warn("activity subscribe failed", zap.String("blog_id", id.String()), zap.Error(err))
		return
	}
	defer sub.Close()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the error response
		zap.L().Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	clientClosed := make(chan struct{})
	go func() {
		defer close(clientClosed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	messages := sub.Messages()
	for {
		select {
		case payload, open := <-messages:
			if !open {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(writeWait))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-clientClosed:
			return
		case <-c.Request.Context().Done():
			return
		}
	}
}
