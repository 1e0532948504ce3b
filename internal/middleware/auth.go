package middleware

import (
	"context"
	"net/http"
	"strings"

	"anoa.com/gamingcommunity/internal/entity"
	"anoa.com/gamingcommunity/pkg/apperror"
	"anoa.com/gamingcommunity/pkg/response"
	"github.com/gin-gonic/gin"
)

const (
	ctxUserID = "user_id"
	ctxUser   = "user"
)

// TokenVerifier resolves a bearer token to the user it was issued for.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*entity.User, error)
}

type AuthMiddleware struct {
	verifier TokenVerifier
}

func NewAuthMiddleware(verifier TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

// RequireAuth is the identity gate.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c.GetHeader("Authorization"))

		// Fallback to query parameter "token" (browsers cannot set headers on WebSockets)
		if tokenString == "" && c.IsWebsocket() {
			tokenString = c.Query("token")
		}

		if tokenString == "" {
			response.Message(c, http.StatusUnauthorized, "No token, authorization denied")
			c.Abort()
			return
		}

		user, err := m.verifier.Verify(c.Request.Context(), tokenString)
		if err != nil {
			response.ResponseError(c, err)
			c.Abort()
			return
		}

		c.Set(ctxUserID, user.ID.String())
		c.Set(ctxUser, user)
		c.Next()
	}
}

// RequireAdmin is the admin gate; it must run after RequireAuth.
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			response.ResponseError(c, apperror.Unauthorized("Not authorized"))
			c.Abort()
			return
		}

		if !user.IsAdmin {
			response.ResponseError(c, apperror.Forbidden("Access denied. Admin only."))
			c.Abort()
			return
		}

		c.Next()
	}
}

// CurrentUser returns the user attached by RequireAuth.
func CurrentUser(c *gin.Context) (*entity.User, bool) {
	v, exists := c.Get(ctxUser)
	if !exists {
		return nil, false
	}
	user, ok := v.(*entity.User)
	return user, ok && user != nil
}

func bearerToken(header string) string {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
