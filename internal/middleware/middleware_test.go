package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"anoa.com/gamingcommunity/internal/entity"
	"anoa.com/gamingcommunity/pkg/apperror"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubVerifier map[string]*entity.User

func (s stubVerifier) Verify(_ context.Context, token string) (*entity.User, error) {
	if u, ok := s[token]; ok {
		return u, nil
	}
	return nil, apperror.Unauthorized("Token is not valid")
}

func newGuardedRouter(v TokenVerifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogger(zap.NewNop()))
	m := NewAuthMiddleware(v)

	r.GET("/me", m.RequireAuth(), func(c *gin.Context) {
		u, _ := CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"username": u.Username, "user_id": c.GetString("user_id")})
	})
	r.GET("/admin", m.RequireAuth(), m.RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func do(r http.Handler, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func message(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["message"]
}

func TestRequireAuth(t *testing.T) {
	ann := &entity.User{ID: uuid.New(), Username: "ann"}
	r := newGuardedRouter(stubVerifier{"good": ann})

	w := do(r, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "No token, authorization denied", message(t, w))

	w = do(r, "/me", "Bearer bad")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Token is not valid", message(t, w))

	w = do(r, "/me", "Basic good")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, "/me", "Bearer good")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"ann"`)
	assert.Contains(t, w.Body.String(), ann.ID.String())
}

func TestQueryTokenOnlyForWebsockets(t *testing.T) {
	r := newGuardedRouter(stubVerifier{"good": {ID: uuid.New(), Username: "ann"}})

	w := do(r, "/me?token=good", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAdmin(t *testing.T) {
	r := newGuardedRouter(stubVerifier{
		"member": {ID: uuid.New(), Username: "ann"},
		"admin":  {ID: uuid.New(), Username: "root", IsAdmin: true},
	})

	assert.Equal(t, http.StatusUnauthorized, do(r, "/admin", "").Code)

	w := do(r, "/admin", "Bearer member")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Access denied. Admin only.", message(t, w))

	assert.Equal(t, http.StatusNoContent, do(r, "/admin", "Bearer admin").Code)
}

func TestRateLimiter(t *testing.T) {
	l := NewRateLimiter(4) // burst of 2
	assert.True(t, l.Allow("1.1.1.1"))
	assert.True(t, l.Allow("1.1.1.1"))
	assert.False(t, l.Allow("1.1.1.1"))
	assert.True(t, l.Allow("2.2.2.2"))
}

func TestRateLimiterMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/auth/login", NewRateLimiter(1).Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func() int {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth/login", nil))
		return w.Code
	}
	assert.Equal(t, http.StatusOK, send())
	assert.Equal(t, http.StatusTooManyRequests, send())
}
