package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"anoa.com/gamingcommunity/internal/entity"
	"anoa.com/gamingcommunity/internal/middleware"
	user "anoa.com/gamingcommunity/internal/modules/user/service"
	"anoa.com/gamingcommunity/pkg/token"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type fakeUsers struct {
	byID map[uuid.UUID]*entity.User
}

func (f *fakeUsers) Create(_ context.Context, u *entity.User) error {
	u.ID = uuid.New()
	u.JoinedDate = time.Now()
	cp := *u
	f.byID[u.ID] = &cp
	return nil
}

func (f *fakeUsers) first(match func(*entity.User) bool) (*entity.User, error) {
	for _, u := range f.byID {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUsers) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	return f.first(func(u *entity.User) bool { return u.ID == id })
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	return f.first(func(u *entity.User) bool { return u.Email == email })
}

func (f *fakeUsers) FindByUsername(_ context.Context, name string) (*entity.User, error) {
	return f.first(func(u *entity.User) bool { return u.Username == name })
}

func (f *fakeUsers) Update(_ context.Context, u *entity.User) error {
	cp := *u
	f.byID[u.ID] = &cp
	return nil
}

func (f *fakeUsers) SetAdmin(context.Context, uuid.UUID, bool) error { return nil }

func (f *fakeUsers) FindAll(context.Context) ([]*entity.User, error) { return nil, nil }

func (f *fakeUsers) Delete(_ context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	if _, ok := f.byID[id]; !ok {
		return nil, gorm.ErrRecordNotFound
	}
	delete(f.byID, id)
	return nil, nil
}

func (f *fakeUsers) Count(context.Context) (int64, error) { return int64(len(f.byID)), nil }

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	repo := &fakeUsers{byID: map[uuid.UUID]*entity.User{}}
	auth := user.NewAuthServiceWithCost(repo, token.NewManager("test", time.Hour), bcrypt.MinCost)
	h := NewAuthHandler(auth, user.NewAccountService(repo, nil))
	guard := middleware.NewAuthMiddleware(auth)

	r := gin.New()
	r.POST("/auth/signup", h.Signup)
	r.POST("/auth/login", h.Login)
	r.GET("/auth/user", guard.RequireAuth(), h.GetUser)
	r.PUT("/auth/updateUser", guard.RequireAuth(), h.UpdateUser)
	r.DELETE("/auth/deleteUser", guard.RequireAuth(), h.DeleteUser)
	return r
}

func send(r http.Handler, method, path, tok string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSignupThenLogin(t *testing.T) {
	r := newRouter()
	creds := map[string]string{"username": "ann", "email": "a@x.com", "password": "secret1"}

	w := send(r, http.MethodPost, "/auth/signup", "", creds)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"message":"User registered successfully"}`, w.Body.String())

	w = send(r, http.MethodPost, "/auth/login", "", map[string]string{"email": "a@x.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body["token"])
	profile := body["user"].(map[string]any)
	assert.Equal(t, "ann", profile["username"])
	assert.Equal(t, "a@x.com", profile["email"])
	assert.NotContains(t, profile, "password")
	assert.NotContains(t, profile, "passwordHash")
	assert.NotContains(t, w.Body.String(), "$2a$")

	tok := body["token"].(string)
	w = send(r, http.MethodGet, "/auth/user", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"ann"`)
}

func TestSignupValidationAndConflict(t *testing.T) {
	r := newRouter()

	w := send(r, http.MethodPost, "/auth/signup", "", map[string]string{"username": "an", "email": "bad", "password": "123"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "username must be at least 3 characters")

	creds := map[string]string{"username": "ann", "email": "a@x.com", "password": "secret1"}
	require.Equal(t, http.StatusCreated, send(r, http.MethodPost, "/auth/signup", "", creds).Code)

	w = send(r, http.MethodPost, "/auth/signup", "", creds)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"message":"User already exists"}`, w.Body.String())
}

func TestLoginWrongPassword(t *testing.T) {
	r := newRouter()
	creds := map[string]string{"username": "ann", "email": "a@x.com", "password": "secret1"}
	require.Equal(t, http.StatusCreated, send(r, http.MethodPost, "/auth/signup", "", creds).Code)

	w := send(r, http.MethodPost, "/auth/login", "", map[string]string{"email": "a@x.com", "password": "wrong12"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"message":"Invalid email or password"}`, w.Body.String())
}

func TestUpdateAndDeleteAccount(t *testing.T) {
	r := newRouter()
	require.Equal(t, http.StatusCreated, send(r, http.MethodPost, "/auth/signup", "", map[string]string{"username": "ann", "email": "a@x.com", "password": "secret1"}).Code)
	w := send(r, http.MethodPost, "/auth/login", "", map[string]string{"email": "a@x.com", "password": "secret1"})
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))

	w = send(r, http.MethodPut, "/auth/updateUser", login.Token, map[string]string{"bio": "Tank main"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"message":"User updated successfully"`)
	assert.Contains(t, w.Body.String(), `"bio":"Tank main"`)

	w = send(r, http.MethodDelete, "/auth/deleteUser", login.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"User deleted successfully"}`, w.Body.String())

	// the token now points at a user that no longer exists
	w = send(r, http.MethodGet, "/auth/user", login.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWhitespaceUsernames(t *testing.T) {
	r := newRouter()

	for _, name := range []string{"   ", "  b "} {
		w := send(r, http.MethodPost, "/auth/signup", "", map[string]string{"username": name, "email": "a@x.com", "password": "secret1"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"message":"username must be at least 3 characters"}`, w.Body.String())
	}

	require.Equal(t, http.StatusCreated, send(r, http.MethodPost, "/auth/signup", "", map[string]string{"username": " ann ", "email": "a@x.com", "password": "secret1"}).Code)
	w := send(r, http.MethodPost, "/auth/login", "", map[string]string{"email": "a@x.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, w.Code)
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))

	w = send(r, http.MethodGet, "/auth/user", login.Token, nil)
	assert.Contains(t, w.Body.String(), `"username":"ann"`)

	w = send(r, http.MethodPut, "/auth/updateUser", login.Token, map[string]string{"username": "    "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"message":"username must be at least 3 characters"}`, w.Body.String())
}
