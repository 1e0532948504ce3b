package handler

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	upload "anoa.com/gamingcommunity/internal/modules/upload/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStorage struct {
	got []byte
}

func (f *fakeStorage) UploadImage(_ context.Context, r io.Reader, name string) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.got = b
	return "https://res.cloudinary.com/demo/image/upload/v1/" + name, nil
}
func (f *fakeStorage) DeleteImage(context.Context, string) error { return nil }
func (f *fakeStorage) Owns(string) bool                          { return true }

func router(h *UploadHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/uploads", func(c *gin.Context) {
		c.Set("user_id", uuid.NewString())
		c.Next()
	}, h.UploadImage)
	return r
}

func multipartBody(t *testing.T, field, name string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, name)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func post(r http.Handler, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/uploads", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestUploadImage(t *testing.T) {
	store := &fakeStorage{}
	r := router(NewUploadHandler(upload.NewUploadService(store)))

	body, ct := multipartBody(t, "image", "cover.png", []byte("png-bytes"))
	w := post(r, body, ct)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.JSONEq(t, `{"url":"https://res.cloudinary.com/demo/image/upload/v1/cover.png"}`, w.Body.String())
	assert.Equal(t, []byte("png-bytes"), store.got)
}

func TestUploadRejections(t *testing.T) {
	r := router(NewUploadHandler(upload.NewUploadService(&fakeStorage{})))

	body, ct := multipartBody(t, "file", "cover.png", []byte("x"))
	w := post(r, body, ct)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"message":"image is required"}`, w.Body.String())

	body, ct = multipartBody(t, "image", "notes.txt", []byte("x"))
	w = post(r, body, ct)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body, ct = multipartBody(t, "image", "huge.png", make([]byte, upload.MaxImageSize+1))
	w = post(r, body, ct)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadWithoutStorage(t *testing.T) {
	r := router(NewUploadHandler(upload.NewUploadService(nil)))

	body, ct := multipartBody(t, "image", "cover.png", []byte("x"))
	w := post(r, body, ct)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"message":"Image uploads are unavailable"}`, w.Body.String())
}
