package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// ErrNotConfigured is returned by NewCloudinaryStorage when no credentials
// are present.
var ErrNotConfigured = errors.New("image storage is not configured")

// ImageStorage stores user-supplied images and hands back a public URL.
type ImageStorage interface {
	UploadImage(ctx context.Context, r io.Reader, fileName string) (string, error)
	// DeleteImage removes an image previously returned by UploadImage.
	DeleteImage(ctx context.Context, fileURL string) error
	// Owns reports whether fileURL points into this storage.
	Owns(fileURL string) bool
}

type Credentials struct {
	URL       string
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

type cloudinaryStorage struct {
	cld    *cloudinary.Cloudinary
	folder string
}

// NewCloudinaryStorage builds the Cloudinary implementation from either a
// CLOUDINARY_URL style URL or the three discrete credentials.
func NewCloudinaryStorage(creds Credentials) (ImageStorage, error) {
	var (
		cld *cloudinary.Cloudinary
		err error
	)
	switch {
	case creds.URL != "":
		cld, err = cloudinary.NewFromURL(creds.URL)
	case creds.CloudName != "" && creds.APIKey != "" && creds.APISecret != "":
		cld, err = cloudinary.NewFromParams(creds.CloudName, creds.APIKey, creds.APISecret)
	default:
		return nil, ErrNotConfigured
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary client: %w", err)
	}

	cld.Config.URL.Secure = true

	return &cloudinaryStorage{cld: cld, folder: creds.Folder}, nil
}

func (s *cloudinaryStorage) UploadImage(ctx context.Context, r io.Reader, fileName string) (string, error) {
	base := strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))
	publicID := fmt.Sprintf("%d-%s", time.Now().UnixNano(), base)

	params := uploader.UploadParams{
		Folder:         s.folder,
		PublicID:       publicID,
		UniqueFilename: api.Bool(true),
		Overwrite:      api.Bool(false),
		Format:         "webp",
		Transformation: "q_auto",
	}

	resp, err := s.cld.Upload.Upload(ctx, r, params)
	if err != nil {
		return "", fmt.Errorf("failed to upload image to cloudinary: %w", err)
	}
	if resp.Error.Message != "" {
		return "", fmt.Errorf("cloudinary upload: %s", resp.Error.Message)
	}
	if resp.SecureURL == "" {
		return "", errors.New("cloudinary upload succeeded but secure URL is empty")
	}

	return resp.SecureURL, nil
}

func (s *cloudinaryStorage) DeleteImage(ctx context.Context, fileURL string) error {
	publicID := ExtractPublicID(fileURL)
	if publicID == "" {
		return fmt.Errorf("could not extract public ID from URL: %s", fileURL)
	}

	resp, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:   publicID,
		Invalidate: api.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("failed to delete image from cloudinary: %w", err)
	}

	if resp.Result != "ok" && resp.Result != "not found" {
		return fmt.Errorf("cloudinary destroy api returned result: %s", resp.Result)
	}

	return nil
}

func (s *cloudinaryStorage) Owns(fileURL string) bool {
	u, err := url.Parse(fileURL)
	if err != nil {
		return false
	}
	return strings.HasSuffix(u.Host, "cloudinary.com") &&
		strings.Contains(u.Path, "/"+s.cld.Config.Cloud.CloudName+"/")
}

// ExtractPublicID returns the public ID of a Cloudinary delivery URL.
// https://res.cloudinary.com/demo/image/upload/v123/folder/sample.jpg -> folder/sample
func ExtractPublicID(fileURL string) string {
	u, err := url.Parse(fileURL)
	if err != nil {
		return ""
	}

	parts := strings.Split(u.Path, "/")
	uploadIndex := -1
	for i, p := range parts {
		if p == "upload" {
			uploadIndex = i
			break
		}
	}
	if uploadIndex == -1 || uploadIndex+1 >= len(parts) {
		return ""
	}

	rest := parts[uploadIndex+1:]
	if len(rest) > 1 && isVersionSegment(rest[0]) {
		rest = rest[1:]
	}

	publicIDWithExt := strings.Join(rest, "/")
	return strings.TrimSuffix(publicIDWithExt, filepath.Ext(publicIDWithExt))
}

func isVersionSegment(s string) bool {
	if len(s) < 2 || s[0] != 'v' {
		return false
	}
	for _, r := range s[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
