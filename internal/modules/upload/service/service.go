package service

import (
	"context"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"anoa.com/gamingcommunity/internal/modules/upload/dto"
	"anoa.com/gamingcommunity/pkg/apperror"
	"anoa.com/gamingcommunity/pkg/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const MaxImageSize = 5 << 20

var allowedExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

type UploadService interface {
	UploadImage(ctx context.Context, userID uuid.UUID, file *multipart.FileHeader) (*dto.UploadResponse, error)
}

type uploadService struct {
	storage storage.ImageStorage
}

// NewUploadService accepts a nil storage; uploads then fail with 503.
func NewUploadService(storage storage.ImageStorage) UploadService {
	return &uploadService{storage: storage}
}

func (s *uploadService) UploadImage(ctx context.Context, userID uuid.UUID, file *multipart.FileHeader) (*dto.UploadResponse, error) {
	if s.storage == nil {
		return nil, apperror.Unavailable("Image uploads are unavailable")
	}
	if file.Size > MaxImageSize {
		return nil, apperror.Validation("image must be at most 5MB")
	}
	if !allowedExt[strings.ToLower(filepath.Ext(file.Filename))] {
		return nil, apperror.Validation("image must be a jpg, jpeg, png, gif or webp file")
	}

	src, err := file.Open()
	if err != nil {
		return nil, apperror.Validation("image could not be read")
	}
	defer src.Close()

	url, err := s.storage.UploadImage(ctx, src, file.Filename)
	if err != nil {
		return nil, fmt.Errorf("upload image: %w", err)
	}

	zap.L().Info("image uploaded", zap.String("user_id", userID.String()), zap.String("url", url))
	return &dto.UploadResponse{URL: url}, nil
}
