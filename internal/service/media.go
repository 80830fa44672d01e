package service

import (
	"context"
	"fmt"
	"mime/multipart"

	apperrors "github.com/clipstream/clipstream/internal/errors"
	"github.com/clipstream/clipstream/pkg/logger"
	"github.com/clipstream/clipstream/pkg/storage"
	"go.uber.org/zap"
)

// Object key prefixes per media kind
const (
	MediaPrefixAvatars = "avatars"
	MediaPrefixCovers  = "covers"
	MediaPrefixVideos  = "videos"
)

// MediaService proxies uploaded files to object storage and hands back the
// stored URL. Only URLs are ever persisted on user or video records.
type MediaService struct {
	uploader    storage.Uploader
	maxUploadMB int64
}

func NewMediaService(uploader storage.Uploader, maxUploadMB int64) *MediaService {
	return &MediaService{
		uploader:    uploader,
		maxUploadMB: maxUploadMB,
	}
}

// UploadImage streams the multipart file into object storage under a fresh
// key and returns its public URL.
func (s *MediaService) UploadImage(ctx context.Context, prefix string, file *multipart.FileHeader) (string, error) {
	if file == nil {
		return "", apperrors.ErrFileRequired
	}

	if s.maxUploadMB > 0 && file.Size > s.maxUploadMB*1024*1024 {
		return "", apperrors.WrapError(apperrors.ErrFileTooLarge,
			fmt.Errorf("file size %d bytes exceeds the %d MB limit", file.Size, s.maxUploadMB))
	}

	src, err := file.Open()
	if err != nil {
		logger.GetLogger().Error("Failed to open uploaded file",
			zap.String("filename", file.Filename),
			zap.Error(err),
		)
		return "", apperrors.WrapError(apperrors.ErrInternal, err)
	}
	defer src.Close()

	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := storage.RandomObjectKey(prefix)
	url, err := s.uploader.Upload(ctx, key, src, contentType)
	if err != nil {
		logger.GetLogger().Error("Failed to upload media",
			zap.String("prefix", prefix),
			zap.String("filename", file.Filename),
			zap.Error(err),
		)
		return "", apperrors.WrapError(apperrors.ErrInternal, err)
	}

	logger.GetLogger().Debug("Media uploaded",
		zap.String("prefix", prefix),
		zap.String("url", url),
		zap.Int64("size", file.Size),
	)

	return url, nil
}
