package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
)

// FileUploader stores a media file and returns its public URL.
type FileUploader interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// UploadService accepts media uploads for photo and video messages. Only
// image/* and video/* content is accepted; the type is sniffed from the bytes,
// never trusted from the client.
type UploadService interface {
	UploadMedia(ctx context.Context, filename string, file io.Reader) (string, error)
}

type uploadService struct {
	uploader FileUploader
	logger   zerolog.Logger
}

// NewUploadService constructs the media upload service.
func NewUploadService(uploader FileUploader, logger zerolog.Logger) UploadService {
	return &uploadService{
		uploader: uploader,
		logger:   logger.With().Str("component", "upload_service").Logger(),
	}
}

func (s *uploadService) UploadMedia(ctx context.Context, filename string, file io.Reader) (string, error) {
	head, err := io.ReadAll(io.LimitReader(file, 3072))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}

	kind := mimetype.Detect(head)
	if !strings.HasPrefix(kind.String(), "image/") && !strings.HasPrefix(kind.String(), "video/") {
		return "", fmt.Errorf("%w: unsupported media type %s", ErrBadRequest, kind.String())
	}

	url, err := s.uploader.Upload(ctx, filename, io.MultiReader(bytes.NewReader(head), file))
	if err != nil {
		s.logger.Error().Err(err).Str("filename", filename).Msg("media upload failed")
		return "", err
	}

	s.logger.Info().Str("filename", filename).Str("mime", kind.String()).Msg("media uploaded")
	return url, nil
}
