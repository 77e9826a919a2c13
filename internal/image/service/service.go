// Package service implements image uploads: mime whitelisting, object naming,
// and presigned URL retrieval.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"inkwell/internal/image/store"
	"inkwell/internal/platform/metrics"
	dErrors "inkwell/pkg/domain-errors"
	"inkwell/pkg/platform/sentinel"
	xstrings "inkwell/pkg/platform/strings"
)

// URLExpiry bounds how long a handed-out download link stays valid.
const URLExpiry = time.Hour

// extensions whitelists upload content types. Everything else is rejected
// before any byte reaches object storage.
var extensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpeg",
	"image/webp": "webp",
}

// Image is an uploaded object reference: the tag names it, the URL fetches it
// until the link expires.
type Image struct {
	Tag string `json:"tag"`
	URL string `json:"url"`
}

// Service manages image objects.
type Service struct {
	store   store.Store
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewService(st store.Store, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{store: st, metrics: m, logger: logger}
}

// Upload stores the image under a slugged, uuid-suffixed object name so
// repeated uploads of the same filename never collide.
func (s *Service) Upload(ctx context.Context, filename, contentType string, body io.Reader) (Image, error) {
	ext, ok := extensions[contentType]
	if !ok {
		return Image{}, dErrors.New(dErrors.CodeBadRequest, "image type is not supported (supported: png, jpeg, webp)")
	}

	base := strings.TrimSuffix(path.Base(filename), path.Ext(filename))
	slug := xstrings.Slugify(base)
	if slug == "" {
		slug = "image"
	}
	tag := fmt.Sprintf("%s-%s.%s", slug, uuid.NewString(), ext)

	if err := s.store.Upload(ctx, tag, contentType, body); err != nil {
		return Image{}, fmt.Errorf("upload image: %w", err)
	}

	url, err := s.store.URL(ctx, tag, URLExpiry)
	if err != nil {
		return Image{}, fmt.Errorf("presign image: %w", err)
	}

	s.metrics.ImagesUploaded.Inc()
	s.logger.InfoContext(ctx, "image uploaded", "tag", tag, "content_type", contentType)
	return Image{Tag: tag, URL: url}, nil
}

// Get returns a fresh presigned URL for an existing image.
func (s *Service) Get(ctx context.Context, tag string) (Image, error) {
	url, err := s.store.URL(ctx, tag, URLExpiry)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Image{}, dErrors.New(dErrors.CodeNotFound, "image not found")
		}
		return Image{}, fmt.Errorf("presign image: %w", err)
	}
	return Image{Tag: tag, URL: url}, nil
}
