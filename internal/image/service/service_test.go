package service

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"inkwell/internal/image/store"
	"inkwell/internal/platform/metrics"
	dErrors "inkwell/pkg/domain-errors"
)

func newService() (*Service, *store.MemoryStore) {
	st := store.NewMemoryStore()
	svc := NewService(st, metrics.NewWith(prometheus.NewRegistry()),
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	return svc, st
}

func TestUploadStoresUnderSluggedTag(t *testing.T) {
	svc, st := newService()

	img, err := svc.Upload(context.Background(), "My Cover Photo.PNG", "image/png", strings.NewReader("pngbytes"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(img.Tag, "my-cover-photo-"), "tag = %q", img.Tag)
	require.True(t, strings.HasSuffix(img.Tag, ".png"), "tag = %q", img.Tag)
	require.NotEmpty(t, img.URL)

	data, contentType, ok := st.Object(img.Tag)
	require.True(t, ok)
	require.Equal(t, "pngbytes", string(data))
	require.Equal(t, "image/png", contentType)
}

func TestUploadTagsAreUnique(t *testing.T) {
	svc, _ := newService()

	a, err := svc.Upload(context.Background(), "cover.png", "image/png", strings.NewReader("a"))
	require.NoError(t, err)
	b, err := svc.Upload(context.Background(), "cover.png", "image/png", strings.NewReader("b"))
	require.NoError(t, err)
	require.NotEqual(t, a.Tag, b.Tag)
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	svc, _ := newService()

	for _, contentType := range []string{"image/gif", "application/pdf", "text/html", ""} {
		_, err := svc.Upload(context.Background(), "file.bin", contentType, strings.NewReader("x"))
		require.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest), "content type %q", contentType)
	}
}

func TestGetUnknownTagNotFound(t *testing.T) {
	svc, _ := newService()

	_, err := svc.Get(context.Background(), "missing.png")
	require.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestGetReturnsURL(t *testing.T) {
	svc, _ := newService()

	img, err := svc.Upload(context.Background(), "cover.webp", "image/webp", strings.NewReader("w"))
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), img.Tag)
	require.NoError(t, err)
	require.Equal(t, img.Tag, got.Tag)
	require.NotEmpty(t, got.URL)
}
