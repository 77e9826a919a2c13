// Package handler exposes image upload and retrieval over HTTP. Retrieval
// requires a valid access token; uploading requires write access on the posts
// scope, matching article authorship.
package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"inkwell/internal/iam"
	"inkwell/internal/image/service"
	"inkwell/internal/platform/middleware"
	dErrors "inkwell/pkg/domain-errors"
	"inkwell/pkg/platform/httputil"
)

// maxUploadBytes caps multipart uploads at 16 MiB.
const maxUploadBytes = 16 << 20

// Service defines the image operations the handler needs.
type Service interface {
	Upload(ctx context.Context, filename, contentType string, body io.Reader) (service.Image, error)
	Get(ctx context.Context, tag string) (service.Image, error)
}

// Guard supplies the auth middleware dependencies.
type Guard interface {
	middleware.Authorizer
	middleware.PermissionChecker
}

// Handler handles image endpoints.
type Handler struct {
	logger *slog.Logger
	svc    Service
	guard  Guard
}

// New creates a new image Handler.
func New(svc Service, guard Guard, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, svc: svc, guard: guard}
}

// Register mounts the image routes.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.guard, h.logger))

		r.Get("/images/{tag}", h.handleGet)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePermission(h.guard, iam.ScopeAdminPosts, iam.AccessWrite, h.logger))
			r.Post("/images/upload", h.handleUpload)
		})
	})
}

// handleUpload accepts a multipart form with a single "file" part.
func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "multipart form with a file part is required"))
		return
	}
	defer file.Close()

	image, err := h.svc.Upload(ctx, header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			h.logger.ErrorContext(ctx, "image upload failed",
				"request_id", middleware.GetRequestID(ctx),
				"error", err.Error(),
			)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, image)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tag := chi.URLParam(r, "tag")
	if tag == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid tag"))
		return
	}

	image, err := h.svc.Get(ctx, tag)
	if err != nil {
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			h.logger.ErrorContext(ctx, "image fetch failed",
				"request_id", middleware.GetRequestID(ctx),
				"tag", tag,
				"error", err.Error(),
			)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, image)
}
