// Package handler exposes account management over HTTP. All routes require a
// valid access token; creating and deleting accounts additionally require
// write access on the users scope.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"inkwell/internal/iam"
	"inkwell/internal/platform/middleware"
	"inkwell/internal/user/models"
	dErrors "inkwell/pkg/domain-errors"
	"inkwell/pkg/pagination"
	"inkwell/pkg/platform/httputil"
)

// Service defines the account operations the handler needs.
type Service interface {
	Create(ctx context.Context, req models.CreateUserRequest) (*models.User, error)
	Get(ctx context.Context, id int64) (*models.User, error)
	List(ctx context.Context, page pagination.Page) (pagination.Response[models.User], error)
	Update(ctx context.Context, id int64, req models.UpdateUserRequest) (*models.User, error)
	Delete(ctx context.Context, id int64) error
}

// Guard supplies the auth middleware dependencies.
type Guard interface {
	middleware.Authorizer
	middleware.PermissionChecker
}

// Handler handles user management endpoints.
type Handler struct {
	logger *slog.Logger
	svc    Service
	guard  Guard
}

// New creates a new user Handler.
func New(svc Service, guard Guard, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, svc: svc, guard: guard}
}

// Register mounts the user routes.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.guard, h.logger))

		r.Get("/users", h.handleList)
		r.Get("/users/{id}", h.handleGet)
		r.Patch("/users/{id}", h.handleUpdate)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePermission(h.guard, iam.ScopeAdminUsers, iam.AccessWrite, h.logger))
			r.Post("/users", h.handleCreate)
			r.Delete("/users/{id}", h.handleDelete)
		})
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.CreateUserRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	user, err := h.svc.Create(ctx, req)
	if err != nil {
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			h.logger.ErrorContext(ctx, "create user failed",
				"request_id", middleware.GetRequestID(ctx),
				"error", err.Error(),
			)
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, user)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	resp, err := h.svc.List(ctx, pagination.FromRequest(r))
	if err != nil {
		h.logger.ErrorContext(ctx, "list users failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := pathID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	user, err := h.svc.Get(ctx, id)
	if err != nil {
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			h.logger.ErrorContext(ctx, "get user failed",
				"request_id", middleware.GetRequestID(ctx),
				"user_id", id,
				"error", err.Error(),
			)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := pathID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req models.UpdateUserRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	user, err := h.svc.Update(ctx, id, req)
	if err != nil {
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			h.logger.ErrorContext(ctx, "update user failed",
				"request_id", middleware.GetRequestID(ctx),
				"user_id", id,
				"error", err.Error(),
			)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := pathID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.svc.Delete(ctx, id); err != nil {
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			h.logger.ErrorContext(ctx, "delete user failed",
				"request_id", middleware.GetRequestID(ctx),
				"user_id", id,
				"error", err.Error(),
			)
		}
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, "invalid user id")
	}
	return id, nil
}
