// Package handler exposes the auth flows over HTTP: credential login, refresh
// token rotation, and the admin endpoints that edit the permission graph.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"inkwell/internal/iam"
	"inkwell/internal/platform/middleware"
	dErrors "inkwell/pkg/domain-errors"
	"inkwell/pkg/platform/httputil"
)

// Service defines the auth operations the handler needs.
type Service interface {
	Login(ctx context.Context, username, password, userAgent string) (iam.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (iam.TokenPair, error)
	Authorize(ctx context.Context, accessToken string) (int64, error)
	RequirePermission(ctx context.Context, userID int64, scope iam.Scope, access iam.Access) error
	AssignGroup(ctx context.Context, userID int64, group string) error
	UnassignGroup(ctx context.Context, userID int64, group string) error
	ListGroups(ctx context.Context, userID int64) ([]string, error)
}

// Handler handles oauth and group-management endpoints.
type Handler struct {
	logger *slog.Logger
	svc    Service
}

// New creates a new iam Handler.
func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, svc: svc}
}

// Register mounts the public oauth routes and the guarded group routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/oauth/rotate-token", h.handleRotateToken)
	r.Post("/oauth/refresh-token", h.handleRefreshToken)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.svc, h.logger))
		r.Use(middleware.RequirePermission(h.svc, iam.ScopeAdminUsers, iam.AccessWrite, h.logger))
		r.Patch("/users/{id}/add-group", h.handleAddGroup)
		r.Patch("/users/{id}/remove-group", h.handleRemoveGroup)
		r.Get("/users/{id}/groups", h.handleListGroups)
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// handleRotateToken exchanges credentials for a fresh token pair.
func (h *Handler) handleRotateToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var req loginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if req.Username == "" || req.Password == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "username and password are required"))
		return
	}

	pair, err := h.svc.Login(ctx, req.Username, req.Password, r.UserAgent())
	if err != nil {
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			h.logger.ErrorContext(ctx, "login failed",
				"request_id", requestID,
				"error", err.Error(),
			)
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, pair)
}

// handleRefreshToken rotates the presented refresh token into a new pair. The
// token rides in the Authorization header; a request without one is 401
// before any token inspection happens.
func (h *Handler) handleRefreshToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	refreshToken, ok := middleware.BearerToken(r)
	if !ok {
		httputil.WriteError(w, dErrors.Wrap(iam.ErrMissingBearerToken, dErrors.CodeUnauthorized, iam.ErrMissingBearerToken.Error()))
		return
	}

	pair, err := h.svc.Refresh(ctx, refreshToken)
	if err != nil {
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			h.logger.ErrorContext(ctx, "token refresh failed",
				"request_id", requestID,
				"error", err.Error(),
			)
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, pair)
}

type groupRequest struct {
	Group string `json:"group"`
}

type groupsResponse struct {
	UserID int64    `json:"user_id"`
	Groups []string `json:"groups"`
}

func (h *Handler) handleAddGroup(w http.ResponseWriter, r *http.Request) {
	h.handleGroupChange(w, r, h.svc.AssignGroup)
}

func (h *Handler) handleRemoveGroup(w http.ResponseWriter, r *http.Request) {
	h.handleGroupChange(w, r, h.svc.UnassignGroup)
}

func (h *Handler) handleGroupChange(w http.ResponseWriter, r *http.Request, apply func(context.Context, int64, string) error) {
	ctx := r.Context()

	userID, err := pathID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req groupRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if req.Group == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "group is required"))
		return
	}

	if err := apply(ctx, userID, req.Group); err != nil {
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			h.logger.ErrorContext(ctx, "group change failed",
				"request_id", middleware.GetRequestID(ctx),
				"user_id", userID,
				"error", err.Error(),
			)
		}
		httputil.WriteError(w, err)
		return
	}

	groups, err := h.svc.ListGroups(ctx, userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, groupsResponse{UserID: userID, Groups: groups})
}

func (h *Handler) handleListGroups(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := pathID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	groups, err := h.svc.ListGroups(ctx, userID)
	if err != nil {
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			h.logger.ErrorContext(ctx, "list groups failed",
				"request_id", middleware.GetRequestID(ctx),
				"user_id", userID,
				"error", err.Error(),
			)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, groupsResponse{UserID: userID, Groups: groups})
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, "invalid user id")
	}
	return id, nil
}
