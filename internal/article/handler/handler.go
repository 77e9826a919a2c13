// Package handler exposes articles and comment threads over HTTP. Reads and
// commenting require only a valid access token; article writes require write
// access on the posts scope.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"inkwell/internal/article/models"
	"inkwell/internal/article/store"
	"inkwell/internal/iam"
	"inkwell/internal/platform/middleware"
	dErrors "inkwell/pkg/domain-errors"
	"inkwell/pkg/pagination"
	"inkwell/pkg/platform/httputil"
)

// Service defines the article operations the handler needs.
type Service interface {
	CreateArticle(ctx context.Context, authorID int64, req models.CreateArticleRequest) (*models.Article, error)
	GetArticle(ctx context.Context, id int64) (*models.Article, error)
	ListArticles(ctx context.Context, page pagination.Page) (pagination.Response[models.Article], error)
	UpdateArticle(ctx context.Context, id int64, req models.CreateArticleRequest) (*models.Article, error)
	DeleteArticle(ctx context.Context, id int64) error

	RootComments(ctx context.Context, articleID int64, page pagination.Page) (pagination.Response[models.Comment], error)
	CommentAnswers(ctx context.Context, commentID int64, page pagination.Page) (pagination.Response[models.Comment], error)
	CreateComment(ctx context.Context, articleID, authorID int64, req models.CreateCommentRequest) (*models.Comment, error)
	UpdateComment(ctx context.Context, commentID, requesterID int64, req models.UpdateCommentRequest) (*models.Comment, error)
	DeleteComment(ctx context.Context, commentID, requesterID int64) error
	React(ctx context.Context, commentID int64, reaction store.Reaction) (*models.Comment, error)
}

// Guard supplies the auth middleware dependencies.
type Guard interface {
	middleware.Authorizer
	middleware.PermissionChecker
}

// Handler handles article and comment endpoints.
type Handler struct {
	logger *slog.Logger
	svc    Service
	guard  Guard
}

// New creates a new article Handler.
func New(svc Service, guard Guard, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, svc: svc, guard: guard}
}

// Register mounts the article routes.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.guard, h.logger))

		r.Get("/articles", h.handleList)
		r.Get("/articles/{id}", h.handleGet)

		r.Get("/articles/{id}/comments", h.handleRootComments)
		r.Post("/articles/{id}/comments", h.handleCreateComment)
		r.Get("/articles/{id}/comments/{commentID}/answers", h.handleCommentAnswers)
		r.Put("/articles/{id}/comments/{commentID}", h.handleUpdateComment)
		r.Delete("/articles/{id}/comments/{commentID}", h.handleDeleteComment)
		r.Post("/articles/{id}/comments/{commentID}/like", h.handleLike)
		r.Post("/articles/{id}/comments/{commentID}/dislike", h.handleDislike)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePermission(h.guard, iam.ScopeAdminPosts, iam.AccessWrite, h.logger))
			r.Post("/articles", h.handleCreate)
			r.Patch("/articles/{id}", h.handleUpdate)
			r.Delete("/articles/{id}", h.handleDelete)
		})
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subject, ok := middleware.GetSubjectID(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	var req models.CreateArticleRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	article, err := h.svc.CreateArticle(ctx, subject, req)
	if err != nil {
		h.writeErr(ctx, w, err, "create article")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, article)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	resp, err := h.svc.ListArticles(ctx, pagination.FromRequest(r))
	if err != nil {
		h.writeErr(ctx, w, err, "list articles")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := pathID(r, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	article, err := h.svc.GetArticle(ctx, id)
	if err != nil {
		h.writeErr(ctx, w, err, "get article")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, article)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := pathID(r, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req models.CreateArticleRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	article, err := h.svc.UpdateArticle(ctx, id, req)
	if err != nil {
		h.writeErr(ctx, w, err, "update article")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, article)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := pathID(r, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.svc.DeleteArticle(ctx, id); err != nil {
		h.writeErr(ctx, w, err, "delete article")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRootComments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	articleID, err := pathID(r, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	resp, err := h.svc.RootComments(ctx, articleID, pagination.FromRequest(r))
	if err != nil {
		h.writeErr(ctx, w, err, "list root comments")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleCommentAnswers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	commentID, err := pathID(r, "commentID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	resp, err := h.svc.CommentAnswers(ctx, commentID, pagination.FromRequest(r))
	if err != nil {
		h.writeErr(ctx, w, err, "list comment answers")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	articleID, err := pathID(r, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	subject, ok := middleware.GetSubjectID(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	var req models.CreateCommentRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	comment, err := h.svc.CreateComment(ctx, articleID, subject, req)
	if err != nil {
		h.writeErr(ctx, w, err, "create comment")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, comment)
}

func (h *Handler) handleUpdateComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	commentID, err := pathID(r, "commentID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	subject, ok := middleware.GetSubjectID(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	var req models.UpdateCommentRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	comment, err := h.svc.UpdateComment(ctx, commentID, subject, req)
	if err != nil {
		h.writeErr(ctx, w, err, "update comment")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, comment)
}

func (h *Handler) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	commentID, err := pathID(r, "commentID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	subject, ok := middleware.GetSubjectID(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	if err := h.svc.DeleteComment(ctx, commentID, subject); err != nil {
		h.writeErr(ctx, w, err, "delete comment")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleLike(w http.ResponseWriter, r *http.Request) {
	h.handleReaction(w, r, store.ReactionLike)
}

func (h *Handler) handleDislike(w http.ResponseWriter, r *http.Request) {
	h.handleReaction(w, r, store.ReactionDislike)
}

func (h *Handler) handleReaction(w http.ResponseWriter, r *http.Request, reaction store.Reaction) {
	ctx := r.Context()

	commentID, err := pathID(r, "commentID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	comment, err := h.svc.React(ctx, commentID, reaction)
	if err != nil {
		h.writeErr(ctx, w, err, "react to comment")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, comment)
}

func (h *Handler) writeErr(ctx context.Context, w http.ResponseWriter, err error, op string) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, op+" failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
	}
	httputil.WriteError(w, err)
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, "invalid "+name)
	}
	return id, nil
}
