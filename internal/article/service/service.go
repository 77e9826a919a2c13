// Package service implements article and comment business logic.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"inkwell/internal/article/models"
	"inkwell/internal/article/store"
	"inkwell/internal/platform/metrics"
	dErrors "inkwell/pkg/domain-errors"
	"inkwell/pkg/pagination"
	"inkwell/pkg/platform/sentinel"
	xstrings "inkwell/pkg/platform/strings"
)

// Service manages articles and their comment threads.
type Service struct {
	store   store.Store
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source, for slug and timestamp tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(st store.Store, m *metrics.Metrics, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{store: st, metrics: m, logger: logger, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// CreateArticle publishes a new article authored by the requester. The slug
// is derived from the title plus the creation timestamp so retitled reposts
// never collide.
func (s *Service) CreateArticle(ctx context.Context, authorID int64, req models.CreateArticleRequest) (*models.Article, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := s.now().Unix()
	article := &models.Article{
		Title:      req.Title,
		Slug:       xstrings.Slugify(req.Title) + "-" + strconv.FormatInt(now, 10),
		Subtitle:   req.Subtitle,
		CoverImage: req.CoverImage,
		Content:    req.Content,
		AuthorID:   authorID,
		Tags:       req.Tags,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if article.Tags == nil {
		article.Tags = []string{}
	}

	if err := s.store.CreateArticle(ctx, article); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "article slug already taken")
		}
		return nil, fmt.Errorf("create article: %w", err)
	}

	s.metrics.ArticlesCreated.Inc()
	s.logger.InfoContext(ctx, "article created", "article_id", article.ID, "slug", article.Slug)
	return article, nil
}

func (s *Service) GetArticle(ctx context.Context, id int64) (*models.Article, error) {
	article, err := s.store.GetArticle(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "article not found")
		}
		return nil, fmt.Errorf("get article: %w", err)
	}
	return article, nil
}

func (s *Service) ListArticles(ctx context.Context, page pagination.Page) (pagination.Response[models.Article], error) {
	articles, total, err := s.store.ListArticles(ctx, page.Limit, page.Offset)
	if err != nil {
		return pagination.Response[models.Article]{}, fmt.Errorf("list articles: %w", err)
	}
	return pagination.NewResponse(articles, total, page), nil
}

// UpdateArticle replaces the article body and re-derives the slug, mirroring
// the create path.
func (s *Service) UpdateArticle(ctx context.Context, id int64, req models.CreateArticleRequest) (*models.Article, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	article, err := s.GetArticle(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now().Unix()
	article.Title = req.Title
	article.Slug = xstrings.Slugify(req.Title) + "-" + strconv.FormatInt(now, 10)
	article.Subtitle = req.Subtitle
	article.CoverImage = req.CoverImage
	article.Content = req.Content
	article.Tags = req.Tags
	article.UpdatedAt = now
	if article.Tags == nil {
		article.Tags = []string{}
	}

	if err := s.store.UpdateArticle(ctx, article); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "article slug already taken")
		}
		return nil, fmt.Errorf("update article: %w", err)
	}
	return article, nil
}

func (s *Service) DeleteArticle(ctx context.Context, id int64) error {
	if err := s.store.DeleteArticle(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "article not found")
		}
		return fmt.Errorf("delete article: %w", err)
	}
	s.logger.InfoContext(ctx, "article deleted", "article_id", id)
	return nil
}

func (s *Service) RootComments(ctx context.Context, articleID int64, page pagination.Page) (pagination.Response[models.Comment], error) {
	comments, total, err := s.store.RootComments(ctx, articleID, page.Limit, page.Offset)
	if err != nil {
		return pagination.Response[models.Comment]{}, fmt.Errorf("list root comments: %w", err)
	}
	return pagination.NewResponse(comments, total, page), nil
}

func (s *Service) CommentAnswers(ctx context.Context, commentID int64, page pagination.Page) (pagination.Response[models.Comment], error) {
	comments, total, err := s.store.CommentAnswers(ctx, commentID, page.Limit, page.Offset)
	if err != nil {
		return pagination.Response[models.Comment]{}, fmt.Errorf("list comment answers: %w", err)
	}
	return pagination.NewResponse(comments, total, page), nil
}

func (s *Service) CreateComment(ctx context.Context, articleID, authorID int64, req models.CreateCommentRequest) (*models.Comment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := s.now().Unix()
	comment := &models.Comment{
		ArticleID:       articleID,
		AuthorID:        authorID,
		Content:         req.Content,
		ParentCommentID: req.ParentCommentID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.store.CreateComment(ctx, comment); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "article or parent comment not found")
		}
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return comment, nil
}

// UpdateComment edits a comment body. Only the comment's author may edit it.
func (s *Service) UpdateComment(ctx context.Context, commentID, requesterID int64, req models.UpdateCommentRequest) (*models.Comment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	comment, err := s.getOwnComment(ctx, commentID, requesterID)
	if err != nil {
		return nil, err
	}

	comment.Content = req.Content
	comment.UpdatedAt = s.now().Unix()
	if err := s.store.UpdateComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("update comment: %w", err)
	}
	return comment, nil
}

// DeleteComment removes a comment. Only the comment's author may delete it.
func (s *Service) DeleteComment(ctx context.Context, commentID, requesterID int64) error {
	if _, err := s.getOwnComment(ctx, commentID, requesterID); err != nil {
		return err
	}
	if err := s.store.DeleteComment(ctx, commentID); err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	return nil
}

// React bumps the like or dislike counter on a comment.
func (s *Service) React(ctx context.Context, commentID int64, reaction store.Reaction) (*models.Comment, error) {
	if err := s.store.React(ctx, commentID, reaction); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "comment not found")
		}
		return nil, fmt.Errorf("react: %w", err)
	}
	comment, err := s.store.GetComment(ctx, commentID)
	if err != nil {
		return nil, fmt.Errorf("get comment: %w", err)
	}
	return comment, nil
}

func (s *Service) getOwnComment(ctx context.Context, commentID, requesterID int64) (*models.Comment, error) {
	comment, err := s.store.GetComment(ctx, commentID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "comment not found")
		}
		return nil, fmt.Errorf("get comment: %w", err)
	}
	if comment.AuthorID != requesterID {
		return nil, dErrors.New(dErrors.CodeBadRequest, "comment belongs to another user")
	}
	return comment, nil
}
