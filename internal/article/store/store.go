// Package store persists articles, their tags, and reader comments.
package store

import (
	"context"

	"inkwell/internal/article/models"
)

// Reaction is a counter bump on a comment.
type Reaction string

const (
	ReactionLike    Reaction = "like"
	ReactionDislike Reaction = "dislike"
)

// Error Contract:
// - Return sentinel.ErrNotFound when the article or comment does not exist
// - Return sentinel.ErrConflict on slug uniqueness collisions
// - Return wrapped errors with context for infrastructure failures
type Store interface {
	CreateArticle(ctx context.Context, article *models.Article) error
	GetArticle(ctx context.Context, id int64) (*models.Article, error)
	ListArticles(ctx context.Context, limit, offset int) ([]models.Article, int, error)
	UpdateArticle(ctx context.Context, article *models.Article) error
	DeleteArticle(ctx context.Context, id int64) error

	CreateComment(ctx context.Context, comment *models.Comment) error
	GetComment(ctx context.Context, id int64) (*models.Comment, error)
	// RootComments lists top-level comments of an article, oldest first.
	RootComments(ctx context.Context, articleID int64, limit, offset int) ([]models.Comment, int, error)
	// CommentAnswers lists direct replies to a comment, oldest first.
	CommentAnswers(ctx context.Context, commentID int64, limit, offset int) ([]models.Comment, int, error)
	UpdateComment(ctx context.Context, comment *models.Comment) error
	DeleteComment(ctx context.Context, id int64) error
	// React bumps the like or dislike counter.
	React(ctx context.Context, commentID int64, reaction Reaction) error
}
