package models

import (
	"strings"

	dErrors "inkwell/pkg/domain-errors"
	xstrings "inkwell/pkg/platform/strings"
)

// Article is a published piece with its tag names denormalized onto it.
type Article struct {
	ID         int64    `json:"id"`
	Title      string   `json:"title"`
	Slug       string   `json:"slug"`
	Subtitle   string   `json:"subtitle"`
	CoverImage string   `json:"cover_image"`
	Content    string   `json:"content"`
	AuthorID   int64    `json:"author_id"`
	Tags       []string `json:"tags"`
	CreatedAt  int64    `json:"created_at"`
	UpdatedAt  int64    `json:"updated_at"`
}

// CreateArticleRequest is the POST /articles payload. The slug is derived
// server-side from the title, never client-supplied.
type CreateArticleRequest struct {
	Title      string   `json:"title"`
	Subtitle   string   `json:"subtitle"`
	CoverImage string   `json:"cover_image"`
	Content    string   `json:"content"`
	Tags       []string `json:"tags"`
}

func (r *CreateArticleRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Subtitle = strings.TrimSpace(r.Subtitle)
	r.Tags = xstrings.DedupeAndTrimLower(r.Tags)
}

func (r *CreateArticleRequest) Validate() error {
	switch {
	case r.Title == "":
		return dErrors.New(dErrors.CodeValidation, "title is required")
	case len(r.Title) > 128:
		return dErrors.New(dErrors.CodeValidation, "title must be at most 128 characters")
	case len(r.Subtitle) > 128:
		return dErrors.New(dErrors.CodeValidation, "subtitle must be at most 128 characters")
	case r.Content == "":
		return dErrors.New(dErrors.CodeValidation, "content is required")
	}
	for _, tag := range r.Tags {
		if tag == "" || len(tag) > 32 {
			return dErrors.New(dErrors.CodeValidation, "tags must be 1-32 characters")
		}
	}
	return nil
}

// Comment is a reader comment, threaded one level deep through
// ParentCommentID.
type Comment struct {
	ID              int64  `json:"id"`
	ArticleID       int64  `json:"article_id"`
	AuthorID        int64  `json:"author_id"`
	Content         string `json:"content"`
	Likes           int    `json:"likes"`
	Dislikes        int    `json:"dislikes"`
	ParentCommentID *int64 `json:"parent_comment_id,omitempty"`
	CreatedAt       int64  `json:"created_at"`
	UpdatedAt       int64  `json:"updated_at"`
}

// CreateCommentRequest is the POST comments payload. A nil parent makes a
// root comment.
type CreateCommentRequest struct {
	ParentCommentID *int64 `json:"parent_comment_id"`
	Content         string `json:"content"`
}

func (r *CreateCommentRequest) Validate() error {
	if strings.TrimSpace(r.Content) == "" {
		return dErrors.New(dErrors.CodeValidation, "content is required")
	}
	return nil
}

// UpdateCommentRequest replaces the comment body.
type UpdateCommentRequest struct {
	Content string `json:"content"`
}

func (r *UpdateCommentRequest) Validate() error {
	if strings.TrimSpace(r.Content) == "" {
		return dErrors.New(dErrors.CodeValidation, "content is required")
	}
	return nil
}
