package service

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"inkwell/internal/article/models"
	"inkwell/internal/article/store"
	"inkwell/internal/platform/metrics"
	dErrors "inkwell/pkg/domain-errors"
	"inkwell/pkg/pagination"
)

func newService(now time.Time) *Service {
	return NewService(
		store.NewMemoryStore(),
		metrics.NewWith(prometheus.NewRegistry()),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		WithClock(func() time.Time { return now }),
	)
}

func validArticle() models.CreateArticleRequest {
	return models.CreateArticleRequest{
		Title:      "Go Beyond the Basics",
		Subtitle:   "Patterns that scale",
		CoverImage: "covers/go.png",
		Content:    "body text",
		Tags:       []string{"Go", "patterns"},
	}
}

func TestCreateArticleDerivesSlugAndTimestamps(t *testing.T) {
	now := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	svc := newService(now)

	article, err := svc.CreateArticle(context.Background(), 7, validArticle())
	require.NoError(t, err)
	require.NotZero(t, article.ID)
	require.Equal(t, int64(7), article.AuthorID)
	require.Equal(t, now.Unix(), article.CreatedAt)
	require.Equal(t, now.Unix(), article.UpdatedAt)
	require.Equal(t, "go-beyond-the-basics-"+strconv.FormatInt(now.Unix(), 10), article.Slug)
}

func TestCreateArticleSlugEmbedsTimestamp(t *testing.T) {
	now := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	svc := newService(now)

	article, err := svc.CreateArticle(context.Background(), 7, validArticle())
	require.NoError(t, err)
	require.Contains(t, article.Slug, "go-beyond-the-basics-")
}

func TestCreateArticleLowercasesTags(t *testing.T) {
	svc := newService(time.Now())

	article, err := svc.CreateArticle(context.Background(), 7, validArticle())
	require.NoError(t, err)
	require.Equal(t, []string{"go", "patterns"}, article.Tags)
}

func TestCreateArticleValidation(t *testing.T) {
	svc := newService(time.Now())

	req := validArticle()
	req.Title = ""
	_, err := svc.CreateArticle(context.Background(), 7, req)
	require.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	req = validArticle()
	req.Content = ""
	_, err = svc.CreateArticle(context.Background(), 7, req)
	require.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestUpdateArticleReslugs(t *testing.T) {
	svc := newService(time.Now())
	ctx := context.Background()

	article, err := svc.CreateArticle(ctx, 7, validArticle())
	require.NoError(t, err)

	req := validArticle()
	req.Title = "A Different Title"
	updated, err := svc.UpdateArticle(ctx, article.ID, req)
	require.NoError(t, err)
	require.Contains(t, updated.Slug, "a-different-title-")
	require.Equal(t, article.AuthorID, updated.AuthorID)
}

func TestDeleteArticleCascades(t *testing.T) {
	svc := newService(time.Now())
	ctx := context.Background()

	article, err := svc.CreateArticle(ctx, 7, validArticle())
	require.NoError(t, err)
	_, err = svc.CreateComment(ctx, article.ID, 9, models.CreateCommentRequest{Content: "nice"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteArticle(ctx, article.ID))
	_, err = svc.GetArticle(ctx, article.ID)
	require.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestCommentThreading(t *testing.T) {
	svc := newService(time.Now())
	ctx := context.Background()

	article, err := svc.CreateArticle(ctx, 7, validArticle())
	require.NoError(t, err)

	root, err := svc.CreateComment(ctx, article.ID, 9, models.CreateCommentRequest{Content: "first"})
	require.NoError(t, err)
	_, err = svc.CreateComment(ctx, article.ID, 10, models.CreateCommentRequest{
		Content: "reply", ParentCommentID: &root.ID,
	})
	require.NoError(t, err)

	roots, err := svc.RootComments(ctx, article.ID, pagination.Page{Limit: 10})
	require.NoError(t, err)
	require.Equal(t, 1, roots.Total)
	require.Equal(t, "first", roots.Items[0].Content)

	answers, err := svc.CommentAnswers(ctx, root.ID, pagination.Page{Limit: 10})
	require.NoError(t, err)
	require.Equal(t, 1, answers.Total)
	require.Equal(t, "reply", answers.Items[0].Content)
}

func TestCommentOnMissingArticle(t *testing.T) {
	svc := newService(time.Now())

	_, err := svc.CreateComment(context.Background(), 404, 9, models.CreateCommentRequest{Content: "hi"})
	require.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestCommentEditOnlyByAuthor(t *testing.T) {
	svc := newService(time.Now())
	ctx := context.Background()

	article, err := svc.CreateArticle(ctx, 7, validArticle())
	require.NoError(t, err)
	comment, err := svc.CreateComment(ctx, article.ID, 9, models.CreateCommentRequest{Content: "mine"})
	require.NoError(t, err)

	_, err = svc.UpdateComment(ctx, comment.ID, 10, models.UpdateCommentRequest{Content: "hijack"})
	require.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))

	err = svc.DeleteComment(ctx, comment.ID, 10)
	require.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))

	updated, err := svc.UpdateComment(ctx, comment.ID, 9, models.UpdateCommentRequest{Content: "edited"})
	require.NoError(t, err)
	require.Equal(t, "edited", updated.Content)

	require.NoError(t, svc.DeleteComment(ctx, comment.ID, 9))
}

func TestReactCountsLikesAndDislikes(t *testing.T) {
	svc := newService(time.Now())
	ctx := context.Background()

	article, err := svc.CreateArticle(ctx, 7, validArticle())
	require.NoError(t, err)
	comment, err := svc.CreateComment(ctx, article.ID, 9, models.CreateCommentRequest{Content: "hot take"})
	require.NoError(t, err)

	_, err = svc.React(ctx, comment.ID, store.ReactionLike)
	require.NoError(t, err)
	_, err = svc.React(ctx, comment.ID, store.ReactionLike)
	require.NoError(t, err)
	got, err := svc.React(ctx, comment.ID, store.ReactionDislike)
	require.NoError(t, err)

	require.Equal(t, 2, got.Likes)
	require.Equal(t, 1, got.Dislikes)

	_, err = svc.React(ctx, 404, store.ReactionLike)
	require.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}
