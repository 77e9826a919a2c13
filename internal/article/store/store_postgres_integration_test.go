//go:build integration

package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"inkwell/internal/article/models"
	"inkwell/internal/article/store"
	"inkwell/pkg/platform/sentinel"
	"inkwell/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	pg       *containers.PostgresContainer
	store    *store.PostgresStore
	authorID int64
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T(), "../../../migrations")
	s.store = store.NewPostgresStore(s.pg.Pool)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	_, err := s.pg.Pool.Exec(ctx, `TRUNCATE users RESTART IDENTITY CASCADE`)
	s.Require().NoError(err)

	err = s.pg.Pool.QueryRow(ctx, `
		INSERT INTO users (username, email, hashed_password)
		VALUES ('author', 'author@example.com', 'hash')
		RETURNING id
	`).Scan(&s.authorID)
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) makeArticle(slug string, tags ...string) *models.Article {
	return &models.Article{
		Title:     "Title",
		Slug:      slug,
		Subtitle:  "Subtitle",
		Content:   "Body",
		AuthorID:  s.authorID,
		Tags:      tags,
		CreatedAt: 1700000000,
		UpdatedAt: 1700000000,
	}
}

func (s *PostgresStoreSuite) TestCreateRoundTripsTags() {
	ctx := context.Background()
	a := s.makeArticle("title-1", "go", "backend")

	s.Require().NoError(s.store.CreateArticle(ctx, a))
	s.Positive(a.ID)

	got, err := s.store.GetArticle(ctx, a.ID)
	s.Require().NoError(err)
	s.Equal(a.Slug, got.Slug)
	s.Equal([]string{"backend", "go"}, got.Tags, "tags come back sorted")
}

func (s *PostgresStoreSuite) TestTagsSharedAcrossArticles() {
	ctx := context.Background()
	s.Require().NoError(s.store.CreateArticle(ctx, s.makeArticle("title-1", "go")))
	s.Require().NoError(s.store.CreateArticle(ctx, s.makeArticle("title-2", "go", "redis")))

	var tagCount int
	err := s.pg.Pool.QueryRow(ctx, `SELECT count(*) FROM tags`).Scan(&tagCount)
	s.Require().NoError(err)
	s.Equal(2, tagCount, "tag names are unique rows")
}

func (s *PostgresStoreSuite) TestDuplicateSlugConflicts() {
	ctx := context.Background()
	s.Require().NoError(s.store.CreateArticle(ctx, s.makeArticle("same-slug")))
	s.ErrorIs(s.store.CreateArticle(ctx, s.makeArticle("same-slug")), sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestUpdateReplacesTags() {
	ctx := context.Background()
	a := s.makeArticle("title-1", "go", "backend")
	s.Require().NoError(s.store.CreateArticle(ctx, a))

	a.Content = "Edited"
	a.Tags = []string{"databases"}
	a.UpdatedAt = 1700000100
	s.Require().NoError(s.store.UpdateArticle(ctx, a))

	got, err := s.store.GetArticle(ctx, a.ID)
	s.Require().NoError(err)
	s.Equal("Edited", got.Content)
	s.Equal([]string{"databases"}, got.Tags)
	s.Equal(int64(1700000100), got.UpdatedAt)
}

func (s *PostgresStoreSuite) TestListArticles() {
	ctx := context.Background()
	s.Require().NoError(s.store.CreateArticle(ctx, s.makeArticle("title-1", "go")))
	s.Require().NoError(s.store.CreateArticle(ctx, s.makeArticle("title-2")))
	s.Require().NoError(s.store.CreateArticle(ctx, s.makeArticle("title-3")))

	articles, total, err := s.store.ListArticles(ctx, 2, 0)
	s.Require().NoError(err)
	s.Equal(3, total)
	s.Len(articles, 2)
	s.Equal("title-1", articles[0].Slug)
}

func (s *PostgresStoreSuite) TestDeleteCascadesComments() {
	ctx := context.Background()
	a := s.makeArticle("title-1")
	s.Require().NoError(s.store.CreateArticle(ctx, a))

	c := &models.Comment{ArticleID: a.ID, AuthorID: s.authorID, Content: "first",
		CreatedAt: 1700000000, UpdatedAt: 1700000000}
	s.Require().NoError(s.store.CreateComment(ctx, c))

	s.Require().NoError(s.store.DeleteArticle(ctx, a.ID))
	_, err := s.store.GetComment(ctx, c.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestCommentThreading() {
	ctx := context.Background()
	a := s.makeArticle("title-1")
	s.Require().NoError(s.store.CreateArticle(ctx, a))

	root := &models.Comment{ArticleID: a.ID, AuthorID: s.authorID, Content: "root",
		CreatedAt: 1, UpdatedAt: 1}
	s.Require().NoError(s.store.CreateComment(ctx, root))

	answer := &models.Comment{ArticleID: a.ID, AuthorID: s.authorID, Content: "answer",
		ParentCommentID: &root.ID, CreatedAt: 2, UpdatedAt: 2}
	s.Require().NoError(s.store.CreateComment(ctx, answer))

	roots, total, err := s.store.RootComments(ctx, a.ID, 10, 0)
	s.Require().NoError(err)
	s.Equal(1, total)
	s.Equal("root", roots[0].Content)

	answers, total, err := s.store.CommentAnswers(ctx, root.ID, 10, 0)
	s.Require().NoError(err)
	s.Equal(1, total)
	s.Equal("answer", answers[0].Content)
}

func (s *PostgresStoreSuite) TestCommentOnMissingArticle() {
	c := &models.Comment{ArticleID: 404, AuthorID: s.authorID, Content: "orphan",
		CreatedAt: 1, UpdatedAt: 1}
	s.ErrorIs(s.store.CreateComment(context.Background(), c), sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestReactCounts() {
	ctx := context.Background()
	a := s.makeArticle("title-1")
	s.Require().NoError(s.store.CreateArticle(ctx, a))

	c := &models.Comment{ArticleID: a.ID, AuthorID: s.authorID, Content: "hot take",
		CreatedAt: 1, UpdatedAt: 1}
	s.Require().NoError(s.store.CreateComment(ctx, c))

	s.Require().NoError(s.store.React(ctx, c.ID, store.ReactionLike))
	s.Require().NoError(s.store.React(ctx, c.ID, store.ReactionLike))
	s.Require().NoError(s.store.React(ctx, c.ID, store.ReactionDislike))

	got, err := s.store.GetComment(ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(2, got.Likes)
	s.Equal(1, got.Dislikes)

	s.ErrorIs(s.store.React(ctx, 404, store.ReactionLike), sentinel.ErrNotFound)
}
