package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"inkwell/internal/article/models"
	"inkwell/pkg/platform/sentinel"
)

// PostgresStore is the production article store. Tags are normalized into a
// tags table with an m2m join; reads aggregate them back onto the article.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs an article store over a pgx pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const uniqueViolation = "23505"

func translateError(err error, context string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w", context, sentinel.ErrConflict)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", context, sentinel.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", context, err)
}

const articleColumns = `
	a.id, a.title, a.slug, a.subtitle, a.cover_image, a.content, a.author_id,
	a.created_at, a.updated_at,
	coalesce(array_agg(t.name ORDER BY t.name) FILTER (WHERE t.name IS NOT NULL), '{}')
`

const articleJoins = `
	FROM articles a
	LEFT JOIN articles_to_tags att ON att.article_id = a.id
	LEFT JOIN tags t ON t.id = att.tag_id
`

func scanArticle(row pgx.Row) (*models.Article, error) {
	var a models.Article
	err := row.Scan(&a.ID, &a.Title, &a.Slug, &a.Subtitle, &a.CoverImage, &a.Content,
		&a.AuthorID, &a.CreatedAt, &a.UpdatedAt, &a.Tags)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *PostgresStore) CreateArticle(ctx context.Context, article *models.Article) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO articles (title, slug, subtitle, cover_image, content, author_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, article.Title, article.Slug, article.Subtitle, article.CoverImage, article.Content,
		article.AuthorID, article.CreatedAt, article.UpdatedAt).Scan(&article.ID)
	if err != nil {
		return translateError(err, "create article")
	}

	if err := linkTags(ctx, tx, article.ID, article.Tags); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func linkTags(ctx context.Context, tx pgx.Tx, articleID int64, tags []string) error {
	for _, tag := range tags {
		var tagID int64
		err := tx.QueryRow(ctx, `
			INSERT INTO tags (name) VALUES ($1)
			ON CONFLICT (name) DO UPDATE SET name = excluded.name
			RETURNING id
		`, tag).Scan(&tagID)
		if err != nil {
			return fmt.Errorf("upsert tag %q: %w", tag, err)
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO articles_to_tags (article_id, tag_id) VALUES ($1, $2)
		`, articleID, tagID); err != nil {
			return fmt.Errorf("link tag %q: %w", tag, err)
		}
	}
	return nil
}

func (s *PostgresStore) GetArticle(ctx context.Context, id int64) (*models.Article, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+articleColumns+articleJoins+` WHERE a.id = $1 GROUP BY a.id`, id)
	a, err := scanArticle(row)
	if err != nil {
		return nil, translateError(err, "get article")
	}
	return a, nil
}

func (s *PostgresStore) ListArticles(ctx context.Context, limit, offset int) ([]models.Article, int, error) {
	var total int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM articles`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count articles: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+articleColumns+articleJoins+` GROUP BY a.id ORDER BY a.id LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()

	articles := make([]models.Article, 0, limit)
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan article: %w", err)
		}
		articles = append(articles, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list articles: %w", err)
	}
	return articles, total, nil
}

func (s *PostgresStore) UpdateArticle(ctx context.Context, article *models.Article) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE articles
		SET title = $2, slug = $3, subtitle = $4, cover_image = $5, content = $6, updated_at = $7
		WHERE id = $1
	`, article.ID, article.Title, article.Slug, article.Subtitle, article.CoverImage,
		article.Content, article.UpdatedAt)
	if err != nil {
		return translateError(err, "update article")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update article %d: %w", article.ID, sentinel.ErrNotFound)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM articles_to_tags WHERE article_id = $1`, article.ID); err != nil {
		return fmt.Errorf("unlink tags: %w", err)
	}
	if err := linkTags(ctx, tx, article.ID, article.Tags); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteArticle(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM articles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete article: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete article %d: %w", id, sentinel.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) CreateComment(ctx context.Context, comment *models.Comment) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO comments (article_id, author_id, content, likes, dislikes, parent_comment_id, created_at, updated_at)
		VALUES ($1, $2, $3, 0, 0, $4, $5, $6)
		RETURNING id
	`, comment.ArticleID, comment.AuthorID, comment.Content, comment.ParentCommentID,
		comment.CreatedAt, comment.UpdatedAt).Scan(&comment.ID)
	if err != nil {
		// FK violations mean the article or parent comment vanished.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return fmt.Errorf("create comment: %w", sentinel.ErrNotFound)
		}
		return translateError(err, "create comment")
	}
	return nil
}

const commentColumns = `
	id, article_id, author_id, content, likes, dislikes, parent_comment_id, created_at, updated_at
`

func scanComment(row pgx.Row) (*models.Comment, error) {
	var c models.Comment
	err := row.Scan(&c.ID, &c.ArticleID, &c.AuthorID, &c.Content, &c.Likes, &c.Dislikes,
		&c.ParentCommentID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *PostgresStore) GetComment(ctx context.Context, id int64) (*models.Comment, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+commentColumns+` FROM comments WHERE id = $1`, id)
	c, err := scanComment(row)
	if err != nil {
		return nil, translateError(err, "get comment")
	}
	return c, nil
}

func (s *PostgresStore) RootComments(ctx context.Context, articleID int64, limit, offset int) ([]models.Comment, int, error) {
	return s.listComments(ctx,
		`article_id = $1 AND parent_comment_id IS NULL`, articleID, limit, offset)
}

func (s *PostgresStore) CommentAnswers(ctx context.Context, commentID int64, limit, offset int) ([]models.Comment, int, error) {
	return s.listComments(ctx, `parent_comment_id = $1`, commentID, limit, offset)
}

func (s *PostgresStore) listComments(ctx context.Context, where string, key int64, limit, offset int) ([]models.Comment, int, error) {
	var total int
	if err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM comments WHERE `+where, key).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count comments: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+commentColumns+` FROM comments WHERE `+where+` ORDER BY id LIMIT $2 OFFSET $3`,
		key, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	comments := make([]models.Comment, 0, limit)
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list comments: %w", err)
	}
	return comments, total, nil
}

func (s *PostgresStore) UpdateComment(ctx context.Context, comment *models.Comment) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE comments SET content = $2, updated_at = $3 WHERE id = $1
	`, comment.ID, comment.Content, comment.UpdatedAt)
	if err != nil {
		return translateError(err, "update comment")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update comment %d: %w", comment.ID, sentinel.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) DeleteComment(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete comment %d: %w", id, sentinel.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) React(ctx context.Context, commentID int64, reaction Reaction) error {
	column := "likes"
	if reaction == ReactionDislike {
		column = "dislikes"
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE comments SET `+column+` = `+column+` + 1 WHERE id = $1`, commentID)
	if err != nil {
		return fmt.Errorf("react to comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("react to comment %d: %w", commentID, sentinel.ErrNotFound)
	}
	return nil
}
