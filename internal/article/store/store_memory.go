package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"inkwell/internal/article/models"
	"inkwell/pkg/platform/sentinel"
)

// MemoryStore holds articles and comments in memory for tests/dev.
type MemoryStore struct {
	mu            sync.RWMutex
	articles      map[int64]models.Article
	comments      map[int64]models.Comment
	nextArticleID int64
	nextCommentID int64
}

// NewMemoryStore constructs an empty in-memory article store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		articles:      make(map[int64]models.Article),
		comments:      make(map[int64]models.Comment),
		nextArticleID: 1,
		nextCommentID: 1,
	}
}

func (s *MemoryStore) CreateArticle(_ context.Context, article *models.Article) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.articles {
		if existing.Slug == article.Slug {
			return fmt.Errorf("slug %q taken: %w", article.Slug, sentinel.ErrConflict)
		}
	}
	article.ID = s.nextArticleID
	s.nextArticleID++
	s.articles[article.ID] = *article
	return nil
}

func (s *MemoryStore) GetArticle(_ context.Context, id int64) (*models.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if a, ok := s.articles[id]; ok {
		out := a
		return &out, nil
	}
	return nil, fmt.Errorf("article %d: %w", id, sentinel.ErrNotFound)
}

func (s *MemoryStore) ListArticles(_ context.Context, limit, offset int) ([]models.Article, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := make([]models.Article, 0, len(s.articles))
	for _, a := range s.articles {
		all = append(all, a)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return paginate(all, limit, offset), len(all), nil
}

func (s *MemoryStore) UpdateArticle(_ context.Context, article *models.Article) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.articles[article.ID]; !ok {
		return fmt.Errorf("article %d: %w", article.ID, sentinel.ErrNotFound)
	}
	for id, existing := range s.articles {
		if id != article.ID && existing.Slug == article.Slug {
			return fmt.Errorf("slug %q taken: %w", article.Slug, sentinel.ErrConflict)
		}
	}
	s.articles[article.ID] = *article
	return nil
}

func (s *MemoryStore) DeleteArticle(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.articles[id]; !ok {
		return fmt.Errorf("article %d: %w", id, sentinel.ErrNotFound)
	}
	delete(s.articles, id)
	for cid, c := range s.comments {
		if c.ArticleID == id {
			delete(s.comments, cid)
		}
	}
	return nil
}

func (s *MemoryStore) CreateComment(_ context.Context, comment *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.articles[comment.ArticleID]; !ok {
		return fmt.Errorf("article %d: %w", comment.ArticleID, sentinel.ErrNotFound)
	}
	if comment.ParentCommentID != nil {
		if _, ok := s.comments[*comment.ParentCommentID]; !ok {
			return fmt.Errorf("comment %d: %w", *comment.ParentCommentID, sentinel.ErrNotFound)
		}
	}
	comment.ID = s.nextCommentID
	s.nextCommentID++
	s.comments[comment.ID] = *comment
	return nil
}

func (s *MemoryStore) GetComment(_ context.Context, id int64) (*models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.comments[id]; ok {
		out := c
		return &out, nil
	}
	return nil, fmt.Errorf("comment %d: %w", id, sentinel.ErrNotFound)
}

func (s *MemoryStore) RootComments(_ context.Context, articleID int64, limit, offset int) ([]models.Comment, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filterComments(func(c models.Comment) bool {
		return c.ArticleID == articleID && c.ParentCommentID == nil
	}, limit, offset)
}

func (s *MemoryStore) CommentAnswers(_ context.Context, commentID int64, limit, offset int) ([]models.Comment, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filterComments(func(c models.Comment) bool {
		return c.ParentCommentID != nil && *c.ParentCommentID == commentID
	}, limit, offset)
}

func (s *MemoryStore) filterComments(keep func(models.Comment) bool, limit, offset int) ([]models.Comment, int, error) {
	matched := make([]models.Comment, 0)
	for _, c := range s.comments {
		if keep(c) {
			matched = append(matched, c)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	return paginate(matched, limit, offset), len(matched), nil
}

func (s *MemoryStore) UpdateComment(_ context.Context, comment *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.comments[comment.ID]; !ok {
		return fmt.Errorf("comment %d: %w", comment.ID, sentinel.ErrNotFound)
	}
	s.comments[comment.ID] = *comment
	return nil
}

func (s *MemoryStore) DeleteComment(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.comments[id]; !ok {
		return fmt.Errorf("comment %d: %w", id, sentinel.ErrNotFound)
	}
	delete(s.comments, id)
	return nil
}

func (s *MemoryStore) React(_ context.Context, commentID int64, reaction Reaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[commentID]
	if !ok {
		return fmt.Errorf("comment %d: %w", commentID, sentinel.ErrNotFound)
	}
	switch reaction {
	case ReactionLike:
		c.Likes++
	case ReactionDislike:
		c.Dislikes++
	default:
		return fmt.Errorf("unknown reaction %q", reaction)
	}
	s.comments[commentID] = c
	return nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
