package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"inkwell/internal/user/models"
	"inkwell/pkg/platform/sentinel"
)

func newUser(username, email string) *models.User {
	return &models.User{
		FirstName:      "Test",
		LastName:       "User",
		Username:       username,
		Email:          email,
		HashedPassword: "$2a$10$hash",
	}
}

func TestMemoryStoreCreateAssignsIDs(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	a := newUser("alice", "alice@example.com")
	b := newUser("bob", "bob@example.com")
	require.NoError(t, s.Create(ctx, a))
	require.NoError(t, s.Create(ctx, b))

	require.Equal(t, int64(1), a.ID)
	require.Equal(t, int64(2), b.ID)
}

func TestMemoryStoreCreateConflicts(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Create(ctx, newUser("alice", "alice@example.com")))

	err := s.Create(ctx, newUser("alice", "other@example.com"))
	require.ErrorIs(t, err, sentinel.ErrConflict)

	err = s.Create(ctx, newUser("other", "alice@example.com"))
	require.ErrorIs(t, err, sentinel.ErrConflict)
}

func TestMemoryStoreGetByID(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	u := newUser("alice", "alice@example.com")
	require.NoError(t, s.Create(ctx, u))

	got, err := s.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "alice", got.Username)

	_, err = s.GetByID(ctx, 999)
	require.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestMemoryStoreListPaginates(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Create(ctx, newUser("a", "a@example.com")))
	require.NoError(t, s.Create(ctx, newUser("b", "b@example.com")))
	require.NoError(t, s.Create(ctx, newUser("c", "c@example.com")))

	page, total, err := s.List(ctx, 2, 0)
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Len(t, page, 2)
	require.Equal(t, "a", page[0].Username)

	page, total, err = s.List(ctx, 2, 2)
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Len(t, page, 1)
	require.Equal(t, "c", page[0].Username)

	page, _, err = s.List(ctx, 2, 10)
	require.NoError(t, err)
	require.Empty(t, page)
}

func TestMemoryStoreUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	u := newUser("alice", "alice@example.com")
	require.NoError(t, s.Create(ctx, u))

	u.Email = "new@example.com"
	require.NoError(t, s.Update(ctx, u))
	got, err := s.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "new@example.com", got.Email)

	require.NoError(t, s.Delete(ctx, u.ID))
	require.ErrorIs(t, s.Delete(ctx, u.ID), sentinel.ErrNotFound)
	require.ErrorIs(t, s.Update(ctx, u), sentinel.ErrNotFound)
}

func TestMemoryStoreCredentials(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	u := newUser("alice", "alice@example.com")
	require.NoError(t, s.Create(ctx, u))

	creds, err := s.Credentials(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, u.ID, creds.ID)
	require.Equal(t, u.HashedPassword, creds.PasswordHash)

	_, err = s.Credentials(ctx, "nobody")
	require.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestMemoryStoreExists(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	u := newUser("alice", "alice@example.com")
	require.NoError(t, s.Create(ctx, u))

	ok, err := s.Exists(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.Exists(ctx, 42)
	require.NoError(t, err)
	require.False(t, ok)
}
