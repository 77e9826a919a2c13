package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"inkwell/internal/audit"
	"inkwell/internal/iam"
	"inkwell/internal/iam/graph"
	"inkwell/internal/iam/store/refreshtoken"
	"inkwell/internal/iam/token"
	"inkwell/internal/platform/metrics"
	"inkwell/internal/user/models"
	userstore "inkwell/internal/user/store"
	dErrors "inkwell/pkg/domain-errors"
)

type fixture struct {
	svc     *Service
	users   *userstore.MemoryStore
	refresh *refreshtoken.MemoryStore
	graph   *graph.Memory
	audit   *audit.MemoryPublisher
	clock   *fakeClock
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clock := &fakeClock{now: time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)}
	codec, err := token.NewCodec("test-signing-key", "HS256", 30*time.Minute, 24*time.Hour, token.WithClock(clock.Now))
	require.NoError(t, err)

	users := userstore.NewMemoryStore()
	refresh := refreshtoken.NewMemoryStore()
	g := graph.NewMemory()
	auditor := audit.NewMemoryPublisher()
	m := metrics.NewWith(prometheus.NewRegistry())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &fixture{
		svc:     NewService(codec, users, refresh, g, auditor, m, logger),
		users:   users,
		refresh: refresh,
		graph:   g,
		audit:   auditor,
		clock:   clock,
	}
}

func (f *fixture) addUser(t *testing.T, username, password string) int64 {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u := &models.User{
		Username:       username,
		Email:          username + "@example.com",
		HashedPassword: string(hash),
	}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u.ID
}

func TestLoginIssuesUsablePair(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.addUser(t, "ada", "correct horse")

	pair, err := f.svc.Login(ctx, "ada", "correct horse", "")
	require.NoError(t, err)
	require.Equal(t, "bearer", pair.TokenType)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.Greater(t, pair.RefreshTokenExpiresAt, pair.AccessTokenExpiresAt)

	// The refresh token is registered in the allow-list.
	member, err := f.refresh.Contains(ctx, id, pair.RefreshToken)
	require.NoError(t, err)
	require.True(t, member)

	// The access token authorizes.
	subject, err := f.svc.Authorize(ctx, pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, id, subject)
}

func TestLoginUniformErrorForUnknownUserAndWrongPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addUser(t, "ada", "correct horse")

	_, errUnknown := f.svc.Login(ctx, "nobody", "whatever", "")
	_, errWrongPw := f.svc.Login(ctx, "ada", "wrong", "")

	require.True(t, dErrors.HasCode(errUnknown, dErrors.CodeBadRequest))
	require.True(t, dErrors.HasCode(errWrongPw, dErrors.CodeBadRequest))
	require.Equal(t, dErrors.MessageOf(errUnknown), dErrors.MessageOf(errWrongPw))
}

func TestLoginPublishesAuditWithUserAgent(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "ada", "correct horse")

	ua := "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	_, err := f.svc.Login(context.Background(), "ada", "correct horse", ua)
	require.NoError(t, err)

	events := f.audit.Events()
	require.Len(t, events, 1)
	require.Equal(t, audit.ActionLogin, events[0].Action)
	require.Equal(t, "Chrome", events[0].Browser)
}

func TestRefreshRotatesAllowList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.addUser(t, "ada", "correct horse")

	pair, err := f.svc.Login(ctx, "ada", "correct horse", "")
	require.NoError(t, err)

	next, err := f.svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, pair.RefreshToken, next.RefreshToken)

	old, err := f.refresh.Contains(ctx, id, pair.RefreshToken)
	require.NoError(t, err)
	require.False(t, old, "consumed token must leave the allow-list")

	fresh, err := f.refresh.Contains(ctx, id, next.RefreshToken)
	require.NoError(t, err)
	require.True(t, fresh)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "ada", "correct horse")

	pair, err := f.svc.Login(context.Background(), "ada", "correct horse", "")
	require.NoError(t, err)

	_, err = f.svc.Refresh(context.Background(), pair.AccessToken)
	require.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	require.True(t, errors.Is(err, iam.ErrWrongTokenClass))
}

func TestRefreshRejectsRevokedToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.addUser(t, "ada", "correct horse")

	pair, err := f.svc.Login(ctx, "ada", "correct horse", "")
	require.NoError(t, err)

	// Logout elsewhere: the token is valid JWT-wise but off the allow-list.
	require.NoError(t, f.refresh.Remove(ctx, id, pair.RefreshToken))

	_, err = f.svc.Refresh(ctx, pair.RefreshToken)
	require.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	require.True(t, errors.Is(err, iam.ErrTokenRevoked))
}

func TestRefreshRejectsExpiredToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addUser(t, "ada", "correct horse")

	pair, err := f.svc.Login(ctx, "ada", "correct horse", "")
	require.NoError(t, err)

	f.clock.Advance(25 * time.Hour)

	_, err = f.svc.Refresh(ctx, pair.RefreshToken)
	require.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	require.True(t, errors.Is(err, iam.ErrRefreshTokenExpired))
}

func TestRefreshRejectsStaleSubject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.addUser(t, "ada", "correct horse")

	pair, err := f.svc.Login(ctx, "ada", "correct horse", "")
	require.NoError(t, err)

	require.NoError(t, f.users.Delete(ctx, id))

	_, err = f.svc.Refresh(ctx, pair.RefreshToken)
	require.True(t, dErrors.HasCode(err, dErrors.CodeUnprocessable))
	require.True(t, errors.Is(err, iam.ErrStaleSubject))
}

func TestConcurrentRefreshSingleWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addUser(t, "ada", "correct horse")

	pair, err := f.svc.Login(ctx, "ada", "correct horse", "")
	require.NoError(t, err)

	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.svc.Refresh(ctx, pair.RefreshToken)
		}()
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			require.True(t, errors.Is(err, iam.ErrTokenRevoked), "loser got %v", err)
		}
	}
	require.Equal(t, 1, winners, "exactly one concurrent rotation may succeed")
}

func TestAuthorizeRejectsExpiredAndStale(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.addUser(t, "ada", "correct horse")

	pair, err := f.svc.Login(ctx, "ada", "correct horse", "")
	require.NoError(t, err)

	f.clock.Advance(31 * time.Minute)
	_, err = f.svc.Authorize(ctx, pair.AccessToken)
	require.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	require.True(t, errors.Is(err, iam.ErrAccessTokenExpired))

	f.clock.Advance(-31 * time.Minute)
	require.NoError(t, f.users.Delete(ctx, id))
	_, err = f.svc.Authorize(ctx, pair.AccessToken)
	require.True(t, errors.Is(err, iam.ErrStaleSubject))
}

func TestAuthorizeRejectsRefreshTokenAsBearer(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "ada", "correct horse")

	pair, err := f.svc.Login(context.Background(), "ada", "correct horse", "")
	require.NoError(t, err)

	_, err = f.svc.Authorize(context.Background(), pair.RefreshToken)
	require.True(t, errors.Is(err, iam.ErrWrongTokenClass))
}

func seedGraph(t *testing.T, f *fixture) {
	t.Helper()
	ctx := context.Background()
	for _, group := range []string{"editor", "superadmin"} {
		require.NoError(t, f.graph.EnsureGroup(ctx, group))
	}
	for _, scope := range []string{"admin_users", "admin_posts", "admin_stats"} {
		require.NoError(t, f.graph.EnsureScope(ctx, scope))
	}
	require.NoError(t, f.graph.EnsureAllow(ctx, "editor", "admin_posts", "write"))
	require.NoError(t, f.graph.EnsureAllow(ctx, "superadmin", "admin_users", "write"))
	require.NoError(t, f.graph.EnsureAllow(ctx, "superadmin", "admin_posts", "write"))
}

func TestRequirePermissionFollowsGraph(t *testing.T) {
	f := newFixture(t)
	seedGraph(t, f)
	ctx := context.Background()
	id := f.addUser(t, "ada", "pw123456")

	err := f.svc.RequirePermission(ctx, id, iam.ScopeAdminPosts, iam.AccessWrite)
	require.True(t, errors.Is(err, iam.ErrPermissionDenied))
	require.True(t, dErrors.HasCode(err, dErrors.CodeUnprocessable))

	require.NoError(t, f.svc.AssignGroup(ctx, id, "editor"))
	require.NoError(t, f.svc.RequirePermission(ctx, id, iam.ScopeAdminPosts, iam.AccessWrite))

	// Editor has no grant on the users scope.
	err = f.svc.RequirePermission(ctx, id, iam.ScopeAdminUsers, iam.AccessWrite)
	require.True(t, errors.Is(err, iam.ErrPermissionDenied))
}

func TestAssignGroupRejectsUnknownName(t *testing.T) {
	f := newFixture(t)
	seedGraph(t, f)
	id := f.addUser(t, "ada", "pw123456")

	err := f.svc.AssignGroup(context.Background(), id, "wizards")
	require.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	err = f.svc.UnassignGroup(context.Background(), id, "wizards")
	require.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestUnassignGroupSeversPermission(t *testing.T) {
	f := newFixture(t)
	seedGraph(t, f)
	ctx := context.Background()
	id := f.addUser(t, "ada", "pw123456")

	require.NoError(t, f.svc.AssignGroup(ctx, id, "editor"))
	require.NoError(t, f.svc.RequirePermission(ctx, id, iam.ScopeAdminPosts, iam.AccessWrite))

	require.NoError(t, f.svc.UnassignGroup(ctx, id, "editor"))
	err := f.svc.RequirePermission(ctx, id, iam.ScopeAdminPosts, iam.AccessWrite)
	require.True(t, errors.Is(err, iam.ErrPermissionDenied))

	groups, err := f.svc.ListGroups(ctx, id)
	require.NoError(t, err)
	require.Empty(t, groups)
}

func TestGroupChangesAreAudited(t *testing.T) {
	f := newFixture(t)
	seedGraph(t, f)
	ctx := context.Background()
	id := f.addUser(t, "ada", "pw123456")

	require.NoError(t, f.svc.AssignGroup(ctx, id, "editor"))
	require.NoError(t, f.svc.UnassignGroup(ctx, id, "editor"))

	events := f.audit.Events()
	require.Len(t, events, 2)
	require.Equal(t, audit.ActionGroupAssigned, events[0].Action)
	require.Equal(t, audit.ActionGroupUnassigned, events[1].Action)
	require.Equal(t, "editor", events[0].Group)
}
