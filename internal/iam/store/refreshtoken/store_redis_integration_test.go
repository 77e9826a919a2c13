//go:build integration

package refreshtoken_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/suite"

	"inkwell/internal/iam/store/refreshtoken"
	"inkwell/pkg/platform/sentinel"
	"inkwell/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *refreshtoken.RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.store = refreshtoken.NewRedisStore(s.redis.Client)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreSuite) TestAddContainsRemove() {
	ctx := context.Background()

	ok, err := s.store.Contains(ctx, 1, "tok-a")
	s.Require().NoError(err)
	s.False(ok)

	s.Require().NoError(s.store.Add(ctx, 1, "tok-a"))
	ok, err = s.store.Contains(ctx, 1, "tok-a")
	s.Require().NoError(err)
	s.True(ok)

	// membership is per user
	ok, err = s.store.Contains(ctx, 2, "tok-a")
	s.Require().NoError(err)
	s.False(ok)

	s.Require().NoError(s.store.Remove(ctx, 1, "tok-a"))
	ok, err = s.store.Contains(ctx, 1, "tok-a")
	s.Require().NoError(err)
	s.False(ok)
}

func (s *RedisStoreSuite) TestRotateSwapsMembership() {
	ctx := context.Background()
	s.Require().NoError(s.store.Add(ctx, 7, "old"))

	s.Require().NoError(s.store.Rotate(ctx, 7, "old", "new"))

	ok, err := s.store.Contains(ctx, 7, "old")
	s.Require().NoError(err)
	s.False(ok, "consumed token must leave the set")

	ok, err = s.store.Contains(ctx, 7, "new")
	s.Require().NoError(err)
	s.True(ok, "replacement token must be a member")
}

func (s *RedisStoreSuite) TestRotateUnknownTokenAlreadyUsed() {
	ctx := context.Background()

	err := s.store.Rotate(ctx, 7, "never-added", "new")
	s.ErrorIs(err, sentinel.ErrAlreadyUsed)

	// Second rotation of a consumed token fails the same way.
	s.Require().NoError(s.store.Add(ctx, 7, "old"))
	s.Require().NoError(s.store.Rotate(ctx, 7, "old", "new"))
	err = s.store.Rotate(ctx, 7, "old", "newer")
	s.ErrorIs(err, sentinel.ErrAlreadyUsed)
}

func (s *RedisStoreSuite) TestConcurrentRotateSingleWinner() {
	ctx := context.Background()
	s.Require().NoError(s.store.Add(ctx, 9, "contested"))

	const goroutines = 20
	var wg sync.WaitGroup
	var winners atomic.Int32
	var replays atomic.Int32
	var unexpected atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			err := s.store.Rotate(ctx, 9, "contested", fmt.Sprintf("fresh-%d", n))
			switch {
			case err == nil:
				winners.Add(1)
			case errors.Is(err, sentinel.ErrAlreadyUsed):
				replays.Add(1)
			default:
				unexpected.Add(1)
			}
		}(i)
	}
	wg.Wait()

	s.Equal(int32(1), winners.Load(), "exactly one rotation may win")
	s.Equal(int32(goroutines-1), replays.Load(), "losers must see the replay error")
	s.Equal(int32(0), unexpected.Load())
}

func (s *RedisStoreSuite) TestRotateIsolatedPerUser() {
	ctx := context.Background()
	s.Require().NoError(s.store.Add(ctx, 1, "shared-string"))
	s.Require().NoError(s.store.Add(ctx, 2, "shared-string"))

	s.Require().NoError(s.store.Rotate(ctx, 1, "shared-string", "u1-new"))

	// User 2's copy is untouched.
	ok, err := s.store.Contains(ctx, 2, "shared-string")
	s.Require().NoError(err)
	s.True(ok)
}
