package refreshtoken

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"inkwell/pkg/platform/sentinel"
)

var rotateDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "inkwell_refresh_token_rotate_duration_ms",
	Help:    "Latency of refresh token rotations in milliseconds",
	Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
})

// Redis key prefix for per-user refresh token allow-lists.
const allowListKeyPrefix = "rtl:user:"

func allowListKey(userID int64) string {
	return allowListKeyPrefix + strconv.FormatInt(userID, 10)
}

// RedisStore is the production allow-list backed by a Redis SET per user.
// Membership carries no TTL of its own: an expired-but-present token fails
// decode-time expiry checks before the set is ever consulted.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore constructs a Redis-backed allow-list store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Add(ctx context.Context, userID int64, token string) error {
	if err := s.client.SAdd(ctx, allowListKey(userID), token).Err(); err != nil {
		return fmt.Errorf("sadd refresh token: %w", err)
	}
	return nil
}

func (s *RedisStore) Contains(ctx context.Context, userID int64, token string) (bool, error) {
	member, err := s.client.SIsMember(ctx, allowListKey(userID), token).Result()
	if err != nil {
		return false, fmt.Errorf("sismember refresh token: %w", err)
	}
	return member, nil
}

func (s *RedisStore) Remove(ctx context.Context, userID int64, token string) error {
	if err := s.client.SRem(ctx, allowListKey(userID), token).Err(); err != nil {
		return fmt.Errorf("srem refresh token: %w", err)
	}
	return nil
}

// Rotate swaps oldToken for newToken under an optimistic WATCH on the user's
// set. If another rotation touches the key between the membership check and
// the transactional pipeline, the transaction fails and the caller sees
// sentinel.ErrAlreadyUsed, which is exactly the replay answer.
func (s *RedisStore) Rotate(ctx context.Context, userID int64, oldToken, newToken string) error {
	start := time.Now()
	defer func() {
		rotateDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	key := allowListKey(userID)
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		member, err := tx.SIsMember(ctx, key, oldToken).Result()
		if err != nil {
			return err
		}
		if !member {
			return sentinel.ErrAlreadyUsed
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.SRem(ctx, key, oldToken)
			pipe.SAdd(ctx, key, newToken)
			return nil
		})
		return err
	}, key)

	if errors.Is(err, redis.TxFailedErr) {
		return sentinel.ErrAlreadyUsed
	}
	if errors.Is(err, sentinel.ErrAlreadyUsed) {
		return sentinel.ErrAlreadyUsed
	}
	if err != nil {
		return fmt.Errorf("rotate refresh token: %w", err)
	}
	return nil
}
