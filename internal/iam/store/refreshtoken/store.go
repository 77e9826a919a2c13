// Package refreshtoken maintains the per-user allow-list of currently valid
// refresh tokens. A refresh token is usable only while it is a member of its
// owner's set; rotation atomically swaps the consumed token for the new one.
package refreshtoken

import "context"

// Error Contract:
// - Rotate returns sentinel.ErrAlreadyUsed when oldToken is not (or no
//   longer) a member, including when a concurrent rotation won the race.
// - All other errors are wrapped infrastructure failures.
type Store interface {
	// Add inserts token into the user's set. Idempotent.
	Add(ctx context.Context, userID int64, token string) error
	// Contains reports set membership.
	Contains(ctx context.Context, userID int64, token string) (bool, error)
	// Remove deletes token from the set. No-op if absent.
	Remove(ctx context.Context, userID int64, token string) error
	// Rotate atomically removes oldToken and inserts newToken. At most one
	// concurrent rotation presenting the same oldToken can succeed.
	Rotate(ctx context.Context, userID int64, oldToken, newToken string) error
}
