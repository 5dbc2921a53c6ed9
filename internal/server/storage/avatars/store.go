// Package avatars stores the normalized PNG avatar of each user.
package avatars

import "context"

// Store keeps at most one avatar per user. Put replaces, Delete is idempotent
// and Get reports common.ErrorNotFound when nothing is stored.
type Store interface {
	Put(ctx context.Context, userID string, png []byte) error
	Get(ctx context.Context, userID string) ([]byte, error)
	Delete(ctx context.Context, userID string) error
}
