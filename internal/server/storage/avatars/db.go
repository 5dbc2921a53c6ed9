package avatars

import (
	"context"

	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/users"
)

// DBStore keeps the avatar in the avatar column of the user row.
type DBStore struct {
	users users.Repository
}

func NewDBStore(repo users.Repository) *DBStore {
	return &DBStore{users: repo}
}

func (s *DBStore) Put(ctx context.Context, userID string, png []byte) error {
	return s.users.SetAvatar(ctx, userID, png)
}

func (s *DBStore) Get(ctx context.Context, userID string) ([]byte, error) {
	return s.users.GetAvatar(ctx, userID)
}

func (s *DBStore) Delete(ctx context.Context, userID string) error {
	return s.users.SetAvatar(ctx, userID, nil)
}
