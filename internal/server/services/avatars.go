package services

import (
	"context"
	"io"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/imagex"
	"github.com/dmitrijs2005/taskkeeper/internal/server/storage/avatars"
)

// AvatarService turns uploads into 250x250 PNGs and keeps them in a Store.
type AvatarService struct {
	store avatars.Store
}

func NewAvatarService(store avatars.Store) *AvatarService {
	return &AvatarService{store: store}
}

// Upload checks name and size, normalizes the image and replaces any
// previous avatar of userID.
func (s *AvatarService) Upload(ctx context.Context, userID, filename string, size int64, r io.Reader) error {
	if err := imagex.CheckUpload(filename, size); err != nil {
		return err
	}

	png, err := imagex.ResizeToPNG(io.LimitReader(r, imagex.MaxUploadSize+1))
	if err != nil {
		return err
	}

	return s.store.Put(ctx, userID, png)
}

func (s *AvatarService) Get(ctx context.Context, userID string) ([]byte, error) {
	if !validID(userID) {
		return nil, common.ErrorNotFound
	}
	return s.store.Get(ctx, userID)
}

func (s *AvatarService) Delete(ctx context.Context, userID string) error {
	return s.store.Delete(ctx, userID)
}
