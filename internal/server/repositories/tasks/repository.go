package tasks

import (
	"context"

	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, task *models.Task) (*models.Task, error)
	GetByID(ctx context.Context, ownerID, id string) (*models.Task, error)
	Update(ctx context.Context, task *models.Task) (*models.Task, error)
	Delete(ctx context.Context, ownerID, id string) (*models.Task, error)
	DeleteByOwner(ctx context.Context, ownerID string) (int64, error)
	List(ctx context.Context, ownerID string, opts ListOptions) ([]*models.Task, error)
}
