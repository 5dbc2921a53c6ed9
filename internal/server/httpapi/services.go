package httpapi

import (
	"context"
	"encoding/json"
	"io"

	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/taskkeeper/internal/server/services"
)

// UserService is what the user routes and the auth gate need.
type UserService interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.User, string, error)
	Login(ctx context.Context, email, password string) (*models.User, string, error)
	Authenticate(ctx context.Context, token string) (*models.User, error)
	Logout(ctx context.Context, userID, token string) error
	LogoutAll(ctx context.Context, userID string) error
	Update(ctx context.Context, user *models.User, patch map[string]json.RawMessage) (*models.User, error)
	Delete(ctx context.Context, user *models.User) error
}

type TaskService interface {
	Create(ctx context.Context, ownerID string, in services.TaskInput) (*models.Task, error)
	Get(ctx context.Context, ownerID, id string) (*models.Task, error)
	List(ctx context.Context, ownerID string, opts tasks.ListOptions) ([]*models.Task, error)
	Update(ctx context.Context, ownerID, id string, patch map[string]json.RawMessage) (*models.Task, error)
	Delete(ctx context.Context, ownerID, id string) (*models.Task, error)
}

type AvatarService interface {
	Upload(ctx context.Context, userID, filename string, size int64, r io.Reader) error
	Get(ctx context.Context, userID string) ([]byte, error)
	Delete(ctx context.Context, userID string) error
}

var (
	_ UserService   = (*services.UserService)(nil)
	_ TaskService   = (*services.TaskService)(nil)
	_ AvatarService = (*services.AvatarService)(nil)
)
