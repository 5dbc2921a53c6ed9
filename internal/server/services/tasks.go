package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/tasks"
	"github.com/google/uuid"
)

// TaskInput is the payload of a task creation.
type TaskInput struct {
	Description string
	Completed   bool
}

// TaskService manages the tasks of one owner at a time. A task owned by
// somebody else is reported as common.ErrorNotFound.
type TaskService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewTaskService(db *sql.DB, m repomanager.RepositoryManager) *TaskService {
	return &TaskService{db: db, repomanager: m}
}

func (s *TaskService) repo() tasks.Repository {
	return s.repomanager.Tasks(s.db)
}

func (s *TaskService) Create(ctx context.Context, ownerID string, in TaskInput) (*models.Task, error) {
	desc := strings.TrimSpace(in.Description)
	if desc == "" {
		return nil, common.NewValidationError("description is required")
	}
	return s.repo().Create(ctx, &models.Task{OwnerID: ownerID, Description: desc, Completed: in.Completed})
}

func (s *TaskService) Get(ctx context.Context, ownerID, id string) (*models.Task, error) {
	if !validID(id) {
		return nil, common.ErrorNotFound
	}
	return s.repo().GetByID(ctx, ownerID, id)
}

func (s *TaskService) List(ctx context.Context, ownerID string, opts tasks.ListOptions) ([]*models.Task, error) {
	return s.repo().List(ctx, ownerID, opts)
}

// Update applies a partial update restricted to description and completed.
// Key checking happens before the task is even looked up.
func (s *TaskService) Update(ctx context.Context, ownerID, id string, patch map[string]json.RawMessage) (*models.Task, error) {
	if err := checkPatchKeys(patch, "description", "completed"); err != nil {
		return nil, err
	}

	task, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	var violations []string
	if msg := decodeField(patch, "description", &task.Description); msg != "" {
		violations = append(violations, msg)
	}
	if msg := decodeField(patch, "completed", &task.Completed); msg != "" {
		violations = append(violations, msg)
	}
	task.Description = strings.TrimSpace(task.Description)
	if len(violations) == 0 && task.Description == "" {
		violations = append(violations, "description is required")
	}
	if len(violations) > 0 {
		return nil, common.NewValidationError(violations...)
	}

	return s.repo().Update(ctx, task)
}

// Delete removes the task and returns it as it was.
func (s *TaskService) Delete(ctx context.Context, ownerID, id string) (*models.Task, error) {
	if !validID(id) {
		return nil, common.ErrorNotFound
	}
	return s.repo().Delete(ctx, ownerID, id)
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
