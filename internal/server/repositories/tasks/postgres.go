// Package tasks provides PostgreSQL-backed persistence for tasks. Every
// query is scoped to the owning user.
package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/dbx"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/pgerr"
)

const taskColumns = `id, owner_id, description, completed, created_at, updated_at`

// PostgresRepository implements task storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts task and fills in id and timestamps.
func (r *PostgresRepository) Create(ctx context.Context, task *models.Task) (*models.Task, error) {
	query := `
		INSERT INTO tasks (owner_id, description, completed)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query, task.OwnerID, task.Description, task.Completed).
		Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		if pgerr.IsForeignKeyViolation(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return task, nil
}

// GetByID returns the owner's task or common.ErrorNotFound, also when the
// task exists but belongs to someone else.
func (r *PostgresRepository) GetByID(ctx context.Context, ownerID, id string) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND owner_id = $2`
	return scanTask(r.db.QueryRowContext(ctx, query, id, ownerID))
}

// Update writes description and completed for the owner's task.
func (r *PostgresRepository) Update(ctx context.Context, task *models.Task) (*models.Task, error) {
	query := `
		UPDATE tasks
		SET description = $3, completed = $4, updated_at = now()
		WHERE id = $1 AND owner_id = $2
		RETURNING ` + taskColumns
	return scanTask(r.db.QueryRowContext(ctx, query, task.ID, task.OwnerID, task.Description, task.Completed))
}

// Delete removes the owner's task and returns it as it was.
func (r *PostgresRepository) Delete(ctx context.Context, ownerID, id string) (*models.Task, error) {
	query := `DELETE FROM tasks WHERE id = $1 AND owner_id = $2 RETURNING ` + taskColumns
	return scanTask(r.db.QueryRowContext(ctx, query, id, ownerID))
}

// DeleteByOwner removes every task of ownerID and reports how many went.
func (r *PostgresRepository) DeleteByOwner(ctx context.Context, ownerID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE owner_id = $1`, ownerID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}

// List returns the owner's tasks filtered, sorted, then paginated.
func (r *PostgresRepository) List(ctx context.Context, ownerID string, opts ListOptions) ([]*models.Task, error) {
	query, args := buildListQuery(ownerID, opts)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select tasks: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Task, 0)
	for rows.Next() {
		var t models.Task
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.Description, &t.Completed, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func buildListQuery(ownerID string, opts ListOptions) (string, []any) {
	var sb strings.Builder
	args := []any{ownerID}

	sb.WriteString(`SELECT ` + taskColumns + ` FROM tasks WHERE owner_id = $1`)

	if opts.Completed != nil {
		args = append(args, *opts.Completed)
		fmt.Fprintf(&sb, ` AND completed = $%d`, len(args))
	}

	col, ok := SortColumn(opts.SortField)
	if !ok {
		col = defaultSortColumn
	}
	dir := "ASC"
	if opts.SortDesc {
		dir = "DESC"
	}
	// id breaks ties so pages never overlap
	fmt.Fprintf(&sb, ` ORDER BY %s %s, id %s`, col, dir, dir)

	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		fmt.Fprintf(&sb, ` LIMIT $%d`, len(args))
	}
	if opts.Skip > 0 {
		args = append(args, opts.Skip)
		fmt.Fprintf(&sb, ` OFFSET $%d`, len(args))
	}

	return sb.String(), args
}

func scanTask(row *sql.Row) (*models.Task, error) {
	t := &models.Task{}
	err := row.Scan(&t.ID, &t.OwnerID, &t.Description, &t.Completed, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || pgerr.IsInvalidInput(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}
