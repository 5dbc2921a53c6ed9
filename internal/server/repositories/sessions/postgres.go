// Package sessions provides a PostgreSQL-backed repository for the per-user
// set of active session tokens. Removing a row revokes the token at once,
// whatever its signature says.
package sessions

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/taskkeeper/internal/dbx"
)

// PostgresRepository implements the token set over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create adds token to the user's active set. Re-adding is a no-op.
func (r *PostgresRepository) Create(ctx context.Context, userID string, token string) error {
	query := `
		INSERT INTO sessions (user_id, token)
		VALUES ($1, $2)
		ON CONFLICT (user_id, token) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, userID, token); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Exists reports whether token is still in the user's active set.
func (r *PostgresRepository) Exists(ctx context.Context, userID string, token string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM sessions WHERE user_id = $1 AND token = $2
		)
	`
	var ok bool
	if err := r.db.QueryRowContext(ctx, query, userID, token).Scan(&ok); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return ok, nil
}

// Delete removes exactly one token from the user's set.
func (r *PostgresRepository) Delete(ctx context.Context, userID string, token string) error {
	query := `DELETE FROM sessions WHERE user_id = $1 AND token = $2`
	if _, err := r.db.ExecContext(ctx, query, userID, token); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// DeleteAll empties the user's set.
func (r *PostgresRepository) DeleteAll(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
