package controls

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aegis-grc/aegis-grc/internal/shared"
)

// RepositoryPort defines data access for controls.
type RepositoryPort interface {
	ListByProject(ctx context.Context, projectID int64) ([]Control, error)
	Get(ctx context.Context, projectID, controlID int64) (Control, error)
	MarkApproved(ctx context.Context, controlID, approverID int64) error
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const controlColumns = `id, project_id, code, title, status, approved_by, approved_at, created_at, updated_at`

// ListByProject returns a project's controls ordered by code.
func (r *Repository) ListByProject(ctx context.Context, projectID int64) ([]Control, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+controlColumns+` FROM controls WHERE project_id = $1 ORDER BY code`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Control
	for rows.Next() {
		var c Control
		if err := rows.Scan(&c.ID, &c.ProjectID, &c.Code, &c.Title, &c.Status,
			&c.ApprovedBy, &c.ApprovedAt, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Get fetches one control scoped to its project.
func (r *Repository) Get(ctx context.Context, projectID, controlID int64) (Control, error) {
	var c Control
	err := r.pool.QueryRow(ctx, `SELECT `+controlColumns+` FROM controls WHERE project_id = $1 AND id = $2`, projectID, controlID).
		Scan(&c.ID, &c.ProjectID, &c.Code, &c.Title, &c.Status,
			&c.ApprovedBy, &c.ApprovedAt, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return Control{}, shared.ErrNotFound
	}
	return c, nil
}

// MarkApproved records the approval decision.
func (r *Repository) MarkApproved(ctx context.Context, controlID, approverID int64) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE controls
		SET status = 'approved', approved_by = $2, approved_at = now(), updated_at = now()
		WHERE id = $1`, controlID, approverID)
	return err
}

var _ RepositoryPort = (*Repository)(nil)
