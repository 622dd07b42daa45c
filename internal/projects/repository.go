package projects

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aegis-grc/aegis-grc/internal/shared"
)

// RepositoryPort defines data access for projects.
type RepositoryPort interface {
	List(ctx context.Context) ([]Project, error)
	Get(ctx context.Context, id int64) (Project, error)
	Create(ctx context.Context, name, description string) (Project, error)
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns all projects ordered by id.
func (r *Repository) List(ctx context.Context) ([]Project, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, description, created_at, updated_at FROM projects ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Get fetches one project by id.
func (r *Repository) Get(ctx context.Context, id int64) (Project, error) {
	var p Project
	err := r.pool.QueryRow(ctx, `SELECT id, name, description, created_at, updated_at FROM projects WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Project{}, shared.ErrNotFound
	}
	return p, nil
}

// Create inserts a new project and returns it.
func (r *Repository) Create(ctx context.Context, name, description string) (Project, error) {
	var p Project
	err := r.pool.QueryRow(ctx, `
		INSERT INTO projects (name, description)
		VALUES ($1, $2)
		RETURNING id, name, description, created_at, updated_at`, name, description).
		Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Project{}, err
	}
	return p, nil
}

var _ RepositoryPort = (*Repository)(nil)
