package regulations

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aegis-grc/aegis-grc/internal/platform/httpx"
)

// RepositoryPort defines data access for the regulatory library.
type RepositoryPort interface {
	List(ctx context.Context) ([]Regulation, error)
	Create(ctx context.Context, code, title, authority string) (Regulation, error)
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns the library ordered by code.
func (r *Repository) List(ctx context.Context) ([]Regulation, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, code, title, authority, created_at, updated_at FROM regulations ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Regulation
	for rows.Next() {
		var reg Regulation
		if err := rows.Scan(&reg.ID, &reg.Code, &reg.Title, &reg.Authority, &reg.CreatedAt, &reg.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Create inserts a library entry. Duplicate codes map to ErrDuplicate.
func (r *Repository) Create(ctx context.Context, code, title, authority string) (Regulation, error) {
	var reg Regulation
	err := r.pool.QueryRow(ctx, `
		INSERT INTO regulations (code, title, authority)
		VALUES ($1, $2, $3)
		RETURNING id, code, title, authority, created_at, updated_at`, code, title, authority).
		Scan(&reg.ID, &reg.Code, &reg.Title, &reg.Authority, &reg.CreatedAt, &reg.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Regulation{}, httpx.ErrDuplicate
		}
		return Regulation{}, err
	}
	return reg, nil
}

var _ RepositoryPort = (*Repository)(nil)
