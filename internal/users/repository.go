package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aegis-grc/aegis-grc/internal/platform/db"
	"github.com/aegis-grc/aegis-grc/internal/rbac"
	"github.com/aegis-grc/aegis-grc/internal/shared"
)

// RepositoryPort defines data access for users and their role
// assignments. This package is the only writer of assignment rows; the
// authorization core reads them.
type RepositoryPort interface {
	ListUsers(ctx context.Context) ([]User, error)
	GetUser(ctx context.Context, id int64) (User, error)
	SetOrgRoles(ctx context.Context, userID int64, add, remove []rbac.RoleCode) error
	SetProjectRoles(ctx context.Context, userID, projectID int64, add, remove []rbac.RoleCode) error
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListUsers returns all users.
func (r *Repository) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, email, name, is_active, created_at, updated_at FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []User
	for rows.Next() {
		var user User
		if err := rows.Scan(&user.ID, &user.Email, &user.Name, &user.IsActive, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

// GetUser fetches one user by id.
func (r *Repository) GetUser(ctx context.Context, id int64) (User, error) {
	var user User
	err := r.pool.QueryRow(ctx, `SELECT id, email, name, is_active, created_at, updated_at FROM users WHERE id = $1`, id).
		Scan(&user.ID, &user.Email, &user.Name, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return User{}, shared.ErrNotFound
	}
	return user, nil
}

// SetOrgRoles applies organization-wide role additions and removals in
// one transaction. Adding an already-held role is a no-op; removing an
// unheld role is a no-op.
func (r *Repository) SetOrgRoles(ctx context.Context, userID int64, add, remove []rbac.RoleCode) error {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		for _, role := range add {
			if _, err := tx.Exec(ctx, `
				INSERT INTO org_role_assignments (user_id, role_id)
				SELECT $1, id FROM roles WHERE code = $2
				ON CONFLICT (user_id, role_id) DO NOTHING`, userID, role); err != nil {
				return err
			}
		}
		for _, role := range remove {
			if _, err := tx.Exec(ctx, `
				DELETE FROM org_role_assignments
				WHERE user_id = $1 AND role_id = (SELECT id FROM roles WHERE code = $2)`, userID, role); err != nil {
				return err
			}
		}
		return nil
	})
	return mapAssignmentError(err)
}

// SetProjectRoles applies project-scoped role additions and removals in
// one transaction.
func (r *Repository) SetProjectRoles(ctx context.Context, userID, projectID int64, add, remove []rbac.RoleCode) error {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		for _, role := range add {
			if _, err := tx.Exec(ctx, `
				INSERT INTO project_role_assignments (user_id, project_id, role_id)
				SELECT $1, $2, id FROM roles WHERE code = $3
				ON CONFLICT (user_id, project_id, role_id) DO NOTHING`, userID, projectID, role); err != nil {
				return err
			}
		}
		for _, role := range remove {
			if _, err := tx.Exec(ctx, `
				DELETE FROM project_role_assignments
				WHERE user_id = $1 AND project_id = $2 AND role_id = (SELECT id FROM roles WHERE code = $3)`,
				userID, projectID, role); err != nil {
				return err
			}
		}
		return nil
	})
	return mapAssignmentError(err)
}

// mapAssignmentError translates foreign-key violations (unknown user or
// project) into not-found.
func mapAssignmentError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return shared.ErrNotFound
	}
	return err
}

var _ RepositoryPort = (*Repository)(nil)
