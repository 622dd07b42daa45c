package rbac

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryPort defines the read side consumed by the resolver and the
// catalog endpoints. Assignment rows are written elsewhere (user
// management); this port is a pure reader.
type RepositoryPort interface {
	ListRoles(ctx context.Context) ([]Role, error)
	ListPermissions(ctx context.Context) ([]Permission, error)
	OrgRoleAssignments(ctx context.Context, userID int64) ([]RoleAssignment, error)
	ProjectRoleAssignments(ctx context.Context, userID, projectID int64) ([]RoleAssignment, error)
	PermissionsGrantedBy(ctx context.Context, roleID int64) ([]PermissionCode, error)
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListRoles returns all catalog roles.
func (r *Repository) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, code, name, created_at, updated_at FROM roles ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var roles []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Code, &role.Name, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return roles, nil
}

// ListPermissions returns all catalog permissions.
func (r *Repository) ListPermissions(ctx context.Context) ([]Permission, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, code, description FROM permissions ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var perms []Permission
	for rows.Next() {
		var perm Permission
		if err := rows.Scan(&perm.ID, &perm.Code, &perm.Description); err != nil {
			return nil, err
		}
		perms = append(perms, perm)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return perms, nil
}

// OrgRoleAssignments returns the user's organization-wide role assignments.
func (r *Repository) OrgRoleAssignments(ctx context.Context, userID int64) ([]RoleAssignment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.role_id, r.code
		FROM org_role_assignments a
		JOIN roles r ON r.id = a.role_id
		WHERE a.user_id = $1
		ORDER BY a.role_id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAssignments(rows)
}

// ProjectRoleAssignments returns the user's role assignments on one project.
func (r *Repository) ProjectRoleAssignments(ctx context.Context, userID, projectID int64) ([]RoleAssignment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.role_id, r.code
		FROM project_role_assignments a
		JOIN roles r ON r.id = a.role_id
		WHERE a.user_id = $1 AND a.project_id = $2
		ORDER BY a.role_id`, userID, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAssignments(rows)
}

// PermissionsGrantedBy returns the permission codes granted by one role.
// An unknown role id yields an empty result, not an error.
func (r *Repository) PermissionsGrantedBy(ctx context.Context, roleID int64) ([]PermissionCode, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.code
		FROM role_grants g
		JOIN permissions p ON p.id = g.permission_id
		WHERE g.role_id = $1
		ORDER BY p.code`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var codes []PermissionCode
	for rows.Next() {
		var code PermissionCode
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return codes, nil
}

type pgxRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanAssignments(rows pgxRows) ([]RoleAssignment, error) {
	var assignments []RoleAssignment
	for rows.Next() {
		var a RoleAssignment
		if err := rows.Scan(&a.RoleID, &a.Code); err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return assignments, nil
}

var _ RepositoryPort = (*Repository)(nil)
