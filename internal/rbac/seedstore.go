package rbac

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SeedStore implements SeedStorePort on PostgreSQL. Every statement is
// conditional, so concurrent or repeated seeding runs converge on the
// same rows.
type SeedStore struct {
	pool *pgxpool.Pool
}

// NewSeedStore constructs a SeedStore.
func NewSeedStore(pool *pgxpool.Pool) *SeedStore {
	return &SeedStore{pool: pool}
}

// UpsertRole inserts the role or refreshes its display name.
func (s *SeedStore) UpsertRole(ctx context.Context, code RoleCode, name string) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO roles (code, name)
		VALUES ($1, $2)
		ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name, updated_at = NOW()
		RETURNING id`, code, name).Scan(&id)
	return id, err
}

// UpsertPermission inserts the permission or refreshes its description.
func (s *SeedStore) UpsertPermission(ctx context.Context, code PermissionCode, description string) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO permissions (code, description)
		VALUES ($1, $2)
		ON CONFLICT (code) DO UPDATE SET description = EXCLUDED.description
		RETURNING id`, code, description).Scan(&id)
	return id, err
}

// EnsureGrant records the (role, permission) pair if absent.
func (s *SeedStore) EnsureGrant(ctx context.Context, roleID, permissionID int64) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO role_grants (role_id, permission_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`, roleID, permissionID)
	return err
}

// BootstrapAdmin grants the role to the designated user only while the
// org_role_assignments table is empty. The count guard and the insert
// run in one statement so concurrent startups cannot both bootstrap.
func (s *SeedStore) BootstrapAdmin(ctx context.Context, email string, role RoleCode) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO org_role_assignments (user_id, role_id)
		SELECT u.id, r.id
		FROM users u
		JOIN roles r ON r.code = $2
		WHERE u.email = $1
		  AND NOT EXISTS (SELECT 1 FROM org_role_assignments)
		ON CONFLICT (user_id, role_id) DO NOTHING`, email, role)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

var _ SeedStorePort = (*SeedStore)(nil)
