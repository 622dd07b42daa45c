package rbac

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
)

// SeedStorePort defines the write side used only during seeding.
type SeedStorePort interface {
	UpsertRole(ctx context.Context, code RoleCode, name string) (int64, error)
	UpsertPermission(ctx context.Context, code PermissionCode, description string) (int64, error)
	EnsureGrant(ctx context.Context, roleID, permissionID int64) error
	// BootstrapAdmin grants the role to the user with the given email in a
	// single guarded statement that is a no-op unless the system has zero
	// org-level assignments. Returns whether a row was inserted.
	BootstrapAdmin(ctx context.Context, email string, role RoleCode) (bool, error)
}

// Seeder brings the role/permission catalog and the grant matrix to the
// fixed state shipped with this release. Safe to run at every startup:
// every step is insert-if-absent.
type Seeder struct {
	store          SeedStorePort
	logger         *slog.Logger
	roles          []RoleDefinition
	permissions    []PermissionDefinition
	matrix         map[RoleCode][]PermissionCode
	bootstrapEmail string
}

// NewSeeder constructs a Seeder over the built-in catalog. bootstrapEmail
// designates the user who receives the initial admin assignment; empty
// disables bootstrapping.
func NewSeeder(store SeedStorePort, logger *slog.Logger, bootstrapEmail string) *Seeder {
	return &Seeder{
		store:          store,
		logger:         logger,
		roles:          RoleDefinitions(),
		permissions:    PermissionDefinitions(),
		matrix:         GrantMatrix(),
		bootstrapEmail: bootstrapEmail,
	}
}

// Seed populates roles, permissions and the grant matrix, then attempts
// the one-time admin bootstrap. Storage errors abort; a matrix row
// referencing an unknown role or permission code is logged and skipped.
func (s *Seeder) Seed(ctx context.Context) error {
	roleIDs := make(map[RoleCode]int64, len(s.roles))
	for _, def := range s.roles {
		id, err := s.store.UpsertRole(ctx, def.Code, def.Name)
		if err != nil {
			return fmt.Errorf("rbac: seed role %s: %w", def.Code, err)
		}
		roleIDs[def.Code] = id
	}

	permIDs := make(map[PermissionCode]int64, len(s.permissions))
	for _, def := range s.permissions {
		id, err := s.store.UpsertPermission(ctx, def.Code, def.Description)
		if err != nil {
			return fmt.Errorf("rbac: seed permission %s: %w", def.Code, err)
		}
		permIDs[def.Code] = id
	}

	roleCodes := make([]RoleCode, 0, len(s.matrix))
	for code := range s.matrix {
		roleCodes = append(roleCodes, code)
	}
	sort.Slice(roleCodes, func(i, j int) bool { return roleCodes[i] < roleCodes[j] })

	for _, roleCode := range roleCodes {
		roleID, ok := roleIDs[roleCode]
		if !ok {
			s.logger.Warn("skip grants for unknown role", slog.String("role", string(roleCode)))
			continue
		}
		for _, permCode := range s.matrix[roleCode] {
			permID, ok := permIDs[permCode]
			if !ok {
				s.logger.Warn("skip grant for unknown permission",
					slog.String("role", string(roleCode)),
					slog.String("permission", string(permCode)))
				continue
			}
			if err := s.store.EnsureGrant(ctx, roleID, permID); err != nil {
				return fmt.Errorf("rbac: seed grant %s/%s: %w", roleCode, permCode, err)
			}
		}
	}

	if s.bootstrapEmail == "" {
		return nil
	}
	granted, err := s.store.BootstrapAdmin(ctx, s.bootstrapEmail, RoleAdmin)
	if err != nil {
		return fmt.Errorf("rbac: bootstrap admin: %w", err)
	}
	if granted {
		s.logger.Info("bootstrap admin granted", slog.String("email", s.bootstrapEmail))
	}
	return nil
}
