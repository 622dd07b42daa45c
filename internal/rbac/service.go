package rbac

import (
	"context"
	"fmt"
)

// Service resolves effective permissions from assignment state.
//
// Resolution is a pure read: it never caches across calls, so a revoked
// assignment stops granting on the very next request. A storage failure
// aborts the whole resolution; callers never see a partial set.
type Service struct {
	repo RepositoryPort
}

// NewService constructs a Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListRoles returns the role catalog.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.repo.ListRoles(ctx)
}

// ListPermissions returns the permission catalog.
func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	return s.repo.ListPermissions(ctx)
}

// Resolve returns the union of permission codes granted by the user's
// org-level assignments and, when projectID is non-nil, their
// assignments on that project. A projectID the user holds no assignment
// on simply contributes nothing.
func (s *Service) Resolve(ctx context.Context, userID int64, projectID *int64) (PermissionSet, error) {
	grants, err := s.effectiveGrants(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}
	return grants.set, nil
}

// EffectiveGrants describes a user's assignments and resolved
// permissions for the effective-permissions endpoint.
type EffectiveGrants struct {
	OrgRoles     []RoleCode
	ProjectRoles []RoleCode
	Permissions  []PermissionCode
}

// EffectiveGrants resolves the user's role codes per scope alongside the
// unioned permission set.
func (s *Service) EffectiveGrants(ctx context.Context, userID int64, projectID *int64) (EffectiveGrants, error) {
	grants, err := s.effectiveGrants(ctx, userID, projectID)
	if err != nil {
		return EffectiveGrants{}, err
	}
	return EffectiveGrants{
		OrgRoles:     grants.orgRoles,
		ProjectRoles: grants.projectRoles,
		Permissions:  grants.set.Codes(),
	}, nil
}

type resolved struct {
	orgRoles     []RoleCode
	projectRoles []RoleCode
	set          PermissionSet
}

func (s *Service) effectiveGrants(ctx context.Context, userID int64, projectID *int64) (resolved, error) {
	set := make(PermissionSet)
	out := resolved{orgRoles: []RoleCode{}, projectRoles: []RoleCode{}, set: set}

	orgAssignments, err := s.repo.OrgRoleAssignments(ctx, userID)
	if err != nil {
		return resolved{}, fmt.Errorf("rbac: fetch org assignments: %w", err)
	}
	for _, a := range orgAssignments {
		out.orgRoles = append(out.orgRoles, a.Code)
		if err := s.addRolePermissions(ctx, set, a.RoleID); err != nil {
			return resolved{}, err
		}
	}

	if projectID != nil {
		projectAssignments, err := s.repo.ProjectRoleAssignments(ctx, userID, *projectID)
		if err != nil {
			return resolved{}, fmt.Errorf("rbac: fetch project assignments: %w", err)
		}
		for _, a := range projectAssignments {
			out.projectRoles = append(out.projectRoles, a.Code)
			if err := s.addRolePermissions(ctx, set, a.RoleID); err != nil {
				return resolved{}, err
			}
		}
	}

	return out, nil
}

func (s *Service) addRolePermissions(ctx context.Context, set PermissionSet, roleID int64) error {
	codes, err := s.repo.PermissionsGrantedBy(ctx, roleID)
	if err != nil {
		return fmt.Errorf("rbac: fetch grants for role %d: %w", roleID, err)
	}
	for _, code := range codes {
		set.Add(code)
	}
	return nil
}
