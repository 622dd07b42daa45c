package rbac

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	roles    []Role
	perms    []Permission
	grants   map[int64][]PermissionCode
	org      map[int64][]RoleAssignment
	project  map[string][]RoleAssignment
	failOrg  error
	failProj error
	failRole error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		grants:  make(map[int64][]PermissionCode),
		org:     make(map[int64][]RoleAssignment),
		project: make(map[string][]RoleAssignment),
	}
}

func projectKey(userID, projectID int64) string {
	return fmt.Sprintf("%d:%d", userID, projectID)
}

func (r *memoryRepo) addRole(id int64, code RoleCode, grants ...PermissionCode) {
	r.roles = append(r.roles, Role{ID: id, Code: code, Name: string(code)})
	r.grants[id] = grants
}

func (r *memoryRepo) assignOrg(userID, roleID int64, code RoleCode) {
	r.org[userID] = append(r.org[userID], RoleAssignment{RoleID: roleID, Code: code})
}

func (r *memoryRepo) assignProject(userID, projectID, roleID int64, code RoleCode) {
	key := projectKey(userID, projectID)
	r.project[key] = append(r.project[key], RoleAssignment{RoleID: roleID, Code: code})
}

func (r *memoryRepo) ListRoles(ctx context.Context) ([]Role, error) {
	return r.roles, nil
}

func (r *memoryRepo) ListPermissions(ctx context.Context) ([]Permission, error) {
	return r.perms, nil
}

func (r *memoryRepo) OrgRoleAssignments(ctx context.Context, userID int64) ([]RoleAssignment, error) {
	if r.failOrg != nil {
		return nil, r.failOrg
	}
	return r.org[userID], nil
}

func (r *memoryRepo) ProjectRoleAssignments(ctx context.Context, userID, projectID int64) ([]RoleAssignment, error) {
	if r.failProj != nil {
		return nil, r.failProj
	}
	return r.project[projectKey(userID, projectID)], nil
}

func (r *memoryRepo) PermissionsGrantedBy(ctx context.Context, roleID int64) ([]PermissionCode, error) {
	if r.failRole != nil {
		return nil, r.failRole
	}
	return r.grants[roleID], nil
}

var _ RepositoryPort = (*memoryRepo)(nil)

func ptr(id int64) *int64 { return &id }

func TestResolveOrgOnly(t *testing.T) {
	repo := newMemoryRepo()
	repo.addRole(1, RoleViewer, PermViewRegulations)
	repo.assignOrg(7, 1, RoleViewer)
	svc := NewService(repo)
	ctx := context.Background()

	set, err := svc.Resolve(ctx, 7, nil)
	require.NoError(t, err)
	require.Equal(t, []PermissionCode{PermViewRegulations}, set.Codes())

	// A project scope the user has no assignment on contributes nothing.
	set, err = svc.Resolve(ctx, 7, ptr(42))
	require.NoError(t, err)
	require.Equal(t, []PermissionCode{PermViewRegulations}, set.Codes())
}

func TestResolveAdditiveProjectGrant(t *testing.T) {
	repo := newMemoryRepo()
	repo.addRole(1, RoleViewer, PermViewRegulations)
	repo.addRole(2, RoleOfficer, PermApproveControls)
	repo.assignOrg(7, 1, RoleViewer)
	repo.assignProject(7, 42, 2, RoleOfficer)
	svc := NewService(repo)
	ctx := context.Background()

	set, err := svc.Resolve(ctx, 7, ptr(42))
	require.NoError(t, err)
	require.Equal(t, []PermissionCode{PermApproveControls, PermViewRegulations}, set.Codes())

	// No cross-project leakage.
	set, err = svc.Resolve(ctx, 7, ptr(99))
	require.NoError(t, err)
	require.Equal(t, []PermissionCode{PermViewRegulations}, set.Codes())
}

func TestResolveOmitsProjectRolesWithoutScope(t *testing.T) {
	repo := newMemoryRepo()
	repo.addRole(2, RoleOfficer, PermApproveControls)
	repo.assignProject(7, 42, 2, RoleOfficer)
	svc := NewService(repo)

	set, err := svc.Resolve(context.Background(), 7, nil)
	require.NoError(t, err)
	require.Empty(t, set.Codes())
}

func TestResolveRevocationTakesEffectImmediately(t *testing.T) {
	repo := newMemoryRepo()
	repo.addRole(1, RoleViewer, PermViewRegulations)
	repo.assignOrg(7, 1, RoleViewer)
	svc := NewService(repo)
	ctx := context.Background()

	set, err := svc.Resolve(ctx, 7, nil)
	require.NoError(t, err)
	require.True(t, set.Has(PermViewRegulations))

	delete(repo.org, 7)

	set, err = svc.Resolve(ctx, 7, nil)
	require.NoError(t, err)
	require.Empty(t, set.Codes())
}

func TestResolveFailsClosedOnStorageError(t *testing.T) {
	repo := newMemoryRepo()
	repo.addRole(1, RoleViewer, PermViewRegulations)
	repo.assignOrg(7, 1, RoleViewer)
	repo.failOrg = fmt.Errorf("connection reset")
	svc := NewService(repo)

	set, err := svc.Resolve(context.Background(), 7, nil)
	require.Error(t, err)
	require.Nil(t, set)
}

func TestResolveFailsClosedMidUnion(t *testing.T) {
	repo := newMemoryRepo()
	repo.addRole(1, RoleViewer, PermViewRegulations)
	repo.assignOrg(7, 1, RoleViewer)
	repo.failRole = fmt.Errorf("query timeout")
	svc := NewService(repo)

	set, err := svc.Resolve(context.Background(), 7, nil)
	require.Error(t, err)
	require.Nil(t, set, "a partial set must never escape a failed resolution")
}

func TestResolveFailsClosedOnProjectFetchError(t *testing.T) {
	repo := newMemoryRepo()
	repo.addRole(1, RoleViewer, PermViewRegulations)
	repo.assignOrg(7, 1, RoleViewer)
	repo.failProj = fmt.Errorf("connection reset")
	svc := NewService(repo)

	set, err := svc.Resolve(context.Background(), 7, ptr(42))
	require.Error(t, err)
	require.Nil(t, set)
}

func TestResolveUnknownUserIsEmptyNotError(t *testing.T) {
	svc := NewService(newMemoryRepo())

	set, err := svc.Resolve(context.Background(), 12345, nil)
	require.NoError(t, err)
	require.Empty(t, set.Codes())
}

func TestEffectiveGrants(t *testing.T) {
	repo := newMemoryRepo()
	repo.addRole(1, RoleViewer, PermViewRegulations, PermViewProjects)
	repo.addRole(2, RoleOfficer, PermApproveControls, PermViewProjects)
	repo.assignOrg(7, 1, RoleViewer)
	repo.assignProject(7, 42, 2, RoleOfficer)
	svc := NewService(repo)

	grants, err := svc.EffectiveGrants(context.Background(), 7, ptr(42))
	require.NoError(t, err)
	require.Equal(t, []RoleCode{RoleViewer}, grants.OrgRoles)
	require.Equal(t, []RoleCode{RoleOfficer}, grants.ProjectRoles)
	require.Equal(t, []PermissionCode{PermApproveControls, PermViewProjects, PermViewRegulations}, grants.Permissions)

	grants, err = svc.EffectiveGrants(context.Background(), 7, nil)
	require.NoError(t, err)
	require.Empty(t, grants.ProjectRoles)
	require.Equal(t, []PermissionCode{PermViewProjects, PermViewRegulations}, grants.Permissions)
}
