package rbac

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func newCatalogRouter(repo *memoryRepo) chi.Router {
	mw, _ := newTestMiddleware(repo)
	handler := NewHandler(testLogger(), NewService(repo), mw)
	r := chi.NewRouter()
	handler.MountRoutes(r)
	r.Route("/users", handler.MountUserRoutes)
	return r
}

func adminRepo() *memoryRepo {
	repo := newMemoryRepo()
	repo.addRole(1, RoleAdmin, GrantMatrix()[RoleAdmin]...)
	repo.addRole(2, RoleViewer, GrantMatrix()[RoleViewer]...)
	repo.assignOrg(1, 1, RoleAdmin)
	repo.roles = []Role{
		{ID: 1, Code: RoleAdmin, Name: "Administrator"},
		{ID: 2, Code: RoleViewer, Name: "Viewer"},
	}
	for i, def := range PermissionDefinitions() {
		repo.perms = append(repo.perms, Permission{ID: int64(i + 1), Code: def.Code, Description: def.Description})
	}
	return repo
}

func TestListRolesEndpoint(t *testing.T) {
	r := newCatalogRouter(adminRepo())

	req := authenticate(httptest.NewRequest(http.MethodGet, "/roles", nil), 1)
	res := httptest.NewRecorder()
	r.ServeHTTP(res, req)

	require.Equal(t, http.StatusOK, res.Code)
	var roles []roleResponse
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &roles))
	require.Len(t, roles, 2)
	require.Equal(t, RoleAdmin, roles[0].Code)
	require.Equal(t, "Administrator", roles[0].Name)
}

func TestListPermissionsEndpoint(t *testing.T) {
	r := newCatalogRouter(adminRepo())

	req := authenticate(httptest.NewRequest(http.MethodGet, "/permissions", nil), 1)
	res := httptest.NewRecorder()
	r.ServeHTTP(res, req)

	require.Equal(t, http.StatusOK, res.Code)
	var perms []permissionResponse
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &perms))
	require.Len(t, perms, len(PermissionDefinitions()))
}

func TestEffectivePermissionsEndpoint(t *testing.T) {
	repo := adminRepo()
	repo.assignOrg(7, 2, RoleViewer)
	repo.addRole(3, RoleOfficer, PermApproveControls)
	repo.assignProject(7, 42, 3, RoleOfficer)
	r := newCatalogRouter(repo)

	req := authenticate(httptest.NewRequest(http.MethodGet, "/users/7/effective-permissions?projectId=42", nil), 1)
	res := httptest.NewRecorder()
	r.ServeHTTP(res, req)

	require.Equal(t, http.StatusOK, res.Code)
	var body effectivePermissionsResponse
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	require.Equal(t, []RoleCode{RoleViewer}, body.OrgRoles)
	require.Equal(t, []RoleCode{RoleOfficer}, body.ProjectRoles)
	require.Contains(t, body.Permissions, PermApproveControls)
	require.Contains(t, body.Permissions, PermViewRegulations)
}

func TestEffectivePermissionsRejectsBadIDs(t *testing.T) {
	r := newCatalogRouter(adminRepo())

	req := authenticate(httptest.NewRequest(http.MethodGet, "/users/abc/effective-permissions", nil), 1)
	res := httptest.NewRecorder()
	r.ServeHTTP(res, req)
	require.Equal(t, http.StatusBadRequest, res.Code)

	req = authenticate(httptest.NewRequest(http.MethodGet, "/users/7/effective-permissions?projectId=abc", nil), 1)
	res = httptest.NewRecorder()
	r.ServeHTTP(res, req)
	require.Equal(t, http.StatusBadRequest, res.Code)
}
