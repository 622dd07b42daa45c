package rbac

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/aegis-grc/aegis-grc/internal/shared"
)

type decisionLog struct {
	outcomes []string
}

func (d *decisionLog) RecordDecision(outcome string) {
	d.outcomes = append(d.outcomes, outcome)
}

func newTestMiddleware(repo *memoryRepo) (Middleware, *decisionLog) {
	decisions := &decisionLog{}
	return Middleware{Service: NewService(repo), Logger: testLogger(), Decisions: decisions}, decisions
}

func authenticate(r *http.Request, userID int64) *http.Request {
	sess := &shared.Session{}
	sess.SetUser(fmt.Sprintf("%d", userID))
	return r.WithContext(shared.ContextWithSession(r.Context(), sess))
}

func okHandler(t *testing.T, captured *Grant) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if captured != nil {
			grant, ok := GrantFromContext(r.Context())
			require.True(t, ok, "allowed request must carry a grant")
			*captured = grant
		}
		w.WriteHeader(http.StatusOK)
	}
}

func TestRequireAllDeniesUnauthenticated(t *testing.T) {
	mw, decisions := newTestMiddleware(newMemoryRepo())
	r := chi.NewRouter()
	r.With(mw.RequireAll(PermViewRegulations)).Get("/regulations", okHandler(t, nil))

	res := httptest.NewRecorder()
	r.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/regulations", nil))

	require.Equal(t, http.StatusUnauthorized, res.Code)
	require.Equal(t, []string{DecisionUnauthenticated}, decisions.outcomes)
}

func TestIdentityCheckPrecedesScopeCheck(t *testing.T) {
	// Unauthenticated request to a project-scoped route with no project
	// id must be 401, not 400.
	mw, decisions := newTestMiddleware(newMemoryRepo())
	r := chi.NewRouter()
	r.With(mw.RequireProject(PermApproveControls)).Post("/controls/approve", okHandler(t, nil))

	res := httptest.NewRecorder()
	r.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/controls/approve", nil))

	require.Equal(t, http.StatusUnauthorized, res.Code)
	require.Equal(t, []string{DecisionUnauthenticated}, decisions.outcomes)
}

func TestRequireProjectRejectsMissingProjectID(t *testing.T) {
	repo := newMemoryRepo()
	repo.addRole(1, RoleOfficer, PermApproveControls)
	repo.assignOrg(7, 1, RoleOfficer)
	mw, decisions := newTestMiddleware(repo)
	r := chi.NewRouter()
	r.With(mw.RequireProject(PermApproveControls)).Post("/controls/approve", okHandler(t, nil))

	req := authenticate(httptest.NewRequest(http.MethodPost, "/controls/approve", nil), 7)
	res := httptest.NewRecorder()
	r.ServeHTTP(res, req)

	require.Equal(t, http.StatusBadRequest, res.Code)
	require.Equal(t, []string{DecisionInvalidRequest}, decisions.outcomes)
}

func TestRequireProjectRejectsMalformedProjectID(t *testing.T) {
	mw, _ := newTestMiddleware(newMemoryRepo())
	r := chi.NewRouter()
	r.With(mw.RequireProject(PermApproveControls)).Get("/projects/{projectID}/controls", okHandler(t, nil))

	req := authenticate(httptest.NewRequest(http.MethodGet, "/projects/banana/controls", nil), 7)
	res := httptest.NewRecorder()
	r.ServeHTTP(res, req)

	require.Equal(t, http.StatusBadRequest, res.Code)
}

func TestForbiddenNamesMissingCodesOnly(t *testing.T) {
	repo := newMemoryRepo()
	repo.addRole(1, RoleViewer, PermViewRegulations)
	repo.assignOrg(7, 1, RoleViewer)
	mw, decisions := newTestMiddleware(repo)
	r := chi.NewRouter()
	r.With(mw.RequireAll(PermViewRegulations, PermManageUsers)).Get("/users", okHandler(t, nil))

	req := authenticate(httptest.NewRequest(http.MethodGet, "/users", nil), 7)
	res := httptest.NewRecorder()
	r.ServeHTTP(res, req)

	require.Equal(t, http.StatusForbidden, res.Code)
	require.Equal(t, []string{DecisionForbidden}, decisions.outcomes)

	var body forbiddenBody
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	require.Equal(t, []PermissionCode{PermManageUsers}, body.Missing)
	// The denial must not enumerate what the caller does hold.
	require.NotContains(t, res.Body.String(), string(PermViewRegulations))
}

func TestRequireAllAllowsAndExposesGrant(t *testing.T) {
	repo := newMemoryRepo()
	repo.addRole(1, RoleViewer, PermViewRegulations)
	repo.assignOrg(7, 1, RoleViewer)
	mw, decisions := newTestMiddleware(repo)

	var grant Grant
	r := chi.NewRouter()
	r.With(mw.RequireAll(PermViewRegulations)).Get("/regulations", okHandler(t, &grant))

	req := authenticate(httptest.NewRequest(http.MethodGet, "/regulations", nil), 7)
	res := httptest.NewRecorder()
	r.ServeHTTP(res, req)

	require.Equal(t, http.StatusOK, res.Code)
	require.Equal(t, []string{DecisionAllowed}, decisions.outcomes)
	require.Equal(t, int64(7), grant.UserID)
	require.Nil(t, grant.ProjectID)
	require.Equal(t, []PermissionCode{PermViewRegulations}, grant.Required)
	require.True(t, grant.Permissions.Has(PermViewRegulations))
}

func TestRequireProjectUsesPathThenQueryParameter(t *testing.T) {
	repo := newMemoryRepo()
	repo.addRole(2, RoleOfficer, PermApproveControls)
	repo.assignProject(7, 42, 2, RoleOfficer)
	mw, _ := newTestMiddleware(repo)

	var grant Grant
	r := chi.NewRouter()
	r.With(mw.RequireProject(PermApproveControls)).Get("/projects/{projectID}/controls", okHandler(t, &grant))
	r.With(mw.RequireProject(PermApproveControls)).Get("/controls", okHandler(t, &grant))

	req := authenticate(httptest.NewRequest(http.MethodGet, "/projects/42/controls", nil), 7)
	res := httptest.NewRecorder()
	r.ServeHTTP(res, req)
	require.Equal(t, http.StatusOK, res.Code)
	require.NotNil(t, grant.ProjectID)
	require.Equal(t, int64(42), *grant.ProjectID)

	req = authenticate(httptest.NewRequest(http.MethodGet, "/controls?projectId=42", nil), 7)
	res = httptest.NewRecorder()
	r.ServeHTTP(res, req)
	require.Equal(t, http.StatusOK, res.Code)
}

func TestRequireProjectDeniesOtherProjects(t *testing.T) {
	repo := newMemoryRepo()
	repo.addRole(2, RoleOfficer, PermApproveControls)
	repo.assignProject(7, 42, 2, RoleOfficer)
	mw, _ := newTestMiddleware(repo)
	r := chi.NewRouter()
	r.With(mw.RequireProject(PermApproveControls)).Get("/projects/{projectID}/controls", okHandler(t, nil))

	req := authenticate(httptest.NewRequest(http.MethodGet, "/projects/99/controls", nil), 7)
	res := httptest.NewRecorder()
	r.ServeHTTP(res, req)

	require.Equal(t, http.StatusForbidden, res.Code)
}

func TestResolutionFailureIsInternalErrorNotForbidden(t *testing.T) {
	repo := newMemoryRepo()
	repo.failOrg = fmt.Errorf("connection reset")
	mw, decisions := newTestMiddleware(repo)
	r := chi.NewRouter()
	r.With(mw.RequireAll(PermViewRegulations)).Get("/regulations", okHandler(t, nil))

	req := authenticate(httptest.NewRequest(http.MethodGet, "/regulations", nil), 7)
	res := httptest.NewRecorder()
	r.ServeHTTP(res, req)

	require.Equal(t, http.StatusInternalServerError, res.Code)
	require.Equal(t, []string{DecisionError}, decisions.outcomes)
}

func TestRequireAnyAllowsWithOneOfTwo(t *testing.T) {
	repo := newMemoryRepo()
	repo.addRole(1, RoleViewer, PermViewUsers)
	repo.assignOrg(7, 1, RoleViewer)
	mw, _ := newTestMiddleware(repo)
	r := chi.NewRouter()
	r.With(mw.RequireAny(PermViewUsers, PermManageUsers)).Get("/users", okHandler(t, nil))

	req := authenticate(httptest.NewRequest(http.MethodGet, "/users", nil), 7)
	res := httptest.NewRecorder()
	r.ServeHTTP(res, req)

	require.Equal(t, http.StatusOK, res.Code)
}

func TestRequireAnyDeniesWithNone(t *testing.T) {
	repo := newMemoryRepo()
	repo.addRole(1, RoleViewer, PermViewRegulations)
	repo.assignOrg(7, 1, RoleViewer)
	mw, _ := newTestMiddleware(repo)
	r := chi.NewRouter()
	r.With(mw.RequireAny(PermViewUsers, PermManageUsers)).Get("/users", okHandler(t, nil))

	req := authenticate(httptest.NewRequest(http.MethodGet, "/users", nil), 7)
	res := httptest.NewRecorder()
	r.ServeHTTP(res, req)

	require.Equal(t, http.StatusForbidden, res.Code)
}
