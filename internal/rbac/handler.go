package rbac

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/aegis-grc/aegis-grc/internal/platform/httpx"
)

// Handler exposes the catalog and the resolver output over HTTP.
type Handler struct {
	logger  *slog.Logger
	service *Service
	mw      Middleware
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mw Middleware) *Handler {
	return &Handler{logger: logger, service: service, mw: mw}
}

// MountRoutes registers the catalog routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireAny(PermViewRoles, PermManageUsers))
		r.Get("/roles", h.listRoles)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireAny(PermViewPermissions, PermManageUsers))
		r.Get("/permissions", h.listPermissions)
	})
}

// MountUserRoutes registers the per-user resolver route; mounted under
// the /users subtree alongside user management.
func (h *Handler) MountUserRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireAny(PermViewUsers, PermManageUsers))
		r.Get("/{userID}/effective-permissions", h.effectivePermissions)
	})
}

type roleResponse struct {
	ID   int64    `json:"id"`
	Code RoleCode `json:"code"`
	Name string   `json:"name"`
}

type permissionResponse struct {
	ID          int64          `json:"id"`
	Code        PermissionCode `json:"code"`
	Description string         `json:"description"`
}

type effectivePermissionsResponse struct {
	OrgRoles     []RoleCode       `json:"orgRoles"`
	ProjectRoles []RoleCode       `json:"projectRoles"`
	Permissions  []PermissionCode `json:"permissions"`
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.ListRoles(r.Context())
	if err != nil {
		h.logger.Error("list roles", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]roleResponse, 0, len(roles))
	for _, role := range roles {
		out = append(out, roleResponse{ID: role.ID, Code: role.Code, Name: role.Name})
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) listPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.service.ListPermissions(r.Context())
	if err != nil {
		h.logger.Error("list permissions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]permissionResponse, 0, len(perms))
	for _, perm := range perms {
		out = append(out, permissionResponse{ID: perm.ID, Code: perm.Code, Description: perm.Description})
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) effectivePermissions(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || userID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed user id")
		return
	}

	var projectID *int64
	if raw := r.URL.Query().Get("projectId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed project id")
			return
		}
		projectID = &id
	}

	grants, err := h.service.EffectiveGrants(r.Context(), userID, projectID)
	if err != nil {
		h.logger.Error("effective permissions", slog.Int64("user_id", userID), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, effectivePermissionsResponse{
		OrgRoles:     grants.OrgRoles,
		ProjectRoles: grants.ProjectRoles,
		Permissions:  grants.Permissions,
	})
}
