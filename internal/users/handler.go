package users

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/aegis-grc/aegis-grc/internal/platform/httpx"
	"github.com/aegis-grc/aegis-grc/internal/rbac"
	"github.com/aegis-grc/aegis-grc/internal/shared"
)

// ErrUnknownRole marks a role code outside the catalog.
var ErrUnknownRole = errors.New("unknown role")

// Handler exposes user management over HTTP.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	mw       rbac.Middleware
	validate *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mw rbac.Middleware) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		mw:       mw,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// MountRoutes registers routes on the /users subtree.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireAny(rbac.PermViewUsers, rbac.PermManageUsers))
		r.Get("/", h.list)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireAll(rbac.PermManageUsers))
		r.Put("/{userID}/org-roles", h.setOrgRoles)
		r.Post("/{userID}/project-roles", h.setProjectRoles)
	})
}

type userResponse struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

type orgRolesRequest struct {
	Add    []rbac.RoleCode `json:"add"`
	Remove []rbac.RoleCode `json:"remove"`
}

type projectRolesRequest struct {
	ProjectID int64           `json:"projectId" validate:"required,gt=0"`
	Add       []rbac.RoleCode `json:"add"`
	Remove    []rbac.RoleCode `json:"remove"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.logger.Error("list users", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]userResponse, 0, len(users))
	for _, user := range users {
		out = append(out, userResponse{
			ID:        user.ID,
			Email:     user.Email,
			Name:      user.Name,
			IsActive:  user.IsActive,
			CreatedAt: user.CreatedAt,
		})
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) setOrgRoles(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathUserID(w, r)
	if !ok {
		return
	}
	var req orgRolesRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed body")
		return
	}
	if err := h.service.SetOrgRoles(r.Context(), userID, req.Add, req.Remove); err != nil {
		h.respondMutationError(w, userID, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) setProjectRoles(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathUserID(w, r)
	if !ok {
		return
	}
	var req projectRolesRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "projectId is required")
		return
	}
	if err := h.service.SetProjectRoles(r.Context(), userID, req.ProjectID, req.Add, req.Remove); err != nil {
		h.respondMutationError(w, userID, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) pathUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || userID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed user id")
		return 0, false
	}
	return userID, true
}

func (h *Handler) respondMutationError(w http.ResponseWriter, userID int64, err error) {
	switch {
	case errors.Is(err, ErrUnknownRole):
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "user or project not found")
	default:
		h.logger.Error("mutate role assignments", slog.Int64("user_id", userID), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
