package projects

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/aegis-grc/aegis-grc/internal/platform/httpx"
	"github.com/aegis-grc/aegis-grc/internal/rbac"
)

// Handler exposes project management over HTTP.
type Handler struct {
	logger   *slog.Logger
	repo     RepositoryPort
	mw       rbac.Middleware
	validate *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, repo RepositoryPort, mw rbac.Middleware) *Handler {
	return &Handler{
		logger:   logger,
		repo:     repo,
		mw:       mw,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// MountRoutes registers routes on the /projects subtree.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireAll(rbac.PermViewProjects))
		r.Get("/", h.list)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireAll(rbac.PermManageProjects))
		r.Post("/", h.create)
	})
}

type projectResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

type createProjectRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	list, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error("list projects", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]projectResponse, 0, len(list))
	for _, p := range list {
		out = append(out, projectResponse{ID: p.ID, Name: p.Name, Description: p.Description, CreatedAt: p.CreatedAt})
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "name is required")
		return
	}
	p, err := h.repo.Create(r.Context(), req.Name, req.Description)
	if err != nil {
		h.logger.Error("create project", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusCreated, projectResponse{ID: p.ID, Name: p.Name, Description: p.Description, CreatedAt: p.CreatedAt})
}
