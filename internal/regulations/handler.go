package regulations

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/aegis-grc/aegis-grc/internal/platform/httpx"
	"github.com/aegis-grc/aegis-grc/internal/rbac"
)

// Handler exposes the regulatory library over HTTP.
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

// MountRoutes registers routes on the /regulations subtree.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireAll(rbac.PermViewRegulations))
		r.Get("/", h.list)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireAll(rbac.PermManageRegulations))
		r.Post("/", h.create)
	})
}

type regulationResponse struct {
	ID        int64  `json:"id"`
	Code      string `json:"code"`
	Title     string `json:"title"`
	Authority string `json:"authority"`
}

type createRegulationRequest struct {
	Code      string `json:"code" validate:"required,min=1,max=50"`
	Title     string `json:"title" validate:"required,min=1,max=300"`
	Authority string `json:"authority" validate:"max=200"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	list, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error("list regulations", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]regulationResponse, 0, len(list))
	for _, reg := range list {
		out = append(out, regulationResponse{ID: reg.ID, Code: reg.Code, Title: reg.Title, Authority: reg.Authority})
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRegulationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "code and title are required")
		return
	}
	reg, err := h.repo.Create(r.Context(), req.Code, req.Title, req.Authority)
	if err != nil {
		h.logger.Error("create regulation", slog.String("code", req.Code), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, regulationResponse{ID: reg.ID, Code: reg.Code, Title: reg.Title, Authority: reg.Authority})
}
