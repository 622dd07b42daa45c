package controls

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aegis-grc/aegis-grc/internal/platform/httpx"
	"github.com/aegis-grc/aegis-grc/internal/rbac"
	"github.com/aegis-grc/aegis-grc/internal/shared"
)

// Handler exposes project controls over HTTP. All routes are project
// scoped: the enforcement layer resolves the caller's permissions for
// the project named in the path.
type Handler struct {
	logger  *slog.Logger
	service *Service
	mw      rbac.Middleware
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mw rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, mw: mw}
}

// MountRoutes registers routes under the /projects subtree, at
// /{projectID}/controls.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/{projectID}/controls", func(r chi.Router) {
		r.With(h.mw.RequireProject(rbac.PermViewControls)).Get("/", h.list)
		r.With(h.mw.RequireProject(rbac.PermApproveControls)).Post("/{controlID}/approve", h.approve)
	})
}

type controlResponse struct {
	ID         int64      `json:"id"`
	ProjectID  int64      `json:"projectId"`
	Code       string     `json:"code"`
	Title      string     `json:"title"`
	Status     Status     `json:"status"`
	ApprovedBy *int64     `json:"approvedBy,omitempty"`
	ApprovedAt *time.Time `json:"approvedAt,omitempty"`
}

func toResponse(c Control) controlResponse {
	return controlResponse{
		ID:         c.ID,
		ProjectID:  c.ProjectID,
		Code:       c.Code,
		Title:      c.Title,
		Status:     c.Status,
		ApprovedBy: c.ApprovedBy,
		ApprovedAt: c.ApprovedAt,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	grant, ok := rbac.GrantFromContext(r.Context())
	if !ok || grant.ProjectID == nil {
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	list, err := h.service.ListByProject(r.Context(), *grant.ProjectID)
	if err != nil {
		h.logger.Error("list controls", slog.Int64("project_id", *grant.ProjectID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]controlResponse, 0, len(list))
	for _, c := range list {
		out = append(out, toResponse(c))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	grant, ok := rbac.GrantFromContext(r.Context())
	if !ok || grant.ProjectID == nil {
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	controlID, err := strconv.ParseInt(chi.URLParam(r, "controlID"), 10, 64)
	if err != nil || controlID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed control id")
		return
	}

	control, err := h.service.Approve(r.Context(), *grant.ProjectID, controlID, grant.UserID)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "control not found")
		return
	case errors.Is(err, ErrInvalidTransition):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
		return
	case err != nil:
		h.logger.Error("approve control", slog.Int64("control_id", controlID), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(control))
}
