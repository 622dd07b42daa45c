package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/aegis-grc/aegis-grc/internal/auth"
	"github.com/aegis-grc/aegis-grc/internal/controls"
	"github.com/aegis-grc/aegis-grc/internal/observability"
	"github.com/aegis-grc/aegis-grc/internal/projects"
	"github.com/aegis-grc/aegis-grc/internal/rbac"
	"github.com/aegis-grc/aegis-grc/internal/regulations"
	"github.com/aegis-grc/aegis-grc/internal/shared"
	"github.com/aegis-grc/aegis-grc/internal/users"
	"github.com/aegis-grc/aegis-grc/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	SessionManager     *shared.SessionManager
	CSRFManager        *shared.CSRFManager
	AuthHandler        *auth.Handler
	RBACHandler        *rbac.Handler
	UsersHandler       *users.Handler
	ProjectsHandler    *projects.Handler
	RegulationsHandler *regulations.Handler
	ControlsHandler    *controls.Handler
	JobHandler         *jobs.Handler
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router with Aegis defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)
	params.RBACHandler.MountRoutes(r)
	r.Route("/users", func(r chi.Router) {
		params.UsersHandler.MountRoutes(r)
		params.RBACHandler.MountUserRoutes(r)
	})
	if params.ProjectsHandler != nil {
		r.Route("/projects", func(r chi.Router) {
			params.ProjectsHandler.MountRoutes(r)
			if params.ControlsHandler != nil {
				params.ControlsHandler.MountRoutes(r)
			}
		})
	}
	if params.RegulationsHandler != nil {
		r.Route("/regulations", params.RegulationsHandler.MountRoutes)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
