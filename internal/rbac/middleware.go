package rbac

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/aegis-grc/aegis-grc/internal/platform/httpx"
	"github.com/aegis-grc/aegis-grc/internal/shared"
)

// Decision outcomes recorded per authorization check.
const (
	DecisionAllowed         = "allowed"
	DecisionUnauthenticated = "unauthenticated"
	DecisionInvalidRequest  = "invalid_request"
	DecisionForbidden       = "forbidden"
	DecisionError           = "error"
)

// DecisionRecorder receives the terminal outcome of each check.
type DecisionRecorder interface {
	RecordDecision(outcome string)
}

// Middleware wires authorization checks for HTTP handlers.
//
// Check order is fixed: identity, then (for project-scoped operations)
// project id extraction, then resolution, then the subset check. A
// resolution failure is an internal error, never a forbidden.
type Middleware struct {
	Service   *Service
	Logger    *slog.Logger
	Decisions DecisionRecorder
}

// ProjectURLParam is the chi route parameter carrying the project id.
const ProjectURLParam = "projectID"

// RequireAll allows the request only when the caller holds every listed
// permission at organization scope.
func (m Middleware) RequireAll(perms ...PermissionCode) func(http.Handler) http.Handler {
	return m.require(perms, false, true)
}

// RequireAny allows the request when the caller holds at least one of
// the listed permissions at organization scope.
func (m Middleware) RequireAny(perms ...PermissionCode) func(http.Handler) http.Handler {
	return m.require(perms, false, false)
}

// RequireProject allows the request only when the caller holds every
// listed permission on the project named by the request.
func (m Middleware) RequireProject(perms ...PermissionCode) func(http.Handler) http.Handler {
	return m.require(perms, true, true)
}

// RequireProjectAny is the any-of variant of RequireProject.
func (m Middleware) RequireProjectAny(perms ...PermissionCode) func(http.Handler) http.Handler {
	return m.require(perms, true, false)
}

func (m Middleware) require(perms []PermissionCode, projectScoped, all bool) func(http.Handler) http.Handler {
	required := dedupe(perms)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(required) == 0 {
				next.ServeHTTP(w, r)
				return
			}

			userID, ok := m.currentUserID(r)
			if !ok {
				m.deny(w, DecisionUnauthenticated, nil)
				return
			}

			var projectID *int64
			if projectScoped {
				id, ok := projectIDFromRequest(r)
				if !ok {
					m.deny(w, DecisionInvalidRequest, nil)
					return
				}
				projectID = &id
			}

			granted, err := m.Service.Resolve(r.Context(), userID, projectID)
			if err != nil {
				if m.Logger != nil {
					m.Logger.Error("authorization resolve", slog.Int64("user_id", userID), slog.Any("error", err))
				}
				m.deny(w, DecisionError, nil)
				return
			}

			missing := granted.Missing(required)
			denied := len(missing) > 0
			if !all {
				// Any-of is the same subset primitive applied per code:
				// allowed as soon as one single-code requirement passes.
				denied = len(missing) == len(required)
			}
			if denied {
				m.deny(w, DecisionForbidden, missing)
				return
			}

			m.record(DecisionAllowed)
			ctx := ContextWithGrant(r.Context(), Grant{
				UserID:      userID,
				ProjectID:   projectID,
				Required:    required,
				Permissions: granted,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type forbiddenBody struct {
	Title   string           `json:"title"`
	Status  int              `json:"status"`
	Detail  string           `json:"detail"`
	Missing []PermissionCode `json:"missing"`
}

func (m Middleware) deny(w http.ResponseWriter, outcome string, missing []PermissionCode) {
	m.record(outcome)
	switch outcome {
	case DecisionUnauthenticated:
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
	case DecisionInvalidRequest:
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "missing or malformed project id")
	case DecisionForbidden:
		// Names the missing required codes only; the caller's actual
		// grants are never echoed back.
		httpx.JSON(w, http.StatusForbidden, forbiddenBody{
			Title:   "Forbidden",
			Status:  http.StatusForbidden,
			Detail:  "missing required permissions",
			Missing: missing,
		})
	default:
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func (m Middleware) record(outcome string) {
	if m.Decisions != nil {
		m.Decisions.RecordDecision(outcome)
	}
}

func (m Middleware) currentUserID(r *http.Request) (int64, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return 0, false
	}
	raw := strings.TrimSpace(sess.User())
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		if m.Logger != nil {
			m.Logger.Error("authorization parse user id", slog.String("value", raw))
		}
		return 0, false
	}
	return id, true
}

// projectIDFromRequest reads the project id from the route parameter
// first, then the projectId query parameter.
func projectIDFromRequest(r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, ProjectURLParam)
	if raw == "" {
		raw = r.URL.Query().Get("projectId")
	}
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func dedupe(perms []PermissionCode) []PermissionCode {
	unique := make(map[PermissionCode]struct{}, len(perms))
	deduped := make([]PermissionCode, 0, len(perms))
	for _, p := range perms {
		if p == "" {
			continue
		}
		if _, ok := unique[p]; ok {
			continue
		}
		unique[p] = struct{}{}
		deduped = append(deduped, p)
	}
	return deduped
}
