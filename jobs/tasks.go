package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/aegis-grc/aegis-grc/internal/jobs"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeRoleAssignmentChanged fires after a role-assignment
	// mutation has committed.
	TaskTypeRoleAssignmentChanged = "rbac:assignment-changed"
)

// RoleAssignmentChangedPayload carries the committed mutation so
// downstream consumers (audit trail, cache invalidation) can react.
type RoleAssignmentChangedPayload struct {
	UserID    int64    `json:"userId"`
	ProjectID *int64   `json:"projectId,omitempty"`
	Added     []string `json:"added"`
	Removed   []string `json:"removed"`
}

// NewRoleAssignmentChangedTask constructs an Asynq task.
func NewRoleAssignmentChangedTask(payload RoleAssignmentChangedPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeRoleAssignmentChanged, data), nil
}

// NewRoleAssignmentChangedHandler processes assignment-change tasks.
func NewRoleAssignmentChangedHandler(logger *slog.Logger, metrics *jobmetrics.Metrics) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := metrics.Track(TaskTypeRoleAssignmentChanged)
		var payload RoleAssignmentChangedPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return tracker.End(asynq.SkipRetry)
		}
		attrs := []any{
			slog.Int64("user_id", payload.UserID),
			slog.Any("added", payload.Added),
			slog.Any("removed", payload.Removed),
		}
		if payload.ProjectID != nil {
			attrs = append(attrs, slog.Int64("project_id", *payload.ProjectID))
		}
		logger.InfoContext(ctx, "role assignments changed", attrs...)
		return tracker.End(nil)
	}
}
