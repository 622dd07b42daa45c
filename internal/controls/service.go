package controls

import (
	"context"
	"fmt"
	"log/slog"
)

// Service coordinates the control lifecycle.
type Service struct {
	repo   RepositoryPort
	logger *slog.Logger
}

// NewService wires the service with its dependencies.
func NewService(repo RepositoryPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// ListByProject returns a project's controls.
func (s *Service) ListByProject(ctx context.Context, projectID int64) ([]Control, error) {
	return s.repo.ListByProject(ctx, projectID)
}

// Approve moves a control into the approved state, recording who
// approved it. Only controls in review can be approved.
func (s *Service) Approve(ctx context.Context, projectID, controlID, approverID int64) (Control, error) {
	control, err := s.repo.Get(ctx, projectID, controlID)
	if err != nil {
		return Control{}, err
	}
	if control.Status != StatusInReview {
		return Control{}, fmt.Errorf("%w: control %s is %s", ErrInvalidTransition, control.Code, control.Status)
	}
	if err := s.repo.MarkApproved(ctx, controlID, approverID); err != nil {
		return Control{}, fmt.Errorf("mark approved: %w", err)
	}
	s.logger.Info("control approved",
		slog.Int64("project_id", projectID),
		slog.String("control", control.Code),
		slog.Int64("approver_id", approverID))
	return s.repo.Get(ctx, projectID, controlID)
}
