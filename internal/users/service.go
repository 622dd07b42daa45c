package users

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aegis-grc/aegis-grc/internal/rbac"
)

// Notifier publishes assignment changes after the write has committed.
// Delivery failures never roll back the mutation.
type Notifier interface {
	RoleAssignmentsChanged(ctx context.Context, change AssignmentChange) error
}

// Service coordinates user listing and role-assignment mutations.
type Service struct {
	repo     RepositoryPort
	notifier Notifier
	logger   *slog.Logger
}

// NewService wires the service with its dependencies.
func NewService(repo RepositoryPort, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{repo: repo, notifier: notifier, logger: logger}
}

// ListUsers returns all user accounts.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.ListUsers(ctx)
}

// GetUser fetches one user account.
func (s *Service) GetUser(ctx context.Context, id int64) (User, error) {
	return s.repo.GetUser(ctx, id)
}

// SetOrgRoles applies organization-wide role additions and removals for
// one user. Unknown role codes reject the whole request before any
// write happens; the write itself is transactional.
func (s *Service) SetOrgRoles(ctx context.Context, userID int64, add, remove []rbac.RoleCode) error {
	if err := validateRoleCodes(add, remove); err != nil {
		return err
	}
	if err := s.repo.SetOrgRoles(ctx, userID, add, remove); err != nil {
		return fmt.Errorf("set org roles: %w", err)
	}
	s.notifyChanged(ctx, AssignmentChange{UserID: userID, Added: add, Removed: remove})
	return nil
}

// SetProjectRoles applies project-scoped role additions and removals
// for one user within one project.
func (s *Service) SetProjectRoles(ctx context.Context, userID, projectID int64, add, remove []rbac.RoleCode) error {
	if err := validateRoleCodes(add, remove); err != nil {
		return err
	}
	if err := s.repo.SetProjectRoles(ctx, userID, projectID, add, remove); err != nil {
		return fmt.Errorf("set project roles: %w", err)
	}
	s.notifyChanged(ctx, AssignmentChange{UserID: userID, ProjectID: &projectID, Added: add, Removed: remove})
	return nil
}

func (s *Service) notifyChanged(ctx context.Context, change AssignmentChange) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.RoleAssignmentsChanged(ctx, change); err != nil {
		s.logger.Warn("publish role assignment change",
			slog.Int64("user_id", change.UserID),
			slog.Any("error", err))
	}
}

func validateRoleCodes(lists ...[]rbac.RoleCode) error {
	known := make(map[rbac.RoleCode]struct{})
	for _, def := range rbac.RoleDefinitions() {
		known[def.Code] = struct{}{}
	}
	for _, list := range lists {
		for _, role := range list {
			if _, ok := known[role]; !ok {
				return fmt.Errorf("%w: unknown role code %q", ErrUnknownRole, role)
			}
		}
	}
	return nil
}
