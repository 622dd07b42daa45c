package users

import (
	"time"

	"github.com/aegis-grc/aegis-grc/internal/rbac"
)

// User represents a user account for management.
type User struct {
	ID        int64
	Email     string
	Name      string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AssignmentChange describes a committed role-assignment mutation,
// published to the notification queue after the write completes.
type AssignmentChange struct {
	UserID    int64
	ProjectID *int64
	Added     []rbac.RoleCode
	Removed   []rbac.RoleCode
}
