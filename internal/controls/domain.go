package controls

import (
	"errors"
	"time"
)

// Status tracks a control through its review lifecycle.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusInReview Status = "in_review"
	StatusApproved Status = "approved"
)

// ErrInvalidTransition marks an approval attempted from a state that
// does not allow it.
var ErrInvalidTransition = errors.New("invalid status transition")

// Control is a compliance control belonging to one project.
type Control struct {
	ID         int64
	ProjectID  int64
	Code       string
	Title      string
	Status     Status
	ApprovedBy *int64
	ApprovedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
