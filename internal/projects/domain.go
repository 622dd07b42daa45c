package projects

import "time"

// Project is a compliance project: a scoped body of work against which
// project-level roles are assigned.
type Project struct {
	ID          int64
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
