package rbac

import (
	"sort"
	"time"
)

// RoleCode identifies a role in the fixed catalog.
type RoleCode string

// PermissionCode identifies a permission in the fixed catalog.
type PermissionCode string

// Role catalog. The set of roles is closed; new roles ship with a release,
// they are never created at runtime.
const (
	RoleAdmin   RoleCode = "admin"
	RoleOfficer RoleCode = "officer"
	RoleAuditor RoleCode = "auditor"
	RoleViewer  RoleCode = "viewer"
)

// Permission catalog.
const (
	PermViewRegulations   PermissionCode = "view_regulations"
	PermManageRegulations PermissionCode = "manage_regulations"
	PermViewProjects      PermissionCode = "view_projects"
	PermManageProjects    PermissionCode = "manage_projects"
	PermViewTasks         PermissionCode = "view_tasks"
	PermManageTasks       PermissionCode = "manage_tasks"
	PermViewEvidence      PermissionCode = "view_evidence"
	PermUploadEvidence    PermissionCode = "upload_evidence"
	PermViewControls      PermissionCode = "view_controls"
	PermApproveControls   PermissionCode = "approve_controls"
	PermViewReports       PermissionCode = "view_reports"
	PermViewUsers         PermissionCode = "view_users"
	PermManageUsers       PermissionCode = "manage_users"
	PermViewRoles         PermissionCode = "view_roles"
	PermManageRoles       PermissionCode = "manage_roles"
	PermViewPermissions   PermissionCode = "view_permissions"
	PermManageOrgSettings PermissionCode = "manage_org_settings"
)

// Role represents a seeded role definition.
type Role struct {
	ID        int64
	Code      RoleCode
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Permission represents a seeded atomic capability.
type Permission struct {
	ID          int64
	Code        PermissionCode
	Description string
}

// RoleGrant ties a permission to a role in the matrix.
type RoleGrant struct {
	RoleID       int64
	PermissionID int64
}

// RoleAssignment is one assignment row as read during resolution.
// Org-level rows carry no project; project-level rows are fetched
// per (user, project) so the project id is implicit.
type RoleAssignment struct {
	RoleID int64
	Code   RoleCode
}

// PermissionSet is a deduplicated set of permission codes.
type PermissionSet map[PermissionCode]struct{}

// NewPermissionSet builds a set from the given codes.
func NewPermissionSet(codes ...PermissionCode) PermissionSet {
	set := make(PermissionSet, len(codes))
	for _, code := range codes {
		set[code] = struct{}{}
	}
	return set
}

// Add inserts a code into the set.
func (s PermissionSet) Add(code PermissionCode) {
	s[code] = struct{}{}
}

// Has reports whether the set contains the code.
func (s PermissionSet) Has(code PermissionCode) bool {
	_, ok := s[code]
	return ok
}

// Missing returns the required codes not present in the set, sorted.
func (s PermissionSet) Missing(required []PermissionCode) []PermissionCode {
	var missing []PermissionCode
	for _, code := range required {
		if !s.Has(code) {
			missing = append(missing, code)
		}
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
	return missing
}

// Codes returns the members of the set, sorted.
func (s PermissionSet) Codes() []PermissionCode {
	codes := make([]PermissionCode, 0, len(s))
	for code := range s {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}
