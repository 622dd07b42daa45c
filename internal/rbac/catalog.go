package rbac

// RoleDefinition is one row of the fixed role table used by the seeder.
type RoleDefinition struct {
	Code RoleCode
	Name string
}

// PermissionDefinition is one row of the fixed permission table.
type PermissionDefinition struct {
	Code        PermissionCode
	Description string
}

// RoleDefinitions returns the full role catalog.
func RoleDefinitions() []RoleDefinition {
	return []RoleDefinition{
		{RoleAdmin, "Administrator"},
		{RoleOfficer, "Compliance Officer"},
		{RoleAuditor, "Auditor"},
		{RoleViewer, "Viewer"},
	}
}

// PermissionDefinitions returns the full permission catalog.
func PermissionDefinitions() []PermissionDefinition {
	return []PermissionDefinition{
		{PermViewRegulations, "View the regulation register"},
		{PermManageRegulations, "Manage the regulation register"},
		{PermViewProjects, "View compliance projects"},
		{PermManageProjects, "Create and manage compliance projects"},
		{PermViewTasks, "View project tasks"},
		{PermManageTasks, "Create and manage project tasks"},
		{PermViewEvidence, "View uploaded evidence"},
		{PermUploadEvidence, "Upload evidence documents"},
		{PermViewControls, "View project controls"},
		{PermApproveControls, "Approve or reject controls"},
		{PermViewReports, "Access compliance reports"},
		{PermViewUsers, "View user accounts"},
		{PermManageUsers, "Manage users and their role assignments"},
		{PermViewRoles, "View the role catalog"},
		{PermManageRoles, "Manage role assignments"},
		{PermViewPermissions, "View the permission catalog"},
		{PermManageOrgSettings, "Manage organization settings"},
	}
}

// GrantMatrix maps each role to the permissions it grants.
func GrantMatrix() map[RoleCode][]PermissionCode {
	all := make([]PermissionCode, 0, len(PermissionDefinitions()))
	for _, def := range PermissionDefinitions() {
		all = append(all, def.Code)
	}
	return map[RoleCode][]PermissionCode{
		RoleAdmin: all,
		RoleOfficer: {
			PermViewRegulations,
			PermViewProjects, PermManageProjects,
			PermViewTasks, PermManageTasks,
			PermViewEvidence, PermUploadEvidence,
			PermViewControls, PermApproveControls,
			PermViewReports,
		},
		RoleAuditor: {
			PermViewRegulations,
			PermViewProjects,
			PermViewTasks,
			PermViewEvidence,
			PermViewControls,
			PermViewReports,
		},
		RoleViewer: {
			PermViewRegulations,
			PermViewProjects,
		},
	}
}
