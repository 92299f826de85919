package auth

import "situationroom/internal/model"

// Permission strings
const (
	PermViewDashboard           = "view:dashboard"
	PermViewForms               = "view:forms"
	PermCreateForms             = "create:forms"
	PermSubmitIncident          = "incident:submit"
	PermViewIncidentSubmissions = "incident:submissions"
	PermViewPollingForms        = "view:polling-forms"
	PermViewResources           = "resources:view"
	PermViewPastElections       = "resources:past-elections:view"
	PermUpdatePastElections     = "resources:past-elections:update"
	PermViewVoters              = "resources:voters:view"
	PermUpdateVoters            = "resources:voters:update"
	PermViewParties             = "resources:parties:view"
	PermUpdateParties           = "resources:parties:update"
	PermViewPollingUnits        = "resources:polling-units:view"
	PermUpdatePollingUnits      = "resources:polling-units:update"
	PermViewRepository          = "repository:view"
	PermManageRepository        = "repository:categories:manage"
	PermViewContent             = "content:view"
	PermViewStatusCategory      = "status:category:view"
	PermViewStatusInformation   = "status:information:view"
	PermManageStatusInformation = "status:information:manage"
	PermViewPartners            = "partners:view"
	PermManagePartners          = "partners:manage"
	PermViewNotableDates        = "notable-dates:view"
	PermManageNotableDates      = "notable-dates:manage"
	PermViewUsers               = "users:view"
	PermViewAPI                 = "api:view"
)

var staffPerms = []string{
	PermViewDashboard,
	PermViewForms, PermCreateForms,
	PermSubmitIncident, PermViewIncidentSubmissions,
	PermViewPollingForms,
	PermViewResources, PermViewPastElections, PermUpdatePastElections,
	PermViewVoters, PermUpdateVoters,
	PermViewParties, PermUpdateParties,
	PermViewPollingUnits, PermUpdatePollingUnits,
	PermViewRepository, PermManageRepository,
	PermViewContent,
	PermViewStatusCategory, PermViewStatusInformation, PermManageStatusInformation,
	PermViewPartners, PermManagePartners,
	PermViewNotableDates, PermManageNotableDates,
	PermViewAPI,
}

var fieldPerms = []string{
	PermViewDashboard,
	PermSubmitIncident,
	PermViewPollingForms,
	PermViewResources, PermViewPastElections,
	PermViewVoters,
	PermViewParties,
	PermViewPollingUnits,
	PermViewRepository,
	PermViewContent,
	PermViewStatusCategory, PermViewStatusInformation,
	PermViewPartners,
	PermViewNotableDates,
}

var rolePerms = map[string]map[string]bool{
	model.RoleAdmin:     set(append([]string{PermViewUsers}, staffPerms...)),
	model.RoleWebAdmin:  set(staffPerms),
	model.RoleStaff:     set(staffPerms),
	model.RoleObservers: set(fieldPerms),
	model.RoleReporters: set(fieldPerms),
	model.RoleGuest:     set([]string{PermViewDashboard}),
}

func set(perms []string) map[string]bool {
	m := make(map[string]bool, len(perms))
	for _, p := range perms {
		m[p] = true
	}
	return m
}

// KnownRole reports whether role appears in the permission table
func KnownRole(role string) bool {
	_, ok := rolePerms[role]
	return ok
}

// HasPerm reports whether role grants perm. Unknown roles are treated as Guest.
func HasPerm(role, perm string) bool {
	perms, ok := rolePerms[role]
	if !ok {
		perms = rolePerms[model.RoleGuest]
	}
	return perms[perm]
}
