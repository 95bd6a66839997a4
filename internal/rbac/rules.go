package rbac

const RoleAdmin = "admin"

const (
	PermExamCreate          = "exam:create"
	PermExamUpdate          = "exam:update"
	PermExamDelete          = "exam:delete"
	PermExamImport          = "exam:import"
	PermMaterialUpload      = "material:upload"
	PermAttemptViewAll      = "attempt:view-all"
	PermRegistrationViewAll = "registration:view-all"
	PermEventView           = "event:view"
)

// Candidates never sign in, so the administrator is the only role.
var RolePermissions = map[string][]string{
	RoleAdmin: {
		"*",
	},
}
