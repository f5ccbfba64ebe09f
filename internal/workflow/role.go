package workflow

// Role is a staff account role.
type Role string

const (
	// RoleSecretary files requests but never approves them.
	RoleSecretary Role = "SECRETARY"
	RoleHR        Role = "HR"
	RoleAdmin     Role = "ADMIN"
)

// AllRoles lists every staff role.
var AllRoles = []Role{RoleSecretary, RoleHR, RoleAdmin}

func (r Role) IsValid() bool {
	switch r {
	case RoleSecretary, RoleHR, RoleAdmin:
		return true
	}
	return false
}

// IsApprover reports whether r owns a stage in any workflow.
func (r Role) IsApprover() bool {
	for _, s := range stages {
		for _, stage := range s {
			if stage == r {
				return true
			}
		}
	}
	return false
}

// CanAct reports whether role may decide a request currently in status.
// HR acts only on PENDING_HR and ADMIN only on PENDING_ADMIN.
func CanAct(role Role, status Status) bool {
	owner, ok := stageRole(status)
	return ok && owner == role
}
