// Package rbac holds the role and permission tables. The tables are
// package-level constants fixed for the process lifetime; permission
// checks are plain synchronous lookups.
package rbac

// Role is one of the closed set of user roles.
type Role string

const (
	RoleSuperAdmin Role = "superadmin"
	RoleGymOwner   Role = "gymowner"
	RoleStaff      Role = "staff"
	RoleTrainer    Role = "trainer"
	RoleMember     Role = "member"
)

// Permission is a named fine-grained capability, distinct from coarse
// role membership.
type Permission string

const (
	PermManageUsers    Permission = "manage_users"
	PermManageMembers  Permission = "manage_members"
	PermViewMembers    Permission = "view_members"
	PermScanQR         Permission = "scan_qr"
	PermViewAttendance Permission = "view_attendance"
	PermViewReports    Permission = "view_reports"
	PermManagePlans    Permission = "manage_plans"
	PermViewAlerts     Permission = "view_alerts"
)

// rolePermissions maps each role to its capability set. Superadmin only
// operates at the system level and carries no gym-operational
// permissions.
var rolePermissions = map[Role][]Permission{
	RoleSuperAdmin: {
		PermViewReports,
	},
	RoleGymOwner: {
		PermManageUsers,
		PermManageMembers,
		PermViewMembers,
		PermScanQR,
		PermViewAttendance,
		PermViewReports,
		PermManagePlans,
		PermViewAlerts,
	},
	RoleStaff: {
		PermManageMembers,
		PermViewMembers,
		PermScanQR,
		PermViewAttendance,
		PermViewAlerts,
	},
	RoleTrainer: {
		PermViewMembers,
		PermViewAttendance,
	},
	RoleMember: {},
}

// Valid reports whether r is a known role.
func Valid(r Role) bool {
	switch r {
	case RoleSuperAdmin, RoleGymOwner, RoleStaff, RoleTrainer, RoleMember:
		return true
	}
	return false
}

// Allowed reports whether role is in the allowed set.
func Allowed(role Role, allowed ...Role) bool {
	for _, r := range allowed {
		if role == r {
			return true
		}
	}
	return false
}

// HasPermission reports whether role carries the given capability.
func HasPermission(role Role, perm Permission) bool {
	for _, p := range rolePermissions[role] {
		if p == perm {
			return true
		}
	}
	return false
}

// Permissions returns the capability set for a role. The returned slice
// must not be mutated.
func Permissions(role Role) []Permission {
	return rolePermissions[role]
}
