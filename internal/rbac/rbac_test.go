package rbac

import "testing"

func TestHasPermission(t *testing.T) {
	tests := []struct {
		role Role
		perm Permission
		want bool
	}{
		{RoleGymOwner, PermManageUsers, true},
		{RoleGymOwner, PermManagePlans, true},
		{RoleStaff, PermScanQR, true},
		{RoleStaff, PermManageUsers, false},
		{RoleStaff, PermManagePlans, false},
		{RoleTrainer, PermViewMembers, true},
		{RoleTrainer, PermScanQR, false},
		{RoleMember, PermViewMembers, false},
		{RoleSuperAdmin, PermViewReports, true},
		{RoleSuperAdmin, PermManageMembers, false},
		{Role("unknown"), PermViewMembers, false},
	}

	for _, tt := range tests {
		if got := HasPermission(tt.role, tt.perm); got != tt.want {
			t.Errorf("HasPermission(%s, %s) = %v, want %v", tt.role, tt.perm, got, tt.want)
		}
	}
}

func TestValid(t *testing.T) {
	for _, r := range []Role{RoleSuperAdmin, RoleGymOwner, RoleStaff, RoleTrainer, RoleMember} {
		if !Valid(r) {
			t.Errorf("Valid(%s) = false", r)
		}
	}
	for _, r := range []Role{"", "admin", "owner", "SUPERADMIN"} {
		if Valid(r) {
			t.Errorf("Valid(%q) = true", r)
		}
	}
}

func TestAllowed(t *testing.T) {
	if !Allowed(RoleStaff, RoleGymOwner, RoleStaff) {
		t.Error("staff should be in {gymowner, staff}")
	}
	if Allowed(RoleTrainer, RoleGymOwner, RoleStaff) {
		t.Error("trainer should not be in {gymowner, staff}")
	}
	if Allowed(RoleStaff) {
		t.Error("empty allowed set must reject everyone")
	}
}
