package admin

import "testing"

func TestCan(t *testing.T) {
	master := &AdminUser{ID: 1, Role: RoleMaster}
	group := &AdminUser{ID: 2, Role: RoleGroup}

	tests := []struct {
		name   string
		actor  *AdminUser
		action Action
		want   bool
	}{
		{"nil actor", nil, ActionManageUsers, false},
		{"master manages users", master, ActionManageUsers, true},
		{"master manages groups", master, ActionManageGroups, true},
		{"master creates admins", master, ActionCreateAdmin, true},
		{"master creates masters", master, ActionCreateMaster, true},
		{"group manages users", group, ActionManageUsers, true},
		{"group manages payments", group, ActionManagePayments, true},
		{"group cannot manage groups", group, ActionManageGroups, false},
		{"group cannot create admins", group, ActionCreateAdmin, false},
		{"group cannot delete admins", group, ActionDeleteAdmin, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Can(tt.actor, tt.action); got != tt.want {
				t.Errorf("Can(%v, %q) = %v, want %v", tt.actor, tt.action, got, tt.want)
			}
		})
	}
}

func TestCanTouchAdmin(t *testing.T) {
	master := &AdminUser{ID: 1, Role: RoleMaster}
	group := &AdminUser{ID: 2, Role: RoleGroup}

	if !CanTouchAdmin(master, group) {
		t.Error("master cannot edit a group admin")
	}
	if !CanTouchAdmin(master, master) {
		t.Error("master cannot edit another master")
	}
	if CanTouchAdmin(group, master) {
		t.Error("group admin may edit a master")
	}
	if CanTouchAdmin(group, group) {
		t.Error("group admin may edit another admin")
	}
	if CanTouchAdmin(nil, group) {
		t.Error("nil actor may edit an admin")
	}
	if CanTouchAdmin(master, nil) {
		t.Error("nil target is editable")
	}
}
