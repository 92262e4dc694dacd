package admin

// Action identifies an admin operation subject to a capability check
type Action string

const (
	ActionManageUsers    Action = "manage_users"
	ActionManagePayments Action = "manage_payments"
	ActionManageGroups   Action = "manage_groups"
	ActionCreateAdmin    Action = "create_admin"
	ActionEditAdmin      Action = "edit_admin"
	ActionDeleteAdmin    Action = "delete_admin"
	ActionCreateMaster   Action = "create_master"
)

// Can is the single capability check for the back-office. It is consumed by
// the HTTP middleware and by service methods, so the rules live in one place:
// masters can do everything; group admins manage users and payments of their
// own groups only and cannot touch admin accounts. Actions aimed at a
// specific admin account go through CanTouchAdmin instead.
func Can(actor *AdminUser, action Action) bool {
	if actor == nil {
		return false
	}

	switch actor.Role {
	case RoleMaster:
		// Only masters may create or delete other masters; that is already
		// satisfied here, but deleting the last master is refused at the
		// service layer, not in the capability check.
		return true

	case RoleGroup:
		switch action {
		case ActionManageUsers, ActionManagePayments:
			return true
		case ActionManageGroups:
			// Group admins see their groups but cannot create or delete them
			return false
		case ActionCreateAdmin, ActionEditAdmin, ActionDeleteAdmin, ActionCreateMaster:
			return false
		}
	}

	return false
}

// CanTouchAdmin reports whether actor may edit or delete target. Group admins
// never can; masters can touch anyone, including other masters.
func CanTouchAdmin(actor, target *AdminUser) bool {
	if actor == nil || target == nil {
		return false
	}
	return actor.Role == RoleMaster
}
