package admin

import "context"

// Service defines the interface for back-office business logic. Every
// mutating method takes the acting admin so capability checks happen here,
// not in handlers.
type Service interface {
	// GetByUserID resolves the admin row backing a signed-in user
	GetByUserID(ctx context.Context, userID int64) (*AdminUser, error)

	// Bootstrap creates the first master admin. Fails once any admin exists.
	Bootstrap(ctx context.Context, userID int64, email string) (*AdminUser, error)

	// CreateAdmin creates an admin on behalf of actor
	CreateAdmin(ctx context.Context, actor *AdminUser, userID int64, email, role string) (*AdminUser, error)

	// UpdateAdmin updates an admin's role on behalf of actor
	UpdateAdmin(ctx context.Context, actor *AdminUser, id int64, role string) error

	// DeleteAdmin deletes an admin on behalf of actor
	DeleteAdmin(ctx context.Context, actor *AdminUser, id int64) error

	// ListAdmins retrieves all admins
	ListAdmins(ctx context.Context, actor *AdminUser) ([]*AdminUser, error)

	// Dashboard returns the back-office landing summary
	Dashboard(ctx context.Context, actor *AdminUser) (*DashboardStats, error)

	// CanManageUser reports whether actor may manage the given user
	// (masters: always; group admins: only users in their groups)
	CanManageUser(ctx context.Context, actor *AdminUser, userID int64) (bool, error)

	// CreateGroup creates a group
	CreateGroup(ctx context.Context, actor *AdminUser, name string) (*Group, error)

	// DeleteGroup deletes a group
	DeleteGroup(ctx context.Context, actor *AdminUser, id int64) error

	// ListGroups lists the groups visible to actor
	ListGroups(ctx context.Context, actor *AdminUser) ([]*Group, error)

	// AddGroupUser adds a user to a group
	AddGroupUser(ctx context.Context, actor *AdminUser, groupID, userID int64) error

	// RemoveGroupUser removes a user from a group
	RemoveGroupUser(ctx context.Context, actor *AdminUser, groupID, userID int64) error

	// AddGroupAdmin assigns an admin to a group
	AddGroupAdmin(ctx context.Context, actor *AdminUser, groupID, adminID int64) error

	// RemoveGroupAdmin unassigns an admin from a group
	RemoveGroupAdmin(ctx context.Context, actor *AdminUser, groupID, adminID int64) error
}
