package admin

import "context"

// Repository defines the interface for admin and group data access
type Repository interface {
	// CreateAdmin creates an admin user
	CreateAdmin(ctx context.Context, a *AdminUser) error

	// GetAdminByID retrieves an admin by ID
	GetAdminByID(ctx context.Context, id int64) (*AdminUser, error)

	// GetAdminByUserID retrieves the admin row backing a user, if any
	GetAdminByUserID(ctx context.Context, userID int64) (*AdminUser, error)

	// ListAdmins retrieves all admins
	ListAdmins(ctx context.Context) ([]*AdminUser, error)

	// UpdateAdmin updates an admin
	UpdateAdmin(ctx context.Context, a *AdminUser) error

	// DeleteAdmin deletes an admin
	DeleteAdmin(ctx context.Context, id int64) error

	// CountAdmins counts all admin rows
	CountAdmins(ctx context.Context) (int64, error)

	// CreateGroup creates a group
	CreateGroup(ctx context.Context, g *Group) error

	// GetGroup retrieves a group by ID
	GetGroup(ctx context.Context, id int64) (*Group, error)

	// ListGroups retrieves all groups
	ListGroups(ctx context.Context) ([]*Group, error)

	// DeleteGroup deletes a group and its memberships
	DeleteGroup(ctx context.Context, id int64) error

	// AddGroupUser adds a user to a group
	AddGroupUser(ctx context.Context, groupID, userID int64) error

	// RemoveGroupUser removes a user from a group
	RemoveGroupUser(ctx context.Context, groupID, userID int64) error

	// AddGroupAdmin assigns an admin to a group
	AddGroupAdmin(ctx context.Context, groupID, adminID int64) error

	// RemoveGroupAdmin unassigns an admin from a group
	RemoveGroupAdmin(ctx context.Context, groupID, adminID int64) error

	// ListGroupsByAdmin retrieves the groups an admin manages
	ListGroupsByAdmin(ctx context.Context, adminID int64) ([]*Group, error)

	// IsUserInAdminGroups reports whether userID belongs to any group
	// managed by adminID
	IsUserInAdminGroups(ctx context.Context, adminID, userID int64) (bool, error)

	// DashboardStats aggregates the back-office landing counters
	DashboardStats(ctx context.Context) (*DashboardStats, error)
}
