package services

import (
	"context"

	"github.com/zapagent/zapagent/internal/domain/admin"
	"github.com/zapagent/zapagent/internal/pkg/errors"
	"github.com/zapagent/zapagent/internal/pkg/logger"
)

// AdminService implements admin.Service
type AdminService struct {
	repo   admin.Repository
	logger *logger.Logger
}

// NewAdminService creates a new admin service
func NewAdminService(repo admin.Repository, log *logger.Logger) admin.Service {
	return &AdminService{
		repo:   repo,
		logger: log,
	}
}

// GetByUserID resolves the admin row backing a signed-in user
func (s *AdminService) GetByUserID(ctx context.Context, userID int64) (*admin.AdminUser, error) {
	return s.repo.GetAdminByUserID(ctx, userID)
}

// Bootstrap creates the first master admin. Fails once any admin exists.
func (s *AdminService) Bootstrap(ctx context.Context, userID int64, email string) (*admin.AdminUser, error) {
	count, err := s.repo.CountAdmins(ctx)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.Conflict("Back-office already has admins")
	}

	a := &admin.AdminUser{
		UserID: userID,
		Email:  email,
		Role:   admin.RoleMaster,
	}
	if err := s.repo.CreateAdmin(ctx, a); err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"admin_id": a.ID,
		"user_id":  userID,
	}).Info("Back-office bootstrapped with first master admin")

	return a, nil
}

// CreateAdmin creates an admin on behalf of actor
func (s *AdminService) CreateAdmin(ctx context.Context, actor *admin.AdminUser, userID int64, email, role string) (*admin.AdminUser, error) {
	if role != admin.RoleMaster && role != admin.RoleGroup {
		return nil, errors.BadRequest("Unknown admin role")
	}

	action := admin.ActionCreateAdmin
	if role == admin.RoleMaster {
		action = admin.ActionCreateMaster
	}
	if !admin.Can(actor, action) {
		return nil, errors.Forbidden("Not allowed to create admins")
	}

	if existing, err := s.repo.GetAdminByUserID(ctx, userID); err == nil && existing != nil {
		return nil, errors.Conflict("User is already an admin")
	}

	a := &admin.AdminUser{
		UserID: userID,
		Email:  email,
		Role:   role,
	}
	if err := s.repo.CreateAdmin(ctx, a); err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"actor_id": actor.ID,
		"admin_id": a.ID,
		"role":     role,
	}).Info("Admin created")

	return a, nil
}

// UpdateAdmin updates an admin's role on behalf of actor
func (s *AdminService) UpdateAdmin(ctx context.Context, actor *admin.AdminUser, id int64, role string) error {
	if role != admin.RoleMaster && role != admin.RoleGroup {
		return errors.BadRequest("Unknown admin role")
	}

	target, err := s.repo.GetAdminByID(ctx, id)
	if err != nil {
		return err
	}

	if !admin.CanTouchAdmin(actor, target) {
		return errors.Forbidden("Not allowed to edit admins")
	}

	// Demoting the last master would lock the back-office out
	if target.Role == admin.RoleMaster && role != admin.RoleMaster {
		masters, err := s.countMasters(ctx)
		if err != nil {
			return err
		}
		if masters <= 1 {
			return errors.Conflict("Cannot demote the last master admin")
		}
	}

	target.Role = role
	return s.repo.UpdateAdmin(ctx, target)
}

// DeleteAdmin deletes an admin on behalf of actor
func (s *AdminService) DeleteAdmin(ctx context.Context, actor *admin.AdminUser, id int64) error {
	target, err := s.repo.GetAdminByID(ctx, id)
	if err != nil {
		return err
	}

	if !admin.CanTouchAdmin(actor, target) {
		return errors.Forbidden("Not allowed to delete admins")
	}

	if target.Role == admin.RoleMaster {
		masters, err := s.countMasters(ctx)
		if err != nil {
			return err
		}
		if masters <= 1 {
			return errors.Conflict("Cannot delete the last master admin")
		}
	}

	if err := s.repo.DeleteAdmin(ctx, id); err != nil {
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"actor_id": actor.ID,
		"admin_id": id,
	}).Info("Admin deleted")

	return nil
}

// ListAdmins retrieves all admins
func (s *AdminService) ListAdmins(ctx context.Context, actor *admin.AdminUser) ([]*admin.AdminUser, error) {
	if actor == nil {
		return nil, errors.Forbidden("Not allowed to list admins")
	}
	return s.repo.ListAdmins(ctx)
}

// Dashboard returns the back-office landing summary
func (s *AdminService) Dashboard(ctx context.Context, actor *admin.AdminUser) (*admin.DashboardStats, error) {
	if actor == nil {
		return nil, errors.Forbidden("Not allowed to view the dashboard")
	}
	return s.repo.DashboardStats(ctx)
}

// CanManageUser reports whether actor may manage the given user
func (s *AdminService) CanManageUser(ctx context.Context, actor *admin.AdminUser, userID int64) (bool, error) {
	if !admin.Can(actor, admin.ActionManageUsers) {
		return false, nil
	}
	if actor.Role == admin.RoleMaster {
		return true, nil
	}
	return s.repo.IsUserInAdminGroups(ctx, actor.ID, userID)
}

// CreateGroup creates a group
func (s *AdminService) CreateGroup(ctx context.Context, actor *admin.AdminUser, name string) (*admin.Group, error) {
	if !admin.Can(actor, admin.ActionManageGroups) {
		return nil, errors.Forbidden("Not allowed to manage groups")
	}
	if name == "" {
		return nil, errors.BadRequest("Group name is required")
	}

	g := &admin.Group{Name: name}
	if err := s.repo.CreateGroup(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

// DeleteGroup deletes a group
func (s *AdminService) DeleteGroup(ctx context.Context, actor *admin.AdminUser, id int64) error {
	if !admin.Can(actor, admin.ActionManageGroups) {
		return errors.Forbidden("Not allowed to manage groups")
	}
	return s.repo.DeleteGroup(ctx, id)
}

// ListGroups lists the groups visible to actor: all for masters, managed
// groups only for group admins
func (s *AdminService) ListGroups(ctx context.Context, actor *admin.AdminUser) ([]*admin.Group, error) {
	if actor == nil {
		return nil, errors.Forbidden("Not allowed to list groups")
	}
	if actor.Role == admin.RoleMaster {
		return s.repo.ListGroups(ctx)
	}
	return s.repo.ListGroupsByAdmin(ctx, actor.ID)
}

// AddGroupUser adds a user to a group
func (s *AdminService) AddGroupUser(ctx context.Context, actor *admin.AdminUser, groupID, userID int64) error {
	if !admin.Can(actor, admin.ActionManageGroups) {
		return errors.Forbidden("Not allowed to manage groups")
	}
	if _, err := s.repo.GetGroup(ctx, groupID); err != nil {
		return err
	}
	return s.repo.AddGroupUser(ctx, groupID, userID)
}

// RemoveGroupUser removes a user from a group
func (s *AdminService) RemoveGroupUser(ctx context.Context, actor *admin.AdminUser, groupID, userID int64) error {
	if !admin.Can(actor, admin.ActionManageGroups) {
		return errors.Forbidden("Not allowed to manage groups")
	}
	return s.repo.RemoveGroupUser(ctx, groupID, userID)
}

// AddGroupAdmin assigns an admin to a group
func (s *AdminService) AddGroupAdmin(ctx context.Context, actor *admin.AdminUser, groupID, adminID int64) error {
	if !admin.Can(actor, admin.ActionManageGroups) {
		return errors.Forbidden("Not allowed to manage groups")
	}
	if _, err := s.repo.GetGroup(ctx, groupID); err != nil {
		return err
	}
	if _, err := s.repo.GetAdminByID(ctx, adminID); err != nil {
		return err
	}
	return s.repo.AddGroupAdmin(ctx, groupID, adminID)
}

// RemoveGroupAdmin unassigns an admin from a group
func (s *AdminService) RemoveGroupAdmin(ctx context.Context, actor *admin.AdminUser, groupID, adminID int64) error {
	if !admin.Can(actor, admin.ActionManageGroups) {
		return errors.Forbidden("Not allowed to manage groups")
	}
	return s.repo.RemoveGroupAdmin(ctx, groupID, adminID)
}

func (s *AdminService) countMasters(ctx context.Context) (int, error) {
	admins, err := s.repo.ListAdmins(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, a := range admins {
		if a.Role == admin.RoleMaster {
			n++
		}
	}
	return n, nil
}
