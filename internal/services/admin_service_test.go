package services

import (
	"context"
	"testing"

	"github.com/zapagent/zapagent/internal/domain/admin"
	"github.com/zapagent/zapagent/internal/pkg/logger"
	"github.com/zapagent/zapagent/internal/testutil"
)

func newTestAdminService(repo admin.Repository) admin.Service {
	log := logger.New(logger.Config{Level: "error", Format: "json"})
	return NewAdminService(repo, log)
}

func TestAdminService_Bootstrap(t *testing.T) {
	mockRepo := testutil.NewMockAdminRepository()
	service := newTestAdminService(mockRepo)
	ctx := context.Background()

	a, err := service.Bootstrap(ctx, 1, "root@example.com")
	if err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}
	if a.Role != admin.RoleMaster {
		t.Errorf("bootstrap role = %q, want master", a.Role)
	}

	// Second bootstrap must fail
	if _, err := service.Bootstrap(ctx, 2, "other@example.com"); err == nil {
		t.Error("Bootstrap() succeeded with an existing admin")
	}
}

func TestAdminService_CreateAdmin_Capabilities(t *testing.T) {
	master := &admin.AdminUser{ID: 1, UserID: 1, Role: admin.RoleMaster}
	groupAdmin := &admin.AdminUser{ID: 2, UserID: 2, Role: admin.RoleGroup}

	tests := []struct {
		name    string
		actor   *admin.AdminUser
		role    string
		wantErr bool
	}{
		{name: "master creates group admin", actor: master, role: admin.RoleGroup},
		{name: "master creates master", actor: master, role: admin.RoleMaster},
		{name: "group admin cannot create admins", actor: groupAdmin, role: admin.RoleGroup, wantErr: true},
		{name: "group admin cannot create masters", actor: groupAdmin, role: admin.RoleMaster, wantErr: true},
		{name: "unknown role rejected", actor: master, role: "superuser", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := testutil.NewMockAdminRepository()
			service := newTestAdminService(mockRepo)

			_, err := service.CreateAdmin(context.Background(), tt.actor, 10, "new@example.com", tt.role)
			if (err != nil) != tt.wantErr {
				t.Errorf("CreateAdmin() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAdminService_DeleteAdmin_LastMaster(t *testing.T) {
	mockRepo := testutil.NewMockAdminRepository()
	service := newTestAdminService(mockRepo)
	ctx := context.Background()

	master, err := service.Bootstrap(ctx, 1, "root@example.com")
	if err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}

	// The only master cannot delete itself
	if err := service.DeleteAdmin(ctx, master, master.ID); err == nil {
		t.Fatal("DeleteAdmin() removed the last master")
	}

	second, err := service.CreateAdmin(ctx, master, 2, "second@example.com", admin.RoleMaster)
	if err != nil {
		t.Fatalf("CreateAdmin() error = %v", err)
	}

	// With two masters, deletion goes through
	if err := service.DeleteAdmin(ctx, master, second.ID); err != nil {
		t.Errorf("DeleteAdmin() error = %v", err)
	}
}

func TestAdminService_CanManageUser(t *testing.T) {
	mockRepo := testutil.NewMockAdminRepository()
	service := newTestAdminService(mockRepo)
	ctx := context.Background()

	master, _ := service.Bootstrap(ctx, 1, "root@example.com")
	groupAdmin, err := service.CreateAdmin(ctx, master, 2, "ga@example.com", admin.RoleGroup)
	if err != nil {
		t.Fatalf("CreateAdmin() error = %v", err)
	}

	g, err := service.CreateGroup(ctx, master, "Equipe SP")
	if err != nil {
		t.Fatalf("CreateGroup() error = %v", err)
	}
	if err := service.AddGroupAdmin(ctx, master, g.ID, groupAdmin.ID); err != nil {
		t.Fatalf("AddGroupAdmin() error = %v", err)
	}
	if err := service.AddGroupUser(ctx, master, g.ID, 100); err != nil {
		t.Fatalf("AddGroupUser() error = %v", err)
	}

	tests := []struct {
		name   string
		actor  *admin.AdminUser
		userID int64
		want   bool
	}{
		{name: "master manages anyone", actor: master, userID: 999, want: true},
		{name: "group admin manages user in their group", actor: groupAdmin, userID: 100, want: true},
		{name: "group admin cannot manage outsiders", actor: groupAdmin, userID: 999, want: false},
		{name: "nil actor manages nobody", actor: nil, userID: 100, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := service.CanManageUser(ctx, tt.actor, tt.userID)
			if err != nil {
				t.Fatalf("CanManageUser() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("CanManageUser() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAdminService_GroupManagement_Capabilities(t *testing.T) {
	mockRepo := testutil.NewMockAdminRepository()
	service := newTestAdminService(mockRepo)
	ctx := context.Background()

	master, _ := service.Bootstrap(ctx, 1, "root@example.com")
	groupAdmin, _ := service.CreateAdmin(ctx, master, 2, "ga@example.com", admin.RoleGroup)

	if _, err := service.CreateGroup(ctx, groupAdmin, "Indevido"); err == nil {
		t.Error("CreateGroup() allowed a group admin to create groups")
	}

	g, err := service.CreateGroup(ctx, master, "Equipe RJ")
	if err != nil {
		t.Fatalf("CreateGroup() error = %v", err)
	}

	if err := service.DeleteGroup(ctx, groupAdmin, g.ID); err == nil {
		t.Error("DeleteGroup() allowed a group admin to delete groups")
	}

	// Group admins only see their own groups
	if err := service.AddGroupAdmin(ctx, master, g.ID, groupAdmin.ID); err != nil {
		t.Fatalf("AddGroupAdmin() error = %v", err)
	}
	visible, err := service.ListGroups(ctx, groupAdmin)
	if err != nil {
		t.Fatalf("ListGroups() error = %v", err)
	}
	if len(visible) != 1 || visible[0].ID != g.ID {
		t.Errorf("ListGroups() for group admin = %v, want only their group", visible)
	}
}
