package admin

import "time"

// Admin roles
const (
	RoleMaster = "master"
	RoleGroup  = "group"
)

// AdminUser is a back-office operator backed by a regular user account
type AdminUser struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Group is a named subset of users managed by group admins
type Group struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// DashboardStats is the back-office landing summary
type DashboardStats struct {
	Users           int64 `json:"users"`
	Agents          int64 `json:"agents"`
	ConnectedAgents int64 `json:"connected_agents"`
	PaidPlans       int64 `json:"paid_plans"`
	RevenueCents    int64 `json:"revenue_cents"`
	TempPayments    int64 `json:"temp_payments"`
}
