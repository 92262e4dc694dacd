package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/zapagent/zapagent/internal/domain/admin"
	"github.com/zapagent/zapagent/internal/domain/agent"
	"github.com/zapagent/zapagent/internal/domain/payment"
	"github.com/zapagent/zapagent/internal/domain/plan"
	"github.com/zapagent/zapagent/internal/domain/user"
	"github.com/zapagent/zapagent/internal/pkg/errors"
)

// MockUserRepository is a mock implementation of user.Repository
type MockUserRepository struct {
	Users       map[int64]*user.User
	EmailIndex  map[string]*user.User
	ResetTokens map[string]*user.ResetToken
	GroupUsers  map[int64][]int64
	NextID      int64
	CreateError error
	GetError    error
	UpdateError error
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		Users:       make(map[int64]*user.User),
		EmailIndex:  make(map[string]*user.User),
		ResetTokens: make(map[string]*user.ResetToken),
		GroupUsers:  make(map[int64][]int64),
		NextID:      1,
	}
}

func (m *MockUserRepository) Create(ctx context.Context, u *user.User) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	u.ID = m.NextID
	m.NextID++
	m.Users[u.ID] = u
	m.EmailIndex[u.Email] = u
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	u, ok := m.Users[id]
	if !ok {
		return nil, fmt.Errorf("user not found")
	}
	return u, nil
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	u, ok := m.EmailIndex[email]
	if !ok {
		return nil, fmt.Errorf("user not found")
	}
	return u, nil
}

func (m *MockUserRepository) Update(ctx context.Context, u *user.User) error {
	if m.UpdateError != nil {
		return m.UpdateError
	}
	if _, ok := m.Users[u.ID]; !ok {
		return fmt.Errorf("user not found")
	}
	m.Users[u.ID] = u
	m.EmailIndex[u.Email] = u
	return nil
}

func (m *MockUserRepository) Delete(ctx context.Context, id int64) error {
	if u, ok := m.Users[id]; ok {
		delete(m.EmailIndex, u.Email)
		delete(m.Users, id)
	}
	return nil
}

func (m *MockUserRepository) List(ctx context.Context, limit, offset int) ([]*user.User, int64, error) {
	var result []*user.User
	for _, u := range m.Users {
		result = append(result, u)
	}
	return result, int64(len(result)), nil
}

func (m *MockUserRepository) ListByGroup(ctx context.Context, groupID int64, limit, offset int) ([]*user.User, int64, error) {
	var result []*user.User
	for _, id := range m.GroupUsers[groupID] {
		if u, ok := m.Users[id]; ok {
			result = append(result, u)
		}
	}
	return result, int64(len(result)), nil
}

func (m *MockUserRepository) SaveResetToken(ctx context.Context, t *user.ResetToken) error {
	for token, existing := range m.ResetTokens {
		if existing.UserID == t.UserID {
			delete(m.ResetTokens, token)
		}
	}
	m.ResetTokens[t.Token] = t
	return nil
}

func (m *MockUserRepository) ConsumeResetToken(ctx context.Context, token string) (*user.ResetToken, error) {
	t, ok := m.ResetTokens[token]
	if !ok {
		return nil, fmt.Errorf("reset token not found")
	}
	delete(m.ResetTokens, token)
	return t, nil
}

// MockPlanRepository is a mock implementation of plan.Repository
type MockPlanRepository struct {
	Plans       map[int64]*plan.UserPlan // keyed by user ID
	NextID      int64
	CreateError error
	GetError    error
	UpdateError error
	UpdateCalls int
}

func NewMockPlanRepository() *MockPlanRepository {
	return &MockPlanRepository{
		Plans:  make(map[int64]*plan.UserPlan),
		NextID: 1,
	}
}

func (m *MockPlanRepository) Create(ctx context.Context, p *plan.UserPlan) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	p.ID = m.NextID
	m.NextID++
	m.Plans[p.UserID] = p
	return nil
}

func (m *MockPlanRepository) GetByUserID(ctx context.Context, userID int64) (*plan.UserPlan, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	p, ok := m.Plans[userID]
	if !ok {
		return nil, errors.NotFound("Plan")
	}
	return p, nil
}

func (m *MockPlanRepository) Update(ctx context.Context, p *plan.UserPlan) error {
	m.UpdateCalls++
	if m.UpdateError != nil {
		return m.UpdateError
	}
	if _, ok := m.Plans[p.UserID]; !ok {
		return fmt.Errorf("plan not found")
	}
	m.Plans[p.UserID] = p
	return nil
}

func (m *MockPlanRepository) List(ctx context.Context, limit, offset int) ([]*plan.UserPlan, int64, error) {
	var result []*plan.UserPlan
	for _, p := range m.Plans {
		result = append(result, p)
	}
	return result, int64(len(result)), nil
}

func (m *MockPlanRepository) ListExpiring(ctx context.Context, before int64) ([]*plan.UserPlan, error) {
	var result []*plan.UserPlan
	for _, p := range m.Plans {
		if p.PaymentStatus == plan.PaymentStatusExpired {
			continue
		}
		if p.Tier == plan.TierFreeTrial {
			if p.TrialEndsAt != nil && p.TrialEndsAt.Unix() < before {
				result = append(result, p)
			}
		} else if p.SubscriptionEndsAt != nil && p.SubscriptionEndsAt.Unix() < before {
			result = append(result, p)
		}
	}
	return result, nil
}

// MockAgentRepository is a mock implementation of agent.Repository
type MockAgentRepository struct {
	Agents      map[int64]*agent.Agent
	Stats       map[int64]*agent.Analytics
	NextID      int64
	CreateError error
	GetError    error
	DeleteError error
}

func NewMockAgentRepository() *MockAgentRepository {
	return &MockAgentRepository{
		Agents: make(map[int64]*agent.Agent),
		Stats:  make(map[int64]*agent.Analytics),
		NextID: 1,
	}
}

func (m *MockAgentRepository) Create(ctx context.Context, a *agent.Agent) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	a.ID = m.NextID
	m.NextID++
	m.Agents[a.ID] = a
	m.Stats[a.ID] = &agent.Analytics{AgentID: a.ID}
	return nil
}

func (m *MockAgentRepository) GetByID(ctx context.Context, id int64) (*agent.Agent, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	a, ok := m.Agents[id]
	if !ok {
		return nil, fmt.Errorf("agent not found")
	}
	return a, nil
}

func (m *MockAgentRepository) ListByUser(ctx context.Context, userID int64) ([]*agent.Agent, error) {
	var result []*agent.Agent
	for _, a := range m.Agents {
		if a.UserID == userID {
			result = append(result, a)
		}
	}
	return result, nil
}

func (m *MockAgentRepository) CountByUser(ctx context.Context, userID int64) (int, error) {
	count := 0
	for _, a := range m.Agents {
		if a.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (m *MockAgentRepository) Update(ctx context.Context, a *agent.Agent) error {
	if _, ok := m.Agents[a.ID]; !ok {
		return fmt.Errorf("agent not found")
	}
	m.Agents[a.ID] = a
	return nil
}

func (m *MockAgentRepository) Delete(ctx context.Context, id int64) error {
	if m.DeleteError != nil {
		return m.DeleteError
	}
	if _, ok := m.Agents[id]; !ok {
		return fmt.Errorf("agent not found")
	}
	delete(m.Agents, id)
	delete(m.Stats, id)
	return nil
}

func (m *MockAgentRepository) SetConnected(ctx context.Context, id int64, connected bool) error {
	a, ok := m.Agents[id]
	if !ok {
		return fmt.Errorf("agent not found")
	}
	a.Connected = connected
	return nil
}

func (m *MockAgentRepository) GetAnalytics(ctx context.Context, agentID int64) (*agent.Analytics, error) {
	s, ok := m.Stats[agentID]
	if !ok {
		return &agent.Analytics{AgentID: agentID}, nil
	}
	return s, nil
}

func (m *MockAgentRepository) RecordConnection(ctx context.Context, agentID int64) error {
	if s, ok := m.Stats[agentID]; ok {
		s.Connections++
	}
	return nil
}

// MockPaymentRepository is a mock implementation of payment.Repository
type MockPaymentRepository struct {
	Payments     map[int64]*payment.Payment
	TempPayments map[int64]*payment.TempPayment
	NextID       int64
	NextTempID   int64
	CreateError  error
}

func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{
		Payments:     make(map[int64]*payment.Payment),
		TempPayments: make(map[int64]*payment.TempPayment),
		NextID:       1,
		NextTempID:   1,
	}
}

func (m *MockPaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	p.ID = m.NextID
	m.NextID++
	m.Payments[p.ID] = p
	return nil
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id int64) (*payment.Payment, error) {
	p, ok := m.Payments[id]
	if !ok {
		return nil, fmt.Errorf("payment not found")
	}
	return p, nil
}

func (m *MockPaymentRepository) ListByUser(ctx context.Context, userID int64) ([]*payment.Payment, error) {
	var result []*payment.Payment
	for _, p := range m.Payments {
		if p.UserID == userID {
			result = append(result, p)
		}
	}
	return result, nil
}

func (m *MockPaymentRepository) List(ctx context.Context, limit, offset int) ([]*payment.Payment, int64, error) {
	var result []*payment.Payment
	for _, p := range m.Payments {
		result = append(result, p)
	}
	return result, int64(len(result)), nil
}

func (m *MockPaymentRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.Payments[id]; !ok {
		return fmt.Errorf("payment not found")
	}
	delete(m.Payments, id)
	return nil
}

func (m *MockPaymentRepository) CreateTemp(ctx context.Context, t *payment.TempPayment) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	t.ID = m.NextTempID
	m.NextTempID++
	m.TempPayments[t.ID] = t
	return nil
}

func (m *MockPaymentRepository) ListTemp(ctx context.Context) ([]*payment.TempPayment, error) {
	var result []*payment.TempPayment
	for _, t := range m.TempPayments {
		result = append(result, t)
	}
	return result, nil
}

func (m *MockPaymentRepository) DeleteTemp(ctx context.Context, id int64) error {
	if _, ok := m.TempPayments[id]; !ok {
		return fmt.Errorf("temp payment not found")
	}
	delete(m.TempPayments, id)
	return nil
}

// MockAdminRepository is a mock implementation of admin.Repository
type MockAdminRepository struct {
	Admins      map[int64]*admin.AdminUser
	Groups      map[int64]*admin.Group
	GroupUsers  map[int64]map[int64]bool // groupID -> userID set
	GroupAdmins map[int64]map[int64]bool // groupID -> adminID set
	NextID      int64
	NextGroupID int64
	CreateError error
}

func NewMockAdminRepository() *MockAdminRepository {
	return &MockAdminRepository{
		Admins:      make(map[int64]*admin.AdminUser),
		Groups:      make(map[int64]*admin.Group),
		GroupUsers:  make(map[int64]map[int64]bool),
		GroupAdmins: make(map[int64]map[int64]bool),
		NextID:      1,
		NextGroupID: 1,
	}
}

func (m *MockAdminRepository) CreateAdmin(ctx context.Context, a *admin.AdminUser) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	a.ID = m.NextID
	m.NextID++
	m.Admins[a.ID] = a
	return nil
}

func (m *MockAdminRepository) GetAdminByID(ctx context.Context, id int64) (*admin.AdminUser, error) {
	a, ok := m.Admins[id]
	if !ok {
		return nil, fmt.Errorf("admin not found")
	}
	return a, nil
}

func (m *MockAdminRepository) GetAdminByUserID(ctx context.Context, userID int64) (*admin.AdminUser, error) {
	for _, a := range m.Admins {
		if a.UserID == userID {
			return a, nil
		}
	}
	return nil, fmt.Errorf("admin not found")
}

func (m *MockAdminRepository) ListAdmins(ctx context.Context) ([]*admin.AdminUser, error) {
	var result []*admin.AdminUser
	for _, a := range m.Admins {
		result = append(result, a)
	}
	return result, nil
}

func (m *MockAdminRepository) UpdateAdmin(ctx context.Context, a *admin.AdminUser) error {
	if _, ok := m.Admins[a.ID]; !ok {
		return fmt.Errorf("admin not found")
	}
	m.Admins[a.ID] = a
	return nil
}

func (m *MockAdminRepository) DeleteAdmin(ctx context.Context, id int64) error {
	if _, ok := m.Admins[id]; !ok {
		return fmt.Errorf("admin not found")
	}
	delete(m.Admins, id)
	return nil
}

func (m *MockAdminRepository) CountAdmins(ctx context.Context) (int64, error) {
	return int64(len(m.Admins)), nil
}

func (m *MockAdminRepository) CreateGroup(ctx context.Context, g *admin.Group) error {
	g.ID = m.NextGroupID
	m.NextGroupID++
	m.Groups[g.ID] = g
	return nil
}

func (m *MockAdminRepository) GetGroup(ctx context.Context, id int64) (*admin.Group, error) {
	g, ok := m.Groups[id]
	if !ok {
		return nil, fmt.Errorf("group not found")
	}
	return g, nil
}

func (m *MockAdminRepository) ListGroups(ctx context.Context) ([]*admin.Group, error) {
	var result []*admin.Group
	for _, g := range m.Groups {
		result = append(result, g)
	}
	return result, nil
}

func (m *MockAdminRepository) DeleteGroup(ctx context.Context, id int64) error {
	if _, ok := m.Groups[id]; !ok {
		return fmt.Errorf("group not found")
	}
	delete(m.Groups, id)
	delete(m.GroupUsers, id)
	delete(m.GroupAdmins, id)
	return nil
}

func (m *MockAdminRepository) AddGroupUser(ctx context.Context, groupID, userID int64) error {
	if m.GroupUsers[groupID] == nil {
		m.GroupUsers[groupID] = make(map[int64]bool)
	}
	m.GroupUsers[groupID][userID] = true
	return nil
}

func (m *MockAdminRepository) RemoveGroupUser(ctx context.Context, groupID, userID int64) error {
	delete(m.GroupUsers[groupID], userID)
	return nil
}

func (m *MockAdminRepository) AddGroupAdmin(ctx context.Context, groupID, adminID int64) error {
	if m.GroupAdmins[groupID] == nil {
		m.GroupAdmins[groupID] = make(map[int64]bool)
	}
	m.GroupAdmins[groupID][adminID] = true
	return nil
}

func (m *MockAdminRepository) RemoveGroupAdmin(ctx context.Context, groupID, adminID int64) error {
	delete(m.GroupAdmins[groupID], adminID)
	return nil
}

func (m *MockAdminRepository) ListGroupsByAdmin(ctx context.Context, adminID int64) ([]*admin.Group, error) {
	var result []*admin.Group
	for groupID, admins := range m.GroupAdmins {
		if admins[adminID] {
			if g, ok := m.Groups[groupID]; ok {
				result = append(result, g)
			}
		}
	}
	return result, nil
}

func (m *MockAdminRepository) IsUserInAdminGroups(ctx context.Context, adminID, userID int64) (bool, error) {
	for groupID, admins := range m.GroupAdmins {
		if admins[adminID] && m.GroupUsers[groupID][userID] {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockAdminRepository) DashboardStats(ctx context.Context) (*admin.DashboardStats, error) {
	return &admin.DashboardStats{}, nil
}

// MockProvider is a mock implementation of messaging.Provider. All methods
// are safe for concurrent use so session tests can poll it.
type MockProvider struct {
	mu sync.Mutex

	CreateError     error
	QRError         error
	QRData          []byte
	State           string
	StateError      error
	DisconnectError error
	DeleteError     error
	PingError       error

	CreateCalls     int
	QRCalls         int
	StateCalls      int
	DisconnectCalls int
	DeleteCalls     int
}

func NewMockProvider() *MockProvider {
	return &MockProvider{
		QRData: []byte("fake-qr-png"),
		State:  "connecting",
	}
}

func (m *MockProvider) CreateInstance(ctx context.Context, instanceName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalls++
	return m.CreateError
}

func (m *MockProvider) FetchQR(ctx context.Context, instanceName string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.QRCalls++
	if m.QRError != nil {
		return nil, m.QRError
	}
	return m.QRData, nil
}

func (m *MockProvider) ConnectionState(ctx context.Context, instanceName string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StateCalls++
	if m.StateError != nil {
		return "", m.StateError
	}
	return m.State, nil
}

func (m *MockProvider) Disconnect(ctx context.Context, instanceName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DisconnectCalls++
	return m.DisconnectError
}

func (m *MockProvider) DeleteInstance(ctx context.Context, instanceName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteCalls++
	return m.DeleteError
}

func (m *MockProvider) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.PingError
}

// SetState changes the reported connection state
func (m *MockProvider) SetState(state string) {
	m.mu.Lock()
	m.State = state
	m.mu.Unlock()
}

// Calls returns the call counters in a race-free way
func (m *MockProvider) Calls() (create, qr, state, disconnect, del int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CreateCalls, m.QRCalls, m.StateCalls, m.DisconnectCalls, m.DeleteCalls
}
