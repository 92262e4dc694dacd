package messaging

import (
	"context"
	"sync"
	"time"

	"github.com/zapagent/zapagent/internal/config"
	"github.com/zapagent/zapagent/internal/pkg/logger"
	"github.com/zapagent/zapagent/internal/pkg/metrics"
)

// Session states
const (
	SessionIdle         = "idle"
	SessionProvisioning = "provisioning"
	SessionDisplaying   = "displaying"
	SessionConnected    = "connected"
	SessionClosed       = "closed"
)

// Terminal session outcomes (metrics labels)
const (
	outcomeConnected       = "connected"
	outcomeTimeout         = "timeout"
	outcomeClosed          = "closed"
	outcomeProvisionFailed = "provision_failed"
)

const qrFetchRetries = 3

// Snapshot is a point-in-time view of a session for API responses
type Snapshot struct {
	State     string     `json:"state"`
	QR        []byte     `json:"-"`
	QRExpires *time.Time `json:"qr_expires_at,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// Session supervises one agent's QR pairing flow. A single goroutine owns
// every timer (QR refresh, connection polling, overall deadline), so there is
// exactly one cancellation path and no timer can outlive the session.
type Session struct {
	agentID      int64
	instanceName string

	provider Provider
	cfg      config.MessagingConfig
	logger   *logger.Logger

	onConnected func(ctx context.Context, agentID int64)
	onExit      func()

	cancel    context.CancelFunc
	closeOnce sync.Once

	mu        sync.RWMutex
	state     string
	qr        []byte
	qrExpires time.Time
	lastErr   error
}

// Manager tracks at most one open session per agent
type Manager struct {
	provider Provider
	cfg      config.MessagingConfig
	logger   *logger.Logger

	// invoked when the provider reports the instance open
	onConnected func(ctx context.Context, agentID int64)

	mu       sync.Mutex
	sessions map[int64]*Session
}

// NewManager creates a session manager. onConnected is called once per
// session when the provider reports the instance connected.
func NewManager(provider Provider, cfg config.MessagingConfig, log *logger.Logger, onConnected func(ctx context.Context, agentID int64)) *Manager {
	return &Manager{
		provider:    provider,
		cfg:         cfg,
		logger:      log,
		onConnected: onConnected,
		sessions:    make(map[int64]*Session),
	}
}

// Start opens a pairing session for the agent, replacing any existing one
func (m *Manager) Start(agentID int64, instanceName string) *Session {
	m.mu.Lock()
	if prev, ok := m.sessions[agentID]; ok {
		prev.close(outcomeClosed)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		agentID:      agentID,
		instanceName: instanceName,
		provider:     m.provider,
		cfg:          m.cfg,
		logger:       m.logger,
		onConnected:  m.onConnected,
		cancel:       cancel,
		state:        SessionIdle,
	}
	s.onExit = func() { m.remove(agentID, s) }
	m.sessions[agentID] = s
	m.mu.Unlock()

	metrics.QRSessionOpened()
	go s.run(ctx)
	return s
}

// Get returns the open session for the agent, if any
func (m *Manager) Get(agentID int64) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[agentID]
	return s, ok
}

// remove drops the session from the table if it is still the registered one.
// Start may have already replaced it with a newer session for the same agent.
func (m *Manager) remove(agentID int64, s *Session) {
	m.mu.Lock()
	if cur, ok := m.sessions[agentID]; ok && cur == s {
		delete(m.sessions, agentID)
	}
	m.mu.Unlock()
}

// Close closes the agent's session, if open
func (m *Manager) Close(agentID int64) {
	m.mu.Lock()
	s, ok := m.sessions[agentID]
	if ok {
		delete(m.sessions, agentID)
	}
	m.mu.Unlock()

	if ok {
		s.close(outcomeClosed)
	}
}

// Shutdown closes every open session
func (m *Manager) Shutdown() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = make(map[int64]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.close(outcomeClosed)
	}
}

// Snapshot returns the session's current state
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{State: s.state}
	if len(s.qr) > 0 {
		snap.QR = append([]byte(nil), s.qr...)
		exp := s.qrExpires
		snap.QRExpires = &exp
	}
	if s.lastErr != nil {
		snap.Error = s.lastErr.Error()
	}
	return snap
}

// run is the sole owner of the session's timers. Whatever way it ends, the
// session deregisters itself so the manager never holds terminal sessions.
func (s *Session) run(ctx context.Context) {
	defer s.onExit()

	s.setState(SessionProvisioning)

	if err := s.provider.CreateInstance(ctx, s.instanceName); err != nil {
		s.fail(err)
		s.close(outcomeProvisionFailed)
		return
	}

	if !s.refreshQR(ctx) {
		s.close(outcomeProvisionFailed)
		return
	}
	s.setState(SessionDisplaying)

	refresh := time.NewTicker(s.cfg.QRRefresh)
	defer refresh.Stop()
	poll := time.NewTicker(s.cfg.PollInterval)
	defer poll.Stop()
	deadline := time.NewTimer(s.cfg.SessionDeadline)
	defer deadline.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-deadline.C:
			s.logger.WithFields(map[string]interface{}{
				"agent_id": s.agentID,
				"instance": s.instanceName,
			}).Info("QR session deadline reached")
			s.close(outcomeTimeout)
			return

		case <-refresh.C:
			// A stale QR cannot be scanned; replace it in place
			s.refreshQR(ctx)

		case <-poll.C:
			state, err := s.provider.ConnectionState(ctx, s.instanceName)
			if err != nil {
				s.logger.WithFields(map[string]interface{}{
					"agent_id": s.agentID,
				}).WithError(err).Debug("Connection state poll failed")
				continue
			}
			if state == StateOpen {
				s.setState(SessionConnected)
				if s.onConnected != nil {
					s.onConnected(context.Background(), s.agentID)
				}
				s.close(outcomeConnected)
				return
			}
		}
	}
}

// refreshQR fetches a fresh QR code with a small retry budget
func (s *Session) refreshQR(ctx context.Context) bool {
	var lastErr error
	for attempt := 0; attempt < qrFetchRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return false
			case <-time.After(backoff(attempt - 1)):
			}
		}

		qr, err := s.provider.FetchQR(ctx, s.instanceName)
		if err == nil {
			s.mu.Lock()
			s.qr = qr
			s.qrExpires = time.Now().Add(s.cfg.QRRefresh)
			s.lastErr = nil
			s.mu.Unlock()
			return true
		}
		lastErr = err
	}

	s.fail(lastErr)
	s.logger.WithFields(map[string]interface{}{
		"agent_id": s.agentID,
		"instance": s.instanceName,
	}).ErrorWithErr(lastErr, "Failed to fetch QR code")
	return false
}

func (s *Session) setState(state string) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *Session) fail(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
}

// close transitions to the closed state exactly once and stops the goroutine
func (s *Session) close(outcome string) {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		if s.state != SessionConnected {
			s.state = SessionClosed
		}
		s.mu.Unlock()

		s.cancel()
		metrics.QRSessionClosed(outcome)
	})
}
