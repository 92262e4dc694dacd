package messaging

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/zapagent/zapagent/internal/config"
	"github.com/zapagent/zapagent/internal/pkg/logger"
	"github.com/zapagent/zapagent/internal/testutil"
)

func testMessagingConfig() config.MessagingConfig {
	return config.MessagingConfig{
		PrimaryURL:      "http://primary.test",
		RequestTimeout:  time.Second,
		QRRefresh:       50 * time.Millisecond,
		SessionDeadline: time.Second,
		PollInterval:    10 * time.Millisecond,
	}
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Format: "json"})
}

// waitFor polls cond until it holds or the deadline passes
func waitFor(t *testing.T, d time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestSession_ConnectFlow(t *testing.T) {
	provider := testutil.NewMockProvider()

	var connectedAgent atomic.Int64
	m := NewManager(provider, testMessagingConfig(), testLogger(), func(ctx context.Context, agentID int64) {
		connectedAgent.Store(agentID)
	})
	defer m.Shutdown()

	s := m.Start(7, "zapagent_test")

	if !waitFor(t, time.Second, func() bool {
		return s.Snapshot().State == SessionDisplaying
	}) {
		t.Fatalf("session never reached displaying, state = %q", s.Snapshot().State)
	}

	snap := s.Snapshot()
	if string(snap.QR) != "fake-qr-png" {
		t.Errorf("snapshot QR = %q, want provider bytes", snap.QR)
	}
	if snap.QRExpires == nil {
		t.Error("snapshot missing QR expiry")
	}

	// Provider reports the instance paired
	provider.SetState(StateOpen)

	if !waitFor(t, time.Second, func() bool {
		return s.Snapshot().State == SessionConnected
	}) {
		t.Fatalf("session never reached connected, state = %q", s.Snapshot().State)
	}

	if !waitFor(t, time.Second, func() bool {
		return connectedAgent.Load() == 7
	}) {
		t.Errorf("onConnected callback got agent %d, want 7", connectedAgent.Load())
	}
}

func TestSession_ProvisionFailure(t *testing.T) {
	provider := testutil.NewMockProvider()
	provider.CreateError = errors.New("provider down")

	m := NewManager(provider, testMessagingConfig(), testLogger(), nil)
	defer m.Shutdown()

	s := m.Start(1, "zapagent_bad")

	if !waitFor(t, time.Second, func() bool {
		return s.Snapshot().State == SessionClosed
	}) {
		t.Fatalf("failed session never closed, state = %q", s.Snapshot().State)
	}

	if s.Snapshot().Error == "" {
		t.Error("snapshot missing the provisioning error")
	}
}

func TestSession_Deadline(t *testing.T) {
	provider := testutil.NewMockProvider() // never reports open

	cfg := testMessagingConfig()
	cfg.SessionDeadline = 100 * time.Millisecond

	m := NewManager(provider, cfg, testLogger(), nil)
	defer m.Shutdown()

	s := m.Start(1, "zapagent_slow")

	if !waitFor(t, time.Second, func() bool {
		return s.Snapshot().State == SessionClosed
	}) {
		t.Fatalf("session survived its deadline, state = %q", s.Snapshot().State)
	}
}

func TestManager_StartReplacesSession(t *testing.T) {
	provider := testutil.NewMockProvider()

	m := NewManager(provider, testMessagingConfig(), testLogger(), nil)
	defer m.Shutdown()

	first := m.Start(1, "zapagent_first")
	waitFor(t, time.Second, func() bool {
		return first.Snapshot().State == SessionDisplaying
	})

	second := m.Start(1, "zapagent_second")

	if !waitFor(t, time.Second, func() bool {
		return first.Snapshot().State == SessionClosed
	}) {
		t.Errorf("replaced session not closed, state = %q", first.Snapshot().State)
	}

	got, ok := m.Get(1)
	if !ok || got != second {
		t.Error("manager does not track the replacement session")
	}
}

func TestManager_DropsTerminalSessions(t *testing.T) {
	t.Run("deadline", func(t *testing.T) {
		provider := testutil.NewMockProvider() // never reports open

		cfg := testMessagingConfig()
		cfg.SessionDeadline = 100 * time.Millisecond

		m := NewManager(provider, cfg, testLogger(), nil)
		defer m.Shutdown()

		m.Start(1, "zapagent_slow")

		if !waitFor(t, time.Second, func() bool {
			_, ok := m.Get(1)
			return !ok
		}) {
			t.Error("timed-out session still tracked by the manager")
		}
	})

	t.Run("provision failure", func(t *testing.T) {
		provider := testutil.NewMockProvider()
		provider.CreateError = errors.New("provider down")

		m := NewManager(provider, testMessagingConfig(), testLogger(), nil)
		defer m.Shutdown()

		m.Start(1, "zapagent_bad")

		if !waitFor(t, time.Second, func() bool {
			_, ok := m.Get(1)
			return !ok
		}) {
			t.Error("failed session still tracked by the manager")
		}
	})

	t.Run("connected", func(t *testing.T) {
		provider := testutil.NewMockProvider()

		m := NewManager(provider, testMessagingConfig(), testLogger(), nil)
		defer m.Shutdown()

		s := m.Start(1, "zapagent_done")
		waitFor(t, time.Second, func() bool {
			return s.Snapshot().State == SessionDisplaying
		})
		provider.SetState(StateOpen)

		if !waitFor(t, time.Second, func() bool {
			_, ok := m.Get(1)
			return !ok
		}) {
			t.Error("connected session still tracked by the manager")
		}
	})
}

func TestManager_Close(t *testing.T) {
	provider := testutil.NewMockProvider()

	m := NewManager(provider, testMessagingConfig(), testLogger(), nil)
	defer m.Shutdown()

	s := m.Start(1, "zapagent_close")
	m.Close(1)

	if !waitFor(t, time.Second, func() bool {
		return s.Snapshot().State == SessionClosed
	}) {
		t.Errorf("closed session state = %q, want closed", s.Snapshot().State)
	}

	if _, ok := m.Get(1); ok {
		t.Error("closed session still tracked by the manager")
	}
}
