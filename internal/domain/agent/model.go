package agent

import (
	"encoding/json"
	"time"
)

// Agent types
const (
	TypeSales   = "sales"
	TypeSDR     = "sdr"
	TypeCloser  = "closer"
	TypeSupport = "support"
	TypeCustom  = "custom"
)

// ValidType reports whether t is a known agent type
func ValidType(t string) bool {
	switch t {
	case TypeSales, TypeSDR, TypeCloser, TypeSupport, TypeCustom:
		return true
	}
	return false
}

// Agent is one WhatsApp-connected bot owned by a user. InstanceID is the
// handle of the backing instance at the messaging provider; Profile carries
// the free-form personality/company/product fields the bot is prompted with.
type Agent struct {
	ID         int64           `json:"id"`
	UserID     int64           `json:"user_id"`
	Name       string          `json:"name"`
	Type       string          `json:"type"`
	Connected  bool            `json:"connected"`
	InstanceID string          `json:"instance_id,omitempty"`
	Profile    json.RawMessage `json:"profile,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Analytics holds per-agent usage counters
type Analytics struct {
	AgentID          int64      `json:"agent_id"`
	MessagesReceived int64      `json:"messages_received"`
	MessagesSent     int64      `json:"messages_sent"`
	Connections      int64      `json:"connections"`
	LastConnectedAt  *time.Time `json:"last_connected_at,omitempty"`
}
