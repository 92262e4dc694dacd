package client

import (
	"encoding/json"
	"time"
)

// User represents a user account
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username,omitempty"`
	FullName  *string   `json:"fullName,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Agent represents a WhatsApp AI agent
type Agent struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Type      string          `json:"type"`
	Connected bool            `json:"connected"`
	Profile   json.RawMessage `json:"profile,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// AgentAnalytics holds an agent's usage counters
type AgentAnalytics struct {
	AgentID          int64      `json:"agent_id"`
	MessagesSent     int64      `json:"messages_sent"`
	MessagesReceived int64      `json:"messages_received"`
	Connections      int64      `json:"connections"`
	LastConnectedAt  *time.Time `json:"last_connected_at,omitempty"`
}

// ConnectionState reports a pairing session's state
type ConnectionState struct {
	State     string     `json:"state"`
	Connected bool       `json:"connected"`
	QRExpires *time.Time `json:"qrExpiresAt,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// Plan represents a user's subscription plan
type Plan struct {
	Tier               int        `json:"tier"`
	TierName           string     `json:"tierName"`
	AgentLimit         int        `json:"agentLimit"`
	TrialStartedAt     *time.Time `json:"trialStartedAt,omitempty"`
	TrialEndsAt        *time.Time `json:"trialEndsAt,omitempty"`
	SubscriptionEndsAt *time.Time `json:"subscriptionEndsAt,omitempty"`
	PaymentStatus      string     `json:"paymentStatus"`
	PaymentDate        *time.Time `json:"paymentDate,omitempty"`
}

// CatalogEntry describes a purchasable tier
type CatalogEntry struct {
	Tier        int    `json:"tier"`
	Name        string `json:"name"`
	PriceCents  int64  `json:"price_cents"`
	Currency    string `json:"currency"`
	AgentLimit  int    `json:"agent_limit"`
	TrialDays   int    `json:"trial_days,omitempty"`
	Description string `json:"description"`
}

// TrialStatus summarizes a user's trial window
type TrialStatus struct {
	Status        string `json:"status"`
	DaysRemaining int    `json:"days_remaining"`
}

// Payment represents a recorded payment
type Payment struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"userId"`
	Tier        int        `json:"tier"`
	AmountCents int64      `json:"amountCents"`
	Method      string     `json:"method"`
	Status      string     `json:"status"`
	PaidAt      *time.Time `json:"paidAt,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}
