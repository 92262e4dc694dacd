package plan

import (
	"testing"
	"time"
)

func timePtr(t time.Time) *time.Time {
	return &t
}

func TestHasTrialExpired(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		plan *UserPlan
		want bool
	}{
		{
			name: "nil plan never expires",
			plan: nil,
			want: false,
		},
		{
			name: "no trial window never expires",
			plan: &UserPlan{Tier: TierFreeTrial},
			want: false,
		},
		{
			name: "trial ends in the future",
			plan: &UserPlan{Tier: TierFreeTrial, TrialEndsAt: timePtr(now.Add(time.Hour))},
			want: false,
		},
		{
			name: "trial ended in the past",
			plan: &UserPlan{Tier: TierFreeTrial, TrialEndsAt: timePtr(now.Add(-time.Hour))},
			want: true,
		},
		{
			name: "trial ending exactly now has not expired",
			plan: &UserPlan{Tier: TierFreeTrial, TrialEndsAt: timePtr(now)},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasTrialExpired(tt.plan, now); got != tt.want {
				t.Errorf("HasTrialExpired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTrialDaysRemaining(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		plan *UserPlan
		want int
	}{
		{
			name: "nil plan",
			plan: nil,
			want: 0,
		},
		{
			name: "no trial window",
			plan: &UserPlan{},
			want: 0,
		},
		{
			name: "expired trial reports zero",
			plan: &UserPlan{TrialEndsAt: timePtr(now.Add(-time.Hour))},
			want: 0,
		},
		{
			name: "partial day rounds up",
			plan: &UserPlan{TrialEndsAt: timePtr(now.Add(time.Hour))},
			want: 1,
		},
		{
			name: "exactly five days",
			plan: &UserPlan{TrialEndsAt: timePtr(now.Add(5 * 24 * time.Hour))},
			want: 5,
		},
		{
			name: "five days and a bit rounds to six",
			plan: &UserPlan{TrialEndsAt: timePtr(now.Add(5*24*time.Hour + time.Minute))},
			want: 6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrialDaysRemaining(tt.plan, now); got != tt.want {
				t.Errorf("TrialDaysRemaining() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsSubscriptionActive(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		plan *UserPlan
		want bool
	}{
		{
			name: "nil plan",
			plan: nil,
			want: false,
		},
		{
			name: "free trial plans have no subscription",
			plan: &UserPlan{Tier: TierFreeTrial, SubscriptionEndsAt: timePtr(now.Add(time.Hour))},
			want: false,
		},
		{
			name: "paid tier without a window is inactive",
			plan: &UserPlan{Tier: TierBasic},
			want: false,
		},
		{
			name: "paid tier with a future window is active",
			plan: &UserPlan{Tier: TierPremium, SubscriptionEndsAt: timePtr(now.Add(time.Hour))},
			want: true,
		},
		{
			name: "paid tier with an elapsed window is inactive",
			plan: &UserPlan{Tier: TierStandard, SubscriptionEndsAt: timePtr(now.Add(-time.Hour))},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsSubscriptionActive(tt.plan, now); got != tt.want {
				t.Errorf("IsSubscriptionActive() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanCreateAgent(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	future := timePtr(now.Add(48 * time.Hour))
	past := timePtr(now.Add(-48 * time.Hour))

	tests := []struct {
		name  string
		plan  *UserPlan
		count int
		want  bool
	}{
		{
			name: "nil plan",
			plan: nil,
			want: false,
		},
		{
			name:  "active trial under the limit",
			plan:  &UserPlan{Tier: TierFreeTrial, AgentLimit: 1, TrialEndsAt: future},
			count: 0,
			want:  true,
		},
		{
			name:  "active trial at the limit",
			plan:  &UserPlan{Tier: TierFreeTrial, AgentLimit: 1, TrialEndsAt: future},
			count: 1,
			want:  false,
		},
		{
			name:  "expired trial is cut off even with zero agents",
			plan:  &UserPlan{Tier: TierFreeTrial, AgentLimit: 1, TrialEndsAt: past},
			count: 0,
			want:  false,
		},
		{
			name:  "active subscription under the limit",
			plan:  &UserPlan{Tier: TierStandard, AgentLimit: 3, SubscriptionEndsAt: future},
			count: 2,
			want:  true,
		},
		{
			name:  "active subscription at the limit",
			plan:  &UserPlan{Tier: TierStandard, AgentLimit: 3, SubscriptionEndsAt: future},
			count: 3,
			want:  false,
		},
		{
			name:  "lapsed subscription blocks creation",
			plan:  &UserPlan{Tier: TierPremium, AgentLimit: 10, SubscriptionEndsAt: past},
			count: 0,
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanCreateAgent(tt.plan, tt.count, now); got != tt.want {
				t.Errorf("CanCreateAgent() = %v, want %v", got, tt.want)
			}
		})
	}
}
