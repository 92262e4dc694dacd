package plan

import "time"

// Validity rules for trial and subscription windows. Every function takes an
// explicit "now" so callers stay deterministic and testable. These are the
// only place in the codebase where plan expiry is computed.

// HasTrialExpired reports whether the plan's trial window has ended.
// A plan with no trial end date never expires by trial.
func HasTrialExpired(p *UserPlan, now time.Time) bool {
	if p == nil || p.TrialEndsAt == nil {
		return false
	}
	return now.After(*p.TrialEndsAt)
}

// TrialDaysRemaining returns the number of whole days left in the trial,
// rounding partial days up. Returns 0 once the trial has ended or when the
// plan has no trial window.
func TrialDaysRemaining(p *UserPlan, now time.Time) int {
	if p == nil || p.TrialEndsAt == nil {
		return 0
	}
	remaining := p.TrialEndsAt.Sub(now)
	if remaining <= 0 {
		return 0
	}
	days := int(remaining / (24 * time.Hour))
	if remaining%(24*time.Hour) != 0 {
		days++
	}
	return days
}

// IsSubscriptionActive reports whether a paid subscription window covers now.
// Free-trial plans have no subscription; they are governed by the trial window.
func IsSubscriptionActive(p *UserPlan, now time.Time) bool {
	if p == nil || p.Tier == TierFreeTrial {
		return false
	}
	if p.SubscriptionEndsAt == nil {
		return false
	}
	return now.Before(*p.SubscriptionEndsAt)
}

// CanCreateAgent decides whether another agent may be created under the plan.
// Free-trial users are cut off as soon as the trial expires, regardless of
// how many agents they have; paid users are bounded by the subscription
// window and the tier's agent limit.
func CanCreateAgent(p *UserPlan, agentCount int, now time.Time) bool {
	if p == nil {
		return false
	}
	if p.Tier == TierFreeTrial {
		if HasTrialExpired(p, now) {
			return false
		}
		return agentCount < p.AgentLimit
	}
	if !IsSubscriptionActive(p, now) {
		return false
	}
	return agentCount < p.AgentLimit
}
