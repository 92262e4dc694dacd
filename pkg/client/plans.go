package client

import "context"

// PlanService handles plan and checkout API calls
type PlanService struct {
	client *Client
}

// CheckoutRequest starts a plan purchase or redeems a promo code
type CheckoutRequest struct {
	Tier int    `json:"tier"`
	Code string `json:"code,omitempty"`
}

// CheckoutResponse reports the checkout outcome
type CheckoutResponse struct {
	PromoApplied bool  `json:"promoApplied"`
	Plan         *Plan `json:"plan"`
}

// Catalog retrieves the purchasable plan tiers
func (s *PlanService) Catalog(ctx context.Context) ([]CatalogEntry, error) {
	var entries []CatalogEntry
	if err := s.client.doRequest(ctx, "GET", "/api/v1/plans", nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Get retrieves the current user's plan
func (s *PlanService) Get(ctx context.Context) (*Plan, error) {
	var plan Plan
	if err := s.client.doRequest(ctx, "GET", "/api/v1/plans/me", nil, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

// TrialStatus retrieves the current user's trial status
func (s *PlanService) TrialStatus(ctx context.Context) (*TrialStatus, error) {
	var status TrialStatus
	if err := s.client.doRequest(ctx, "GET", "/api/v1/plans/me/trial", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Checkout starts a plan purchase, or redeems a promo code when one is given
func (s *PlanService) Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResponse, error) {
	var resp CheckoutResponse
	if err := s.client.doRequest(ctx, "POST", "/api/v1/plans/checkout", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
