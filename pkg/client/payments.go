package client

import "context"

// PaymentService handles payment API calls
type PaymentService struct {
	client *Client
}

// List retrieves the current user's payments
func (s *PaymentService) List(ctx context.Context) ([]Payment, error) {
	var payments []Payment
	if err := s.client.doRequest(ctx, "GET", "/api/v1/payments", nil, &payments); err != nil {
		return nil, err
	}
	return payments, nil
}
