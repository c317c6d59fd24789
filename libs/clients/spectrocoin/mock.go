package spectrocoin

import (
	"context"
)

type MockClient struct {
	FnAccessToken func(ctx context.Context) (string, error)
	FnGetOrder    func(ctx context.Context, id string) (*Order, error)
}

func (c *MockClient) AccessToken(ctx context.Context) (string, error) {
	if c.FnAccessToken == nil {
		return "token", nil
	}

	return c.FnAccessToken(ctx)
}

func (c *MockClient) GetOrder(ctx context.Context, id string) (*Order, error) {
	if c.FnGetOrder == nil {
		return &Order{ID: id, OrderID: "1", Status: "new"}, nil
	}

	return c.FnGetOrder(ctx, id)
}
