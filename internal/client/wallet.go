package client

import (
	"context"
	"net/http"

	"github.com/tejaperfect/expensiver1-sub002/internal/api"
)

// WalletService covers the personal wallet.
type WalletService struct {
	c *Client
}

func (s *WalletService) Balance(ctx context.Context) (api.WalletResponse, error) {
	var wallet api.WalletResponse
	err := s.c.do(ctx, http.MethodGet, "/api/v1/wallet", nil, nil, &wallet)
	return wallet, err
}

func (s *WalletService) Transactions(ctx context.Context) ([]api.TransactionPayload, error) {
	var resp api.TransactionListResponse
	if err := s.c.do(ctx, http.MethodGet, "/api/v1/wallet/transactions", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Transactions, nil
}

// TopUp adds funds; amount is a decimal string like "50.25".
func (s *WalletService) TopUp(ctx context.Context, amount, description string) (api.TransactionPayload, error) {
	var txn api.TransactionPayload
	err := s.c.do(ctx, http.MethodPost, "/api/v1/wallet/topup", nil, api.TopUpRequest{
		Amount:      amount,
		Description: description,
	}, &txn)
	return txn, err
}
