package client

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/tejaperfect/expensiver1-sub002/internal/api"
)

// GroupService covers shared groups and their split expenses.
type GroupService struct {
	c    *Client
	list Resource[[]api.GroupPayload]
}

func (s *GroupService) Create(ctx context.Context, name, currency string) (api.GroupPayload, error) {
	var group api.GroupPayload
	err := s.c.do(ctx, http.MethodPost, "/api/v1/groups", nil, api.CreateGroupRequest{
		Name:     name,
		Currency: currency,
	}, &group)
	return group, err
}

func (s *GroupService) List(ctx context.Context) ([]api.GroupPayload, error) {
	return s.list.Do(func() ([]api.GroupPayload, error) {
		var resp api.GroupListResponse
		if err := s.c.do(ctx, http.MethodGet, "/api/v1/groups", nil, nil, &resp); err != nil {
			return nil, err
		}
		return resp.Groups, nil
	})
}

// Cached returns the groups from the last successful List.
func (s *GroupService) Cached() ([]api.GroupPayload, bool) {
	return s.list.Get()
}

func (s *GroupService) Get(ctx context.Context, id uuid.UUID) (api.GroupPayload, error) {
	var group api.GroupPayload
	err := s.c.do(ctx, http.MethodGet, "/api/v1/groups/"+id.String(), nil, nil, &group)
	return group, err
}

func (s *GroupService) Join(ctx context.Context, inviteCode string) (api.GroupPayload, error) {
	var group api.GroupPayload
	err := s.c.do(ctx, http.MethodPost, "/api/v1/groups/join", nil, api.JoinGroupRequest{
		InviteCode: inviteCode,
	}, &group)
	return group, err
}

func (s *GroupService) AddExpense(ctx context.Context, groupID uuid.UUID, req api.CreateGroupExpenseRequest) (api.ExpensePayload, error) {
	var expense api.ExpensePayload
	err := s.c.do(ctx, http.MethodPost, "/api/v1/groups/"+groupID.String()+"/expenses", nil, req, &expense)
	return expense, err
}

func (s *GroupService) ListExpenses(ctx context.Context, groupID uuid.UUID) ([]api.ExpensePayload, error) {
	var resp api.ExpenseListResponse
	if err := s.c.do(ctx, http.MethodGet, "/api/v1/groups/"+groupID.String()+"/expenses", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Expenses, nil
}

func (s *GroupService) Balances(ctx context.Context, groupID uuid.UUID) ([]api.BalancePayload, error) {
	var resp api.BalancesResponse
	if err := s.c.do(ctx, http.MethodGet, "/api/v1/groups/"+groupID.String()+"/balances", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Balances, nil
}

func (s *GroupService) Settlements(ctx context.Context, groupID uuid.UUID) ([]api.TransferPayload, error) {
	var resp api.SettlementsResponse
	if err := s.c.do(ctx, http.MethodGet, "/api/v1/groups/"+groupID.String()+"/settlements", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Transfers, nil
}
