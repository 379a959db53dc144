package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/tejaperfect/expensiver1-sub002/internal/api"
)

// ExpenseService covers personal expenses. The last listing is kept in a
// Resource so callers can fall back to stale data when a refetch fails.
type ExpenseService struct {
	c    *Client
	list Resource[[]api.ExpensePayload]
}

// ExpenseFilter narrows List. Zero values mean "no constraint".
type ExpenseFilter struct {
	Year     int
	Month    int
	Category string
}

func (f ExpenseFilter) query() url.Values {
	q := url.Values{}
	if f.Year != 0 {
		q.Set("year", strconv.Itoa(f.Year))
	}
	if f.Month != 0 {
		q.Set("month", strconv.Itoa(f.Month))
	}
	if f.Category != "" {
		q.Set("category", f.Category)
	}
	return q
}

func (s *ExpenseService) Create(ctx context.Context, req api.CreateExpenseRequest) (api.ExpensePayload, error) {
	var expense api.ExpensePayload
	err := s.c.do(ctx, http.MethodPost, "/api/v1/expenses", nil, req, &expense)
	return expense, err
}

func (s *ExpenseService) List(ctx context.Context, filter ExpenseFilter) ([]api.ExpensePayload, error) {
	return s.list.Do(func() ([]api.ExpensePayload, error) {
		var resp api.ExpenseListResponse
		if err := s.c.do(ctx, http.MethodGet, "/api/v1/expenses", filter.query(), nil, &resp); err != nil {
			return nil, err
		}
		return resp.Expenses, nil
	})
}

// Cached returns the expenses from the last successful List, surviving a
// later failed refetch.
func (s *ExpenseService) Cached() ([]api.ExpensePayload, bool) {
	return s.list.Get()
}

func (s *ExpenseService) Get(ctx context.Context, id uuid.UUID) (api.ExpensePayload, error) {
	var expense api.ExpensePayload
	err := s.c.do(ctx, http.MethodGet, "/api/v1/expenses/"+id.String(), nil, nil, &expense)
	return expense, err
}

func (s *ExpenseService) Update(ctx context.Context, id uuid.UUID, req api.CreateExpenseRequest) (api.ExpensePayload, error) {
	var expense api.ExpensePayload
	err := s.c.do(ctx, http.MethodPut, "/api/v1/expenses/"+id.String(), nil, req, &expense)
	return expense, err
}

func (s *ExpenseService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.c.do(ctx, http.MethodDelete, "/api/v1/expenses/"+id.String(), nil, nil, nil)
}

// Summary aggregates one month; zero year and month mean the current ones.
func (s *ExpenseService) Summary(ctx context.Context, year, month int) (api.SummaryResponse, error) {
	q := url.Values{}
	if year != 0 {
		q.Set("year", strconv.Itoa(year))
	}
	if month != 0 {
		q.Set("month", strconv.Itoa(month))
	}

	var sum api.SummaryResponse
	err := s.c.do(ctx, http.MethodGet, "/api/v1/expenses/summary", q, nil, &sum)
	return sum, err
}
