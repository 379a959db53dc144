package server

import (
	"net/http"
	"testing"

	"github.com/tejaperfect/expensiver1-sub002/internal/api"
)

func createExpense(t *testing.T, env *testEnv, token string, req api.CreateExpenseRequest) api.ExpensePayload {
	t.Helper()

	var got api.ExpensePayload
	resp := env.doJSON(t, http.MethodPost, "/api/v1/expenses", token, req, &got)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create expense status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}
	return got
}

func TestCreateAndGetExpense(t *testing.T) {
	env := newTestEnv(t)
	session := env.register(t, "Ada", "ada@example.com")

	created := createExpense(t, env, session.AccessToken, api.CreateExpenseRequest{
		Date:        "2026-08-15",
		Description: "Groceries",
		Amount:      "42,50",
		Category:    "Food",
	})
	if created.AmountCents != 4250 {
		t.Errorf("amountCents = %d, want 4250", created.AmountCents)
	}

	var got api.ExpensePayload
	resp := env.doJSON(t, http.MethodGet, "/api/v1/expenses/"+created.ID.String(), session.AccessToken, nil, &got)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if got.Description != "Groceries" || got.Date != "2026-08-15" {
		t.Errorf("got %q on %q, want Groceries on 2026-08-15", got.Description, got.Date)
	}
}

func TestCreateExpenseValidation(t *testing.T) {
	env := newTestEnv(t)
	session := env.register(t, "Ada", "ada@example.com")

	tests := []struct {
		name string
		req  api.CreateExpenseRequest
	}{
		{name: "bad amount", req: api.CreateExpenseRequest{Date: "2026-08-15", Description: "x", Amount: "abc", Category: "Food"}},
		{name: "negative amount", req: api.CreateExpenseRequest{Date: "2026-08-15", Description: "x", Amount: "-5", Category: "Food"}},
		{name: "bad date", req: api.CreateExpenseRequest{Date: "15/08/2026", Description: "x", Amount: "5", Category: "Food"}},
		{name: "missing description", req: api.CreateExpenseRequest{Date: "2026-08-15", Amount: "5", Category: "Food"}},
		{name: "missing category", req: api.CreateExpenseRequest{Date: "2026-08-15", Description: "x", Amount: "5"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.doJSON(t, http.MethodPost, "/api/v1/expenses", session.AccessToken, tt.req, nil)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
			}
		})
	}
}

func TestListExpensesFilters(t *testing.T) {
	env := newTestEnv(t)
	session := env.register(t, "Ada", "ada@example.com")

	createExpense(t, env, session.AccessToken, api.CreateExpenseRequest{
		Date: "2026-08-15", Description: "Groceries", Amount: "10", Category: "Food",
	})
	createExpense(t, env, session.AccessToken, api.CreateExpenseRequest{
		Date: "2026-08-20", Description: "Train", Amount: "25", Category: "Transport",
	})
	createExpense(t, env, session.AccessToken, api.CreateExpenseRequest{
		Date: "2026-07-01", Description: "Cinema", Amount: "12", Category: "Fun",
	})
	createExpense(t, env, session.AccessToken, api.CreateExpenseRequest{
		Date: "2025-11-20", Description: "Books", Amount: "30", Category: "Fun",
	})

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{name: "all", query: "", want: 4},
		{name: "by year", query: "?year=2026", want: 3},
		{name: "by month", query: "?year=2026&month=8", want: 2},
		{name: "by category", query: "?category=Food", want: 1},
		{name: "month and category", query: "?year=2026&month=8&category=Transport", want: 1},
		{name: "empty month", query: "?year=2026&month=1", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got api.ExpenseListResponse
			resp := env.doJSON(t, http.MethodGet, "/api/v1/expenses"+tt.query, session.AccessToken, nil, &got)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
			}
			if len(got.Expenses) != tt.want {
				t.Errorf("len = %d, want %d", len(got.Expenses), tt.want)
			}
		})
	}
}

func TestUpdateExpense(t *testing.T) {
	env := newTestEnv(t)
	session := env.register(t, "Ada", "ada@example.com")

	created := createExpense(t, env, session.AccessToken, api.CreateExpenseRequest{
		Date: "2026-08-15", Description: "Groceries", Amount: "10", Category: "Food",
	})

	var updated api.ExpensePayload
	resp := env.doJSON(t, http.MethodPut, "/api/v1/expenses/"+created.ID.String(), session.AccessToken, api.CreateExpenseRequest{
		Date: "2026-08-16", Description: "Groceries and wine", Amount: "18,90", Category: "Food",
	}, &updated)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if updated.AmountCents != 1890 {
		t.Errorf("amountCents = %d, want 1890", updated.AmountCents)
	}
	if updated.ID != created.ID {
		t.Errorf("update must keep the expense ID")
	}
}

func TestDeleteExpense(t *testing.T) {
	env := newTestEnv(t)
	session := env.register(t, "Ada", "ada@example.com")

	created := createExpense(t, env, session.AccessToken, api.CreateExpenseRequest{
		Date: "2026-08-15", Description: "Groceries", Amount: "10", Category: "Food",
	})

	resp := env.doJSON(t, http.MethodDelete, "/api/v1/expenses/"+created.ID.String(), session.AccessToken, nil, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d, want %d", resp.StatusCode, http.StatusNoContent)
	}

	resp = env.doJSON(t, http.MethodGet, "/api/v1/expenses/"+created.ID.String(), session.AccessToken, nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestExpenseOwnershipHidesForeignRows(t *testing.T) {
	env := newTestEnv(t)
	ada := env.register(t, "Ada", "ada@example.com")
	bob := env.register(t, "Bob", "bob@example.com")

	created := createExpense(t, env, ada.AccessToken, api.CreateExpenseRequest{
		Date: "2026-08-15", Description: "Groceries", Amount: "10", Category: "Food",
	})

	resp := env.doJSON(t, http.MethodGet, "/api/v1/expenses/"+created.ID.String(), bob.AccessToken, nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("foreign expense status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestExpenseSummary(t *testing.T) {
	env := newTestEnv(t)
	session := env.register(t, "Ada", "ada@example.com")

	createExpense(t, env, session.AccessToken, api.CreateExpenseRequest{
		Date: "2026-08-15", Description: "Groceries", Amount: "10", Category: "Food",
	})
	createExpense(t, env, session.AccessToken, api.CreateExpenseRequest{
		Date: "2026-08-20", Description: "More groceries", Amount: "5", Category: "Food",
	})
	createExpense(t, env, session.AccessToken, api.CreateExpenseRequest{
		Date: "2026-08-21", Description: "Train", Amount: "25", Category: "Transport",
	})

	var sum api.SummaryResponse
	resp := env.doJSON(t, http.MethodGet, "/api/v1/expenses/summary?year=2026&month=8", session.AccessToken, nil, &sum)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("summary status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if sum.TotalCents != 4000 {
		t.Errorf("totalCents = %d, want 4000", sum.TotalCents)
	}
	if sum.Count != 3 {
		t.Errorf("count = %d, want 3", sum.Count)
	}
	if len(sum.Categories) != 2 || sum.Categories[0].Name != "Transport" {
		t.Errorf("categories = %+v, want Transport first", sum.Categories)
	}
}

func TestExpenseSummaryWholeYear(t *testing.T) {
	env := newTestEnv(t)
	session := env.register(t, "Ada", "ada@example.com")

	createExpense(t, env, session.AccessToken, api.CreateExpenseRequest{
		Date: "2023-03-15", Description: "Groceries", Amount: "10", Category: "Food",
	})
	createExpense(t, env, session.AccessToken, api.CreateExpenseRequest{
		Date: "2023-11-20", Description: "Train", Amount: "25", Category: "Transport",
	})
	createExpense(t, env, session.AccessToken, api.CreateExpenseRequest{
		Date: "2024-01-05", Description: "Cinema", Amount: "12", Category: "Fun",
	})

	// A year without a month aggregates all twelve months.
	var sum api.SummaryResponse
	resp := env.doJSON(t, http.MethodGet, "/api/v1/expenses/summary?year=2023", session.AccessToken, nil, &sum)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("summary status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if sum.TotalCents != 3500 {
		t.Errorf("totalCents = %d, want 3500", sum.TotalCents)
	}
	if sum.Count != 2 {
		t.Errorf("count = %d, want 2", sum.Count)
	}
	if sum.Year != 2023 || sum.Month != 0 {
		t.Errorf("period = %d-%d, want 2023-0", sum.Year, sum.Month)
	}

	// The whole-year summary is cached and must refresh on a new expense.
	createExpense(t, env, session.AccessToken, api.CreateExpenseRequest{
		Date: "2023-06-01", Description: "Coffee", Amount: "5", Category: "Food",
	})
	env.doJSON(t, http.MethodGet, "/api/v1/expenses/summary?year=2023", session.AccessToken, nil, &sum)
	if sum.TotalCents != 4000 {
		t.Errorf("totalCents after new expense = %d, want 4000", sum.TotalCents)
	}
}

func TestExpenseSummaryCacheInvalidation(t *testing.T) {
	env := newTestEnv(t)
	session := env.register(t, "Ada", "ada@example.com")

	createExpense(t, env, session.AccessToken, api.CreateExpenseRequest{
		Date: "2026-08-15", Description: "Groceries", Amount: "10", Category: "Food",
	})

	var first api.SummaryResponse
	env.doJSON(t, http.MethodGet, "/api/v1/expenses/summary?year=2026&month=8", session.AccessToken, nil, &first)

	// A second expense must show up even though the summary was cached.
	createExpense(t, env, session.AccessToken, api.CreateExpenseRequest{
		Date: "2026-08-16", Description: "Wine", Amount: "8", Category: "Food",
	})

	var second api.SummaryResponse
	env.doJSON(t, http.MethodGet, "/api/v1/expenses/summary?year=2026&month=8", session.AccessToken, nil, &second)
	if second.TotalCents != 1800 {
		t.Errorf("totalCents after second expense = %d, want 1800", second.TotalCents)
	}
}

func TestCreateExpenseDebitsWallet(t *testing.T) {
	env := newTestEnv(t)
	session := env.register(t, "Ada", "ada@example.com")

	env.doJSON(t, http.MethodPost, "/api/v1/wallet/topup", session.AccessToken, api.TopUpRequest{
		Amount: "100", Description: "initial funds",
	}, nil)
	createExpense(t, env, session.AccessToken, api.CreateExpenseRequest{
		Date: "2026-08-15", Description: "Groceries", Amount: "10", Category: "Food",
	})

	var wallet api.WalletResponse
	resp := env.doJSON(t, http.MethodGet, "/api/v1/wallet", session.AccessToken, nil, &wallet)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("wallet status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if wallet.BalanceCents != 9000 {
		t.Errorf("balanceCents = %d, want 9000", wallet.BalanceCents)
	}
}
