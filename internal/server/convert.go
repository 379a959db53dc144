package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tejaperfect/expensiver1-sub002/internal/api"
	"github.com/tejaperfect/expensiver1-sub002/internal/core"
)

const dateLayout = "2006-01-02"

// parseYearMonth extracts year and month from query parameters. Absent or
// unparseable values come back as 0, meaning "no constraint", so a year
// without a month covers the whole year.
func parseYearMonth(r *http.Request) (year, month int) {
	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil && y > 0 {
			year = y
		}
	}
	if v := strings.TrimSpace(r.URL.Query().Get("month")); v != "" {
		if m, err := strconv.Atoi(v); err == nil && m >= 1 && m <= 12 {
			month = m
		}
	}
	return year, month
}

// parseDate parses a date string in YYYY-MM-DD format.
func parseDate(dateStr string) (core.Date, error) {
	parsedTime, err := time.Parse(dateLayout, dateStr)
	if err != nil {
		return core.Date{}, err
	}
	return core.Date{Time: parsedTime}, nil
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

func toUserPayload(u core.User) api.UserPayload {
	return api.UserPayload{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

func toExpensePayload(e core.Expense) api.ExpensePayload {
	p := api.ExpensePayload{
		ID:          e.ID,
		OwnerID:     e.OwnerID,
		GroupID:     e.GroupID,
		Date:        e.Date.Format(dateLayout),
		Description: e.Description,
		AmountCents: e.Amount.Cents,
		Category:    e.Category,
		CreatedAt:   e.CreatedAt,
	}
	for _, sh := range e.Shares {
		p.Shares = append(p.Shares, api.SharePayload{UserID: sh.UserID, AmountCents: sh.Amount.Cents})
	}
	return p
}

func toExpenseList(expenses []core.Expense) api.ExpenseListResponse {
	out := api.ExpenseListResponse{Expenses: make([]api.ExpensePayload, 0, len(expenses))}
	for _, e := range expenses {
		out.Expenses = append(out.Expenses, toExpensePayload(e))
	}
	return out
}

func toGroupPayload(g core.Group) api.GroupPayload {
	p := api.GroupPayload{
		ID:         g.ID,
		Name:       g.Name,
		Currency:   g.Currency,
		InviteCode: g.InviteCode,
		CreatedBy:  g.CreatedBy,
		CreatedAt:  g.CreatedAt,
		Members:    make([]api.MemberPayload, 0, len(g.Members)),
	}
	for _, m := range g.Members {
		p.Members = append(p.Members, api.MemberPayload{UserID: m.UserID, Name: m.Name, JoinedAt: m.JoinedAt})
	}
	return p
}

func toSummaryResponse(sum core.MonthSummary) api.SummaryResponse {
	out := api.SummaryResponse{
		Year:       sum.Year,
		Month:      sum.Month,
		TotalCents: sum.Total.Cents,
		Count:      sum.Count,
		Categories: make([]api.CategoryAmountPayload, 0, len(sum.ByCategory)),
	}
	for _, c := range sum.ByCategory {
		out.Categories = append(out.Categories, api.CategoryAmountPayload{Name: c.Name, AmountCents: c.Amount.Cents})
	}
	return out
}

func toTransactionPayload(t core.WalletTransaction) api.TransactionPayload {
	return api.TransactionPayload{
		ID:          t.ID,
		Kind:        string(t.Kind),
		AmountCents: t.Amount.Cents,
		Description: t.Description,
		CreatedAt:   t.CreatedAt,
	}
}

func toExportPayload(j core.ExportJob) api.ExportJobPayload {
	p := api.ExportJobPayload{
		ID:        j.ID,
		Status:    string(j.Status),
		Year:      j.Year,
		Month:     j.Month,
		FileName:  j.FileName,
		Error:     j.Error,
		CreatedAt: j.CreatedAt,
	}
	if !j.CompletedAt.IsZero() {
		t := j.CompletedAt
		p.CompletedAt = &t
	}
	return p
}
