package core

import "sort"

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// MonthSummary is a compact summary for a specific year+month.
type MonthSummary struct {
	Year       int
	Month      int // 1-12, 0 when the summary spans the whole year
	Total      Money
	Count      int
	ByCategory []CategoryAmount
}

// Summarize aggregates the given expenses into a MonthSummary. A zero month
// aggregates the whole year. Expenses outside the period are skipped, so
// callers may pass an unfiltered slice.
func Summarize(year, month int, expenses []Expense) MonthSummary {
	sum := MonthSummary{Year: year, Month: month}
	byCat := make(map[string]int64)
	for _, e := range expenses {
		if e.Date.Year() != year {
			continue
		}
		if month != 0 && e.Date.Month() != month {
			continue
		}
		sum.Total.Cents += e.Amount.Cents
		sum.Count++
		byCat[e.Category] += e.Amount.Cents
	}
	for name, cents := range byCat {
		sum.ByCategory = append(sum.ByCategory, CategoryAmount{Name: name, Amount: Money{Cents: cents}})
	}
	// Largest category first; name breaks ties so output is stable.
	sort.Slice(sum.ByCategory, func(i, j int) bool {
		a, b := sum.ByCategory[i], sum.ByCategory[j]
		if a.Amount.Cents != b.Amount.Cents {
			return a.Amount.Cents > b.Amount.Cents
		}
		return a.Name < b.Name
	})
	return sum
}
