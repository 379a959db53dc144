package core

import (
	"testing"

	"github.com/google/uuid"
)

func groupOf(n int) []Member {
	members := make([]Member, n)
	for i := range members {
		members[i] = Member{UserID: uuid.New()}
	}
	return members
}

func TestComputeBalancesSumToZero(t *testing.T) {
	members := groupOf(3)
	a, b, c := members[0].UserID, members[1].UserID, members[2].UserID

	shares, _ := SplitEqually(Money{Cents: 3000}, []uuid.UUID{a, b, c})
	expenses := []Expense{
		{OwnerID: a, Amount: Money{Cents: 3000}, Shares: shares},
		{OwnerID: b, Amount: Money{Cents: 900}, Shares: []Share{
			{UserID: b, Amount: Money{Cents: 450}},
			{UserID: c, Amount: Money{Cents: 450}},
		}},
	}

	balances := ComputeBalances(members, expenses)
	if len(balances) != 3 {
		t.Fatalf("got %d balances, want 3", len(balances))
	}
	var sum int64
	byUser := make(map[uuid.UUID]int64)
	for _, bal := range balances {
		sum += bal.Net.Cents
		byUser[bal.UserID] = bal.Net.Cents
	}
	if sum != 0 {
		t.Fatalf("balances sum to %d, want 0", sum)
	}
	// a paid 3000, owes 1000 -> +2000
	if byUser[a] != 2000 {
		t.Fatalf("a net = %d, want 2000", byUser[a])
	}
	// b paid 900, owes 1000+450 -> -550
	if byUser[b] != -550 {
		t.Fatalf("b net = %d, want -550", byUser[b])
	}
	if byUser[c] != -1450 {
		t.Fatalf("c net = %d, want -1450", byUser[c])
	}
}

func TestComputeBalancesIdleMember(t *testing.T) {
	members := groupOf(2)
	balances := ComputeBalances(members, nil)
	for _, b := range balances {
		if b.Net.Cents != 0 {
			t.Fatalf("idle member has net %d", b.Net.Cents)
		}
	}
}

func TestSettlementPlan(t *testing.T) {
	members := groupOf(3)
	a, b, c := members[0].UserID, members[1].UserID, members[2].UserID

	balances := []Balance{
		{UserID: a, Net: Money{Cents: 2000}},
		{UserID: b, Net: Money{Cents: -550}},
		{UserID: c, Net: Money{Cents: -1450}},
	}
	plan := SettlementPlan(balances)
	if len(plan) != 2 {
		t.Fatalf("got %d transfers, want 2", len(plan))
	}
	paid := make(map[uuid.UUID]int64)
	received := make(map[uuid.UUID]int64)
	for _, tr := range plan {
		if tr.Amount.Cents <= 0 {
			t.Fatalf("non-positive transfer %d", tr.Amount.Cents)
		}
		if tr.From == tr.To {
			t.Fatal("self transfer")
		}
		paid[tr.From] += tr.Amount.Cents
		received[tr.To] += tr.Amount.Cents
	}
	// Largest debtor pays first; every debt must be extinguished exactly.
	if paid[c] != 1450 || paid[b] != 550 || received[a] != 2000 {
		t.Fatalf("unexpected plan: %+v", plan)
	}
}

func TestSettlementPlanAllSettled(t *testing.T) {
	if plan := SettlementPlan([]Balance{{UserID: uuid.New()}, {UserID: uuid.New()}}); len(plan) != 0 {
		t.Fatalf("expected empty plan, got %+v", plan)
	}
}

func TestSettlementPlanDeterministic(t *testing.T) {
	members := groupOf(4)
	balances := []Balance{
		{UserID: members[0].UserID, Net: Money{Cents: 500}},
		{UserID: members[1].UserID, Net: Money{Cents: 500}},
		{UserID: members[2].UserID, Net: Money{Cents: -500}},
		{UserID: members[3].UserID, Net: Money{Cents: -500}},
	}
	first := SettlementPlan(balances)
	for i := 0; i < 10; i++ {
		again := SettlementPlan(balances)
		if len(again) != len(first) {
			t.Fatal("plan length changed between runs")
		}
		for j := range again {
			if again[j] != first[j] {
				t.Fatalf("plan differs at %d: %+v vs %+v", j, again[j], first[j])
			}
		}
	}
}
