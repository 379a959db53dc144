package core

import (
	"bytes"
	"sort"

	"github.com/google/uuid"
)

// Balance is a member's net position inside a group. Positive cents means the
// group owes the member money, negative means the member owes the group.
type Balance struct {
	UserID uuid.UUID
	Net    Money
}

// Transfer is one suggested settlement payment between two members.
type Transfer struct {
	From   uuid.UUID
	To     uuid.UUID
	Amount Money
}

// ComputeBalances folds group expenses into per-member net positions.
// Each expense credits the payer with the full amount and debits every share
// holder with their share. Members with no activity get a zero balance.
// The returned balances always sum to zero because shares are validated to
// sum to the expense amount.
func ComputeBalances(members []Member, expenses []Expense) []Balance {
	net := make(map[uuid.UUID]int64, len(members))
	for _, m := range members {
		net[m.UserID] = 0
	}
	for _, e := range expenses {
		net[e.OwnerID] += e.Amount.Cents
		for _, s := range e.Shares {
			net[s.UserID] -= s.Amount.Cents
		}
	}
	balances := make([]Balance, 0, len(net))
	for id, cents := range net {
		balances = append(balances, Balance{UserID: id, Net: Money{Cents: cents}})
	}
	sortBalances(balances)
	return balances
}

// SettlementPlan pairs debtors with creditors into a minimal set of
// transfers. Greedy matching of the largest debtor against the largest
// creditor extinguishes at least one side per transfer, so the plan has
// fewer transfers than there are members with a nonzero balance.
func SettlementPlan(balances []Balance) []Transfer {
	creditors := make([]Balance, 0, len(balances))
	debtors := make([]Balance, 0, len(balances))
	for _, b := range balances {
		switch {
		case b.Net.Cents > 0:
			creditors = append(creditors, b)
		case b.Net.Cents < 0:
			debtors = append(debtors, Balance{UserID: b.UserID, Net: Money{Cents: -b.Net.Cents}})
		}
	}
	sortBalances(creditors)
	sortBalances(debtors)

	var plan []Transfer
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		owe := debtors[i].Net.Cents
		due := creditors[j].Net.Cents
		amt := owe
		if due < amt {
			amt = due
		}
		plan = append(plan, Transfer{
			From:   debtors[i].UserID,
			To:     creditors[j].UserID,
			Amount: Money{Cents: amt},
		})
		debtors[i].Net.Cents -= amt
		creditors[j].Net.Cents -= amt
		if debtors[i].Net.Cents == 0 {
			i++
		}
		if creditors[j].Net.Cents == 0 {
			j++
		}
	}
	return plan
}

// sortBalances orders by descending amount; UUID bytes break ties so the
// plan is deterministic for a given set of expenses.
func sortBalances(bs []Balance) {
	sort.Slice(bs, func(i, j int) bool {
		if bs[i].Net.Cents != bs[j].Net.Cents {
			return bs[i].Net.Cents > bs[j].Net.Cents
		}
		return bytes.Compare(bs[i].UserID[:], bs[j].UserID[:]) < 0
	})
}
