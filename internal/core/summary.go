package core

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// Summary is the overall income/expense report of a ledger.
type Summary struct {
	Income   decimal.Decimal // sum of positive amounts
	Expenses decimal.Decimal // sum of negative amounts, kept negative
	Balance  decimal.Decimal // Income + Expenses
}

// CategoryTotal represents an amount aggregated by category name.
type CategoryTotal struct {
	Name   string
	Amount decimal.Decimal
}

// Summarize computes the summary of txs. Zero amounts count in neither income
// nor expenses.
func Summarize(txs []Transaction) Summary {
	income, expenses := decimal.Zero, decimal.Zero
	for _, t := range txs {
		switch t.amount.Sign() {
		case 1:
			income = income.Add(t.amount)
		case -1:
			expenses = expenses.Add(t.amount)
		}
	}
	return Summary{
		Income:   income,
		Expenses: expenses,
		Balance:  income.Add(expenses),
	}
}

// GroupByCategory sums amounts per category. Categories appear in the order
// of their first transaction; a category whose amounts cancel out is still
// listed with a zero total.
func GroupByCategory(txs []Transaction) []CategoryTotal {
	index := make(map[string]int)
	var out []CategoryTotal
	for _, t := range txs {
		i, ok := index[t.category]
		if !ok {
			i = len(out)
			index[t.category] = i
			out = append(out, CategoryTotal{Name: t.category, Amount: decimal.Zero})
		}
		out[i].Amount = out[i].Amount.Add(t.amount)
	}
	return out
}

// SortByName returns a copy of totals sorted by category name.
func SortByName(totals []CategoryTotal) []CategoryTotal {
	out := slices.Clone(totals)
	slices.SortStableFunc(out, func(a, b CategoryTotal) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out
}
