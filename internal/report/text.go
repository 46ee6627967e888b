// Package report renders the ledger reports, as plain text for the menu and
// as markdown for the terminal.
package report

import (
	"fmt"
	"io"

	"budget/internal/core"
)

// Text writes the summary as three lines with two decimals each.
func Text(w io.Writer, s core.Summary) error {
	_, err := fmt.Fprintf(w, "Income: %s\nExpenses: %s\nBalance: %s\n",
		core.FormatFixed(s.Income),
		core.FormatFixed(s.Expenses),
		core.FormatFixed(s.Balance))
	return err
}

// TextCategories writes one "name: total" line per category, in the order
// given.
func TextCategories(w io.Writer, totals []core.CategoryTotal) error {
	for _, c := range totals {
		if _, err := fmt.Fprintf(w, "%s: %s\n", c.Name, core.FormatFixed(c.Amount)); err != nil {
			return err
		}
	}
	return nil
}
