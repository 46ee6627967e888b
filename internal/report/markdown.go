package report

import (
	"fmt"
	"math"
	"strings"

	"budget/internal/core"

	"github.com/Rhymond/go-money"
	"github.com/charmbracelet/glamour"
	"github.com/shopspring/decimal"
)

// Options controls markdown rendering.
type Options struct {
	// Currency is an ISO 4217 code. Empty prints plain two-decimal numbers.
	Currency string
	// Style is a glamour style name; empty picks one from the terminal.
	Style string
	// WordWrap is the render width, 0 means 80.
	WordWrap int
}

// Markdown builds a document with the summary table followed by the category
// table. Either part is omitted when nil.
func Markdown(s *core.Summary, totals []core.CategoryTotal, opts Options) string {
	var b strings.Builder

	if s != nil {
		b.WriteString("# Summary\n\n")
		b.WriteString("| | Amount |\n|---|---:|\n")
		fmt.Fprintf(&b, "| Income | %s |\n", FormatMoney(s.Income, opts.Currency))
		fmt.Fprintf(&b, "| Expenses | %s |\n", FormatMoney(s.Expenses, opts.Currency))
		fmt.Fprintf(&b, "| **Balance** | **%s** |\n", FormatMoney(s.Balance, opts.Currency))
	}

	if totals != nil {
		if s != nil {
			b.WriteString("\n")
		}
		b.WriteString("# Totals by category\n\n")
		if len(totals) == 0 {
			b.WriteString("_No transactions._\n")
			return b.String()
		}
		b.WriteString("| Category | Total |\n|---|---:|\n")
		for _, c := range totals {
			fmt.Fprintf(&b, "| %s | %s |\n", escapeCell(c.Name), FormatMoney(c.Amount, opts.Currency))
		}
	}

	return b.String()
}

// Render turns markdown into styled terminal output.
func Render(md string, opts Options) (string, error) {
	styleOpt := glamour.WithAutoStyle()
	if opts.Style != "" {
		styleOpt = glamour.WithStandardStyle(opts.Style)
	}
	wrap := opts.WordWrap
	if wrap <= 0 {
		wrap = 80
	}

	r, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(wrap))
	if err != nil {
		return "", fmt.Errorf("create renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return out, nil
}

var (
	maxMinorUnits = decimal.NewFromInt(math.MaxInt64)
	minMinorUnits = decimal.NewFromInt(math.MinInt64)
)

// FormatMoney displays d in the given currency, rounded to the currency's
// minor unit. An empty or unknown code, or an amount too large for go-money,
// falls back to two decimals.
func FormatMoney(d decimal.Decimal, currency string) string {
	cur := money.GetCurrency(currency)
	if currency == "" || cur == nil {
		return core.FormatFixed(d)
	}
	minor := d.Shift(int32(cur.Fraction)).Round(0)
	if minor.GreaterThan(maxMinorUnits) || minor.LessThan(minMinorUnits) {
		return core.FormatFixed(d)
	}
	return money.New(minor.IntPart(), cur.Code).Display()
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
