package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"budget/internal/core"
	"budget/internal/report"

	"github.com/google/subcommands"
)

const (
	formatText     = "text"
	formatMarkdown = "markdown"
	formatRender   = "render"
)

func validFormat(format string) bool {
	switch format {
	case formatText, formatMarkdown, formatRender:
		return true
	}
	return false
}

type summaryCmd struct {
	format string
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "print income, expenses and balance" }
func (*summaryCmd) Usage() string {
	return `budget [-ledger <file>] summary [-format text|markdown|render]
`
}

func (c *summaryCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.format, "format", formatText, "Output format: text, markdown or render (styled markdown).")
}

func (c *summaryCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if !validFormat(c.format) {
		fmt.Fprintf(os.Stderr, "Error: unknown format %q.\n", c.format)
		return subcommands.ExitUsageError
	}
	ctx, result, cfg, status := openBackend(ctx)
	if status != subcommands.ExitSuccess {
		return status
	}
	defer closeBackend(result)

	s := result.Service.Summary()
	if err := writeReport(os.Stdout, c.format, cfg.Currency, &s, nil); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type categoriesCmd struct {
	format string
	sorted bool
}

func (*categoriesCmd) Name() string     { return "categories" }
func (*categoriesCmd) Synopsis() string { return "print the total of each category" }
func (*categoriesCmd) Usage() string {
	return `budget [-ledger <file>] categories [-format text|markdown|render] [-sort]

  Categories are listed in the order they first appear in the ledger, or by
  name with -sort.
`
}

func (c *categoriesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.format, "format", formatText, "Output format: text, markdown or render (styled markdown).")
	f.BoolVar(&c.sorted, "sort", false, "Sort categories by name.")
}

func (c *categoriesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if !validFormat(c.format) {
		fmt.Fprintf(os.Stderr, "Error: unknown format %q.\n", c.format)
		return subcommands.ExitUsageError
	}
	ctx, result, cfg, status := openBackend(ctx)
	if status != subcommands.ExitSuccess {
		return status
	}
	defer closeBackend(result)

	totals := result.Service.ByCategory()
	if c.sorted {
		totals = core.SortByName(totals)
	}
	if err := writeReport(os.Stdout, c.format, cfg.Currency, nil, totals); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// writeReport prints the summary when s is non-nil, the category totals
// otherwise.
func writeReport(w io.Writer, format, currency string, s *core.Summary, totals []core.CategoryTotal) error {
	if format == formatText {
		if s != nil {
			return report.Text(w, *s)
		}
		return report.TextCategories(w, totals)
	}

	if s == nil && totals == nil {
		totals = []core.CategoryTotal{}
	}
	opts := report.Options{Currency: currency}
	md := report.Markdown(s, totals, opts)
	if format == formatMarkdown {
		_, err := io.WriteString(w, md)
		return err
	}

	out, err := report.Render(md, opts)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}
