package commands

import (
	"context"
	"flag"
	"fmt"
	"os"

	"budget/internal/core"

	"github.com/google/subcommands"
)

type addCmd struct {
	date        string
	amount      string
	category    string
	description string
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "append one transaction to the ledger" }
func (*addCmd) Usage() string {
	return `budget [-ledger <file>] add -d <date> -a <amount> -c <category> [-m <description>]

  Appends a transaction. Positive amounts are income, negative amounts are
  expenses.
`
}

func (c *addCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", "", "Date of the transaction, kept as given.")
	f.StringVar(&c.amount, "a", "", "Signed amount, e.g. 1000.00 or -250.50.")
	f.StringVar(&c.category, "c", "", "Category label.")
	f.StringVar(&c.description, "m", "", "Free-form description.")
}

func (c *addCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.amount == "" {
		fmt.Fprintln(os.Stderr, "Error: -a is required.")
		return subcommands.ExitUsageError
	}
	tx, err := core.NewTransaction(c.date, c.amount, c.category, c.description)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}

	ctx, result, _, status := openBackend(ctx)
	if status != subcommands.ExitSuccess {
		return status
	}
	defer closeBackend(result)

	if err := result.Service.Record(ctx, tx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Println(tx)
	return subcommands.ExitSuccess
}
