// Package commands implements the budget subcommands.
package commands

import (
	"context"
	"flag"
	"fmt"
	"os"

	"budget/internal/backend"
	"budget/internal/cli"
	"budget/internal/config"
	"budget/internal/log"

	"github.com/google/subcommands"
)

var ledgerPath = flag.String("ledger", "", "Path to the ledger CSV file. Overrides LEDGER_PATH.")

// Commands lists every subcommand in registration order.
var Commands = []subcommands.Command{
	&menuCmd{},
	&addCmd{},
	&summaryCmd{},
	&categoriesCmd{},
	&exportCmd{},
}

// DefaultCommand runs when no subcommand is given.
const DefaultCommand = "menu"

// openBackend starts the ledger service for a subcommand. The returned
// context carries the logger. Errors are printed and turned into a failure
// status so callers can return it directly.
func openBackend(ctx context.Context) (context.Context, *backend.Result, *config.Config, subcommands.ExitStatus) {
	result, cfg, logger, err := cli.Bootstrap(ctx, *ledgerPath, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return ctx, nil, nil, subcommands.ExitFailure
	}
	return log.NewContext(ctx, logger), result, cfg, subcommands.ExitSuccess
}

func closeBackend(result *backend.Result) {
	if result.Cleanup == nil {
		return
	}
	if err := result.Cleanup(); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
}
