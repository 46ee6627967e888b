package commands

import (
	"context"
	"flag"
	"fmt"
	"os"

	"budget/internal/storage"

	"github.com/google/subcommands"
)

type exportCmd struct {
	dbPath string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "copy the whole ledger into an SQLite database" }
func (*exportCmd) Usage() string {
	return `budget [-ledger <file>] export -db <path>

  Replaces the content of the SQLite database with the ledger. The database
  and its schema are created when missing.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.dbPath, "db", "", "Path to the SQLite database. Defaults to SQLITE_DB_PATH.")
}

func (c *exportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ctx, result, cfg, status := openBackend(ctx)
	if status != subcommands.ExitSuccess {
		return status
	}
	defer closeBackend(result)

	dbPath := c.dbPath
	if dbPath == "" {
		dbPath = cfg.SQLiteDBPath
	}
	if dbPath == "" {
		fmt.Fprintln(os.Stderr, "Error: -db is required when SQLITE_DB_PATH is not set.")
		return subcommands.ExitUsageError
	}

	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer repo.Close()

	n, err := result.Service.Export(ctx, repo)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Exported %d transactions to %s\n", n, dbPath)
	return subcommands.ExitSuccess
}
