package commands

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/report"

	"github.com/google/subcommands"
)

// LedgerService is what the interactive menu needs from the ledger.
type LedgerService interface {
	Record(ctx context.Context, tx core.Transaction) error
	Summary() core.Summary
	ByCategory() []core.CategoryTotal
}

type menuCmd struct{}

func (*menuCmd) Name() string     { return "menu" }
func (*menuCmd) Synopsis() string { return "interactive menu to record transactions and show reports" }
func (*menuCmd) Usage() string {
	return `budget [-ledger <file>] menu

  Starts the interactive menu. Transactions are appended to the ledger as
  soon as they are entered.
`
}

func (*menuCmd) SetFlags(*flag.FlagSet) {}

func (*menuCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ctx, result, _, status := openBackend(ctx)
	if status != subcommands.ExitSuccess {
		return status
	}
	defer closeBackend(result)

	if err := RunMenu(ctx, os.Stdin, os.Stdout, result.Service); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// errQuit ends the menu loop, on the quit choice or at end of input.
var errQuit = errors.New("quit")

type menu struct {
	ctx context.Context
	in  *bufio.Scanner
	out io.Writer
	svc LedgerService
}

// RunMenu reads choices from in until the quit choice or end of input. An
// invalid amount or a failed save is reported and the loop goes on.
func RunMenu(ctx context.Context, in io.Reader, out io.Writer, svc LedgerService) error {
	m := &menu{ctx: ctx, in: bufio.NewScanner(in), out: out, svc: svc}
	for {
		err := m.step()
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (m *menu) step() error {
	fmt.Fprint(m.out, "\n1 - New transaction\n2 - Summary\n3 - Totals by category\n4 - Quit\n")

	choice, err := m.prompt("Choice: ")
	if err != nil {
		return err
	}

	switch strings.TrimSpace(choice) {
	case "1":
		return m.addTransaction()
	case "2":
		return report.Text(m.out, m.svc.Summary())
	case "3":
		return report.TextCategories(m.out, m.svc.ByCategory())
	case "4":
		return errQuit
	default:
		fmt.Fprintln(m.out, "Invalid choice.")
		return nil
	}
}

func (m *menu) addTransaction() error {
	date, err := m.prompt("Date (YYYY-MM-DD): ")
	if err != nil {
		return err
	}
	rawAmount, err := m.prompt("Amount (+ income / - expense): ")
	if err != nil {
		return err
	}
	amount, err := core.ParseAmount(rawAmount)
	if err != nil {
		fmt.Fprintln(m.out, "Invalid amount.")
		return nil
	}
	category, err := m.prompt("Category: ")
	if err != nil {
		return err
	}
	description, err := m.prompt("Description: ")
	if err != nil {
		return err
	}

	tx, err := core.NewTransaction(date, amount, category, description)
	if err != nil {
		fmt.Fprintln(m.out, "Invalid amount.")
		return nil
	}
	if err := m.svc.Record(m.ctx, tx); err != nil {
		log.FromContext(m.ctx).WarnContext(m.ctx, "Menu entry not saved", log.FieldOperation, log.OpAppend, log.FieldError, err)
		fmt.Fprintf(m.out, "Could not save transaction: %v\n", err)
		return nil
	}
	fmt.Fprintln(m.out, "Transaction saved.")
	return nil
}

// prompt prints label and reads one line. End of input yields errQuit.
func (m *menu) prompt(label string) (string, error) {
	fmt.Fprint(m.out, label)
	if !m.in.Scan() {
		if err := m.in.Err(); err != nil {
			return "", fmt.Errorf("read input: %w", err)
		}
		fmt.Fprintln(m.out)
		return "", errQuit
	}
	return strings.TrimRight(m.in.Text(), "\r"), nil
}
