package commands

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"budget/internal/core"
	"budget/internal/ledger"
	"budget/internal/services"
)

func newService(t *testing.T) (*services.LedgerService, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "transactions.csv")
	store, err := ledger.Open(path)
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	return services.NewLedgerService(store), path
}

func runMenu(t *testing.T, svc LedgerService, input string) string {
	t.Helper()
	var out bytes.Buffer
	if err := RunMenu(context.Background(), strings.NewReader(input), &out, svc); err != nil {
		t.Fatalf("RunMenu() error = %v", err)
	}
	return out.String()
}

func TestRunMenu_Scenario(t *testing.T) {
	svc, path := newService(t)
	input := strings.Join([]string{
		"1", "2024-01-01", "1000.00", "Salary", "Jan pay",
		"1", "2024-01-05", "-250.50", "Groceries", "Weekly shop",
		"1", "2024-01-06", "-250.50", "Groceries", "Weekly shop",
		"2",
		"3",
		"4",
	}, "\n") + "\n"

	out := runMenu(t, svc, input)

	if got := strings.Count(out, "Transaction saved."); got != 3 {
		t.Errorf("saved %d transactions, want 3", got)
	}
	for _, want := range []string{
		"Income: 1000.00\nExpenses: -501.00\nBalance: 499.00\n",
		"Salary: 1000.00\nGroceries: -501.00\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	reloaded, err := ledger.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.Len() != 3 {
		t.Errorf("reloaded %d transactions, want 3", reloaded.Len())
	}
}

func TestRunMenu_InvalidAmount(t *testing.T) {
	svc, _ := newService(t)
	out := runMenu(t, svc, "1\n2024-01-01\nabc\n2\n4\n")

	if !strings.Contains(out, "Invalid amount.") {
		t.Errorf("expected invalid amount message:\n%s", out)
	}
	if strings.Contains(out, "Category: ") {
		t.Errorf("category must not be asked after an invalid amount")
	}
	if len(svc.Transactions()) != 0 {
		t.Errorf("no transaction must be recorded")
	}
	if !strings.Contains(out, "Balance: 0.00") {
		t.Errorf("menu must continue after an invalid amount:\n%s", out)
	}
}

func TestRunMenu_InvalidChoice(t *testing.T) {
	svc, _ := newService(t)
	out := runMenu(t, svc, "9\n\n4\n")

	if got := strings.Count(out, "Invalid choice."); got != 2 {
		t.Errorf("invalid choice printed %d times, want 2:\n%s", got, out)
	}
}

func TestRunMenu_EndOfInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"after choice", "2\n"},
		{"inside entry", "1\n2024-01-01\n5\nBooks"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newService(t)
			runMenu(t, svc, tt.input)
			if len(svc.Transactions()) != 0 {
				t.Errorf("partial entry must not be recorded")
			}
		})
	}
}

func TestRunMenu_KeepsFieldsVerbatim(t *testing.T) {
	svc, _ := newService(t)
	runMenu(t, svc, "1\r\n 2024-01-01 \r\n12.5\r\nFood, drinks\r\n  \"quoted\"  \r\n4\r\n")

	txs := svc.Transactions()
	if len(txs) != 1 {
		t.Fatalf("recorded %d transactions, want 1", len(txs))
	}
	want := core.MustTransaction(" 2024-01-01 ", "12.5", "Food, drinks", `  "quoted"  `)
	if !txs[0].Equal(want) {
		t.Errorf("got %v, want %v", txs[0], want)
	}
}

type failingService struct{ LedgerService }

func (failingService) Record(context.Context, core.Transaction) error {
	return errors.New("disk full")
}

func TestRunMenu_SaveFailureContinues(t *testing.T) {
	svc, _ := newService(t)
	out := runMenu(t, failingService{svc}, "1\nd\n1\nc\nm\n2\n4\n")

	if !strings.Contains(out, "Could not save transaction: disk full") {
		t.Errorf("expected save failure message:\n%s", out)
	}
	if !strings.Contains(out, "Balance: 0.00") {
		t.Errorf("menu must continue after a failed save:\n%s", out)
	}
}

func TestWriteReport(t *testing.T) {
	s := core.Summary{}
	var buf bytes.Buffer
	if err := writeReport(&buf, formatMarkdown, "", &s, nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "| Balance |") && !strings.Contains(buf.String(), "**Balance**") {
		t.Errorf("unexpected markdown:\n%s", buf.String())
	}

	buf.Reset()
	if err := writeReport(&buf, formatMarkdown, "", nil, nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "_No transactions._") {
		t.Errorf("empty ledger must print an empty category report:\n%s", buf.String())
	}

	if validFormat("html") {
		t.Error("html is not a supported format")
	}
}
