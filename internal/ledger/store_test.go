package ledger

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"budget/internal/core"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func mustOpen(t *testing.T, path string) *Store {
	t.Helper()
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	return s
}

func mustAppend(t *testing.T, s *Store, txs ...core.Transaction) {
	t.Helper()
	for _, tx := range txs {
		if err := s.Append(tx); err != nil {
			t.Fatalf("append %v: %v", tx, err)
		}
	}
}

// readRows returns every CSV record of the file, header included.
func readRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return rows
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func scenario() []core.Transaction {
	return []core.Transaction{
		core.MustTransaction("2024-01-01", "1000.00", "Salary", "Jan pay"),
		core.MustTransaction("2024-01-05", "-250.50", "Groceries", "Weekly shop"),
		core.MustTransaction("2024-01-06", "-250.50", "Groceries", "Weekly shop"),
	}
}

func TestOpenMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transactions.csv")
	s := mustOpen(t, path)
	if s.Len() != 0 {
		t.Fatalf("expected empty ledger, got %d", s.Len())
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("Open must not create the file, stat err=%v", err)
	}
}

func TestFirstAppendCreatesFileWithHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transactions.csv")
	s := mustOpen(t, path)
	mustAppend(t, s, scenario()[0])

	rows := readRows(t, path)
	if len(rows) != 2 {
		t.Fatalf("expected header + 1 row, got %v", rows)
	}
	if strings.Join(rows[0], ",") != "date,amount,category,description" {
		t.Fatalf("header: got %v", rows[0])
	}
	if strings.Join(rows[1], ",") != "2024-01-01,1000,Salary,Jan pay" {
		t.Fatalf("row: got %v", rows[1])
	}
}

func TestEmptyExistingFileGetsHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transactions.csv")
	writeFile(t, path, "")

	s := mustOpen(t, path)
	if s.Len() != 0 {
		t.Fatalf("expected empty ledger, got %d", s.Len())
	}
	mustAppend(t, s, scenario()[1])

	rows := readRows(t, path)
	if len(rows) != 2 || rows[0][0] != "date" || rows[1][1] != "-250.5" {
		t.Fatalf("unexpected rows %v", rows)
	}
}

func TestHeaderWrittenOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transactions.csv")
	s := mustOpen(t, path)
	mustAppend(t, s, scenario()...)

	// A second process appending to the same, now non-empty, file.
	s2 := mustOpen(t, path)
	mustAppend(t, s2, core.MustTransaction("2024-01-07", "3", "Gift", ""))

	headers := 0
	for _, r := range readRows(t, path) {
		if r[0] == "date" {
			headers++
		}
	}
	if headers != 1 {
		t.Fatalf("expected one header, got %d", headers)
	}
}

func TestAppendMonotonicity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transactions.csv")
	s := mustOpen(t, path)
	const n = 25
	for i := 0; i < n; i++ {
		mustAppend(t, s, core.MustTransaction("2024-02-01", i-10, "c", "x"))
		rows := readRows(t, path)
		if s.Len() != i+1 || len(rows) != i+2 {
			t.Fatalf("after %d appends: memory=%d file rows=%d", i+1, s.Len(), len(rows))
		}
		last := rows[len(rows)-1]
		if last[1] != core.FormatAmount(decimal.NewFromInt(int64(i-10))) {
			t.Fatalf("last row is not the appended one: %v", last)
		}
	}
}

func TestRoundTripThroughFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transactions.csv")
	want := append(scenario(),
		core.MustTransaction("2024-03-01", "0", "Zero, with comma", `quote " inside`),
		core.MustTransaction("", "-0.000001", "", "multi\nline"),
		core.MustTransaction("whenever", "12345678901234567890.5", "Big", "  padded  "),
		core.MustTransaction("2024-03-02", "1", "c", "line1\r\nline2"),
		core.MustTransaction("2024-03-03\r", "2", "cr\r\n", "\r"),
		core.MustTransaction("2024-03-04", "3", `C:\temp\r`, `trailing \`),
	)
	s := mustOpen(t, path)
	mustAppend(t, s, want...)

	got := mustOpen(t, path).Transactions()
	if len(got) != len(want) {
		t.Fatalf("loaded %d, want %d", len(got), len(want))
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Fatalf("tx %d: got %v want %v", i, got[i], want[i])
		}
	}
}

func TestIdempotentLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transactions.csv")
	mustAppend(t, mustOpen(t, path), scenario()...)

	a := mustOpen(t, path).Transactions()
	b := mustOpen(t, path).Transactions()
	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			t.Fatalf("tx %d differs: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestScenarioReports(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transactions.csv")
	s := mustOpen(t, path)
	mustAppend(t, s, scenario()...)

	for name, st := range map[string]*Store{"in memory": s, "reloaded": mustOpen(t, path)} {
		sum := st.Summary()
		if !sum.Income.Equal(dec("1000")) || !sum.Expenses.Equal(dec("-501")) || !sum.Balance.Equal(dec("499")) {
			t.Fatalf("%s: unexpected summary %+v", name, sum)
		}
		if !sum.Income.Add(sum.Expenses).Equal(sum.Balance) {
			t.Fatalf("%s: identity broken %+v", name, sum)
		}

		cats := st.ByCategory()
		if len(cats) != 2 ||
			cats[0].Name != "Salary" || !cats[0].Amount.Equal(dec("1000")) ||
			cats[1].Name != "Groceries" || !cats[1].Amount.Equal(dec("-501")) {
			t.Fatalf("%s: unexpected categories %v", name, cats)
		}
		total := decimal.Zero
		for _, c := range cats {
			total = total.Add(c.Amount)
		}
		if !total.Equal(sum.Balance) {
			t.Fatalf("%s: categories sum %s != balance %s", name, total, sum.Balance)
		}
	}
}

func TestOpenSkipsCorruptRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transactions.csv")
	writeFile(t, path, strings.Join([]string{
		"date,amount,category,description",
		"2024-01-01,10,Food,ok",
		"2024-01-02,abc,Food,bad amount",
		"2024-01-03,5,Food",
		`2024-01-04,-3,Food,"ok, quoted"`,
		"2024-01-05,,Food,empty amount",
		"",
	}, "\n"))

	s := mustOpen(t, path)
	if s.Len() != 2 {
		t.Fatalf("expected 2 valid rows, got %d: %v", s.Len(), s.Transactions())
	}
	rep := s.LoadReport()
	if rep.Loaded != 2 || rep.Skipped != 3 {
		t.Fatalf("unexpected report %+v", rep)
	}
	wantLines := []int{3, 4, 6}
	for i, l := range wantLines {
		if rep.SkippedRows[i] != l {
			t.Fatalf("skipped lines: got %v want %v", rep.SkippedRows, wantLines)
		}
	}
	if got := s.Transactions()[1].Description(); got != "ok, quoted" {
		t.Fatalf("description: got %q", got)
	}
}

func TestOpenMatchesColumnsByHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transactions.csv")
	writeFile(t, path, "\ufeffcategory,description,amount,date,extra\nRent,May,-900,2024-05-01,x\n")

	s := mustOpen(t, path)
	if s.Len() != 1 {
		t.Fatalf("expected 1 row, got %d", s.Len())
	}
	tx := s.Transactions()[0]
	if tx.Date() != "2024-05-01" || tx.Category() != "Rent" || !tx.Amount().Equal(dec("-900")) {
		t.Fatalf("unexpected tx %v", tx)
	}
}

func TestOpenHeaderWithoutRequiredColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transactions.csv")
	writeFile(t, path, "date,amount,category\n2024-01-01,1,a\n2024-01-02,2,b\n")

	s := mustOpen(t, path)
	if s.Len() != 0 || s.LoadReport().Skipped != 2 {
		t.Fatalf("expected every row skipped, got len=%d report=%+v", s.Len(), s.LoadReport())
	}
}

func TestOpenUnreadablePath(t *testing.T) {
	dir := t.TempDir()
	// A directory can be opened but not read as a CSV stream.
	if _, err := Open(dir); !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
}

func TestAppendFailureRollsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "transactions.csv")
	s := mustOpen(t, path)

	err := s.Append(scenario()[0])
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("in-memory append must be rolled back, len=%d", s.Len())
	}
	if sum := s.Summary(); !sum.Balance.IsZero() {
		t.Fatalf("reports must not see the failed append: %+v", sum)
	}
}

func TestTransactionsIsACopy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transactions.csv")
	s := mustOpen(t, path)
	mustAppend(t, s, scenario()...)

	txs := s.Transactions()
	txs[0] = core.MustTransaction("x", "1", "y", "z")
	if s.Transactions()[0].Category() != "Salary" {
		t.Fatalf("store was mutated through the returned slice")
	}
}

func TestAppendAfterUnterminatedLastLine(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []core.Transaction
	}{
		{
			name:    "data row",
			content: "date,amount,category,description\n2024-01-01,1000,Salary,Jan pay",
			want:    scenario()[:2],
		},
		{
			name:    "header only",
			content: "date,amount,category,description",
			want:    scenario()[1:2],
		},
		{
			name:    "crlf terminated",
			content: "date,amount,category,description\r\n2024-01-01,1000,Salary,Jan pay\r\n",
			want:    scenario()[:2],
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "transactions.csv")
			writeFile(t, path, tt.content)

			mustAppend(t, mustOpen(t, path), scenario()[1])

			s := mustOpen(t, path)
			if r := s.LoadReport(); r.Skipped != 0 {
				t.Fatalf("skipped rows after append: %+v", r)
			}
			got := s.Transactions()
			if len(got) != len(tt.want) {
				t.Fatalf("loaded %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if !got[i].Equal(tt.want[i]) {
					t.Fatalf("tx %d: got %v want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestEscapeField(t *testing.T) {
	tests := []struct {
		in     string
		stored string
	}{
		{"plain", "plain"},
		{"a\r\nb", "a\\r\nb"},
		{`back\slash`, `back\\slash`},
		{`\r`, `\\r`},
	}

	for _, tt := range tests {
		if got := escapeField(tt.in); got != tt.stored {
			t.Errorf("escapeField(%q) = %q, want %q", tt.in, got, tt.stored)
		}
		if got := unescapeField(tt.stored); got != tt.in {
			t.Errorf("unescapeField(%q) = %q, want %q", tt.stored, got, tt.in)
		}
	}

	// Backslashes written by other tools survive unless they form an escape
	if got := unescapeField(`C:\temp`); got != `C:\temp` {
		t.Errorf("unescapeField kept %q", got)
	}
}
