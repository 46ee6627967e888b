package ledger

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"budget/internal/core"
)

// LoadReport tells how many rows of the durable store were decoded and how
// many were skipped as corrupt.
type LoadReport struct {
	Loaded      int
	Skipped     int
	SkippedRows []int // 1-based line numbers of skipped records, header is line 1
}

// EncodeRows writes txs as CSV rows, preceded by the header when withHeader
// is set. Everything is encoded in memory first and handed to w with a
// single Write, so w never sees a partial row.
func EncodeRows(w io.Writer, withHeader bool, txs ...core.Transaction) error {
	var buf bytes.Buffer
	if err := appendRows(&buf, withHeader, txs...); err != nil {
		return err
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return err
	}
	return nil
}

// appendRows encodes into buf. Text fields go through escapeField.
func appendRows(buf *bytes.Buffer, withHeader bool, txs ...core.Transaction) error {
	cw := csv.NewWriter(buf)
	if withHeader {
		if err := cw.Write(core.FieldNames); err != nil {
			return fmt.Errorf("encode header: %w", err)
		}
	}
	for _, tx := range txs {
		fields := tx.Fields()
		for i, name := range core.FieldNames {
			if name != core.FieldAmount {
				fields[i] = escapeField(fields[i])
			}
		}
		if err := cw.Write(fields); err != nil {
			return fmt.Errorf("encode row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("encode rows: %w", err)
	}
	return nil
}

// The CSV reader folds a quoted \r\n into \n, so carriage returns are stored
// as the two characters `\r` and backslashes are doubled.
var fieldEscaper = strings.NewReplacer(`\`, `\\`, "\r", `\r`)

func escapeField(s string) string {
	return fieldEscaper.Replace(s)
}

// unescapeField reverses escapeField. A backslash followed by anything other
// than a backslash or r is kept as is.
func unescapeField(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case '\\':
				b.WriteByte('\\')
				i++
				continue
			case 'r':
				b.WriteByte('\r')
				i++
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// Decode reads a header plus rows. Columns are matched by header name, so
// extra columns are ignored. A row that cannot be turned into a transaction
// is skipped and counted; only read failures of r abort the decoding.
func Decode(r io.Reader) ([]core.Transaction, LoadReport, error) {
	var report LoadReport
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, report, nil
	}
	if err != nil {
		return nil, report, fmt.Errorf("read header: %w", err)
	}
	columns := indexColumns(header)

	var txs []core.Transaction
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if !errors.As(err, &perr) {
				return nil, report, fmt.Errorf("read row: %w", err)
			}
			report.skip(perr.StartLine)
			continue
		}
		tx, err := decodeRow(columns, record)
		if err != nil {
			line, _ := cr.FieldPos(0)
			report.skip(line)
			continue
		}
		txs = append(txs, tx)
		report.Loaded++
	}
	return txs, report, nil
}

// decodeRow turns one CSV record into a transaction. Fields past the end of
// a short record are absent, not empty.
func decodeRow(columns map[string]int, record []string) (core.Transaction, error) {
	rec := make(map[string]string, len(core.FieldNames))
	for _, name := range core.FieldNames {
		i, ok := columns[name]
		if !ok || i >= len(record) {
			continue
		}
		if name == core.FieldAmount {
			rec[name] = record[i]
		} else {
			rec[name] = unescapeField(record[i])
		}
	}
	tx, err := core.FromRecord(rec)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("%w: %w", ErrCorruptRecord, err)
	}
	return tx, nil
}

func indexColumns(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		if _, dup := columns[name]; !dup {
			columns[name] = i
		}
	}
	return columns
}

func (r *LoadReport) skip(line int) {
	r.Skipped++
	r.SkippedRows = append(r.SkippedRows, line)
}
