package core

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Field names of a serialized transaction, in storage order.
const (
	FieldDate        = "date"
	FieldAmount      = "amount"
	FieldCategory    = "category"
	FieldDescription = "description"
)

// FieldNames is the fixed column order used by every encoding of a transaction.
var FieldNames = []string{FieldDate, FieldAmount, FieldCategory, FieldDescription}

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrMissingField  = errors.New("missing field")
)

// Amount lists the types a transaction amount can be built from.
type Amount interface {
	string | float64 | int | int64 | decimal.Decimal
}

// Transaction is a single ledger entry. A positive amount is income, a
// negative amount is an expense. The date is kept exactly as entered.
type Transaction struct {
	date        string
	amount      decimal.Decimal
	category    string
	description string
}

// NewTransaction builds a transaction. It fails with ErrInvalidAmount when the
// amount is not a finite decimal number; nothing else is validated.
func NewTransaction[T Amount](date string, amount T, category, description string) (Transaction, error) {
	value, err := toDecimal(amount)
	if err != nil {
		return Transaction{}, err
	}
	return Transaction{
		date:        date,
		amount:      value,
		category:    category,
		description: description,
	}, nil
}

// MustTransaction is like NewTransaction but panics on error. Meant for tests
// and constant data.
func MustTransaction[T Amount](date string, amount T, category, description string) Transaction {
	tx, err := NewTransaction(date, amount, category, description)
	if err != nil {
		panic(err)
	}
	return tx
}

func (t Transaction) Date() string            { return t.date }
func (t Transaction) Amount() decimal.Decimal { return t.amount }
func (t Transaction) Category() string        { return t.category }
func (t Transaction) Description() string     { return t.description }

// Equal reports whether both transactions carry the same fields. Amounts are
// compared numerically, so 1.5 equals 1.50.
func (t Transaction) Equal(o Transaction) bool {
	return t.date == o.date &&
		t.amount.Equal(o.amount) &&
		t.category == o.category &&
		t.description == o.description
}

// Fields returns the serialized values in FieldNames order.
func (t Transaction) Fields() []string {
	return []string{t.date, FormatAmount(t.amount), t.category, t.description}
}

// Record returns the serialized values keyed by field name.
func (t Transaction) Record() map[string]string {
	fields := t.Fields()
	rec := make(map[string]string, len(FieldNames))
	for i, name := range FieldNames {
		rec[name] = fields[i]
	}
	return rec
}

func (t Transaction) String() string {
	return fmt.Sprintf("%s %s %s %q", t.date, FormatAmount(t.amount), t.category, t.description)
}

// FromRecord is the inverse of Record. A record lacking one of FieldNames
// fails with ErrMissingField, an unparseable amount with ErrInvalidAmount.
func FromRecord(rec map[string]string) (Transaction, error) {
	for _, name := range FieldNames {
		if _, ok := rec[name]; !ok {
			return Transaction{}, fmt.Errorf("%w: %s", ErrMissingField, name)
		}
	}
	return NewTransaction(rec[FieldDate], rec[FieldAmount], rec[FieldCategory], rec[FieldDescription])
}
