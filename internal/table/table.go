// Package table binds typed records to named columns so that aggregations can
// address "director" or "runtime" without knowing the record type.
//
// A Schema is declared once per record type; Bind wraps a slice of records
// without copying them. Tables are read-only: every operation that selects
// rows returns a new Table and leaves the receiver untouched.
package table

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rewired-gh/cinestat/internal/models"
)

// ErrUnknownColumn is returned when a column name is not registered in the schema.
var ErrUnknownColumn = errors.New("unknown column")

// CategoryFunc reads a categorical value. An empty string means missing.
type CategoryFunc[T any] func(T) string

// NumberFunc reads a numeric measure.
type NumberFunc[T any] func(T) models.Number

// Schema maps column names to accessors for record type T.
type Schema[T any] struct {
	order      []string
	categories map[string]CategoryFunc[T]
	numbers    map[string]NumberFunc[T]
}

// NewSchema creates an empty schema for T.
func NewSchema[T any]() *Schema[T] {
	return &Schema[T]{
		categories: make(map[string]CategoryFunc[T]),
		numbers:    make(map[string]NumberFunc[T]),
	}
}

// Category registers a categorical column.
func (s *Schema[T]) Category(name string, fn CategoryFunc[T]) *Schema[T] {
	s.register(name)
	delete(s.numbers, name)
	s.categories[name] = fn
	return s
}

// Number registers a numeric column.
func (s *Schema[T]) Number(name string, fn NumberFunc[T]) *Schema[T] {
	s.register(name)
	delete(s.categories, name)
	s.numbers[name] = fn
	return s
}

func (s *Schema[T]) register(name string) {
	_, isCat := s.categories[name]
	_, isNum := s.numbers[name]
	if !isCat && !isNum {
		s.order = append(s.order, name)
	}
}

// Columns returns the registered column names in registration order.
func (s *Schema[T]) Columns() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Bind wraps rows in a Table. The slice is not copied.
func (s *Schema[T]) Bind(rows []T) *Table[T] {
	return &Table[T]{schema: s, rows: rows}
}

// Table is a read-only view of typed records with named columns.
type Table[T any] struct {
	schema *Schema[T]
	rows   []T
}

// Len returns the number of records.
func (t *Table[T]) Len() int { return len(t.rows) }

// Row returns record i.
func (t *Table[T]) Row(i int) T { return t.rows[i] }

// Rows returns a copy of the records.
func (t *Table[T]) Rows() []T {
	out := make([]T, len(t.rows))
	copy(out, t.rows)
	return out
}

// Schema returns the table's schema.
func (t *Table[T]) Schema() *Schema[T] { return t.schema }

// CategoryColumn returns the accessor for a categorical column.
// Values are trimmed; blank values read as missing.
func (t *Table[T]) CategoryColumn(name string) (func(T) (string, bool), error) {
	fn, ok := t.schema.categories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a categorical column", ErrUnknownColumn, name)
	}
	return func(row T) (string, bool) {
		v := strings.TrimSpace(fn(row))
		return v, v != ""
	}, nil
}

// NumberColumn returns the accessor for a numeric column.
func (t *Table[T]) NumberColumn(name string) (NumberFunc[T], error) {
	fn, ok := t.schema.numbers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a numeric column", ErrUnknownColumn, name)
	}
	return fn, nil
}

// IsCategory reports whether name is a registered categorical column.
func (t *Table[T]) IsCategory(name string) bool {
	_, ok := t.schema.categories[name]
	return ok
}

// IsNumber reports whether name is a registered numeric column.
func (t *Table[T]) IsNumber(name string) bool {
	_, ok := t.schema.numbers[name]
	return ok
}

// Present reports whether a column holds a value in row. Unknown columns
// return an error.
func (t *Table[T]) Present(row T, name string) (bool, error) {
	if fn, ok := t.schema.categories[name]; ok {
		return strings.TrimSpace(fn(row)) != "", nil
	}
	if fn, ok := t.schema.numbers[name]; ok {
		return fn(row).Valid, nil
	}
	return false, fmt.Errorf("%w: %s", ErrUnknownColumn, name)
}

// Where returns a new table with the rows matching keep, in original order.
func (t *Table[T]) Where(keep func(T) bool) *Table[T] {
	out := make([]T, 0, len(t.rows))
	for _, r := range t.rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	return &Table[T]{schema: t.schema, rows: out}
}

// Values extracts a numeric column in row order.
func (t *Table[T]) Values(name string) ([]models.Number, error) {
	fn, err := t.NumberColumn(name)
	if err != nil {
		return nil, err
	}
	out := make([]models.Number, len(t.rows))
	for i, r := range t.rows {
		out[i] = fn(r)
	}
	return out, nil
}

// Distinct returns the number of distinct non-missing values of a categorical column.
func (t *Table[T]) Distinct(name string) (int, error) {
	fn, err := t.CategoryColumn(name)
	if err != nil {
		return 0, err
	}
	seen := make(map[string]struct{})
	for _, r := range t.rows {
		if v, ok := fn(r); ok {
			seen[v] = struct{}{}
		}
	}
	return len(seen), nil
}
