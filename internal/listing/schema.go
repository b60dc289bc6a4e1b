// Package listing derives filtered, sorted and paged views over in-memory
// collections. Every function here is pure: sources are never modified.
package listing

import (
	"errors"
	"fmt"
)

// ErrUnknownField is returned when a query names a field the schema does not
// register, or uses a field in a way its kind does not support
var ErrUnknownField = errors.New("unknown listing field")

// DefaultPageSize is the page size for every list view
const DefaultPageSize = 10

type fieldKind int

const (
	kindString fieldKind = iota
	kindNumber
	kindEnum
	kindEnumSet
)

func (k fieldKind) String() string {
	switch k {
	case kindString:
		return "string"
	case kindNumber:
		return "number"
	case kindEnum:
		return "enum"
	default:
		return "enum set"
	}
}

type field[T any] struct {
	name string
	kind fieldKind
	text func(T) string
	num  func(T) float64
	set  func(T) []string
}

// Schema registers the filterable and sortable fields of a record type
type Schema[T any] struct {
	fields   map[string]field[T]
	order    []string
	pageSize int
}

// NewSchema creates an empty schema using the given page size
func NewSchema[T any](pageSize int) *Schema[T] {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	return &Schema[T]{
		fields:   make(map[string]field[T]),
		pageSize: pageSize,
	}
}

// String registers a field matched by case-insensitive substring and sorted
// by collation
func (s *Schema[T]) String(name string, get func(T) string) *Schema[T] {
	return s.register(field[T]{name: name, kind: kindString, text: get})
}

// Number registers a field matched by inclusive range and sorted numerically
func (s *Schema[T]) Number(name string, get func(T) float64) *Schema[T] {
	return s.register(field[T]{name: name, kind: kindNumber, num: get})
}

// Enum registers a field matched by exact equality
func (s *Schema[T]) Enum(name string, get func(T) string) *Schema[T] {
	return s.register(field[T]{name: name, kind: kindEnum, text: get})
}

// EnumSet registers a multi-valued field; a record matches when any of its
// values equals the selected one. Set fields cannot be sorted.
func (s *Schema[T]) EnumSet(name string, get func(T) []string) *Schema[T] {
	return s.register(field[T]{name: name, kind: kindEnumSet, set: get})
}

func (s *Schema[T]) register(f field[T]) *Schema[T] {
	if _, exists := s.fields[f.name]; !exists {
		s.order = append(s.order, f.name)
	}
	s.fields[f.name] = f
	return s
}

// PageSize returns the fixed page size of this view
func (s *Schema[T]) PageSize() int {
	return s.pageSize
}

func (s *Schema[T]) lookup(name string, allowed ...fieldKind) (field[T], error) {
	f, ok := s.fields[name]
	if !ok {
		return field[T]{}, fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	for _, kind := range allowed {
		if f.kind == kind {
			return f, nil
		}
	}
	return field[T]{}, fmt.Errorf("%w: %q is a %s field", ErrUnknownField, name, f.kind)
}
