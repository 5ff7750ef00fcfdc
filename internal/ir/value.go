package ir

import (
	"slices"
	"strconv"
	"unicode/utf16"
)

// Value is a sealed interface over the value kinds a record projection may
// contain. Only the types in this file implement it.
type Value interface {
	irValue()
}

// Null is a JSON null. Absent geolocation projects to Null.
type Null struct{}

func (Null) irValue() {}

// String is a string value.
type String string

func (String) irValue() {}

// Int is an integer value.
type Int int64

func (Int) irValue() {}

// Bool is a boolean value.
type Bool bool

func (Bool) irValue() {}

// Decimal is a number carried as its shortest round-trip decimal text.
// It serializes as a JSON string so the digest never depends on float
// formatting differences.
type Decimal string

func (Decimal) irValue() {}

// NewDecimal formats f with the minimum digits needed to round-trip.
func NewDecimal(f float64) Decimal {
	return Decimal(strconv.FormatFloat(f, 'f', -1, 64))
}

// Array is an ordered list of values.
type Array []Value

func (Array) irValue() {}

// Object maps keys to values. Use SortedKeys for deterministic iteration.
type Object map[string]Value

func (Object) irValue() {}

// SortedKeys returns keys in RFC 8785 order (UTF-16 code units).
// sort.Strings compares UTF-8 bytes, which orders supplementary-plane
// characters differently.
func (obj Object) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)
	return keys
}

func compareUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	return slices.Compare(a16, b16)
}

// OptString returns String(s), or Null when s is nil.
func OptString(s *string) Value {
	if s == nil {
		return Null{}
	}
	return String(*s)
}

// OptDecimal returns NewDecimal(*f), or Null when f is nil.
func OptDecimal(f *float64) Value {
	if f == nil {
		return Null{}
	}
	return NewDecimal(*f)
}
