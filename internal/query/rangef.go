package query

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Range is a closed interval [Min, Max]. A nil bound is unbounded.
type Range struct {
	Min *decimal.Decimal
	Max *decimal.Decimal
}

// NewRange builds a range from optional bounds.
func NewRange(min, max *decimal.Decimal) Range {
	return Range{Min: min, Max: max}
}

// Unbounded reports whether the range admits every value.
func (r Range) Unbounded() bool {
	return r.Min == nil && r.Max == nil
}

// Empty reports whether no value can satisfy the range, i.e. Min > Max.
func (r Range) Empty() bool {
	return r.Min != nil && r.Max != nil && r.Min.GreaterThan(*r.Max)
}

// Contains reports whether v lies within the range.
func (r Range) Contains(v decimal.Decimal) bool {
	if r.Min != nil && v.LessThan(*r.Min) {
		return false
	}
	if r.Max != nil && v.GreaterThan(*r.Max) {
		return false
	}
	return true
}

// ParseBound resolves user input for one side of a range. Blank or malformed
// input yields nil, which the range treats as unbounded.
func ParseBound(s string) *decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return &d
}
