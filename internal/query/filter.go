package query

import (
	"strconv"
	"strings"

	"github.com/spf13/cast"

	"github.com/ajitpratap0/tabula/pkg/config"
	"github.com/ajitpratap0/tabula/pkg/dataset"
	"github.com/ajitpratap0/tabula/pkg/errors"
	"github.com/ajitpratap0/tabula/pkg/value"
)

// Compile turns a filter clause into a dataset predicate.
//
// Column values are compared to the operand with value.Compare, after
// aligning the two: numeric text is read as a number when the operand is a
// number, and a text operand is read as a time when the value is a time. nil
// values only satisfy eq against a nil operand and ne against anything else.
func Compile(f config.FilterConfig) (*dataset.Predicate, error) {
	var keep func(v interface{}) bool

	switch f.Op {
	case config.OpEq:
		keep = func(v interface{}) bool { return compare(v, f.Value) == 0 }
	case config.OpNe:
		keep = func(v interface{}) bool { return compare(v, f.Value) != 0 }
	case config.OpLt:
		keep = ordered(f.Value, func(c int) bool { return c < 0 })
	case config.OpLe:
		keep = ordered(f.Value, func(c int) bool { return c <= 0 })
	case config.OpGt:
		keep = ordered(f.Value, func(c int) bool { return c > 0 })
	case config.OpGe:
		keep = ordered(f.Value, func(c int) bool { return c >= 0 })
	case config.OpIn:
		values := f.Values
		keep = func(v interface{}) bool {
			for _, operand := range values {
				if compare(v, operand) == 0 {
					return true
				}
			}
			return false
		}
	case config.OpContains:
		needle := cast.ToString(f.Value)
		keep = textual(func(s string) bool { return strings.Contains(s, needle) })
	case config.OpPrefix:
		prefix := cast.ToString(f.Value)
		keep = textual(func(s string) bool { return strings.HasPrefix(s, prefix) })
	default:
		return nil, errors.Newf(errors.ErrorTypeConfig, "unknown filter operator %q", f.Op).
			WithDetail("table", f.Table).
			WithDetail("column", f.Column)
	}
	return dataset.NewPredicate(keep)
}

func ordered(operand interface{}, accept func(int) bool) func(interface{}) bool {
	return func(v interface{}) bool {
		if v == nil || operand == nil {
			return false
		}
		return accept(compare(v, operand))
	}
}

func textual(accept func(string) bool) func(interface{}) bool {
	return func(v interface{}) bool {
		if v == nil {
			return false
		}
		s, err := cast.ToStringE(v)
		if err != nil {
			return false
		}
		return accept(s)
	}
}

func compare(v, operand interface{}) int {
	v, operand = align(v, operand)
	return value.Compare(v, operand)
}

// align brings v and operand into the same kind where one is text
func align(v, operand interface{}) (interface{}, interface{}) {
	switch {
	case value.IsNumeric(operand) && value.KindOf(v) == value.KindString:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v.(string)), 64); err == nil {
			return f, operand
		}
	case value.KindOf(v) == value.KindTime && value.KindOf(operand) == value.KindString:
		if t, err := cast.ToTimeE(operand); err == nil {
			return v, t
		}
	case value.IsNumeric(v) && value.KindOf(operand) == value.KindString:
		if f, err := strconv.ParseFloat(strings.TrimSpace(operand.(string)), 64); err == nil {
			return v, f
		}
	}
	return v, operand
}
