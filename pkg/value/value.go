// Package value implements ordering, equality and arithmetic over the dynamic
// values stored in tabula columns.
//
// Columns hold interface{} values: CSV imports produce strings, programmatic
// inserts usually produce Go integers or floats. Sort-merge joins and group-by
// buckets need one total order across all of them, and the aggregator needs
// arithmetic that stays in the numeric domain of its operands (integer average
// truncates, float average does not).
package value

import (
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Kind groups values into ordering classes
type Kind int

const (
	KindNil Kind = iota
	KindBool
	KindInt
	KindUint
	KindFloat
	KindString
	KindTime
	KindOther
)

// KindOf classifies v
func KindOf(v interface{}) Kind {
	switch v.(type) {
	case nil:
		return KindNil
	case bool:
		return KindBool
	case int, int8, int16, int32, int64:
		return KindInt
	case uint, uint8, uint16, uint32, uint64:
		return KindUint
	case float32, float64:
		return KindFloat
	case string:
		return KindString
	case time.Time:
		return KindTime
	default:
		return KindOther
	}
}

// IsNumeric reports whether v is a Go integer or float
func IsNumeric(v interface{}) bool {
	switch KindOf(v) {
	case KindInt, KindUint, KindFloat:
		return true
	}
	return false
}

// rank orders kinds relative to each other; all numeric kinds share a rank
// so that 1, int64(1) and 1.0 compare equal.
func rank(k Kind) int {
	switch k {
	case KindNil:
		return 0
	case KindBool:
		return 1
	case KindInt, KindUint, KindFloat:
		return 2
	case KindString:
		return 3
	case KindTime:
		return 4
	default:
		return 5
	}
}

// Compare returns -1, 0 or +1. The order is total:
// nil < bool < numbers < strings < times < everything else.
func Compare(a, b interface{}) int {
	ka, kb := KindOf(a), KindOf(b)
	if ra, rb := rank(ka), rank(kb); ra != rb {
		return cmpInt(int64(ra), int64(rb))
	}

	switch ka {
	case KindNil:
		return 0
	case KindBool:
		ab, bb := a.(bool), b.(bool)
		switch {
		case ab == bb:
			return 0
		case !ab:
			return -1
		default:
			return 1
		}
	case KindInt, KindUint, KindFloat:
		return compareNumbers(a, b, ka, kb)
	case KindString:
		return strings.Compare(a.(string), b.(string))
	case KindTime:
		return a.(time.Time).Compare(b.(time.Time))
	default:
		return strings.Compare(fmt.Sprintf("%v", a), fmt.Sprintf("%v", b))
	}
}

// Equal reports whether Compare(a, b) == 0
func Equal(a, b interface{}) bool {
	return Compare(a, b) == 0
}

// Less reports whether a orders before b
func Less(a, b interface{}) bool {
	return Compare(a, b) < 0
}

func compareNumbers(a, b interface{}, ka, kb Kind) int {
	if ka == KindInt && kb == KindInt {
		return cmpInt(cast.ToInt64(a), cast.ToInt64(b))
	}
	if ka == KindUint && kb == KindUint {
		ua, ub := cast.ToUint64(a), cast.ToUint64(b)
		switch {
		case ua < ub:
			return -1
		case ua > ub:
			return 1
		}
		return 0
	}
	fa, fb := cast.ToFloat64(a), cast.ToFloat64(b)
	switch {
	case fa < fb:
		return -1
	case fa > fb:
		return 1
	case fa == fb:
		return 0
	}
	// NaN sorts before every other number and equals itself
	switch {
	case math.IsNaN(fa) && math.IsNaN(fb):
		return 0
	case math.IsNaN(fa):
		return -1
	default:
		return 1
	}
}

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

type timeKey int64

type formattedKey string

// nanKey stands in for every NaN, which Compare treats as equal
type nanKey struct{}

// Key returns a hashable representative of v such that Equal(a, b) implies
// Key(a) == Key(b) for the scalar kinds stored in columns.
func Key(v interface{}) interface{} {
	switch KindOf(v) {
	case KindInt:
		return cast.ToInt64(v)
	case KindUint:
		u := cast.ToUint64(v)
		if u <= math.MaxInt64 {
			return int64(u)
		}
		return u
	case KindFloat:
		f := cast.ToFloat64(v)
		if math.IsNaN(f) {
			return nanKey{}
		}
		if f == math.Trunc(f) && f >= math.MinInt64 && f <= math.MaxInt64 {
			return int64(f)
		}
		return f
	case KindTime:
		return timeKey(v.(time.Time).UnixNano())
	case KindOther:
		if reflect.TypeOf(v).Comparable() {
			return v
		}
		return formattedKey(fmt.Sprintf("%#v", v))
	default:
		return v
	}
}
