package value

import (
	"math"

	"github.com/spf13/cast"

	"github.com/ajitpratap0/tabula/pkg/errors"
)

// Add returns a+b. Integers stay integers, any float operand promotes the
// result to float, and two strings concatenate.
func Add(a, b interface{}) (interface{}, error) {
	if sa, ok := a.(string); ok {
		if sb, ok := b.(string); ok {
			return sa + sb, nil
		}
	}
	return arith("add", a, b,
		func(x, y int64) (int64, error) { return x + y, nil },
		func(x, y float64) float64 { return x + y })
}

// Mul returns a*b over numbers
func Mul(a, b interface{}) (interface{}, error) {
	return arith("multiply", a, b,
		func(x, y int64) (int64, error) { return x * y, nil },
		func(x, y float64) float64 { return x * y })
}

// Div returns a/b over numbers. Integer division truncates toward zero and
// fails on a zero divisor; float division follows IEEE 754.
func Div(a, b interface{}) (interface{}, error) {
	return arith("divide", a, b,
		func(x, y int64) (int64, error) {
			if y == 0 {
				return 0, errors.New(errors.ErrorTypeData, "integer division by zero")
			}
			return x / y, nil
		},
		func(x, y float64) float64 { return x / y })
}

// Min returns whichever of a and b orders first; a wins ties
func Min(a, b interface{}) interface{} {
	if Compare(b, a) < 0 {
		return b
	}
	return a
}

// Max returns whichever of a and b orders last; a wins ties
func Max(a, b interface{}) interface{} {
	if Compare(b, a) > 0 {
		return b
	}
	return a
}

func arith(op string, a, b interface{}, ints func(x, y int64) (int64, error), floats func(x, y float64) float64) (interface{}, error) {
	ka, kb := KindOf(a), KindOf(b)
	if !IsNumeric(a) || !IsNumeric(b) {
		return nil, errors.Newf(errors.ErrorTypeData, "cannot %s %T and %T", op, a, b).
			WithDetail("left", a).
			WithDetail("right", b)
	}

	if ka != KindFloat && kb != KindFloat {
		x, err := cast.ToInt64E(a)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "invalid integer operand")
		}
		y, err := cast.ToInt64E(b)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "invalid integer operand")
		}
		n, err := ints(x, y)
		if err != nil {
			return nil, err
		}
		return intLike(n, a, b), nil
	}

	r := floats(cast.ToFloat64(a), cast.ToFloat64(b))
	_, fa := a.(float32)
	_, fb := b.(float32)
	if (fa || ka != KindFloat) && (fb || kb != KindFloat) {
		return float32(r), nil
	}
	return r, nil
}

// intLike converts n back to the Go type shared by a and b, so that summing
// two int8 values yields an int8. Results outside that type's range, and
// operands of different types, stay int64.
func intLike(n int64, a, b interface{}) interface{} {
	var (
		r  interface{}
		ok bool
	)
	switch a.(type) {
	case int:
		r, ok = narrow[int](n, b, math.MinInt, math.MaxInt)
	case int8:
		r, ok = narrow[int8](n, b, math.MinInt8, math.MaxInt8)
	case int16:
		r, ok = narrow[int16](n, b, math.MinInt16, math.MaxInt16)
	case int32:
		r, ok = narrow[int32](n, b, math.MinInt32, math.MaxInt32)
	case uint:
		r, ok = narrow[uint](n, b, 0, math.MaxInt64)
	case uint8:
		r, ok = narrow[uint8](n, b, 0, math.MaxUint8)
	case uint16:
		r, ok = narrow[uint16](n, b, 0, math.MaxUint16)
	case uint32:
		r, ok = narrow[uint32](n, b, 0, math.MaxUint32)
	case uint64:
		r, ok = narrow[uint64](n, b, 0, math.MaxInt64)
	}
	if !ok {
		return n
	}
	return r
}

func narrow[T int | int8 | int16 | int32 | uint | uint8 | uint16 | uint32 | uint64](n int64, b interface{}, lo, hi int64) (interface{}, bool) {
	if _, same := b.(T); !same || n < lo || n > hi {
		return nil, false
	}
	return T(n), true
}
