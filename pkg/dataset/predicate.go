package dataset

import (
	"fmt"
	"reflect"
	"runtime"
	"time"

	"github.com/spf13/cast"

	"github.com/ajitpratap0/tabula/pkg/errors"
)

var (
	boolType = reflect.TypeOf(false)
	timeType = reflect.TypeOf(time.Time{})
)

// Predicate is a filter function object. It always takes exactly one value
// and reports whether the row holding that value is kept.
type Predicate struct {
	name string
	fn   reflect.Value
	in   reflect.Type
}

// NewPredicate wraps fn, which must be a func with exactly one parameter and
// a single bool result, e.g. func(v int) bool or func(v interface{}) bool.
// Passing an existing *Predicate returns it unchanged.
func NewPredicate(fn interface{}) (*Predicate, error) {
	if p, ok := fn.(*Predicate); ok {
		if p == nil {
			return nil, errors.New(errors.ErrorTypeInvalidDataset, "the proc used to filter a dataset was nil")
		}
		return p, nil
	}
	if fn == nil {
		return nil, errors.New(errors.ErrorTypeInvalidDataset, "the proc used to filter a dataset was nil")
	}

	v := reflect.ValueOf(fn)
	t := v.Type()
	if t.Kind() != reflect.Func || v.IsNil() {
		return nil, errors.Newf(errors.ErrorTypeInvalidDataset,
			"the proc used to filter a dataset was not a function: %T", fn)
	}
	if t.NumIn() != 1 || t.IsVariadic() || t.NumOut() != 1 || t.Out(0) != boolType {
		return nil, errors.Newf(errors.ErrorTypeInvalidDataset,
			"the proc used to filter a dataset must take one value and return bool, got %s", t).
			WithDetail("arity", t.NumIn())
	}

	return &Predicate{
		name: runtime.FuncForPC(v.Pointer()).Name(),
		fn:   v,
		in:   t.In(0),
	}, nil
}

// MustPredicate is like NewPredicate but panics on an invalid function
func MustPredicate(fn interface{}) *Predicate {
	p, err := NewPredicate(fn)
	if err != nil {
		panic(err)
	}
	return p
}

// Name is the Go symbol of the wrapped function
func (p *Predicate) Name() string {
	return p.name
}

// Arity is always 1
func (p *Predicate) Arity() int {
	return 1
}

// Keep evaluates the predicate for v. When v is not directly assignable to
// the parameter type it is converted with cast; a failed conversion is an
// InvalidDataset error.
func (p *Predicate) Keep(v interface{}) (bool, error) {
	arg, err := p.argument(v)
	if err != nil {
		return false, err
	}
	out := p.fn.Call([]reflect.Value{arg})
	return out[0].Bool(), nil
}

func (p *Predicate) argument(v interface{}) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(p.in), nil
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(p.in) {
		return rv, nil
	}

	converted, err := convert(v, p.in)
	if err != nil {
		return reflect.Value{}, errors.Wrap(err, errors.ErrorTypeInvalidDataset,
			fmt.Sprintf("filter %s cannot accept value %v (%T)", p.name, v, v))
	}
	return converted, nil
}

func convert(v interface{}, to reflect.Type) (reflect.Value, error) {
	var (
		out interface{}
		err error
	)

	switch to.Kind() {
	case reflect.String:
		out, err = cast.ToStringE(v)
	case reflect.Bool:
		out, err = cast.ToBoolE(v)
	case reflect.Int:
		out, err = cast.ToIntE(v)
	case reflect.Int8:
		out, err = cast.ToInt8E(v)
	case reflect.Int16:
		out, err = cast.ToInt16E(v)
	case reflect.Int32:
		out, err = cast.ToInt32E(v)
	case reflect.Int64:
		out, err = cast.ToInt64E(v)
	case reflect.Uint:
		out, err = cast.ToUintE(v)
	case reflect.Uint8:
		out, err = cast.ToUint8E(v)
	case reflect.Uint16:
		out, err = cast.ToUint16E(v)
	case reflect.Uint32:
		out, err = cast.ToUint32E(v)
	case reflect.Uint64:
		out, err = cast.ToUint64E(v)
	case reflect.Float32:
		out, err = cast.ToFloat32E(v)
	case reflect.Float64:
		out, err = cast.ToFloat64E(v)
	case reflect.Struct:
		if to != timeType {
			return reflect.Value{}, fmt.Errorf("unsupported parameter type %s", to)
		}
		out, err = cast.ToTimeE(v)
	default:
		rv := reflect.ValueOf(v)
		if rv.Type().ConvertibleTo(to) {
			return rv.Convert(to), nil
		}
		return reflect.Value{}, fmt.Errorf("unsupported parameter type %s", to)
	}
	if err != nil {
		return reflect.Value{}, err
	}

	// named types such as type Status string
	return reflect.ValueOf(out).Convert(to), nil
}
