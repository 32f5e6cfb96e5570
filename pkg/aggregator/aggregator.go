// Package aggregator provides the registry of reducers used by group-by to
// collapse every bucket of rows into one value per column.
//
// A Method is a named function object that declares the inputs it consumes.
// The registry checks the declared arity before dispatching, so reducers
// never have to inspect their own argument counts:
//
//	reg := aggregator.NewRegistry()
//	total, err := reg.Aggregate("sum", 1, 2) // 3
//
//	_ = reg.RegisterFunc("first", func(acc, _ interface{}) (interface{}, error) {
//	    return acc, nil
//	})
package aggregator

import (
	"sort"
	"sync"

	"github.com/ajitpratap0/tabula/pkg/errors"
	"github.com/ajitpratap0/tabula/pkg/value"
)

// Input identifies what a reducer argument position receives during a fold
type Input int

const (
	// InputAccumulator is the value folded so far
	InputAccumulator Input = iota
	// InputCount is the number of values already folded into the accumulator
	InputCount
	// InputValue is the next value to fold in
	InputValue
)

func (in Input) String() string {
	switch in {
	case InputAccumulator:
		return "accumulator"
	case InputCount:
		return "count"
	case InputValue:
		return "value"
	default:
		return "unknown"
	}
}

// Reducer combines its arguments into one value
type Reducer func(args ...interface{}) (interface{}, error)

// Method is a named reducer together with the inputs it requires
type Method struct {
	Name   string
	Inputs []Input
	Fn     Reducer
}

// Arity is the number of arguments the reducer requires
func (m Method) Arity() int {
	return len(m.Inputs)
}

// Built-in method names
const (
	Sum     = "sum"
	Average = "average"
	Min     = "min"
	Max     = "max"
)

// Registry maps method names to reducers
type Registry struct {
	mu      sync.RWMutex
	methods map[string]Method
}

// NewRegistry creates a registry holding the built-in methods
func NewRegistry() *Registry {
	r := &Registry{methods: make(map[string]Method)}
	for _, m := range builtins() {
		r.methods[m.Name] = m
	}
	return r
}

var (
	defaultRegistry *Registry
	defaultOnce     sync.Once
)

// Default returns a shared registry for callers that do not supply their own
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

func builtins() []Method {
	binary := []Input{InputAccumulator, InputValue}
	return []Method{
		{
			Name:   Sum,
			Inputs: binary,
			Fn: func(args ...interface{}) (interface{}, error) {
				return value.Add(args[0], args[1])
			},
		},
		{
			Name:   Average,
			Inputs: []Input{InputAccumulator, InputCount, InputValue},
			Fn:     average,
		},
		{
			Name:   Min,
			Inputs: binary,
			Fn: func(args ...interface{}) (interface{}, error) {
				return value.Min(args[0], args[1]), nil
			},
		},
		{
			Name:   Max,
			Inputs: binary,
			Fn: func(args ...interface{}) (interface{}, error) {
				return value.Max(args[0], args[1]), nil
			},
		},
	}
}

// average computes ((avg * count) + v) / (count + 1) in the numeric domain
// of its operands
func average(args ...interface{}) (interface{}, error) {
	avg, count, v := args[0], args[1], args[2]

	total, err := value.Mul(avg, count)
	if err != nil {
		return nil, err
	}
	total, err = value.Add(total, v)
	if err != nil {
		return nil, err
	}
	n, err := value.Add(count, 1)
	if err != nil {
		return nil, err
	}
	return value.Div(total, n)
}

// Register adds or replaces a method
func (r *Registry) Register(m Method) error {
	if m.Name == "" {
		return errors.New(errors.ErrorTypeValidation, "aggregation method name cannot be empty")
	}
	if m.Fn == nil {
		return errors.New(errors.ErrorTypeValidation, "aggregation method has no reducer").
			WithDetail("method", m.Name)
	}
	if m.Arity() == 0 {
		return errors.New(errors.ErrorTypeValidation, "aggregation method must declare at least one input").
			WithDetail("method", m.Name)
	}

	inputs := make([]Input, len(m.Inputs))
	copy(inputs, m.Inputs)
	m.Inputs = inputs

	r.mu.Lock()
	defer r.mu.Unlock()
	r.methods[m.Name] = m
	return nil
}

// RegisterFunc registers a binary reducer over (accumulator, next value)
func (r *Registry) RegisterFunc(name string, fn func(acc, v interface{}) (interface{}, error)) error {
	if fn == nil {
		return r.Register(Method{Name: name, Inputs: []Input{InputAccumulator, InputValue}})
	}
	return r.Register(Method{
		Name:   name,
		Inputs: []Input{InputAccumulator, InputValue},
		Fn: func(args ...interface{}) (interface{}, error) {
			return fn(args[0], args[1])
		},
	})
}

// Has reports whether a method is registered under name
func (r *Registry) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// Get returns the method registered under name
func (r *Registry) Get(name string) (Method, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.methods[name]
	return m, ok
}

// Names returns every registered method name, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.methods))
	for name := range r.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Aggregate calls the named reducer with the first Arity() arguments.
// Extra arguments are ignored; fewer than Arity() is an error.
func (r *Registry) Aggregate(method string, args ...interface{}) (interface{}, error) {
	m, ok := r.Get(method)
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeAggregator, "unknown aggregation method %q", method)
	}

	if len(args) < m.Arity() {
		return nil, errors.New(errors.ErrorTypeAggregator,
			"the number of arguments passed in does not match the number of arguments required by the chosen aggregation method").
			WithDetail("method", method).
			WithDetail("required", m.Arity()).
			WithDetail("supplied", len(args))
	}

	result, err := m.Fn(args[:m.Arity()]...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeAggregator, "aggregation failed").
			WithDetail("method", method)
	}
	return result, nil
}

// Fold reduces values to one using the named method. The first value seeds
// the accumulator; each later value is combined with it in turn. An empty
// slice folds to nil.
func (r *Registry) Fold(method string, values []interface{}) (interface{}, error) {
	m, ok := r.Get(method)
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeAggregator, "unknown aggregation method %q", method)
	}
	if len(values) == 0 {
		return nil, nil
	}

	acc := values[0]
	args := make([]interface{}, m.Arity())
	for count := 1; count < len(values); count++ {
		for i, in := range m.Inputs {
			switch in {
			case InputAccumulator:
				args[i] = acc
			case InputCount:
				args[i] = count
			case InputValue:
				args[i] = values[count]
			}
		}

		next, err := r.Aggregate(method, args...)
		if err != nil {
			return nil, err
		}
		acc = next
	}
	return acc, nil
}
