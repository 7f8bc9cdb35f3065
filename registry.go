package byplay

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/domonda/go-errs"
	gotypes "github.com/domonda/go-types"
	"github.com/domonda/go-types/notnull"
)

// Func is the shape every registered callable has: a job context followed
// by the positional argument list deserialized from the args column.
// Hosts that want typed, positional parameters instead of []any should
// register through RegisterFunc.
type Func func(ctx context.Context, jc *JobContext, args []any) error

var (
	registryMtx sync.RWMutex
	registry    = map[string]Func{}
)

// Register associates a job identifier with the callable the executor
// invokes when it reserves a row with that identifier. Registering the
// same identifier twice panics: this is code/data drift, caught at
// startup rather than papered over.
func Register(jobIdentifier string, fn Func) {
	if jobIdentifier == "" {
		panic(fmt.Errorf("byplay: empty job identifier"))
	}
	if fn == nil {
		panic(fmt.Errorf("byplay: nil Func for job identifier %q", jobIdentifier))
	}

	registryMtx.Lock()
	defer registryMtx.Unlock()

	if _, exists := registry[jobIdentifier]; exists {
		panic(fmt.Errorf("byplay: a callable for job identifier %q has already been registered", jobIdentifier))
	}
	registry[jobIdentifier] = fn
}

// IsRegistered reports whether a callable is registered for jobIdentifier.
func IsRegistered(jobIdentifier string) bool {
	registryMtx.RLock()
	defer registryMtx.RUnlock()

	return registry[jobIdentifier] != nil
}

// Unregister removes callables for the given job identifiers, or every
// registered callable if none are given. Intended for test teardown.
func Unregister(jobIdentifiers ...string) {
	registryMtx.Lock()
	defer registryMtx.Unlock()

	if len(jobIdentifiers) > 0 {
		for _, id := range jobIdentifiers {
			delete(registry, id)
		}
		return
	}
	for id := range registry {
		delete(registry, id)
	}
}

// lookup resolves a job identifier against the registry. A miss is a
// precondition violation: see ErrJobNotRegistered.
func lookup(jobIdentifier string) (Func, error) {
	registryMtx.RLock()
	defer registryMtx.RUnlock()

	fn, ok := registry[jobIdentifier]
	if !ok {
		return nil, errs.Errorf("%w: %q", ErrJobNotRegistered, jobIdentifier)
	}
	return fn, nil
}

var typeOfError = reflect.TypeOf((*error)(nil)).Elem()
var typeOfContext = reflect.TypeOf((*context.Context)(nil)).Elem()
var typeOfJobContext = reflect.TypeOf((*JobContext)(nil))

// RegisterFunc uses reflection to register a typed function as the
// callable for jobIdentifier. workerFunc's signature must be
//
//	func(context.Context, *JobContext, A1, A2, ...) error
//
// where every Ai can be unmarshalled from JSON. The args column's JSON
// array is unmarshalled positionally, one element per Ai, before the
// call; this spares hosts the []any type assertions Func otherwise
// requires.
func RegisterFunc(jobIdentifier string, workerFunc any) {
	defer errs.LogPanicWithFuncParams(log.ErrorWriter(), jobIdentifier, workerFunc)

	fnVal := reflect.ValueOf(workerFunc)
	fnType := fnVal.Type()
	if fnType.Kind() != reflect.Func {
		panic(fmt.Errorf("byplay: workerFunc is not a function but %T", workerFunc))
	}
	if fnType.NumIn() < 2 || fnType.In(0) != typeOfContext || fnType.In(1) != typeOfJobContext {
		panic(fmt.Errorf("byplay: workerFunc must begin with (context.Context, *byplay.JobContext), has %s", fnType))
	}
	if fnType.NumOut() != 1 || fnType.Out(0) != typeOfError {
		panic(fmt.Errorf("byplay: workerFunc must return exactly one error, has %s", fnType))
	}

	argTypes := make([]reflect.Type, fnType.NumIn()-2)
	for i := range argTypes {
		argType := fnType.In(i + 2)
		kind := argType.Kind()
		isScalar := (kind >= reflect.Bool && kind <= reflect.Float64) || kind == reflect.String
		if !isScalar && !gotypes.CanMarshalJSON(argType) {
			panic(fmt.Errorf("byplay: workerFunc argument %d has type %s which can't be unmarshalled from JSON", i, argType))
		}
		argTypes[i] = argType
	}

	Register(jobIdentifier, func(ctx context.Context, jc *JobContext, args []any) error {
		if len(args) != len(argTypes) {
			return errs.Errorf("byplay: job %q expects %d args, got %d", jobIdentifier, len(argTypes), len(args))
		}
		in := make([]reflect.Value, 0, len(args)+2)
		in = append(in, reflect.ValueOf(ctx), reflect.ValueOf(jc))
		for i, argType := range argTypes {
			argPtr := reflect.New(argType)
			raw, err := notnull.MarshalJSON(args[i])
			if err != nil {
				return errs.Errorf("byplay: re-marshal job arg %d: %w", i, err)
			}
			if err := raw.UnmarshalTo(argPtr.Interface()); err != nil {
				return errs.Errorf("byplay: unmarshal job arg %d into %s: %w", i, argType, err)
			}
			in = append(in, argPtr.Elem())
		}
		out := fnVal.Call(in)
		return errs.AsError(out[0].Interface())
	})
}
