package safe

import (
	"fmt"
	"reflect"

	"PTalk/logger"
	"PTalk/tools/errs"

	"go.uber.org/zap"
)

// MustNotNil panics if the given value is nil.
// Useful for enforcing required dependencies during construction.
func MustNotNil(v any, name string) {
	if v == nil {
		panic(fmt.Sprintf("%s must not be nil", name))
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		if rv.IsNil() {
			panic(fmt.Sprintf("%s must not be nil", name))
		}
	}
}

// Go starts f in a new goroutine that recovers from panic, so a bad
// event cannot take the process down. onPanic, when set, receives the
// recovered value as an error.
func Go(name string, f func(), onPanic ...func(error)) {
	go func() {
		defer Recover(name, onPanic...)
		f()
	}()
}

// Recover is the deferred half of Go, for call sites that manage their own
// goroutine.
func Recover(name string, onPanic ...func(error)) {
	r := recover()
	if r == nil {
		return
	}
	err := errs.ErrPanic(r)
	logger.Error("[SafeGo] panic recovered", zap.String("task", name), zap.Any("recover", r), zap.Stack("stack"))
	for _, fn := range onPanic {
		if fn != nil {
			fn(err)
		}
	}
}
