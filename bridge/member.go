package bridge

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/bronystylecrazy/testbridge/internal/reflectx"
	"go.uber.org/zap"
)

// access reads a member directly and falls back to an unlocked view once
// direct access has failed. The fallback stays in place for the member.
type access struct {
	member   string
	log      *zap.Logger
	once     sync.Once
	elevated atomic.Bool
}

func newAccess(member string, log *zap.Logger) *access {
	return &access{member: member, log: log}
}

func (a *access) view(v reflect.Value) (reflect.Value, error) {
	if !a.elevated.Load() {
		if v.CanInterface() {
			return v, nil
		}
		a.once.Do(func() {
			a.log.Debug("elevating member access", zap.String("member", a.member))
			a.elevated.Store(true)
		})
	}
	return reflectx.Unlock(v)
}

// receiver returns the value a declared method is invoked on.
func receiver(root reflect.Value, m MethodMember, acc *access) (reflect.Value, error) {
	lv, err := reflectx.LevelValue(root, m.Level)
	if err != nil {
		return reflect.Value{}, err
	}
	if lv, err = acc.view(lv); err != nil {
		return reflect.Value{}, err
	}
	if m.Receiver.Kind() == reflect.Pointer {
		return lv.Addr(), nil
	}
	return lv, nil
}

// call invokes fn and turns panics and returned errors into member errors.
func call(member, op string, fn reflect.Value, args []reflect.Value) (results []reflect.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			results = nil
			err = memberErr(member, op, fmt.Errorf("%w: panic: %v", ErrInvocation, r))
		}
	}()
	results = fn.Call(args)
	if n := len(results); n > 0 && results[n-1].Type() == errorType && !results[n-1].IsNil() {
		return nil, memberErr(member, op, fmt.Errorf("%w: %w", ErrInvocation, results[n-1].Interface().(error)))
	}
	return results, nil
}

// valueOf converts v into a value of type t; nil becomes the zero value.
func valueOf(v any, t reflect.Type) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(t), nil
	}
	rv := reflect.ValueOf(v)
	if !rv.Type().AssignableTo(t) {
		return reflect.Value{}, fmt.Errorf("%s is not assignable to %s", rv.Type(), t)
	}
	if rv.Type() != t {
		out := reflect.New(t).Elem()
		out.Set(rv)
		rv = out
	}
	return rv, nil
}
